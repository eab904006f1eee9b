package pipeline

import (
	"fmt"
	"strings"

	"github.com/matzehuels/supportree/pkg/core/support"
	"github.com/matzehuels/supportree/pkg/errors"
)

// Phase is one sweep of the escalation policy. The sweep runs only while
// fewer than Want candidates are known, and tries every depth from the
// policy's StartDepth to MaxDepth with quota max(1, n/QuotaDiv) until a
// search yields at least Want candidates.
type Phase struct {
	QuotaDiv int `json:"quota_div"`
	Want     int `json:"want"`
}

// Escalation widens the bounds until enough candidates appear. The last
// search of the last phase that ran decides the result.
type Escalation struct {
	StartDepth int     `json:"start_depth"`
	MaxDepth   int     `json:"max_depth"`
	Phases     []Phase `json:"phases"`
}

// DefaultEscalation first looks for any tree with a third of the regions on
// the first level and, if that gives fewer than two trees, starts over with
// half of them.
func DefaultEscalation() Escalation {
	return Escalation{
		StartDepth: 3,
		MaxDepth:   8,
		Phases: []Phase{
			{QuotaDiv: 3, Want: 1},
			{QuotaDiv: 2, Want: 2},
		},
	}
}

// Validate checks the policy.
func (e Escalation) Validate() error {
	if e.StartDepth < 1 || e.MaxDepth < e.StartDepth || e.MaxDepth > errors.MaxTreeDepth {
		return errors.New(errors.ErrCodeInvalidBounds, "escalation depths must satisfy 1 <= start (%d) <= max (%d) <= %d",
			e.StartDepth, e.MaxDepth, errors.MaxTreeDepth)
	}
	if len(e.Phases) == 0 {
		return errors.New(errors.ErrCodeInvalidBounds, "escalation needs at least one phase")
	}
	for i, p := range e.Phases {
		if p.QuotaDiv < 1 || p.Want < 1 {
			return errors.New(errors.ErrCodeInvalidBounds, "phase %d: quota_div and want must be positive", i)
		}
	}
	return nil
}

// String renders the policy compactly, e.g. "3..8[n/3>=1,n/2>=2]".
func (e Escalation) String() string {
	parts := make([]string, len(e.Phases))
	for i, p := range e.Phases {
		parts[i] = fmt.Sprintf("n/%d>=%d", p.QuotaDiv, p.Want)
	}
	return fmt.Sprintf("%d..%d[%s]", e.StartDepth, e.MaxDepth, strings.Join(parts, ","))
}

// attempt is one bounded search.
type attempt struct {
	bounds support.Bounds
	trees  [][]support.Pair
	stats  support.Stats
}

// searchFunc runs one bounded search.
type searchFunc func(support.Bounds) (attempt, error)

// run drives search through the phases for a graph with n nodes. It returns
// the deciding attempt and every attempt made, in order.
func (e Escalation) run(n int, search searchFunc) (attempt, []attempt, error) {
	var (
		best  *attempt
		tried []attempt
	)
	for _, ph := range e.Phases {
		if best != nil && len(best.trees) >= ph.Want {
			continue
		}
		quota := max(1, n/ph.QuotaDiv)

		var last attempt
		for d := e.StartDepth; d <= e.MaxDepth; d++ {
			a, err := search(support.Bounds{MaxDepth: d, L1Quota: quota})
			if err != nil {
				return attempt{}, tried, err
			}
			tried = append(tried, a)
			last = a
			if len(a.trees) >= ph.Want {
				break
			}
		}
		best = &last
	}
	return *best, tried, nil
}
