package pipeline

import (
	"testing"

	"github.com/matzehuels/supportree/pkg/core/support"
	"github.com/matzehuels/supportree/pkg/errors"
	"github.com/matzehuels/supportree/pkg/problem"
)

func boolPtr(v bool) *bool { return &v }

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"json", false},
		{"png", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestOptionsEscalating(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want bool
	}{
		{"zero options", Options{}, true},
		{"depth given", Options{MaxDepth: 4}, false},
		{"quota given", Options{L1Quota: 2}, false},
		{"explicit on with bounds", Options{MaxDepth: 4, Escalate: boolPtr(true)}, true},
		{"explicit off", Options{Escalate: boolPtr(false)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.Escalating(); got != tt.want {
				t.Errorf("Escalating() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOptionsMerge(t *testing.T) {
	opts := Options{MaxDepth: 5}
	opts.Merge(&problem.Search{MaxDepth: 3, L1Quota: 2, Escalate: boolPtr(false), MaxCandidates: 10})

	if opts.MaxDepth != 5 {
		t.Errorf("MaxDepth = %d, want caller value 5", opts.MaxDepth)
	}
	if opts.L1Quota != 2 || opts.MaxCandidates != 10 {
		t.Errorf("L1Quota/MaxCandidates = %d/%d, want 2/10", opts.L1Quota, opts.MaxCandidates)
	}
	if opts.Escalate == nil || *opts.Escalate {
		t.Errorf("Escalate = %v, want false from problem", opts.Escalate)
	}

	opts.Merge(nil)
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	opts.SetDefaults()

	if opts.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth should be %d, got %d", DefaultMaxDepth, opts.MaxDepth)
	}
	if opts.Escalate == nil || !*opts.Escalate {
		t.Error("zero options should escalate")
	}
	if opts.Escalation == nil || opts.Escalation.String() != DefaultEscalation().String() {
		t.Errorf("Escalation = %v, want default", opts.Escalation)
	}
	if opts.Workers < 1 {
		t.Errorf("Workers = %d, want >= 1", opts.Workers)
	}
	if opts.Logger == nil {
		t.Error("Logger not set")
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestOptionsDefaultsIdempotent(t *testing.T) {
	opts := Options{L1Quota: 3}
	opts.SetDefaults()
	first := opts
	opts.SetDefaults()

	if opts.MaxDepth != first.MaxDepth || *opts.Escalate != *first.Escalate || opts.Workers != first.Workers {
		t.Error("second SetDefaults changed options")
	}
	if *opts.Escalate {
		t.Error("quota given should keep fixed bounds")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"depth too large", Options{MaxDepth: errors.MaxTreeDepth + 1}, errors.ErrCodeInvalidBounds},
		{"negative quota", Options{L1Quota: -1}, errors.ErrCodeInvalidBounds},
		{"negative candidates", Options{MaxCandidates: -1}, errors.ErrCodeInvalidBounds},
		{"negative workers", Options{Workers: -2}, errors.ErrCodeInvalidInput},
		{"bad escalation", Options{Escalation: &Escalation{StartDepth: 5, MaxDepth: 3}}, errors.ErrCodeInvalidBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.SetDefaults()
			if err := opts.Validate(); !errors.Is(err, tt.code) {
				t.Errorf("Validate() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOptionsBounds(t *testing.T) {
	tests := []struct {
		opts Options
		n    int
		want support.Bounds
	}{
		{Options{MaxDepth: 3, L1Quota: 2}, 10, support.Bounds{MaxDepth: 3, L1Quota: 2}},
		{Options{MaxDepth: 3}, 10, support.Bounds{MaxDepth: 3, L1Quota: 9}},
		{Options{MaxDepth: 3}, 1, support.Bounds{MaxDepth: 3, L1Quota: 1}},
	}

	for _, tt := range tests {
		if got := tt.opts.Bounds(tt.n); got != tt.want {
			t.Errorf("Bounds(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestOptionsResultKeyOpts(t *testing.T) {
	fixed := Options{MaxDepth: 3, L1Quota: 2, MaxCandidates: 5}
	k := fixed.ResultKeyOpts()
	if k.Escalate || k.MaxDepth != 3 || k.L1Quota != 2 || k.MaxCandidates != 5 {
		t.Errorf("fixed ResultKeyOpts() = %+v", k)
	}

	esc := Options{MaxDepth: 3}
	esc.Escalate = boolPtr(true)
	k = esc.ResultKeyOpts()
	if !k.Escalate || k.MaxDepth != 0 || k.Policy != DefaultEscalation().String() {
		t.Errorf("escalating ResultKeyOpts() = %+v, want bounds dropped and default policy", k)
	}

	custom := DefaultEscalation()
	custom.MaxDepth = 5
	esc.Escalation = &custom
	if esc.ResultKeyOpts().Policy == k.Policy {
		t.Error("custom escalation should change the cache key")
	}
}
