package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/supportree/pkg/problem"
)

var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	detailKeyStyle  = lipgloss.NewStyle().Foreground(colorGray).Width(10)
	junctionStyle   = lipgloss.NewStyle().Foreground(colorYellow)
	selectedRowBold = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
)

// =============================================================================
// TreeListModel - Interactive tree browser
// =============================================================================

// TreeListModel is the bubbletea model for stepping through accepted trees.
type TreeListModel struct {
	Result   *problem.Result
	Cursor   int
	Offset   int
	Height   int
	Detail   bool
	Selected *problem.TreeRecord
}

// NewTreeListModel creates a browser over the trees of res.
func NewTreeListModel(res *problem.Result) TreeListModel {
	return TreeListModel{Result: res, Height: 12, Detail: true}
}

func (m TreeListModel) Init() tea.Cmd {
	return nil
}

func (m TreeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	n := len(m.Result.Trees)
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < n-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			if n > 0 {
				m.Cursor = n - 1
				m.Offset = max(0, n-m.Height)
			}
		case "tab", "d":
			m.Detail = !m.Detail
		case "enter":
			if n == 0 {
				return m, nil
			}
			rec := m.Result.Trees[m.Cursor]
			m.Selected = &rec
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-16, 5)
	}
	return m, nil
}

func (m TreeListModel) View() string {
	var b strings.Builder
	res := m.Result

	b.WriteString(StyleTitle.Render(fmt.Sprintf("%s · %d trees", res.Name, len(res.Trees))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%s · created %s", boundsLabel(res.Bounds), humanize.Time(res.CreatedAt))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  tab details  ⏎ select  q quit"))
	b.WriteString("\n\n")

	if len(res.Trees) == 0 {
		b.WriteString(StyleWarning.Render("No tree satisfies the junction constraints"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(res.Trees))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		tr := res.Trees[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			strconv.Itoa(tr.Index),
			strconv.Itoa(tr.Height),
			formatWidths(tr.Layers),
			formatEdges(tr.Edges, 6),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Height", "Widths", "Edges").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return selectedRowBold
			}
			if col == 4 {
				return StyleDim
			}
			return StyleValue
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(res.Trees))))
	b.WriteString("\n")

	if m.Detail {
		b.WriteString("\n")
		b.WriteString(treeDetail(res, res.Trees[m.Cursor]))
	}
	return b.String()
}

// treeDetail lists the layers of a tree and how each junction was resolved.
func treeDetail(res *problem.Result, tr problem.TreeRecord) string {
	var b strings.Builder
	for d, layer := range tr.Layers {
		ids := make([]string, len(layer))
		for i, v := range layer {
			ids[i] = strconv.Itoa(v)
		}
		b.WriteString(detailKeyStyle.Render(fmt.Sprintf("depth %d", d)))
		b.WriteString(StyleValue.Render(strings.Join(ids, " ")))
		b.WriteString("\n")
	}
	for _, r := range tr.Resolutions {
		how := "derived"
		if r.Direct {
			how = "direct"
		}
		j := res.Junctions[r.Junction]
		b.WriteString(detailKeyStyle.Render(fmt.Sprintf("X%d", r.Junction)))
		b.WriteString(junctionStyle.Render(fmt.Sprintf("%v", j)))
		b.WriteString(StyleDim.Render(fmt.Sprintf(" c%d %d%s%d %d%s%d (%s)",
			r.Index+1, r.Config[0], iconArrow, r.Config[1], r.Config[2], iconArrow, r.Config[3], how)))
		b.WriteString("\n")
	}
	return b.String()
}

// =============================================================================
// Browse Command
// =============================================================================

// browseCommand creates the interactive browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "browse [problem]",
		Short: "Browse the support trees of a problem interactively",
		Long: `Enumerate a problem and step through its accepted trees.

Each tree shows its layers by depth and the configuration that resolved each
X-junction. Press enter to print the selected tree as DOT.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.execute(cmd, args[0], &flags)
			if err != nil {
				return err
			}

			final, err := tea.NewProgram(NewTreeListModel(res), tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return fmt.Errorf("browse: %w", err)
			}
			m, ok := final.(TreeListModel)
			if !ok || m.Selected == nil {
				return nil
			}

			runner, err := c.newRunner(cmd.Context(), flags.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()
			data, err := runner.RenderTree(cmd.Context(), res, m.Selected.Index, "dot")
			if err != nil {
				return err
			}
			return writeArtifact(data, "", "")
		},
	}

	flags.register(cmd)
	return cmd
}
