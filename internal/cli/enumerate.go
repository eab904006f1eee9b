package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/supportree/pkg/core/support"
	"github.com/matzehuels/supportree/pkg/problem"
)

const defaultShow = 20

// enumerateCommand creates the enumerate command.
func (c *CLI) enumerateCommand() *cobra.Command {
	var (
		flags  searchFlags
		output string
		show   int
	)

	cmd := &cobra.Command{
		Use:   "enumerate [problem]",
		Short: "Enumerate the support trees of a problem",
		Long: `Enumerate the support trees of a problem file (.toml or .json).

Without --max-depth or --quota the search escalates: it starts shallow with a
tight quota on the root's children and widens until enough trees are found.
Results are cached locally, keyed by the problem's content.

Examples:
  supportree enumerate squares.toml
  supportree enumerate squares.toml --max-depth 4 --quota 2
  supportree enumerate squares.toml -o result.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" {
				if _, err := problem.FormatFromPath(output); err != nil {
					return err
				}
			}
			res, err := c.execute(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			return c.reportRun(args[0], res, output, show)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result to a .json or .toml file")
	cmd.Flags().IntVar(&show, "show", defaultShow, "trees to list (0 = all)")

	return cmd
}

// execute reads the problem at path and runs it with a spinner.
func (c *CLI) execute(cmd *cobra.Command, path string, flags *searchFlags) (*problem.Result, error) {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	p, err := problem.ReadFile(path)
	if err != nil {
		return nil, err
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Enumerating %s (%d nodes)...", p.Name, p.Nodes))
	spinner.Start()
	prog := newProgress(logger)

	res, err := runner.Execute(ctx, p, flags.options(cmd, logger))
	if err != nil {
		spinner.StopWithError("Enumeration failed")
		return nil, err
	}
	spinner.Stop()
	prog.done("Enumerated", "problem", p.Name, "trees", len(res.Trees), "cached", res.Cached)
	return res, nil
}

func (c *CLI) reportRun(input string, res *problem.Result, output string, show int) error {
	printResultHeader(res)

	if len(res.Trees) == 0 {
		printWarning("No tree satisfies the junction constraints")
	} else {
		fmt.Println(treeTable(res, show))
		if show > 0 && len(res.Trees) > show {
			printDetail("%d more not shown (--show 0 lists all)", len(res.Trees)-show)
		}
	}

	if output != "" {
		if err := problem.WriteResultFile(output, res); err != nil {
			return err
		}
		printFile(output)
	}

	if len(res.Trees) > 0 {
		fmt.Println()
		printNextStep("Render a tree", fmt.Sprintf("%s render %s --tree 0 -o tree.svg", appName, input))
	}
	return nil
}

func printResultHeader(res *problem.Result) {
	printSuccess("%s trees for %s", humanize.Comma(int64(len(res.Trees))), StyleValue.Render(res.Name))
	printRunStats(res)
	printKeyValue("Bounds", boundsLabel(res.Bounds))
	printKeyValue("Run", res.ID)
	if res.Stats.Stopped {
		printWarning("Search stopped at the candidate limit; more trees may exist")
	}
}

func boundsLabel(b support.Bounds) string {
	return fmt.Sprintf("depth ≤ %d, root children ≤ %d", b.MaxDepth, b.L1Quota)
}
