package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/supportree/pkg/pipeline"
	"github.com/matzehuels/supportree/pkg/problem"
	"github.com/matzehuels/supportree/pkg/render/dot"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	search searchFlags
	output string // .svg, .dot or .json; stdout as DOT if empty
	format string // overrides the output extension
	tree   int    // accepted tree index
	graph  bool   // render the support graph instead of a tree
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [problem]",
		Short: "Render a support tree as DOT or SVG",
		Long: `Render one accepted support tree of a problem.

The problem is enumerated first (cached results are reused), then tree
--tree is written in the format given by --format or the output extension.
Without -o the DOT source is printed to stdout.

With --graph the support graph itself is rendered, necessary edges in bold,
and no search runs.

Examples:
  supportree render squares.toml --tree 0 -o tree.svg
  supportree render squares.toml --graph -o graph.dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.resolveFormat()
			if err != nil {
				return err
			}
			if opts.graph {
				return c.renderGraph(cmd, args[0], format, opts.output)
			}
			return c.renderTree(cmd, args[0], format, &opts)
		},
	}

	opts.search.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (.svg, .dot, .json)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: dot, svg, json (default from -o, else dot)")
	cmd.Flags().IntVarP(&opts.tree, "tree", "t", 0, "index of the accepted tree")
	cmd.Flags().BoolVar(&opts.graph, "graph", false, "render the support graph instead of a tree")

	return cmd
}

// resolveFormat picks the format from --format, then the output extension.
func (o *renderOpts) resolveFormat() (string, error) {
	format := o.format
	if format == "" && o.output != "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(o.output)), ".")
	}
	if format == "" {
		format = pipeline.FormatDOT
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		return "", err
	}
	return format, nil
}

func (c *CLI) renderTree(cmd *cobra.Command, input, format string, opts *renderOpts) error {
	res, err := c.execute(cmd, input, &opts.search)
	if err != nil {
		return err
	}
	if len(res.Trees) == 0 {
		printWarning("No tree satisfies the junction constraints")
		return nil
	}

	runner, err := c.newRunner(cmd.Context(), opts.search.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	data, cached, err := runner.RenderTreeWithCacheInfo(cmd.Context(), res, opts.tree, format)
	if err != nil {
		return err
	}
	loggerFromContext(cmd.Context()).Debug("Rendered tree", "tree", opts.tree, "format", format, "cached", cached)
	return writeArtifact(data, opts.output, fmt.Sprintf("Rendered tree %d of %d", opts.tree, len(res.Trees)))
}

func (c *CLI) renderGraph(cmd *cobra.Command, input, format, output string) error {
	if format == pipeline.FormatJSON {
		return fmt.Errorf("--graph renders dot or svg, not %s", format)
	}
	p, err := problem.ReadFile(input)
	if err != nil {
		return err
	}
	b, err := p.Build()
	if err != nil {
		return err
	}

	src := dot.GraphDOT(b.Graph, dot.Options{Junctions: b.Junctions, Detailed: true})
	data := []byte(src)
	if format == pipeline.FormatSVG {
		if data, err = dot.RenderSVG(cmd.Context(), src); err != nil {
			return fmt.Errorf("render svg: %w", err)
		}
	}
	return writeArtifact(data, output, fmt.Sprintf("Rendered support graph of %s", p.Name))
}

// writeArtifact writes data to path, or to stdout when path is empty.
func writeArtifact(data []byte, path, summary string) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printSuccess("%s", summary)
	printFile(path)
	return nil
}
