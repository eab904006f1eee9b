package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/supportree/pkg/buildinfo"
	"github.com/matzehuels/supportree/pkg/cache"
	"github.com/matzehuels/supportree/pkg/config"
	"github.com/matzehuels/supportree/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "supportree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Supportree enumerates support trees of layered regions",
		Long: `Supportree enumerates the spanning trees of a region support graph that
satisfy a set of X-junction constraints, and renders them as Graphviz
diagrams. It runs one-off problems from the command line or serves them
over HTTP.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./supportree.toml or ~/.config/supportree/)")

	root.AddCommand(c.enumerateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the configuration on first use.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. An unreachable cache
// backend downgrades to no caching.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	if noCache {
		return pipeline.NewRunner(cache.NewNullCache(), nil, c.Logger), nil
	}
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	ch, err := cfg.Cache.Open(ctx)
	if err != nil {
		c.Logger.Warn("Cache unavailable, continuing without", "backend", cfg.Cache.Backend, "error", err)
		ch = cache.NewNullCache()
	}
	return pipeline.NewRunner(ch, cfg.Cache.Keyer(), c.Logger), nil
}

// =============================================================================
// Search Flags
// =============================================================================

// searchFlags holds the flags shared by commands that run a search.
type searchFlags struct {
	maxDepth      int
	quota         int
	escalate      bool
	maxCandidates int
	workers       int
	noCache       bool
	refresh       bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "deepest level below the root (0 = escalate)")
	cmd.Flags().IntVar(&f.quota, "quota", 0, "maximum direct children of the root (0 = n-1)")
	cmd.Flags().BoolVar(&f.escalate, "escalate", false, "widen bounds until enough trees are found")
	cmd.Flags().IntVar(&f.maxCandidates, "max-candidates", 0, "stop a search after this many candidates (0 = unlimited)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "parallel validation workers (0 = GOMAXPROCS)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results")
}

// options converts the flags into pipeline options. --escalate only counts
// when given explicitly so a problem's own preference can apply.
func (f *searchFlags) options(cmd *cobra.Command, logger *log.Logger) pipeline.Options {
	opts := pipeline.Options{
		MaxDepth:      f.maxDepth,
		L1Quota:       f.quota,
		MaxCandidates: f.maxCandidates,
		Workers:       f.workers,
		Refresh:       f.refresh,
		Logger:        logger,
	}
	if cmd.Flags().Changed("escalate") {
		v := f.escalate
		opts.Escalate = &v
	}
	return opts
}
