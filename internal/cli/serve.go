package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/supportree/pkg/config"
	"github.com/matzehuels/supportree/pkg/observability"
	"github.com/matzehuels/supportree/pkg/pipeline"
	"github.com/matzehuels/supportree/pkg/problem"
	"github.com/matzehuels/supportree/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Settings come from the config file (--config, ./supportree.toml or
~/.config/supportree/supportree.toml) and SUPPORTREE_* environment
variables, e.g. SUPPORTREE_SERVER_PORT=9000 or SUPPORTREE_CACHE_BACKEND=redis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg *config.Config) error {
	logger, err := c.serverLogger(cfg.Logging)
	if err != nil {
		return err
	}
	maxBody, err := cfg.Server.MaxBodyBytes()
	if err != nil {
		return err
	}

	ch, err := cfg.Cache.Open(ctx)
	if err != nil {
		return fmt.Errorf("open %s cache: %w", cfg.Cache.Backend, err)
	}
	st, err := cfg.Store.Open(ctx)
	if err != nil {
		ch.Close()
		return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	hooks := observability.NewPrometheusHooks(reg)
	observability.SetSearchHooks(hooks)
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	runner := pipeline.NewRunner(ch, cfg.Cache.Keyer(), logger)
	defer runner.Close()

	escalate := cfg.Search.Escalate
	srv := server.New(runner, st, server.Options{
		Defaults: problem.Search{
			MaxDepth:      cfg.Search.MaxDepth,
			L1Quota:       cfg.Search.L1Quota,
			Escalate:      &escalate,
			MaxCandidates: cfg.Search.MaxCandidates,
		},
		Workers:        cfg.Search.Workers,
		MaxBodyBytes:   maxBody,
		RequestTimeout: cfg.Server.RequestTimeout,
		Gatherer:       reg,
		Logger:         logger,
	})

	logger.Info("Starting server", "cache", cfg.Cache.Backend, "store", cfg.Store.Backend)
	return srv.ListenAndServe(ctx, cfg.Server.Addr(), cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.IdleTimeout)
}

// serverLogger derives the server logger from the CLI logger. The more
// verbose of -v and logging.level wins.
func (c *CLI) serverLogger(lc config.LoggingConfig) (*log.Logger, error) {
	level, err := lc.ParsedLevel()
	if err != nil {
		return nil, err
	}
	logger := c.Logger.WithPrefix(appName)
	logger.SetFormatter(lc.Formatter())
	if level < logger.GetLevel() {
		logger.SetLevel(level)
	}
	return logger, nil
}
