package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pyview/hiergraph/internal/metrics"
	"github.com/pyview/hiergraph/internal/server"
	"github.com/pyview/hiergraph/internal/watch"
	"github.com/pyview/hiergraph/pkg/session"
)

type serveOpts struct {
	addr       string
	watch      bool
	debounce   time.Duration
	level      int
	project    string
	stateDir   string
	persist    bool
	sessionTTL time.Duration
	noMetrics  bool
}

// serveCommand creates the serve command, which exposes an analysis over
// the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [analysis.json]",
		Short: "Serve an analysis over the HTTP API",
		Example: `  hiergraph serve analysis.json
  hiergraph serve analysis.json --addr :9000 --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("addr") {
				opts.addr = c.Config.Server.Addr
			}
			if !flags.Changed("debounce") {
				opts.debounce = c.Config.Watch.Debounce
			}
			if !flags.Changed("level") {
				opts.level = c.Config.View.Level
			}
			if !flags.Changed("session-ttl") {
				opts.sessionTTL = c.Config.Server.SessionTTL
			}
			if !flags.Changed("state-dir") {
				opts.stateDir = c.Config.Server.StateDir
			}
			return c.runServe(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, else 127.0.0.1:8080)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "reload the analysis when the file changes")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", watch.DefaultDebounce, "delay before reloading after a change")
	cmd.Flags().IntVarP(&opts.level, "level", "l", 0, "view level of new sessions")
	cmd.Flags().StringVar(&opts.project, "project", "", "project name (overrides the analysis and config)")
	cmd.Flags().BoolVar(&opts.persist, "persist-sessions", false, "keep session view state across restarts")
	cmd.Flags().StringVar(&opts.stateDir, "state-dir", "", "directory for persisted session state")
	cmd.Flags().DurationVar(&opts.sessionTTL, "session-ttl", session.DefaultTTL, "idle time before a session expires")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "do not expose /metrics")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, w io.Writer, input string, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	cfg := server.Config{
		Addr:     opts.addr,
		Runner:   runner,
		Options:  c.baseOptions(),
		Sessions: session.NewStore(opts.sessionTTL),
		Logger:   logger,
	}
	cfg.Options.Level = opts.level
	if opts.project != "" {
		cfg.Options.ProjectName = opts.project
	}

	if opts.persist || opts.stateDir != "" {
		states, err := session.NewFileStore(opts.stateDir)
		if err != nil {
			return err
		}
		cfg.States = states
		logger.Debug("persisting sessions", "dir", states.Path())
	}

	if !opts.noMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := metrics.New(reg)
		m.Install()
		cfg.Metrics = m.Handler()
	}

	srv := server.New(cfg)

	timer := newRunTimer(logger)
	if err := srv.LoadFile(ctx, input); err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	timer.done("Loaded "+input, "addr", opts.addr)

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return srv.Serve(egctx) })
	if opts.watch {
		w := watch.New(input, srv.LoadFile, watch.Options{Debounce: opts.debounce, Logger: logger})
		eg.Go(func() error { return w.Run(egctx) })
	}

	newPrinter(w).success("Serving %s on %s", input, StyleLink.Render("http://"+opts.addr))
	return eg.Wait()
}
