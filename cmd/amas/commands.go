package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aixgo-dev/amas"
	"github.com/aixgo-dev/amas/agent"
	"github.com/aixgo-dev/amas/internal/demo"
	"github.com/aixgo-dev/amas/internal/logging"
	"github.com/aixgo-dev/amas/internal/observability"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "amas",
		Short:         "Run lightweight in-process multi-agent systems",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDemoCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "amas %s\n", Version)
			return err
		},
	}
}

type demoOptions struct {
	configPath  string
	metricsPort int
	parallel    bool
}

func newDemoCmd() *cobra.Command {
	opts := demoOptions{}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the foo/bar/observer demo",
		Long: `Run the demo system: the sender mails the receiver at a fixed interval,
the receiver prints every mail, and the observer broadcasts the quit signal
after a delay so that every agent finishes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runDemo(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", getEnv("AMAS_CONFIG", ""), "configuration file (defaults apply when empty)")
	flags.IntVar(&opts.metricsPort, "metrics-port", 0, "serve /metrics and /health on this port (overrides config)")
	flags.BoolVar(&opts.parallel, "parallel", false, "run the environment in the background and supervise it")

	return cmd
}

func runDemo(ctx context.Context, opts demoOptions, stdout, stderr io.Writer) error {
	cfg, err := loadCLIConfig(opts.configPath)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log, stderr)

	if err := observability.InitTracing(cfg.Observability.Tracing); err != nil {
		logger.Warn("failed to initialize tracing", "error", err)
	}
	defer func() {
		if err := observability.ShutdownTracing(context.Background()); err != nil {
			logger.Warn("failed to shut down tracing", "error", err)
		}
	}()

	if opts.metricsPort > 0 {
		cfg.Observability.Metrics.Enabled = true
		cfg.Observability.Metrics.Port = opts.metricsPort
	}
	if cfg.Observability.Metrics.Enabled {
		observability.InitMetrics()
		srv := observability.NewServer(cfg.Observability.Metrics.Port)
		go func() {
			logger.Info("starting metrics server", "port", cfg.Observability.Metrics.Port)
			if err := srv.Start(); err != nil {
				logger.Error("metrics server error", "error", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				logger.Warn("metrics server shutdown error", "error", err)
			}
		}()
	}

	agentOpts := append(cfg.AgentOptions(), agent.WithLogger(logger))
	sys, err := demo.Build(cfg.Demo, stdout, agentOpts...)
	if err != nil {
		return err
	}
	defer sys.Close()

	env := amas.NewEnvironment(sys.Agents, amas.WithLogger(logger))
	if !opts.parallel {
		return env.Run(ctx)
	}

	if err := env.Parallelize(ctx); err != nil {
		return err
	}
	select {
	case <-env.Done():
	case <-ctx.Done():
		logger.Info("shutting down environment")
		env.Kill()
	}
	return env.Join(shutdownTimeout)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
