package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/hermes-app/hermes/internal/app"
	"github.com/hermes-app/hermes/internal/config"
	"github.com/hermes-app/hermes/internal/deeplink"
	"github.com/hermes-app/hermes/internal/metrics"
	"github.com/hermes-app/hermes/internal/server"
	"github.com/hermes-app/hermes/internal/shell"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

// GlobalFlags holds flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
	Headless   bool
}

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRoot() *cobra.Command {
	flags := &GlobalFlags{}
	root := createRootCommand(flags)
	root.AddCommand(
		createVersionCommand(),
		createSchemeCommand(flags),
		createSidecarCommand(flags),
	)
	return root
}

func createRootCommand(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hermes [url...]",
		Short: "Hermes desktop shell",
		Long: `Hermes opens the main window, starts the bundled hermes-server sidecar
and forwards hermes:// deep links to the frontend.

Examples:
  hermes
  hermes --config hermes.toml
  hermes hermes://open/settings
  hermes --headless --config hermes.toml`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd.Context(), flags, args, cmd.ErrOrStderr())
		},
	}
	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file")
	cmd.Flags().BoolVar(&flags.Headless, "headless", false, "run without a webview window")
	return cmd
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "hermes %s %s/%s\n", version, runtime.GOOS, runtime.GOARCH)
			_, _ = fmt.Fprintf(out, "platform: %s\n", app.PlatformFor(runtime.GOOS))
			_, _ = fmt.Fprintf(out, "devtools: %t\n", app.DevtoolsCompiled())
			_, _ = fmt.Fprintf(out, "webview: %t\n", webviewCompiled)
			return nil
		},
	}
}

func createSchemeCommand(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheme",
		Short: "Manage the deep-link URL scheme",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "register",
		Short: "Register this executable as the handler for the configured scheme",
		Long: `Register this executable as the OS handler for the configured scheme.

Examples:
  hermes scheme register
  hermes scheme register --config hermes.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return err
			}
			if err := deeplink.New(cfg.DeepLink.Scheme, nil).Register(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "registered %s://\n", cfg.DeepLink.Scheme)
			return nil
		},
	})
	return cmd
}

func createSidecarCommand(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sidecar",
		Short: "Inspect the bundled sidecar",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the resolved sidecar executable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return err
			}
			sh := shell.New(shell.Options{BinariesDir: cfg.Sidecar.BinariesDir})
			p, err := sh.Resolve(cfg.Sidecar.Name)
			if err != nil {
				return fmt.Errorf("%w (searched %v)", err, sh.Dirs())
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	})
	return cmd
}

// runApp loads config, builds the host and blocks until the app exits.
// Startup failures are returned so main exits non-zero.
func runApp(ctx context.Context, flags *GlobalFlags, args []string, console io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return err
	}
	log, closer, err := cfg.LoggerConfig().NewSlogger(console)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = closer.Close() }()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Warn("metrics registration failed", "error", err)
	}

	h, err := newHost(cfg, log, flags.Headless)
	if err != nil {
		return err
	}
	a := app.New(cfg, h, app.WithLogger(log))
	if err := a.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	a.HandleArgs(args)

	if cfg.Debug.Addr != "" {
		srv, err := server.NewServer(cfg.Debug.Addr, "", a)
		if err != nil {
			log.Warn("diagnostics server disabled", "error", err)
		} else {
			log.Info("diagnostics server listening", "addr", srv.Addr)
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = srv.Shutdown(sctx)
			}()
		}
	}

	log.Info("starting", "version", version, "platform", a.Features().Platform, "devtools", a.Features().DebugTools)
	if err := a.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		log.Error("hermes exited with error", "error", err)
		return err
	}
	log.Info("stopped")
	return nil
}
