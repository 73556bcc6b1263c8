package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/adamwoolhether/crpt/documents"
	"github.com/adamwoolhether/crpt/internal/config"
	"github.com/adamwoolhether/crpt/throttle"
)

const namespace = "crpt"

type rootFlags struct {
	cfgFile  string
	envFile  string
	logLevel string
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "crpt",
		Short: "Throttled client for the CRPT document registry",
		Long: `crpt submits documents to the CRPT "Честный знак" registry.

Every submission made by one process shares a sliding window, so no more
than throttle.capacity requests start within any throttle.period.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.cfgFile, "config", "c", "", "config file path")
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "env file loaded before CRPT_* overrides")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	cmd.AddCommand(
		newSubmitCmd(&flags),
		newWatchCmd(&flags),
		newStubCmd(&flags),
		newVersionCmd(),
	)

	return cmd
}

// app is what a subcommand needs once configuration is loaded.
type app struct {
	cfg *config.Config
	log *slog.Logger
	reg *prometheus.Registry
}

func (f *rootFlags) load(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(f.cfgFile, f.envFile)
	if err != nil {
		return nil, err
	}

	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	log, err := cfg.Log.Logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, reg: prometheus.NewRegistry()}, nil
}

// api builds the one registry client a command shares across workers.
func (a *app) api() (*documents.API, error) {
	w := a.cfg.Throttle.Window()
	if err := w.Validate(); err != nil {
		return nil, err
	}

	return documents.New(w.Period, w.Capacity,
		documents.WithBaseURL(a.cfg.API.BaseURL),
		documents.WithTimeout(a.cfg.API.Timeout),
		documents.WithPollInterval(a.cfg.Throttle.PollInterval),
		documents.WithLogger(a.log),
		documents.WithMetrics(throttle.NewMetrics(a.reg, namespace)),
	)
}

func (a *app) signature(override string) (string, error) {
	sig := a.cfg.API.Signature
	if override != "" {
		sig = override
	}
	if sig == "" {
		return "", fmt.Errorf("%w: set --signature, api.signature or %sAPI_SIGNATURE", documents.ErrMissingSignature, config.EnvPrefix)
	}

	return sig, nil
}
