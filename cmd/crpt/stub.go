package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamwoolhether/crpt/internal/stub"
	"github.com/adamwoolhether/crpt/web/server"
)

type stubFlags struct {
	addr   string
	period time.Duration
}

func newStubCmd(root *rootFlags) *cobra.Command {
	var flags stubFlags

	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run a local registry that audits request rates",
		Long: `Serve a stand-in for the registry's create-document endpoint.

Every accepted document is recorded; GET /v1/audit reports the most
documents seen within any trailing --period and /metrics exposes the
same numbers to Prometheus.

Examples:
  crpt stub
  crpt stub --addr 127.0.0.1:8081 --period 1m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.load(cmd)
			if err != nil {
				return err
			}

			addr := a.cfg.Stub.Addr
			if cmd.Flags().Changed("addr") {
				addr = flags.addr
			}
			period := a.cfg.Stub.Period
			if cmd.Flags().Changed("period") {
				period = flags.period
			}
			if period <= 0 {
				return fmt.Errorf("--period must be positive, got %s", period)
			}

			reg := stub.New(period, a.log, a.reg)

			srv := server.New(reg.Handler(),
				server.WithHost(addr),
				server.WithLogger(a.log),
				server.WithShutdownFunc(func(context.Context) error {
					a.log.Info("final audit", "audit", reg.Audit().String())
					return nil
				}),
			)

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", ":8080", "listen address, overrides stub.addr")
	cmd.Flags().DurationVar(&flags.period, "period", time.Second, "audit period, overrides stub.period")

	return cmd
}
