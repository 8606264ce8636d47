package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/autoshop-crm/reminderd/app"
	"github.com/autoshop-crm/reminderd/config"
	"github.com/autoshop-crm/reminderd/infra/logger"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a single reminder sweep across all tenants and exit",
	RunE:  sweepOnce,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func sweepOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	logg := logger.New("sweep-command")
	defer func() {
		if err := svc.Close(); err != nil {
			logg.Errorf("service close: %v", err)
		}
	}()

	reports := svc.Sweeper.SweepAll(ctx)
	for _, r := range reports {
		fmt.Printf("tenant %s: vehicles=%d due=%d sent=%d failed=%d suppressed=%d skipped=%d (%s)\n",
			r.TenantID, r.Vehicles, r.Due, r.Sent, r.Failed, r.Suppressed, r.Skipped, r.Duration)
	}
	return nil
}
