package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"queueWatch/internal/modules/queue/application/port"
	"queueWatch/internal/modules/queue/application/usecase"
	"queueWatch/internal/modules/queue/infrastructure"
)

var errRemoteNotConfigured = errors.New("remote migration needs API_SECRET")

func newMigrateCommand(a *app) *cobra.Command {
	var (
		remote    bool
		driver    string
		batchSize int
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Backfill the local log into the durable store",
		Long: "Replays every daily log file into the durable store. Records already present " +
			"are skipped, so the command can be re-run safely.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			target, closeTarget, err := a.migrationTarget(ctx, remote, driver)
			if err != nil {
				return err
			}
			defer closeTarget()

			if batchSize <= 0 {
				batchSize = a.cfg.Storage.BatchSize
			}
			report, runErr := usecase.NewMigration(a.dailyLog(), target, batchSize).Run(ctx)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run:        %s\n", report.RunID)
			fmt.Fprintf(out, "days:       %d\n", report.Days)
			fmt.Fprintf(out, "read:       %d\n", report.Read)
			fmt.Fprintf(out, "inserted:   %d\n", report.Inserted)
			fmt.Fprintf(out, "duplicates: %d\n", report.Duplicates)
			fmt.Fprintf(out, "malformed:  %d\n", report.Malformed)
			fmt.Fprintf(out, "failed:     %d\n", report.Failed)
			fmt.Fprintf(out, "elapsed:    %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
			if runErr != nil {
				return fmt.Errorf("migration aborted: %w", runErr)
			}
			if report.Failed > 0 {
				return fmt.Errorf("%d records failed to migrate", report.Failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Write through the remote batch endpoint (API_URL/batch) instead of the store")
	cmd.Flags().StringVar(&driver, "store", "", "Store driver: badger|postgres (default STORE_DRIVER)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Records per insert batch (default MIGRATION_BATCH_SIZE)")
	return cmd
}

func (a *app) migrationTarget(ctx context.Context, remote bool, driver string) (port.BatchWriter, func() error, error) {
	if remote {
		sink, err := infrastructure.NewRemoteSink(infrastructure.RemoteSinkConfig{
			URL:      a.cfg.Remote.URL,
			Secret:   a.cfg.Remote.Secret,
			AuthMode: a.cfg.Remote.AuthMode,
			Timeout:  a.cfg.Remote.Timeout,
			TokenTTL: a.cfg.Remote.TokenTTL,
		})
		if err != nil {
			return nil, nil, err
		}
		if !sink.Enabled() {
			return nil, nil, errRemoteNotConfigured
		}
		return sink, func() error { return nil }, nil
	}
	store, err := infrastructure.OpenSnapshotStore(ctx, a.storeOptions(driver))
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return store, store.Close, nil
}
