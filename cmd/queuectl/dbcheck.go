package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"queueWatch/internal/modules/queue/infrastructure"
)

func newDBCheckCommand(a *app) *cobra.Command {
	var driver string
	cmd := &cobra.Command{
		Use:   "dbcheck",
		Short: "Print the durable store's record count and latest snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := infrastructure.OpenSnapshotStore(ctx, a.storeOptions(driver))
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(ctx, a.cfg.Location)
			if err != nil {
				return err
			}
			latest, err := store.Latest(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "total snapshots: %s\n", humanize.Comma(int64(stats.TotalRecords)))
			fmt.Fprintf(out, "days:            %d\n", len(stats.AvailableDates))
			if latest == nil {
				fmt.Fprintln(out, "latest snapshot: none")
				return nil
			}
			fmt.Fprintf(out, "latest snapshot: %s (%s, lineup %d)\n",
				latest.Timestamp.In(a.cfg.Location).Format("2006-01-02 15:04:05 MST"),
				humanize.Time(latest.Timestamp),
				latest.TotalLineup,
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&driver, "store", "", "Store driver: badger|postgres (default STORE_DRIVER)")
	return cmd
}
