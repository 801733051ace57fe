package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"queueWatch/internal/modules/queue/domain"
)

const recentRows = 10

func newViewCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view [date]",
		Short: "Show local log stats and one day's records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dailyLog := a.dailyLog()
			out := cmd.OutOrStdout()

			stats, err := dailyLog.Stats()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Local log")
			fmt.Fprintln(out, strings.Repeat("-", 50))
			fmt.Fprintf(out, "files:      %d\n", stats.Files)
			fmt.Fprintf(out, "size:       %s\n", humanize.Bytes(uint64(stats.TotalBytes)))
			if stats.Files > 0 {
				fmt.Fprintf(out, "date range: %s ~ %s\n", stats.FirstDate, stats.LastDate)
			}
			fmt.Fprintln(out)

			date := domain.DateKey(time.Now(), a.cfg.Location)
			if len(args) == 1 {
				if date, err = domain.ParseDate(args[0]); err != nil {
					return err
				}
			}
			snapshots, err := dailyLog.ReadDay(cmd.Context(), date)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Date %s\n", date)
			fmt.Fprintln(out, strings.Repeat("-", 50))
			if len(snapshots) == 0 {
				fmt.Fprintf(out, "no records for %s\n", date)
				days, err := dailyLog.ListDays()
				if err != nil {
					return err
				}
				if len(days) > 0 {
					fmt.Fprintln(out, "\navailable days:")
					for _, day := range days {
						fmt.Fprintf(out, "  - %s\n", day)
					}
				}
				return nil
			}

			fmt.Fprintf(out, "records: %s\n\n", humanize.Comma(int64(len(snapshots))))
			writeRecent(out, snapshots, a.cfg.Location)

			summary, _ := domain.Summarize(snapshots)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "average lineup: %.1f\n", summary.AvgTotal)
			fmt.Fprintf(out, "max lineup:     %d\n", summary.MaxTotal)
			fmt.Fprintf(out, "min lineup:     %d\n", summary.MinTotal)
			fmt.Fprintln(out, "\naverage per table size:")
			for _, c := range domain.Categories() {
				if c == domain.CategoryTotal {
					continue
				}
				fmt.Fprintf(out, "  %s %.1f\n", c.Label(), summary.Average(c))
			}
			return nil
		},
	}
}

func writeRecent(out io.Writer, snapshots []domain.Snapshot, loc *time.Location) {
	start := max(0, len(snapshots)-recentRows)
	categories := domain.Categories()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := []string{"TIME", "LINEUP"}
	for _, c := range categories {
		header = append(header, string(c))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, s := range snapshots[start:] {
		row := []string{s.Timestamp.In(loc).Format("15:04:05"), strconv.Itoa(s.TotalLineup)}
		for _, c := range categories {
			row = append(row, strconv.Itoa(s.QueueDetails.Get(c)))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}
