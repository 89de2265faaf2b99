package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/vocabtrainer/backend/internal/models"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show progress of the current learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(app)

		printNotices(cmd.OutOrStdout(), app)
		printStats(cmd.OutOrStdout(), app.Session().Stats())
		return nil
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the latest grades, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(app)

		printHistory(cmd.OutOrStdout(), app.History(historyLimit))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", models.SessionHistoryLimit, "number of entries to show")
}

func printStats(out io.Writer, stats models.Stats) {
	fmt.Fprintf(out, "due: %d  new left today: %d  reviewed today: %d  total: %d\n",
		stats.DueCount, stats.NewRemaining, stats.ReviewsToday, stats.TotalCards)
	if stats.NextDueTimestamp != nil {
		fmt.Fprintf(out, "next due: %s\n", time.UnixMilli(*stats.NextDueTimestamp).Local().Format("2006-01-02 15:04"))
	}
}

func printHistory(out io.Writer, history []models.HistoryEntry) {
	if len(history) == 0 {
		fmt.Fprintln(out, "no grades yet")
		return
	}
	for _, h := range history {
		fmt.Fprintf(out, "%s  %-6s  %-6s  %s\n",
			time.UnixMilli(h.Timestamp).Local().Format("2006-01-02 15:04"), h.Mode, h.Grade, h.Word)
	}
}
