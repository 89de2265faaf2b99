package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetConfirmed bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase all progress of the current learner",
	Long:  "Erase the progress of the current learner locally and, when synced, on the progress server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirmed {
			return fmt.Errorf("reset erases all progress; run again with --yes to confirm")
		}

		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer closeApp(app)

		if err := app.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("failed to reset progress: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "progress erased")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetConfirmed, "yes", "y", false, "confirm the reset")
}
