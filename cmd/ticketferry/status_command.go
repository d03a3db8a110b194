package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ticketferry/internal/state"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var showFailures bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recorded migration progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := state.Open(cfg.StateDBPath())
			if err != nil {
				return fmt.Errorf("open state store: %w", err)
			}
			defer store.Close()

			summary, err := store.Summarize(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Linked tickets", strconv.FormatInt(summary.LinkedTickets, 10)},
				{"Recorded failures", strconv.FormatInt(summary.RecordedFailures, 10)},
			}
			lastRun := summary.LastRunID
			if lastRun == "" {
				lastRun = "-"
			}
			rows = append(rows, []string{"Last run", lastRun})
			fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, 2))

			if showFailures && summary.LastRunID != "" {
				failures, err := store.FailuresForRun(cmd.Context(), summary.LastRunID)
				if err != nil {
					return err
				}
				if len(failures) == 0 {
					fmt.Fprintln(out, "No failures recorded for the last run")
					return nil
				}
				failureRows := make([][]string, 0, len(failures))
				for _, failure := range failures {
					failureRows = append(failureRows, []string{
						strconv.FormatInt(failure.SourceID, 10),
						failure.Stage,
						failure.Detail,
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Ticket", "Stage", "Detail"}, failureRows, 1))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showFailures, "failures", false, "List the failures recorded for the last run")
	return cmd
}
