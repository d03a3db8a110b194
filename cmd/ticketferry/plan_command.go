package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ticketferry/internal/source"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Summarize the migratable corpus without touching the target",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			db, err := source.Open(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := db.CorpusStats(cmd.Context(),
				cfg.Migration.FirstTicket, cfg.Migration.LastTicket)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Tickets in range", strconv.FormatInt(stats.Tickets, 10)},
				{"Thread entries", strconv.FormatInt(stats.ThreadEntries, 10)},
				{"Attachments", strconv.FormatInt(stats.Attachments, 10)},
				{"Collaborators", strconv.FormatInt(stats.Collaborators, 10)},
			}
			fmt.Fprintln(out, renderTable([]string{"Metric", "Count"}, rows, 2))
			if cfg.Migration.FirstTicket > 0 || cfg.Migration.LastTicket > 0 {
				fmt.Fprintf(out, "Ticket id range: %d..%d (0 = unbounded)\n",
					cfg.Migration.FirstTicket, cfg.Migration.LastTicket)
			}
			return nil
		},
	}
}
