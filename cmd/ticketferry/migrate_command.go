package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"ticketferry/internal/migrate"
	"ticketferry/internal/source"
	"ticketferry/internal/state"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var firstTicket int64
	var lastTicket int64

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Replicate the pending tickets onto the GLPI instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("dry-run") {
				cfg.Migration.DryRun = dryRun
			}
			if cmd.Flags().Changed("first") {
				cfg.Migration.FirstTicket = firstTicket
			}
			if cmd.Flags().Changed("last") {
				cfg.Migration.LastTicket = lastTicket
			}

			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}
			client, err := ctx.newTargetClient(cfg)
			if err != nil {
				return fmt.Errorf("configure target client: %w", err)
			}

			db, err := source.Open(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			store, err := state.Open(cfg.StateDBPath())
			if err != nil {
				return fmt.Errorf("open state store: %w", err)
			}
			defer store.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := migrate.NewRunner(cfg, client, db, store, logger)
			outcome, runErr := runner.Run(runCtx)
			printOutcome(cmd.OutOrStdout(), outcome)
			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would migrate without writing to the target")
	cmd.Flags().Int64Var(&firstTicket, "first", 0, "Lowest source ticket id to migrate (0 = unbounded)")
	cmd.Flags().Int64Var(&lastTicket, "last", 0, "Highest source ticket id to migrate (0 = unbounded)")
	return cmd
}

func formatCount(value int) string {
	return strconv.Itoa(value)
}
