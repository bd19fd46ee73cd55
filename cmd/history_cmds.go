package main

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lowaak/interval-walk/interval-walk-app/internal/history"
)

// newHistoryCmd lists recent sessions without starting the UI, for shell use.
func newHistoryCmd(v *viper.Viper) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently completed sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			store, err := openQuietStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.RecentSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded yet.")
				return nil
			}
			for _, s := range sessions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %3d min  %s\n",
					s.CompletedAt.Format("2006-01-02 15:04"), s.DurationMinutes, s.FormulaName)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of sessions to list")
	return cmd
}

// newStatsCmd prints the aggregate statistics the history screen shows.
func newStatsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show workout totals and the current daily streak",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			store, err := openQuietStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Workouts: %d\n", stats.TotalSessions)
			fmt.Fprintf(cmd.OutOrStdout(), "Minutes:  %d\n", stats.TotalMinutes)
			fmt.Fprintf(cmd.OutOrStdout(), "Streak:   %d days\n", stats.CurrentStreakDays)
			return nil
		},
	}
}

// openQuietStore opens the session database with logging discarded; the
// one-shot subcommands print their results, not a log stream.
func openQuietStore(cfg appConfig) (*history.Store, error) {
	return history.Open(cfg.DBPath, log.New(io.Discard, "", 0))
}
