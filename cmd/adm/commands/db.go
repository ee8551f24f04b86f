package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"devopsquiz/internal/services"
	contextutils "devopsquiz/internal/utils"

	"github.com/spf13/cobra"
)

// DatabaseCommands returns the usage database commands
func DatabaseCommands(env *Env) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Usage database commands",
		Long: `Commands for the optional AI usage database.

Available commands:
  migrate  - Apply pending schema migrations
  usage    - Show daily AI usage counters
  prune    - Delete usage counters older than a retention window`,
	}

	dbCmd.AddCommand(migrateCmd(env))
	dbCmd.AddCommand(usageCmd(env))
	dbCmd.AddCommand(pruneCmd(env))
	return dbCmd
}

func migrateCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			env.Logger.Info(ctx, "Diagnostic info", map[string]interface{}{
				"config_file": os.Getenv("QUIZ_CONFIG_FILE"),
				"driver":      env.Config.Database.Driver,
				"db_url":      maskDatabaseURL(env.Config.Database.URL),
			})

			db, dm, err := env.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer env.closeDatabase(ctx, db)

			if err := dm.RunMigrations(ctx, db, env.Config.Database.Driver); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied to %s\n", maskDatabaseURL(env.Config.Database.URL))
			return nil
		},
	}
}

func usageCmd(env *Env) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show daily AI usage counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if days < 1 {
				return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "--days must be at least 1, got %d", days)
			}

			db, dm, err := env.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer env.closeDatabase(ctx, db)

			// The table may not exist yet on a fresh database
			if err := dm.RunMigrations(ctx, db, env.Config.Database.Driver); err != nil {
				return err
			}

			since := time.Now().UTC().AddDate(0, 0, -(days - 1))
			stats, err := services.NewUsageStatsService(db, env.Logger).Summary(ctx, since)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(stats) == 0 {
				fmt.Fprintf(out, "No usage recorded in the last %d days\n", days)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tPROVIDER\tMODEL\tTYPE\tREQUESTS\tFAILURES\tPROMPT TOKENS\tCOMPLETION TOKENS\tAVG SCORE")
			for _, s := range stats {
				avg := "-"
				if s.ScoredCount > 0 {
					avg = fmt.Sprintf("%.1f", s.AverageScore())
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					s.UsageDate, s.Provider, s.Model, s.UsageType,
					s.RequestCount, s.FailureCount, s.PromptTokens, s.CompletionTokens, avg)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to include, today counts as one")
	return cmd
}

func pruneCmd(env *Env) *cobra.Command {
	var keepDays int
	var statsOnly bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete usage counters older than a retention window",
		Long: `Delete usage counters older than --keep-days days.

Use --stats to see how many rows would be removed without deleting them.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if keepDays < 1 {
				return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "--keep-days must be at least 1, got %d", keepDays)
			}

			db, _, err := env.openDatabase(ctx)
			if err != nil {
				return err
			}
			defer env.closeDatabase(ctx, db)

			cleanup := services.NewCleanupServiceWithLogger(db, env.Logger)
			before := time.Now().UTC().AddDate(0, 0, -(keepDays - 1))
			out := cmd.OutOrStdout()

			if statsOnly {
				count, err := cleanup.CountExpiredUsageStats(ctx, before)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d usage rows older than %s would be deleted\n", count, before.Format(services.UsageDateLayout))
				return nil
			}

			removed, err := cleanup.PruneUsageStats(ctx, before)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted %d usage rows older than %s\n", removed, before.Format(services.UsageDateLayout))
			return nil
		},
	}
	cmd.Flags().IntVar(&keepDays, "keep-days", 90, "Number of days of counters to keep, today counts as one")
	cmd.Flags().BoolVar(&statsOnly, "stats", false, "Only show how many rows would be deleted")
	return cmd
}
