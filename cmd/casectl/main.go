// casectl is the operational CLI for the appeals casework service: schema
// migrations, holiday-feed inspection and timetable previews without a
// running server.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/openappeals/casework/internal/config"
	"github.com/openappeals/casework/internal/domain/appeal"
	"github.com/openappeals/casework/internal/domain/calendar"
	"github.com/openappeals/casework/internal/domain/timetable"
	"github.com/openappeals/casework/internal/infrastructure/calendar/govuk"
	"github.com/openappeals/casework/internal/infrastructure/database/postgres"
	"github.com/openappeals/casework/internal/infrastructure/monitoring/logging"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "casectl",
		Short:         "Operational tooling for the appeals casework service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to configuration file")

	root.AddCommand(
		newMigrateCommand(&configPath),
		newHolidaysCommand(&configPath),
		newTimetableCommand(&configPath),
	)
	return root
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			conn, err := postgres.NewConnection(cfg.Database, logging.NewNopLogger())
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := conn.RunMigrations(cfg.Database.MigrationPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newHolidaysCommand(configPath *string) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "List the public holidays the calendar feed reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			client := govuk.NewClient(cfg.Calendar, logging.NewNopLogger())
			days, err := client.PublicHolidays(cmd.Context(), cfg.Calendar.Division)
			if err != nil {
				return err
			}
			sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
			for _, d := range days {
				if year != 0 && d.Year() != year {
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), d.Format("2006-01-02 Monday"))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "only show holidays in this year")
	return cmd
}

func newTimetableCommand(configPath *string) *cobra.Command {
	var (
		caseType   string
		procedure  string
		startDate  string
		obligation bool
	)

	cmd := &cobra.Command{
		Use:   "timetable",
		Short: "Preview the deadline set for a case type, procedure and start date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			anchor, err := time.ParseInLocation("2006-01-02", startDate, time.UTC)
			if err != nil {
				return fmt.Errorf("invalid --start date %q: %w", startDate, err)
			}

			source := govuk.NewClient(cfg.Calendar, logging.NewNopLogger())
			cal := calendar.NewBusinessCalendar(source, cfg.Calendar.Division)
			calc := timetable.NewCalculator(cal, cfg.Timetable.CutoffHour, cfg.Timetable.CutoffMinute)

			tt, err := calc.Compute(cmd.Context(), timetable.Input{
				AppealID:           "preview",
				CaseType:           appeal.CaseType(caseType),
				Procedure:          appeal.ProcedureType(procedure),
				AnchorDate:         anchor,
				PlanningObligation: obligation,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tt)
		},
	}
	cmd.Flags().StringVar(&caseType, "case-type", "full_planning", "householder or full_planning")
	cmd.Flags().StringVar(&procedure, "procedure", "written", "written, hearing or inquiry")
	cmd.Flags().StringVar(&startDate, "start", time.Now().UTC().Format("2006-01-02"), "case start date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&obligation, "planning-obligation", false, "include the planning obligation deadline")
	return cmd
}
