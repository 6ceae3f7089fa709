package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/sortie/app"
	"github.com/kilianp07/sortie/pkg/export"
)

var summaryDays int

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List committed roster versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		week, _ := cmd.Flags().GetString("week")
		return withService(func(ctx context.Context, svc *app.Service) error {
			vs, err := svc.Versions(ctx, week)
			if err != nil {
				return err
			}
			if output == export.FormatCSV {
				return export.WriteVersionsCSV(cmd.OutOrStdout(), vs)
			}
			return export.WriteJSON(cmd.OutOrStdout(), vs)
		})
	},
}

var weatherCmd = &cobra.Command{
	Use:   "weather",
	Short: "Show the current report for the base airfield",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := jsonOnly("weather"); err != nil {
			return err
		}
		scenario, _ := cmd.Flags().GetString("scenario")
		return withService(func(ctx context.Context, svc *app.Service) error {
			r, err := svc.Weather(ctx, scenario)
			if err != nil {
				return err
			}
			return export.WriteJSON(cmd.OutOrStdout(), r)
		})
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Summarise reallocation churn over recent days",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := jsonOnly("metrics"); err != nil {
			return err
		}
		return withService(func(ctx context.Context, svc *app.Service) error {
			s, err := svc.Metrics(ctx, summaryDays)
			if err != nil {
				return err
			}
			return export.WriteJSON(cmd.OutOrStdout(), s)
		})
	},
}

func init() {
	versionsCmd.Flags().StringP("week", "w", "", "week start date; every week when empty")
	weatherCmd.Flags().String("scenario", "", "mock scenario instead of the configured source")
	metricsCmd.Flags().IntVar(&summaryDays, "days", 0, "look-back window in days; configured default when 0")
	rootCmd.AddCommand(versionsCmd, weatherCmd, metricsCmd)
}
