package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/sortie/app"
	"github.com/kilianp07/sortie/core/model"
	"github.com/kilianp07/sortie/core/scheduler"
	"github.com/kilianp07/sortie/pkg/export"
)

var (
	weekStart       string
	weatherScenario string

	eventType     string
	entityID      string
	fromTime      string
	toTime        string
	correlationID string
	metadata      map[string]string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate and dispatch the roster of a week",
	RunE:  runGenerate,
}

var reallocateCmd = &cobra.Command{
	Use:   "reallocate",
	Short: "Apply a disruption to the latest roster of a week",
	RunE:  runReallocate,
}

func init() {
	generateCmd.Flags().StringVarP(&weekStart, "week", "w", "", "week start date (Monday, YYYY-MM-DD)")
	generateCmd.Flags().StringVar(&weatherScenario, "weather-scenario", "", "use a mock weather scenario instead of the configured source")
	_ = generateCmd.MarkFlagRequired("week")

	f := reallocateCmd.Flags()
	f.StringVarP(&weekStart, "week", "w", "", "week start date (Monday, YYYY-MM-DD)")
	f.StringVarP(&eventType, "event", "e", "", "WEATHER_UPDATE, AIRCRAFT_UNSERVICEABLE, INSTRUCTOR_UNAVAILABLE or STUDENT_UNAVAILABLE")
	f.StringVar(&entityID, "entity", "", "id of the unavailable aircraft, instructor or student")
	f.StringVar(&fromTime, "from", "", "first affected date (YYYY-MM-DD or RFC3339)")
	f.StringVar(&toTime, "to", "", "last affected date (YYYY-MM-DD or RFC3339)")
	f.StringVar(&weatherScenario, "weather-scenario", "", "mock weather scenario for WEATHER_UPDATE")
	f.StringVar(&correlationID, "correlation-id", "", "correlation id; generated when empty")
	f.StringToStringVar(&metadata, "meta", nil, "extra event metadata as key=value")
	_ = reallocateCmd.MarkFlagRequired("week")
	_ = reallocateCmd.MarkFlagRequired("event")

	rootCmd.AddCommand(generateCmd, reallocateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *app.Service) error {
		v, err := svc.GenerateRoster(ctx, app.GenerateRequest{WeekStart: weekStart, WeatherScenario: weatherScenario})
		if err != nil {
			return err
		}
		if output == export.FormatCSV {
			return export.WriteRosterCSV(cmd.OutOrStdout(), v.Roster)
		}
		return export.WriteJSON(cmd.OutOrStdout(), v)
	})
}

func runReallocate(cmd *cobra.Command, args []string) error {
	ev, err := buildEvent()
	if err != nil {
		return err
	}
	return withService(func(ctx context.Context, svc *app.Service) error {
		v, err := svc.Reallocate(ctx, app.ReallocateRequest{WeekStart: weekStart, Event: ev})
		if err != nil {
			return err
		}
		if output == export.FormatCSV {
			return export.WriteDiffCSV(cmd.OutOrStdout(), *v.Diff)
		}
		return export.WriteJSON(cmd.OutOrStdout(), v)
	})
}

func buildEvent() (model.DisruptionEvent, error) {
	t, err := model.ParseEventType(eventType)
	if err != nil {
		return model.DisruptionEvent{}, err
	}
	ev := model.DisruptionEvent{
		EventType:     t,
		EntityID:      entityID,
		CorrelationID: correlationID,
		Metadata:      map[string]any{},
	}
	for k, v := range metadata {
		ev.Metadata[k] = v
	}
	if weatherScenario != "" {
		ev.Metadata[app.MetaWeatherScenario] = weatherScenario
	}
	if ev.FromTime, err = parseBound(fromTime); err != nil {
		return model.DisruptionEvent{}, fmt.Errorf("--from: %w", err)
	}
	if ev.ToTime, err = parseBound(toTime); err != nil {
		return model.DisruptionEvent{}, fmt.Errorf("--to: %w", err)
	}
	return ev, nil
}

func parseBound(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	layout := scheduler.DateLayout
	if len(s) > len(layout) {
		layout = time.RFC3339
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
