package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/sortie/app"
	"github.com/kilianp07/sortie/config"
	"github.com/kilianp07/sortie/infra/logger"
	"github.com/kilianp07/sortie/pkg/export"
)

var (
	cfgPath string
	output  string
)

var rootCmd = &cobra.Command{
	Use:           "sortie",
	Short:         "Flight training roster and dispatch tool",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return export.CheckFormat(output)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose Prometheus metrics until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *app.Service) error {
			return svc.Run(ctx)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json); defaults and SORTIE_ variables apply when empty")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", export.FormatJSON, "output format: json or csv")
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// withService loads the configuration, builds the service and runs fn with a
// context cancelled on SIGINT or SIGTERM.
func withService(fn func(ctx context.Context, svc *app.Service) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Configure(cfg.Logging)
	svc, err := app.New(cfg, app.Deps{})
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return fn(ctx, svc)
}

func jsonOnly(name string) error {
	if output != export.FormatJSON {
		return fmt.Errorf("%s: only json output is supported", name)
	}
	return nil
}
