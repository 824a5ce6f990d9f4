// Package cli implements the adreport command line tool.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/radiusdt/vector-insights/internal/analysis"
	"github.com/radiusdt/vector-insights/internal/config"
	"github.com/radiusdt/vector-insights/internal/middleware"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	thresholdsFile string
	logLevel       string
	logFormat      string
}

func (g *globalFlags) logger() (*zap.Logger, error) {
	return middleware.NewLogger(g.logLevel, g.logFormat)
}

func (g *globalFlags) thresholds() (analysis.Thresholds, error) {
	return config.LoadThresholds(g.thresholdsFile, analysis.DefaultThresholds())
}

// NewCommand returns the root command for the adreport CLI.
func NewCommand() (cmd *cobra.Command) {
	g := &globalFlags{}

	cmd = &cobra.Command{
		Use:          "adreport",
		Short:        "Ad performance analysis reports",
		Long:         `adreport turns an ads-manager daily export into window tables, alerts, trends and an analyst brief.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newAnalyzeCommand(g),
		newThresholdsCommand(g),
	)

	cmd.PersistentFlags().StringVar(&g.thresholdsFile, "thresholds", "", "YAML file overriding the default rule thresholds")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "console", "Log format (console or json)")

	return cmd
}
