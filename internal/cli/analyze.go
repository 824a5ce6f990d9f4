package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/radiusdt/vector-insights/internal/analysis"
	"github.com/radiusdt/vector-insights/internal/insights"
	"github.com/radiusdt/vector-insights/internal/report"
)

func newAnalyzeCommand(g *globalFlags) (cmd *cobra.Command) {
	var file string
	var out string
	var conversion string
	var topN int
	var format string
	var brief bool
	var preamble bool

	cmd = &cobra.Command{
		Use:     "analyze",
		Short:   "Analyze a daily ads export and write the report tables",
		Example: `adreport analyze --file export.csv --out reports --conversion Purchases --brief`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			if topN < 0 {
				return fmt.Errorf("--top-n must be positive")
			}
			th, err := g.thresholds()
			if err != nil {
				return err
			}
			logger, err := g.logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			in, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer in.Close()

			svc := insights.NewService(insights.Config{
				Thresholds:       th,
				Levels:           analysis.DefaultOptions(),
				ConversionColumn: conversion,
				Logger:           logger,
			})
			res, err := svc.AnalyzeCSV(cmd.Context(), filepath.Base(file), in, insights.Options{TopN: topN})
			if err != nil {
				return err
			}

			paths, err := report.WriteDir(out, res, f)
			if err != nil {
				return err
			}
			if brief {
				opts := report.BriefOptions{TopN: topN, MinSpend: th.Sample.MinSpend, Preamble: preamble}
				if opts.TopN == 0 {
					opts.TopN = th.Sample.TopN
				}
				p, err := report.WriteBrief(out, res, opts)
				if err != nil {
					return err
				}
				paths = append(paths, p)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: %d of %d rows used, latest day %s\n",
				res.Source, res.Input.Accepted, res.Input.Rows, res.Anchor.Format("2006-01-02"))
			if res.Input.BadDate+res.Input.BadNumber+res.Input.Clamped > 0 {
				fmt.Fprintf(w, "rows without a date: %d, unreadable numbers: %d, negative values zeroed: %d\n",
					res.Input.BadDate, res.Input.BadNumber, res.Input.Clamped)
			}
			fmt.Fprintf(w, "alerts: %d, trends: %d\n", len(res.Alerts), len(res.Trends))
			for _, p := range paths {
				fmt.Fprintln(w, "wrote", p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Daily export CSV to analyze")
	cmd.Flags().StringVarP(&out, "out", "o", ".", "Output directory")
	cmd.Flags().StringVar(&conversion, "conversion", "", "Header of the column counted as conversions")
	cmd.Flags().IntVar(&topN, "top-n", 0, "Rows kept in ranked samples (0 uses the threshold default)")
	cmd.Flags().StringVar(&format, "format", string(report.FormatCSV), "Export format (csv, json or xlsx)")
	cmd.Flags().BoolVar(&brief, "brief", false, "Also write the markdown analyst brief")
	cmd.Flags().BoolVar(&preamble, "preamble", false, "Start the brief with instructions for a text-generation assistant")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}

	return cmd
}
