package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ThiagoRGoveia/fvt-dashboard/internal/config"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/dashboard"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/presentation"
	"github.com/ThiagoRGoveia/fvt-dashboard/internal/selection"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type reportOptions struct {
	baseType       string
	fvts           []string
	limitsBaseType string
	limitsFVT      string
	format         string
	chartsDir      string
}

func newReportCommand(ctx context.Context) *cobra.Command {
	var opts reportOptions
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the dashboard for one selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "json" && opts.format != "yaml" {
				return fmt.Errorf("unsupported format %q, expected json or yaml", opts.format)
			}
			cfg, svc, cleanupFunc, err := setup(ctx, nil)
			if err != nil {
				return err
			}
			defer cleanup(cleanupFunc)
			return report(ctx, cmd.OutOrStdout(), cfg, svc, opts)
		},
	}
	cmd.Flags().StringVar(&opts.baseType, "base-type", "", "Product type to analyse, defaults to the first one")
	cmd.Flags().StringSliceVar(&opts.fvts, "fvt", nil, "FVTs to include, repeatable; all when omitted")
	cmd.Flags().StringVar(&opts.limitsBaseType, "limits-base-type", "", "Product type of the limits section")
	cmd.Flags().StringVar(&opts.limitsFVT, "limits-fvt", "", "FVT of the limits section; all when omitted")
	cmd.Flags().StringVar(&opts.format, "format", "json", "Output format: json or yaml")
	cmd.Flags().StringVar(&opts.chartsDir, "charts-dir", "", "Also write every chart as PNG into this directory")
	return cmd
}

func report(ctx context.Context, out io.Writer, cfg *config.Config, svc *dashboard.Service, opts reportOptions) error {
	data, err := svc.Load(ctx)
	if err != nil {
		return err
	}

	state := selection.New(data.Tests, data.Limits)
	if opts.baseType != "" {
		if err := state.SelectBaseType(opts.baseType); err != nil {
			return err
		}
	}
	if len(opts.fvts) > 0 {
		if err := state.SelectFVTs(opts.fvts); err != nil {
			return err
		}
	}
	if opts.limitsBaseType != "" || opts.limitsFVT != "" {
		limitsBaseType := opts.limitsBaseType
		if limitsBaseType == "" {
			limitsBaseType = state.Snapshot().LimitsBaseType
		}
		if err := state.SelectLimits(limitsBaseType, opts.limitsFVT); err != nil {
			return err
		}
	}

	view, err := svc.Build(ctx, data, state.Snapshot())
	if err != nil {
		return err
	}

	if opts.chartsDir != "" {
		if err := writeCharts(opts.chartsDir, view, presentation.NewRenderer(cfg.ChartWidth, cfg.ChartHeight)); err != nil {
			return err
		}
	}

	if opts.format == "yaml" {
		encoder := yaml.NewEncoder(out)
		if err := encoder.Encode(view); err != nil {
			return err
		}
		return encoder.Close()
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(view)
}

func writeCharts(dir string, view *dashboard.View, renderer *presentation.Renderer) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for _, name := range []string{dashboard.ChartProduct, dashboard.ChartFVT, dashboard.ChartTrend, dashboard.ChartLimits} {
		series, _ := view.Chart(name)
		if series.Empty() {
			log.WithField("chart", name).Warn("No data for this selection, chart skipped")
			continue
		}
		path := filepath.Join(dir, name+".png")
		if err := writeChart(path, series, renderer); err != nil {
			return err
		}
	}
	return nil
}

func writeChart(path string, series presentation.Series, renderer *presentation.Renderer) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()
	if err := renderer.RenderPNG(file, series); err != nil {
		return err
	}
	return file.Close()
}
