// Command report loads a portfolio file, applies filters and writes the
// filtered records to an export file without starting the web server.
//
//	report -file cartera.xlsx -filter city=BOGOTA -filter risk_level=E -out bogota.xlsx
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"creditpulse/internal/config"
	"creditpulse/internal/exporter"
	"creditpulse/internal/files"
	"creditpulse/internal/infrastructure"
	"creditpulse/internal/services"
	"creditpulse/internal/validation"
	"creditpulse/pkg/contracts"
)

// filterArg is one -filter dimension=value pair.
type filterArg struct {
	Dimension string
	Value     string
}

// filterFlags collects repeated -filter flags.
type filterFlags []filterArg

func (f *filterFlags) String() string {
	parts := make([]string, len(*f))
	for i, arg := range *f {
		parts[i] = arg.Dimension + "=" + arg.Value
	}
	return strings.Join(parts, ",")
}

func (f *filterFlags) Set(s string) error {
	dim, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(dim) == "" {
		return fmt.Errorf("filter %q must look like dimension=value", s)
	}
	*f = append(*f, filterArg{Dimension: strings.TrimSpace(dim), Value: strings.TrimSpace(value)})
	return nil
}

type options struct {
	File        string
	Out         string
	Filters     filterFlags
	ShowVersion bool
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.File, "file", "", "portfolio file to load (defaults to the newest file in the data directory)")
	fs.StringVar(&opts.Out, "out", "", "export file, .xlsx or .csv (relative names land in the exports directory)")
	fs.Var(&opts.Filters, "filter", "filter as dimension=value, may be repeated")
	fs.BoolVar(&opts.ShowVersion, "version", false, "print the build version and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

// result describes a finished report run.
type result struct {
	Source     string
	OutputPath string
	Summary    *services.Summary
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger) (*result, error) {
	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	validator := validation.NewFileValidator(cfg.Upload.AllowedExtensions, logger)

	source := opts.File
	if source == "" {
		discovery := files.NewDiscovery(paths.DataDir, cfg.Upload.AllowedExtensions)
		found, err := discovery.FindPortfolioFiles("")
		if err != nil {
			return nil, err
		}
		latest, ok := files.GetLatestFile(found)
		if !ok {
			return nil, fmt.Errorf("no portfolio file found in %s", paths.DataDir)
		}
		source = latest.Path
	}
	if err := validator.ValidatePortfolioFile(source); err != nil {
		return nil, err
	}

	out := opts.Out
	if out == "" {
		out = exporter.FileName(exporter.RecordsSheet, exporter.FormatXLSX, time.Now())
	}
	if filepath.IsAbs(out) {
		if err := validator.ValidateOutputDirectory(filepath.Dir(out)); err != nil {
			return nil, err
		}
	}

	service := services.NewDashboardService(cfg, paths, nil, nil, logger)
	if _, err := service.LoadPath(ctx, source); err != nil {
		return nil, err
	}

	for _, f := range opts.Filters {
		if _, err := service.SetFilter(ctx, f.Dimension, f.Value); err != nil {
			return nil, err
		}
	}

	fullPath, err := service.ExportFile(ctx, out)
	if err != nil {
		return nil, err
	}

	return &result{
		Source:     source,
		OutputPath: fullPath,
		Summary:    service.Summary(ctx),
	}, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if opts.ShowVersion {
		fmt.Println("creditpulse-report", contracts.CurrentBuild())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	logger = infrastructure.WithComponent(logger, "report")
	ctx := infrastructure.EnsureTraceID(context.Background())

	res, err := run(ctx, cfg, opts, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	m := res.Summary.Metrics
	logger.InfoContext(ctx, "Report written",
		slog.String("source", res.Source),
		slog.String("output", res.OutputPath),
		slog.Int("filtered_records", res.Summary.FilteredCount),
		slog.Int("total_records", res.Summary.TotalCount),
		slog.String("total_portfolio", exporter.FormatCurrency(m.TotalPortfolio)),
		slog.String("capital_balance", exporter.FormatCurrency(m.CapitalBalance)),
		slog.String("delinquency_amount", exporter.FormatCurrency(m.DelinquencyAmount)),
		slog.String("delinquency_rate", exporter.FormatPercent(m.DelinquencyRate)),
		slog.String("high_risk_rate", exporter.FormatPercent(m.HighRiskRate)))
}
