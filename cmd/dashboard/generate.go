package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/couchcryptid/storm-data-dashboard/internal/adapter/csvsource"
	"github.com/couchcryptid/storm-data-dashboard/internal/config"
	"github.com/couchcryptid/storm-data-dashboard/internal/dashboard"
	"github.com/couchcryptid/storm-data-dashboard/internal/observability"
	"github.com/couchcryptid/storm-data-dashboard/internal/pipeline"
	"github.com/couchcryptid/storm-data-dashboard/internal/vegalite"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	rose   string
	hist   string
	outDir string
	inline bool
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate [view]",
		Args:  cobra.MaximumNArgs(1),
		Short: "Write dashboard specifications as JSON",
		Long: "Write dashboard specifications as JSON.\n" +
			"\n" +
			"With --out every view is written to <out>/<view>.vl.json.\n" +
			"Otherwise the named view (default: dashboard) is printed to stdout.",
		ValidArgs: dashboard.ViewNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			view := "dashboard"
			if len(args) > 0 {
				view = args[0]
			}
			if !slices.Contains(dashboard.ViewNames(), view) {
				return fmt.Errorf("unknown view %q (want one of %v)", view, dashboard.ViewNames())
			}
			return runGenerate(cmd.Context(), opts, view)
		},
	}
	cmd.Flags().StringVar(&opts.rose, "rose", "", "wind-rose CSV (overrides ROSE_CSV)")
	cmd.Flags().StringVar(&opts.hist, "hist", "", "histogram CSV (overrides HIST_CSV)")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "directory to write every view into")
	cmd.Flags().BoolVar(&opts.inline, "inline", false, "inline records into each data block instead of top-level datasets")
	return cmd
}

func runGenerate(ctx context.Context, opts generateOptions, view string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.rose != "" {
		cfg.RoseCSV = opts.rose
	}
	if opts.hist != "" {
		cfg.HistCSV = opts.hist
	}

	logger := observability.NewCommandLogger(cfg.LogLevel, os.Stderr)

	var emitOpts []vegalite.Option
	if opts.inline {
		emitOpts = append(emitOpts, vegalite.WithInlineData())
	}
	src := csvsource.New(cfg.RoseCSV, cfg.HistCSV, cfg.Statistics, logger)
	p := pipeline.New(src, cfg.Statistics, logger, observability.NewUnregisteredMetrics(),
		pipeline.WithEmitOptions(emitOpts...))
	if err := p.Build(ctx); err != nil {
		return err
	}

	if opts.outDir == "" {
		doc, _ := p.Document(view)
		_, err := os.Stdout.Write(append(doc.JSON, '\n'))
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, doc := range p.Documents() {
		path := filepath.Join(opts.outDir, doc.Name+".vl.json")
		if err := os.WriteFile(path, doc.JSON, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		logger.Info("spec written", "view", doc.Name, "path", path, "hash", doc.HashHex())
	}
	return nil
}
