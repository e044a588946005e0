package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/backmassage/folderize/internal/config"
	"github.com/backmassage/folderize/internal/describe"
	"github.com/backmassage/folderize/internal/display"
	"github.com/backmassage/folderize/internal/logging"
	"github.com/backmassage/folderize/internal/metrics"
	"github.com/backmassage/folderize/internal/pipeline"
	"github.com/backmassage/folderize/internal/selector"
)

func newGenerateCmd(a *app) *cobra.Command {
	cfg := config.ForVariant(config.VariantGenerate)
	cmd := &cobra.Command{
		Use:   "generate [flags] input_dir",
		Short: "Create a folder with a metadata README for every file in input_dir",
		Example: `  folderize generate ./notes -o ./out -r --include-ext .md
  folderize generate ./src --copy-original --use-ai --provider openai`,
	}
	b := config.BindGenerateFlags(cmd.Flags(), &cfg)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return a.runOrganizer(cmd, &cfg, b, args)
	}
	return cmd
}

func newOrganizeCmd(a *app) *cobra.Command {
	cfg := config.ForVariant(config.VariantOrganize)
	cmd := &cobra.Command{
		Use:   "organize --source-dir DIR [flags]",
		Short: "Copy or move every file into its own folder with a README",
		Example: `  folderize organize --source-dir ./inbox
  folderize organize --source-dir ./inbox --move --include-ext .py,.md --skip-ai`,
	}
	b := config.BindOrganizeFlags(cmd.Flags(), &cfg)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return a.runOrganizer(cmd, &cfg, b, args)
	}
	return cmd
}

// prepare merges fallbacks into the parsed flags and validates the result.
func (a *app) prepare(cmd *cobra.Command, cfg *config.Config, b *config.Binder, args []string) error {
	if err := applyViper(cmd.Flags(), a.v); err != nil {
		return usageError(err)
	}
	if err := b.Apply(args); err != nil {
		return usageError(err)
	}
	resolveSecrets(cfg)
	return nil
}

func (a *app) runOrganizer(cmd *cobra.Command, cfg *config.Config, b *config.Binder, args []string) error {
	if err := a.prepare(cmd, cfg, b, args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return usageError(err)
	}

	log, err := logging.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	display.PrintBanner(a.stdout)
	log.Info("=== folderize %s v%s ===", cfg.Variant, a.version)

	m := newMetrics(cfg)
	defer writeMetrics(cfg, m, log)

	ctx, stop := watchSignals(cmd.Context(), log)
	defer stop()

	stats, err := pipeline.Run(ctx, cfg, log, pipeline.Deps{
		Describer: describe.FromConfig(cfg, nil, log),
		Metrics:   m,
	})
	if err != nil {
		log.Error("%v", err)
		if errors.Is(err, selector.ErrNotFound) || errors.Is(err, selector.ErrNotADirectory) {
			return &exitError{code: ExitUsage}
		}
		return failed()
	}

	display.PrintSummary(a.stdout, "Summary", []display.Row{
		{Label: "Files", Value: fmt.Sprint(stats.Total)},
		{Label: "Processed", Value: fmt.Sprint(stats.Processed)},
		{Label: "AI-generated", Value: fmt.Sprint(stats.Described)},
		{Label: "Failed", Value: fmt.Sprint(stats.Failed)},
		{Label: "Not processed", Value: fmt.Sprint(stats.Skipped)},
		{Label: "Size", Value: display.FormatBytes(stats.TotalBytes)},
		{Label: "Output", Value: cfg.OutputDir},
	})
	if !stats.OK() {
		return failed()
	}
	return nil
}

func newMetrics(cfg *config.Config) metrics.Metrics {
	if cfg.MetricsFile == "" {
		return metrics.Noop{}
	}
	return metrics.NewMetrics()
}

func writeMetrics(cfg *config.Config, m metrics.Metrics, log *logging.Logger) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(m, cfg.MetricsFile); err != nil {
		log.Warn("%v", err)
		return
	}
	log.Debug("Metrics written to %s", cfg.MetricsFile)
}

// watchSignals cancels the returned context on SIGINT or SIGTERM so a run
// can stop between files without leaving partial output.
func watchSignals(parent context.Context, log *logging.Logger) (context.Context, func()) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Received interrupt, finishing current item...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
