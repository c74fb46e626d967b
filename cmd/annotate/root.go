package main

import (
	"fmt"
	"time"

	"github.com/kdimtricp/medannotate/internal/annotation"
	"github.com/kdimtricp/medannotate/internal/config"
	"github.com/kdimtricp/medannotate/internal/logging"
	"github.com/kdimtricp/medannotate/internal/storage"
	"github.com/kdimtricp/medannotate/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	storeURL     string
	threshold    float64
	samples      int
	annotator    string
	updateSource bool
	journalDir   string
	logFile      string
	timeout      time.Duration
}

func defaultOptions(cfg config.AnnotatorConfig) *options {
	return &options{
		storeURL:     cfg.StoreURL,
		threshold:    cfg.Threshold,
		samples:      cfg.NumSamples,
		annotator:    cfg.Annotator,
		updateSource: cfg.UpdateSource,
		journalDir:   cfg.JournalDir,
		logFile:      cfg.LogFilePath,
		timeout:      cfg.StoreTimeout,
	}
}

func newRootCommand() *cobra.Command {
	opts := defaultOptions(config.Load().Annotator)

	rootCmd := &cobra.Command{
		Use:           "annotate",
		Short:         "Review and correct low-confidence medical texts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.storeURL, "store", opts.storeURL, "Base URL of the candidate store")
	flags.Float64Var(&opts.threshold, "threshold", opts.threshold, "Confidence threshold in [0,1]")
	flags.IntVar(&opts.samples, "samples", opts.samples, "Number of candidates to fetch")
	flags.StringVar(&opts.annotator, "annotator", opts.annotator, "Name recorded with each annotation")
	flags.BoolVar(&opts.updateSource, "update-source", opts.updateSource, "Write results back onto the source item")
	flags.StringVar(&opts.journalDir, "journal-dir", opts.journalDir, "Directory for the local annotation journal")
	flags.StringVar(&opts.logFile, "log-file", opts.logFile, "Write logs to this file")
	flags.DurationVar(&opts.timeout, "timeout", opts.timeout, "Timeout for each store request")

	rootCmd.AddCommand(newJournalCommand(opts))

	return rootCmd
}

func runShell(cmd *cobra.Command, opts *options) error {
	logger := logging.NewFileOnly(opts.logFile)
	defer logger.Sync()

	client := store.NewClient(opts.storeURL, opts.timeout, logger)

	benchOpts := []annotation.WorkbenchOption{annotation.WithLogger(logger)}
	if opts.journalDir != "" {
		journal, err := storage.NewLocalJournal(opts.journalDir)
		if err != nil {
			return err
		}
		benchOpts = append(benchOpts, annotation.WithRecorder(journal))
	}

	bench, err := annotation.NewWorkbench(client, annotation.WorkbenchConfig{
		Threshold:    opts.threshold,
		Capacity:     opts.samples,
		Annotator:    opts.annotator,
		UpdateSource: opts.updateSource,
		StoreTimeout: opts.timeout,
	}, benchOpts...)
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	defer bench.Close()

	logger.Info("annotator started",
		zap.String("store", opts.storeURL),
		zap.Float64("threshold", opts.threshold),
		zap.Int("samples", opts.samples),
		zap.Bool("update_source", opts.updateSource),
	)

	out := cmd.OutOrStdout()
	sh := newShell(bench, cmd.InOrStdin(), out, newRenderer(shouldColorize(out)))
	return sh.Run(cmd.Context())
}
