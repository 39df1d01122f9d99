package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/joern1811/wapay/internal/adapter/archive"
	"github.com/joern1811/wapay/internal/adapter/renderer"
	"github.com/joern1811/wapay/internal/app"
	"github.com/joern1811/wapay/internal/config"
	"github.com/joern1811/wapay/internal/domain"
	"github.com/joern1811/wapay/internal/logging"
	"github.com/joern1811/wapay/internal/metrics"
	"github.com/joern1811/wapay/internal/version"
)

const defaultOutput = "maintenance_payments.xlsx"

var (
	monthStr    string
	output      string
	sqlitePath  string
	keepTemp    bool
	concurrency int
	logLevel    string
	format      string
)

var rootCmd = &cobra.Command{
	Use:   "wapay [export.zip]",
	Short: "Build a payment report from a WhatsApp group export",
	Long: `wapay reads a WhatsApp chat export (.zip file or extracted folder),
works out which group member sent each payment screenshot, reads the
receipts with an OCR model and an LLM, and writes a monthly Excel report.

Missing arguments are asked for interactively.`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runRoot,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&monthStr, "month", "m", "", `Report month "YYYY-MM" (default: current month)`)
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Excel report file (default: "+defaultOutput+")")
	rootCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Also write the report to this SQLite database (replaced on every run)")
	rootCmd.Flags().BoolVar(&keepTemp, "keep-temp", false, "Keep the extracted export after the run")
	rootCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "Images processed in parallel (default from config)")
	rootCmd.Flags().StringVarP(&format, "format", "f", "text", `Mapping output format: "text" or "markdown"`)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
}

// setup loads the configuration and builds the logger. Flags override
// configured values.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(config.LoadOptions{})
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if cmd.Flags().Changed("concurrency") && concurrency > 0 {
		cfg.Concurrency = concurrency
	}
	log := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	return cfg, log, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}

	req, err := resolveRequest(cmd, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	rec := metrics.New(metrics.Options{PushURL: cfg.Metrics.PushURL, Job: cfg.Metrics.Job})

	p, err := newParser(cfg)
	if err != nil {
		return err
	}
	o, err := newOCR(ctx, cfg, rec)
	if err != nil {
		return err
	}
	x, err := newExtractor(ctx, cfg)
	if err != nil {
		return err
	}
	w, closeReport, err := newReportWriter(output, sqlitePath, version.Get().UserAgent())
	if err != nil {
		return err
	}
	defer func() {
		if err := closeReport(); err != nil {
			log.Warn().Err(err).Msg("closing report database")
		}
	}()

	svc := app.NewService(app.Deps{
		Source:    archive.NewExtractor(),
		Parser:    p,
		OCR:       o,
		Extractor: x,
		Writer:    w,
		Renderer:  &renderer.TextRenderer{Markdown: format == "markdown"},
		Metrics:   rec,
		Logger:    logging.Component(log, "pipeline"),
	}, app.Options{DayWindow: cfg.DayWindow, Concurrency: cfg.Concurrency})

	sum, err := svc.Process(ctx, req, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), sum, output, req.MappingPath)
	return nil
}

// resolveRequest fills the export path, month and output from arguments,
// flags and prompts, in that order.
func resolveRequest(cmd *cobra.Command, args []string) (app.Request, error) {
	p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

	var exportPath string
	if len(args) > 0 {
		exportPath = args[0]
	} else {
		answer, err := p.ask("Path to WhatsApp export (.zip)", "")
		if err != nil {
			return app.Request{}, err
		}
		exportPath = trimQuotes(answer)
	}
	if exportPath == "" {
		return app.Request{}, fmt.Errorf("no export given")
	}
	if _, err := os.Stat(exportPath); err != nil {
		return app.Request{}, fmt.Errorf("export %s: %w", exportPath, err)
	}

	if !cmd.Flags().Changed("month") {
		answer, err := p.ask("Month to process (YYYY-MM)", domain.MonthOf(time.Now()).String())
		if err != nil {
			return app.Request{}, err
		}
		monthStr = answer
	}
	month, err := domain.ParseMonth(monthStr)
	if err != nil {
		return app.Request{}, err
	}

	if !cmd.Flags().Changed("output") {
		answer, err := p.ask("Output file", defaultOutput)
		if err != nil {
			return app.Request{}, err
		}
		output = trimQuotes(answer)
	}
	if filepath.Ext(output) == "" {
		output += ".xlsx"
	}

	return app.Request{
		ExportPath:  exportPath,
		Month:       month,
		MappingPath: filepath.Join(filepath.Dir(output), app.MappingFileName),
		KeepTemp:    keepTemp,
	}, nil
}

func printSummary(w io.Writer, sum *app.Summary, reportPath, mappingPath string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Contacts:        %d\n", sum.Contacts)
	fmt.Fprintf(w, "Images:          %d (%d matched, %d in month)\n", sum.Images, sum.Matched, sum.InMonth)
	fmt.Fprintf(w, "Rows written:    %d\n", sum.RowsWritten)
	if sum.Failed > 0 {
		fmt.Fprintf(w, "Failed receipts: %d\n", sum.Failed)
	}
	if len(sum.Missing) > 0 {
		fmt.Fprintf(w, "Missing media:   %d\n", len(sum.Missing))
	}
	fmt.Fprintf(w, "Report:          %s\n", reportPath)
	fmt.Fprintf(w, "Contact mapping: %s\n", mappingPath)
	for _, dir := range sum.TempDirs {
		fmt.Fprintf(w, "Extracted files: %s\n", dir)
	}
}
