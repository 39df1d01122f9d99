package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joern1811/wapay/internal/adapter/archive"
	"github.com/joern1811/wapay/internal/adapter/renderer"
	"github.com/joern1811/wapay/internal/app"
	"github.com/joern1811/wapay/internal/logging"
)

var (
	mapFormat string
	mapJSON   string
)

var mapCmd = &cobra.Command{
	Use:   "map <export.zip>",
	Short: "Show which contact sent each image",
	Long: `Correlates the images of a WhatsApp export with the chat and prints
the sender of each one. No OCR or LLM calls are made and no API keys are
needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runMap,
}

func init() {
	mapCmd.Flags().StringVarP(&mapFormat, "format", "f", "text", `Output format: "text" or "markdown"`)
	mapCmd.Flags().StringVar(&mapJSON, "json", "", "Also write the mapping as JSON to this file")
	rootCmd.AddCommand(mapCmd)
}

func runMap(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	p, err := newParser(cfg)
	if err != nil {
		return err
	}

	svc := app.NewService(app.Deps{
		Source: archive.NewExtractor(),
		Parser: p,
		Logger: logging.Component(log, "map"),
	}, app.Options{DayWindow: cfg.DayWindow})

	m, err := svc.Correlate(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	r := &renderer.TextRenderer{Markdown: mapFormat == "markdown"}
	if err := r.Render(cmd.OutOrStdout(), m.Result); err != nil {
		return err
	}
	if mapJSON != "" {
		return app.WriteMapping(mapJSON, m.Result)
	}
	return nil
}
