package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/spf13/cobra"

	"github.com/joern1811/wapay/internal/adapter/extractor"
	"github.com/joern1811/wapay/internal/adapter/ocr"
	"github.com/joern1811/wapay/internal/config"
)

var skipValidation bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file with the OCR and LLM API keys",
	Long: `Interactively creates the wapay config file.
Prompts for the OCR (Together AI) and LLM (Groq) API keys, validates them
against the APIs, and writes ~/.config/wapay/config.json.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&skipValidation, "no-validate", false, "Write the keys without checking them")
	rootCmd.AddCommand(initCmd)
}

// keySpec describes one API key asked for by init.
type keySpec struct {
	section string
	label   string
	baseURL string
}

var initKeys = []keySpec{
	{section: "ocr", label: "OCR API key (Together AI)", baseURL: ocr.DefaultOpenAIBaseURL},
	{section: "llm", label: "LLM API key (Groq)", baseURL: extractor.DefaultOpenAIBaseURL},
}

func runInit(cmd *cobra.Command, _ []string) error {
	configPath, err := config.Path()
	if err != nil {
		return fmt.Errorf("locating config: %w", err)
	}
	out := cmd.OutOrStdout()
	p := newPrompter(cmd.InOrStdin(), out)

	existing := map[string]any{}
	if _, err := os.Stat(configPath); err == nil {
		existing, err = readConfigFile(configPath)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Config already exists at %s\n", configPath)
		ok, err := p.confirm("Overwrite?")
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	for _, k := range initKeys {
		section := sectionOf(existing, k.section)
		current, _ := section["api_key"].(string)

		def := ""
		if current != "" {
			def = mask(current)
		}
		answer, err := p.ask(k.label, def)
		if err != nil {
			return err
		}
		key := answer
		if answer == def {
			key = current
		}
		if key == "" {
			return fmt.Errorf("%s must not be empty", k.label)
		}

		provider, _ := section["provider"].(string)
		if !skipValidation && (provider == "" || provider == config.ProviderOpenAI) {
			baseURL, _ := section["base_url"].(string)
			if baseURL == "" {
				baseURL = k.baseURL
			}
			fmt.Fprint(out, "Validating... ")
			if err := validateAPIKey(cmd.Context(), baseURL, key); err != nil {
				fmt.Fprintln(out, "FAILED")
				return fmt.Errorf("invalid %s: %w", k.label, err)
			}
			fmt.Fprintln(out, "OK")
		}

		section["api_key"] = key
		existing[k.section] = section
	}

	if err := writeConfigFile(configPath, existing); err != nil {
		return err
	}
	fmt.Fprintf(out, "Config written to %s\n", configPath)
	return nil
}

func sectionOf(cfg map[string]any, name string) map[string]any {
	if s, ok := cfg[name].(map[string]any); ok {
		return s
	}
	return map[string]any{}
}

func mask(key string) string {
	if len(key) <= 10 {
		return "***"
	}
	return key[:4] + "***" + key[len(key)-3:]
}

func readConfigFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := map[string]any{}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s is not valid JSON: %v", config.ErrConfiguration, path, err)
	}
	return cfg, nil
}

func writeConfigFile(path string, cfg map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

var errNoModels = errors.New("no models available for this key")

func validateAPIKey(ctx context.Context, baseURL, apiKey string) error {
	client := openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(baseURL))

	page, err := client.Models.List(ctx)
	if err != nil {
		return err
	}
	if len(page.Data) == 0 {
		return errNoModels
	}
	return nil
}
