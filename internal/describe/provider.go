package describe

import (
	"net/http"

	"github.com/backmassage/folderize/internal/config"
)

// FromConfig returns the Describer a run should use. It returns Template
// when AI is disabled, and also, with a warning, when no credential was
// resolved.
func FromConfig(cfg *config.Config, httpClient *http.Client, log Logger) Describer {
	if !cfg.UseAI {
		return Template{}
	}
	if cfg.APIKey == "" {
		log.Warn("%s not found. Proceeding without AI. Pass --api-key or set the variable to enable it.", cfg.Provider.EnvKey())
		return Template{}
	}

	prompt := MetadataPrompt
	if cfg.Variant == config.VariantOrganize {
		prompt = ReadmePrompt
	}
	return NewAI(NewCompleter(cfg, httpClient), prompt, cfg.AITimeout, log)
}

// NewCompleter builds the vendor client selected by cfg.Provider.
func NewCompleter(cfg *config.Config, httpClient *http.Client) Completer {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return NewAnthropic(cfg.APIKey, cfg.APIURL, cfg.Model, httpClient)
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.APIKey, cfg.APIURL, cfg.Model, httpClient)
	default:
		baseURL := cfg.APIURL
		if baseURL == "" {
			baseURL = config.GeminiBaseURL
		}
		return NewOpenAI(cfg.APIKey, baseURL, cfg.Model, httpClient)
	}
}
