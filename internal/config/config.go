// Package config holds runtime configuration: defaults, CLI flag binding, and
// validation. [ForVariant] adjusts the defaults for generate and organize.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// --- Enum types for validated string fields ---

// Variant selects which organizer product a run behaves like.
type Variant string

const (
	VariantGenerate Variant = "generate" // Metadata README, "name-2" numbering.
	VariantOrganize Variant = "organize" // Template README, "name_1" numbering.
)

// Transfer controls what happens to the source file.
type Transfer string

const (
	TransferNone Transfer = "none" // Leave the source in place (generate default).
	TransferCopy Transfer = "copy" // Copy into the target folder (organize default).
	TransferMove Transfer = "move" // Move into the target folder.
)

// Provider selects the text-generation backend.
type Provider string

const (
	ProviderGemini    Provider = "gemini"    // Google, via its OpenAI-compatible endpoint (default).
	ProviderOpenAI    Provider = "openai"    // OpenAI or any compatible server (--api-url).
	ProviderAnthropic Provider = "anthropic" // Anthropic Messages API.
)

// GeminiBaseURL is Google's OpenAI-compatible endpoint.
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

// EnvKey is the environment variable holding the provider credential.
func (p Provider) EnvKey() string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "GOOGLE_API_KEY"
	}
}

// DefaultModel is used when --model is not given.
func (p Provider) DefaultModel() string {
	switch p {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-3-5-haiku-latest"
	default:
		return "gemini-1.5-flash"
	}
}

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig] or
// [ForVariant] and then mutated by the flag binders before being passed (by
// pointer) to packages that need it.
type Config struct {
	Variant Variant

	// Paths.
	InputDir  string
	OutputDir string // Default: "./generated_output" (generate) or "<input>_organized" (organize).

	// Selection.
	Recursive   bool
	IncludeExts []string
	ExcludeExts []string

	// Materialization.
	Transfer       Transfer
	ReadmeFilename string // Default: "README.md".
	Overwrite      bool   // organize: reuse existing folders and rewrite READMEs.
	DryRun         bool

	// Description.
	UseAI     bool
	Provider  Provider
	Model     string        // Default: provider-specific.
	APIKey    string        // Resolved once at startup from --api-key or the provider env var.
	APIURL    string        // Optional base URL override.
	MaxBytes  int           // Default: 120000.
	AITimeout time.Duration // Default: 60s.

	// Display and logging.
	Verbose     bool
	ColorMode   ColorMode
	LogFile     string
	MetricsFile string
	CheckOnly   bool // Diagnostics only; paths are not required.

	Chat ChatConfig
}

// ChatConfig holds settings for the chat subcommands.
type ChatConfig struct {
	Token          string        // From --token or BOT_TOKEN.
	APIEndpoint    string        // Bot API endpoint format; empty means the public API.
	Output         string        // JSON output path.
	Load           string        // Load an existing JSON document instead of collecting.
	GroupsFile     string        // crawl: one group identifier per line.
	ChatID         int64         // send: destination chat.
	Pattern        string        // send: glob of files to upload.
	HistoryPath    string        // Optional bolt database accumulating collected files.
	Delay          time.Duration // crawl: pause between groups. Default: 2s.
	SendTimeout    time.Duration // send: per-file upload timeout. Default: 300s.
	MaxUploadBytes int64         // send: hard ceiling. Default: 50 MiB.
}

// DefaultConfig returns the generate-variant defaults. Used as the base before
// flags apply CLI overrides.
func DefaultConfig() Config {
	return Config{
		Variant:        VariantGenerate,
		OutputDir:      "./generated_output",
		Transfer:       TransferNone,
		ReadmeFilename: "README.md",
		Provider:       ProviderGemini,
		MaxBytes:       120000,
		AITimeout:      60 * time.Second,
		ColorMode:      ColorAuto,
		Chat: ChatConfig{
			Output:         "telegram_groups_data.json",
			GroupsFile:     "groups.txt",
			Delay:          2 * time.Second,
			SendTimeout:    300 * time.Second,
			MaxUploadBytes: 50 * 1024 * 1024,
		},
	}
}

// ForVariant returns DefaultConfig adjusted for v.
func ForVariant(v Variant) Config {
	cfg := DefaultConfig()
	cfg.Variant = v
	if v == VariantOrganize {
		cfg.OutputDir = "" // derived from InputDir in Validate
		cfg.Transfer = TransferCopy
		cfg.UseAI = true
	}
	return cfg
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields and numeric limits. When not in CheckOnly
// mode it also requires an input directory and derives the organize output
// directory when none was given.
func (c *Config) Validate() error {
	switch c.Variant {
	case VariantGenerate, VariantOrganize:
		// valid
	default:
		return errors.New("invalid variant (use 'generate' or 'organize')")
	}

	switch c.Transfer {
	case TransferNone, TransferCopy, TransferMove:
		// valid
	default:
		return errors.New("invalid transfer mode (use 'none', 'copy' or 'move')")
	}

	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
		// valid
	default:
		return errors.New("invalid provider (use 'gemini', 'openai' or 'anthropic')")
	}

	if c.MaxBytes <= 0 {
		return fmt.Errorf("max bytes must be positive (got %d)", c.MaxBytes)
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("AI timeout must be positive (got %s)", c.AITimeout)
	}
	name := strings.TrimSpace(c.ReadmeFilename)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid README filename %q", c.ReadmeFilename)
	}
	if c.Model == "" {
		c.Model = c.Provider.DefaultModel()
	}

	if c.CheckOnly {
		return nil
	}
	if c.InputDir == "" {
		return errors.New("need an input directory")
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOrganizeOutput(c.InputDir)
	}
	return nil
}

// DefaultOrganizeOutput returns "<parent>/<name>_organized" for inputDir.
func DefaultOrganizeOutput(inputDir string) string {
	clean := filepath.Clean(inputDir)
	return filepath.Join(filepath.Dir(clean), filepath.Base(clean)+"_organized")
}

// ValidatePaths ensures the resolved output directory is not inside (or equal
// to) the resolved input directory. Recursive scans are lazy, so folders
// created under the input would otherwise be rediscovered mid-run. Both
// arguments must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory")
	}
	return nil
}

// ValidateChat checks the settings shared by all chat subcommands.
func (c *ChatConfig) ValidateChat() error {
	if strings.TrimSpace(c.Token) == "" {
		return errors.New("missing bot token (use --token or set BOT_TOKEN)")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative (got %s)", c.Delay)
	}
	if c.SendTimeout <= 0 {
		return fmt.Errorf("send timeout must be positive (got %s)", c.SendTimeout)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("upload ceiling must be positive (got %d)", c.MaxUploadBytes)
	}
	return nil
}
