package config

// This file binds CLI flags onto Config. Flags are grouped into selection,
// materialization, description, display, and chat. Negated and mutually
// exclusive flags are captured separately and applied by [Binder.Apply] after
// parsing, so Config defaults hold unless the user passes the flag.

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// negatedFlags holds flags that are applied after parsing. These either
// invert a default (skipAI -> UseAI=false) or feed a derived field.
type negatedFlags struct {
	skipAI       bool
	copyOriginal bool
	copyFiles    bool
	moveFiles    bool
	forceColor   bool
	noColor      bool
	includeList  string
	excludeList  string
}

// Binder applies post-parse flag state to a Config.
type Binder struct {
	cfg  *Config
	n    negatedFlags
	chat ChatCommand // empty for the organizer commands
}

// BindGenerateFlags registers the generate command's flags:
// -o/--output-dir, -r/--recursive, repeated --include-ext/--exclude-ext,
// --copy-original, --use-ai, --api-key, --max-bytes, --dry-run.
func BindGenerateFlags(fs *pflag.FlagSet, cfg *Config) *Binder {
	b := &Binder{cfg: cfg}
	fs.StringVarP(&cfg.OutputDir, "output-dir", "o", cfg.OutputDir, "Directory where per-file folders are created")
	fs.BoolVarP(&cfg.Recursive, "recursive", "r", false, "Recurse into subdirectories of input_dir")
	fs.StringArrayVar(&cfg.IncludeExts, "include-ext", nil, "Only process files with this extension (repeatable, e.g. .py)")
	fs.StringArrayVar(&cfg.ExcludeExts, "exclude-ext", nil, "Skip files with this extension (repeatable, e.g. .log)")
	fs.BoolVar(&b.n.copyOriginal, "copy-original", false, "Copy the original file into its folder")
	fs.BoolVar(&cfg.UseAI, "use-ai", cfg.UseAI, "Generate README content with the configured AI provider")
	fs.StringVar(&cfg.APIKey, "api-key", "", "API key (default: provider env var, e.g. GOOGLE_API_KEY)")
	defineAIFlags(fs, cfg)
	defineBehaviorFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &b.n)
	return b
}

// BindOrganizeFlags registers the organize command's flags:
// --source-dir, --output-dir, -r/--recursive, --copy/--move, comma-separated
// --include-ext/--exclude-ext, --readme-filename, --skip-ai, --overwrite.
func BindOrganizeFlags(fs *pflag.FlagSet, cfg *Config) *Binder {
	b := &Binder{cfg: cfg}
	fs.StringVar(&cfg.InputDir, "source-dir", "", "Directory containing files to process (required)")
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "Destination for per-file folders (default: <source-dir>_organized)")
	fs.BoolVarP(&cfg.Recursive, "recursive", "r", false, "Recurse into subdirectories of --source-dir")
	fs.BoolVar(&b.n.copyFiles, "copy", false, "Copy files (default)")
	fs.BoolVar(&b.n.moveFiles, "move", false, "Move files instead of copying")
	fs.StringVar(&b.n.includeList, "include-ext", "", "Comma-separated extensions to include (e.g. .py,.md)")
	fs.StringVar(&b.n.excludeList, "exclude-ext", "", "Comma-separated extensions to exclude (e.g. .png,.jpg)")
	fs.StringVar(&cfg.ReadmeFilename, "readme-filename", cfg.ReadmeFilename, "Name of the README file created in each folder")
	fs.BoolVar(&b.n.skipAI, "skip-ai", false, "Skip AI generation and use a simple README template")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Reuse existing folders and overwrite READMEs")
	defineAIFlags(fs, cfg)
	defineBehaviorFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &b.n)
	return b
}

// BindCheckFlags registers the flags the check command needs.
func BindCheckFlags(fs *pflag.FlagSet, cfg *Config) *Binder {
	b := &Binder{cfg: cfg}
	cfg.CheckOnly = true
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "Output directory to test for writability")
	fs.StringVar(&cfg.APIKey, "api-key", "", "API key (default: provider env var)")
	fs.StringVar(&cfg.Chat.Token, "token", "", "Bot token to verify (default: BOT_TOKEN)")
	defineAIFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &b.n)
	return b
}

// defineAIFlags registers --provider, --model, --api-url, --max-bytes, --ai-timeout.
func defineAIFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.Var(&providerValue{&cfg.Provider}, "provider", "AI provider: gemini | openai | anthropic")
	fs.StringVar(&cfg.Model, "model", "", "Model name (default: gemini-1.5-flash for gemini)")
	fs.StringVar(&cfg.APIURL, "api-url", "", "Override the provider base URL")
	fs.IntVar(&cfg.MaxBytes, "max-bytes", cfg.MaxBytes, "Maximum bytes sampled from a file for AI prompts")
	fs.DurationVar(&cfg.AITimeout, "ai-timeout", cfg.AITimeout, "Timeout for a single AI call")
}

// defineBehaviorFlags registers --dry-run.
func defineBehaviorFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.BoolVarP(&cfg.DryRun, "dry-run", "d", false, "Print actions without making changes")
}

// defineDisplayFlags registers --verbose, --color, --no-color, --log, --metrics-file.
func defineDisplayFlags(fs *pflag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose logging")
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.StringVarP(&cfg.LogFile, "log", "l", "", "Append logs to file")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
}

// ChatCommand names a chat subcommand; it selects the extra flags
// [BindChatFlags] registers.
type ChatCommand string

const (
	ChatCollect ChatCommand = "collect"
	ChatList    ChatCommand = "list"
	ChatSend    ChatCommand = "send"
	ChatCrawl   ChatCommand = "crawl"
)

// BindChatFlags registers --token, --api-endpoint and the display flags
// shared by every chat subcommand, plus the flags specific to cmd.
func BindChatFlags(fs *pflag.FlagSet, cfg *Config, cmd ChatCommand) *Binder {
	b := &Binder{cfg: cfg, chat: cmd}
	fs.StringVar(&cfg.Chat.Token, "token", "", "Bot token (default: BOT_TOKEN)")
	fs.StringVar(&cfg.Chat.APIEndpoint, "api-endpoint", "", "Bot API endpoint format (default: public Telegram API)")

	switch cmd {
	case ChatCollect:
		fs.StringVarP(&cfg.Chat.Output, "output", "o", cfg.Chat.Output, "JSON file to write")
		fs.StringVar(&cfg.Chat.Load, "load", "", "Load an existing JSON file instead of collecting")
		fs.StringVar(&cfg.Chat.HistoryPath, "history", "", "Bolt database that accumulates files across runs")
	case ChatSend:
		fs.Int64Var(&cfg.Chat.ChatID, "chat-id", 0, "Destination chat id (required)")
		fs.StringVar(&cfg.Chat.Pattern, "pattern", "", "Glob of files to upload, e.g. '/data/*.zip' (required)")
		fs.DurationVar(&cfg.Chat.SendTimeout, "send-timeout", cfg.Chat.SendTimeout, "Timeout for a single upload")
		fs.Int64Var(&cfg.Chat.MaxUploadBytes, "max-upload-bytes", cfg.Chat.MaxUploadBytes, "Refuse files larger than this")
	case ChatCrawl:
		cfg.Chat.Output = "group_crawl_data.json"
		fs.StringVarP(&cfg.Chat.Output, "output", "o", cfg.Chat.Output, "JSON file to write")
		fs.StringVar(&cfg.Chat.GroupsFile, "groups", cfg.Chat.GroupsFile, "Text file with one group per line")
		fs.DurationVar(&cfg.Chat.Delay, "delay", cfg.Chat.Delay, "Pause between groups")
	}
	defineDisplayFlags(fs, cfg, &b.n)
	return b
}

// Apply copies negated and derived flag values into cfg and consumes the
// positional arguments.
func (b *Binder) Apply(args []string) error {
	cfg, n := b.cfg, &b.n

	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
	if n.copyFiles && n.moveFiles {
		return fmt.Errorf("--copy and --move are mutually exclusive")
	}
	if n.moveFiles {
		cfg.Transfer = TransferMove
	} else if n.copyFiles || n.copyOriginal {
		cfg.Transfer = TransferCopy
	}
	if n.skipAI {
		cfg.UseAI = false
	}
	if n.includeList != "" {
		cfg.IncludeExts = SplitList(n.includeList)
	}
	if n.excludeList != "" {
		cfg.ExcludeExts = SplitList(n.excludeList)
	}

	return b.parsePositionalArgs(args)
}

// parsePositionalArgs sets InputDir from the single positional argument of
// the generate command (optional for check). organize and the chat
// commands take no positionals.
func (b *Binder) parsePositionalArgs(args []string) error {
	cfg := b.cfg
	if b.chat != "" {
		if len(args) != 0 {
			return fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
		}
		if b.chat == ChatSend && (cfg.Chat.ChatID == 0 || strings.TrimSpace(cfg.Chat.Pattern) == "") {
			return fmt.Errorf("send needs --chat-id and --pattern")
		}
		return nil
	}
	if cfg.CheckOnly {
		if len(args) > 1 {
			return fmt.Errorf("check takes at most one input_dir")
		}
		if len(args) == 1 {
			cfg.InputDir = NormalizeDirArg(args[0])
		}
		return nil
	}
	switch cfg.Variant {
	case VariantGenerate:
		if len(args) != 1 {
			return fmt.Errorf("need exactly one input_dir")
		}
		cfg.InputDir = NormalizeDirArg(args[0])
	case VariantOrganize:
		if len(args) != 0 {
			return fmt.Errorf("unexpected arguments: %s", strings.Join(args, " "))
		}
		cfg.InputDir = NormalizeDirArg(cfg.InputDir)
	}
	if cfg.OutputDir != "" {
		cfg.OutputDir = NormalizeDirArg(cfg.OutputDir)
	}
	return nil
}

// SplitList parses a comma-separated list, trimming blanks and dropping
// empty entries. Returns nil when nothing remains.
func SplitList(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// pflag.Value adapters so we can use enum types with fs.Var.

type providerValue struct{ p *Provider }

func (v *providerValue) String() string { return string(*v.p) }
func (v *providerValue) Type() string   { return "provider" }
func (v *providerValue) Set(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gemini", "google":
		*v.p = ProviderGemini
	case "openai":
		*v.p = ProviderOpenAI
	case "anthropic", "claude":
		*v.p = ProviderAnthropic
	default:
		return fmt.Errorf("invalid provider %q (use 'gemini', 'openai' or 'anthropic')", s)
	}
	return nil
}
