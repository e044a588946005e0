// Package check provides the diagnostics behind the check subcommand: the
// description provider credential and endpoint, the output location, and
// the bot token.
package check

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/backmassage/folderize/internal/config"
	"github.com/backmassage/folderize/internal/describe"
	"github.com/backmassage/folderize/internal/selector"
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// stays testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// Deps supplies the network-facing checks. Nil fields skip that check.
type Deps struct {
	// Completer answers the provider round-trip test.
	Completer describe.Completer
	// Bot authenticates a bot token and returns the bot's username.
	Bot func(ctx context.Context, token string) (string, error)
}

// pingPrompt asks for a one-word answer to keep the round trip cheap.
const pingPrompt = "Reply with the single word OK."

// RunCheck logs the state of every dependency a run can touch and reports
// whether all of them are usable. A missing API key or bot token is a
// warning, not a failure: runs fall back to templates and chat commands
// refuse to start.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger, deps Deps) bool {
	log.Info("=== System Check ===")
	ok := true

	if !checkProvider(ctx, cfg, log, deps.Completer) {
		ok = false
	}
	if cfg.InputDir != "" && !checkInput(cfg, log) {
		ok = false
	}
	if cfg.OutputDir != "" && !checkOutput(cfg.OutputDir, log) {
		ok = false
	}
	if !checkBot(ctx, cfg, log, deps.Bot) {
		ok = false
	}

	if ok {
		log.Success("All checks passed")
	} else {
		log.Error("Some checks failed")
	}
	return ok
}

// checkProvider reports the provider selection and, when a key is present,
// performs one short completion.
func checkProvider(ctx context.Context, cfg *config.Config, log Logger, c describe.Completer) bool {
	log.Info("Provider: %s (model %s)", cfg.Provider, cfg.Model)
	if cfg.APIKey == "" {
		log.Warn("%s not set; descriptions will use templates", cfg.Provider.EnvKey())
		return true
	}
	log.Success("API key found")
	if c == nil {
		return true
	}

	timeout := cfg.AITimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	reply, err := c.Complete(cctx, pingPrompt)
	if err != nil {
		log.Error("Provider request failed: %v", err)
		return false
	}
	log.Success("Provider answered in %s: %q", time.Since(start).Round(time.Millisecond), firstLine(reply))
	return true
}

func checkInput(cfg *config.Config, log Logger) bool {
	if _, err := selector.New(cfg.InputDir, selector.Options{}); err != nil {
		log.Error("Input: %v", err)
		return false
	}
	log.Success("Input directory readable: %s", cfg.InputDir)
	return true
}

// checkOutput verifies that dir, or its closest existing ancestor, accepts
// new files.
func checkOutput(dir string, log Logger) bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		log.Error("Output: cannot resolve %s: %v", dir, err)
		return false
	}
	base, err := existingAncestor(abs)
	if err != nil {
		log.Error("Output: %v", err)
		return false
	}
	f, err := os.CreateTemp(base, ".folderize-check-*")
	if err != nil {
		log.Error("Output location not writable: %s", base)
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	if base == abs {
		log.Success("Output directory writable: %s", dir)
	} else {
		log.Success("Output directory can be created under %s", base)
	}
	return true
}

// existingAncestor returns the deepest existing directory on the absolute
// path p, p itself included.
func existingAncestor(p string) (string, error) {
	for {
		fi, err := os.Stat(p)
		if err == nil {
			if !fi.IsDir() {
				return "", errors.Errorf("%s is not a directory", p)
			}
			return p, nil
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", errors.Wrap(err, "no existing parent directory")
		}
		p = parent
	}
}

func checkBot(ctx context.Context, cfg *config.Config, log Logger, bot func(context.Context, string) (string, error)) bool {
	token := strings.TrimSpace(cfg.Chat.Token)
	if token == "" {
		log.Warn("No bot token (use --token or set BOT_TOKEN); chat commands are unavailable")
		return true
	}
	if bot == nil {
		return true
	}
	name, err := bot(ctx, token)
	if err != nil {
		log.Error("Bot token rejected: %v", err)
		return false
	}
	log.Success("Bot token valid: @%s", name)
	return true
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
