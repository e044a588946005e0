// Package describe produces optional descriptive text for a file by calling a
// generative text API.
//
// A [Describer] never fails: errors, timeouts and empty responses are logged
// as warnings and reported as "no text", so callers fall back to a template.
// Vendor clients implement the narrower [Completer]; [AI] adapts one into a
// Describer with a prompt builder and a per-call timeout. [Template] is the
// no-op Describer used when AI is off or no credential is configured.
package describe

import (
	"context"
	"strings"
	"time"
)

// Request carries what a prompt may need about one file.
type Request struct {
	Name    string // Base name, e.g. "report.pdf".
	Ext     string // Extension with dot; empty when absent.
	RelPath string // Path as given on input, for display.
	Size    int64
	Text    string // Sampled text content; empty for binary or unreadable files.
	IsText  bool
	Now     time.Time
}

// Describer returns descriptive Markdown for a file, or ok=false when none
// could be produced.
type Describer interface {
	Describe(ctx context.Context, req Request) (text string, ok bool)
	// Source names the model or service behind the text, for metadata.
	Source() string
}

// Completer is a single-prompt text completion client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Logger is the subset of logging.Logger this package uses.
type Logger interface {
	Warn(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

// PromptFunc builds the prompt for one request.
type PromptFunc func(Request) string

// AI is a Describer backed by a Completer.
type AI struct {
	completer Completer
	prompt    PromptFunc
	timeout   time.Duration
	log       Logger
}

// NewAI wraps c. Each Describe call is bounded by timeout.
func NewAI(c Completer, prompt PromptFunc, timeout time.Duration, log Logger) *AI {
	return &AI{completer: c, prompt: prompt, timeout: timeout, log: log}
}

// Describe implements Describer.
func (a *AI) Describe(ctx context.Context, req Request) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.log.Debug("Generating description with %s for: %s", a.completer.Model(), req.Name)
	text, err := a.completer.Complete(ctx, a.prompt(req))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			a.log.Warn("AI generation timed out after %s for %s", a.timeout, req.Name)
		} else {
			a.log.Warn("AI generation failed for %s: %v", req.Name, err)
		}
		return "", false
	}
	if strings.TrimSpace(text) == "" {
		a.log.Warn("AI generation returned no text for %s", req.Name)
		return "", false
	}
	return text, true
}

// Source implements Describer.
func (a *AI) Source() string { return a.completer.Model() }

// Template never produces text.
type Template struct{}

// Describe implements Describer.
func (Template) Describe(context.Context, Request) (string, bool) { return "", false }

// Source implements Describer.
func (Template) Source() string { return "template" }
