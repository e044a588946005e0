package check

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/folderize/internal/config"
)

type captureLogger struct {
	lines []string
}

func (l *captureLogger) add(level, format string, args ...interface{}) {
	l.lines = append(l.lines, level+" "+fmt.Sprintf(format, args...))
}
func (l *captureLogger) Info(f string, a ...interface{})    { l.add("INFO", f, a...) }
func (l *captureLogger) Success(f string, a ...interface{}) { l.add("SUCCESS", f, a...) }
func (l *captureLogger) Warn(f string, a ...interface{})    { l.add("WARN", f, a...) }
func (l *captureLogger) Error(f string, a ...interface{})   { l.add("ERROR", f, a...) }

func (l *captureLogger) has(prefix string) bool {
	for _, line := range l.lines {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

type pingCompleter struct {
	reply string
	err   error
	asked string
}

func (p *pingCompleter) Complete(_ context.Context, prompt string) (string, error) {
	p.asked = prompt
	return p.reply, p.err
}
func (p *pingCompleter) Model() string { return "ping" }

func baseConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.CheckOnly = true
	cfg.OutputDir = ""
	cfg.Model = cfg.Provider.DefaultModel()
	return cfg
}

func TestRunCheck_Minimal(t *testing.T) {
	cfg := baseConfig()
	log := &captureLogger{}
	assert.True(t, RunCheck(context.Background(), &cfg, log, Deps{}))
	assert.True(t, log.has("INFO Provider: gemini (model gemini-1.5-flash)"))
	assert.True(t, log.has("WARN GOOGLE_API_KEY not set"))
	assert.True(t, log.has("WARN No bot token"))
	assert.True(t, log.has("SUCCESS All checks passed"))
}

func TestRunCheck_Provider(t *testing.T) {
	tests := []struct {
		name   string
		ping   *pingCompleter
		wantOK bool
		want   string
	}{
		{"answers", &pingCompleter{reply: "OK\nextra"}, true, `SUCCESS Provider answered in`},
		{"fails", &pingCompleter{err: errors.New("401 unauthorized")}, false, "ERROR Provider request failed: 401 unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.APIKey = "k"
			log := &captureLogger{}
			ok := RunCheck(context.Background(), &cfg, log, Deps{Completer: tt.ping})
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, log.has(tt.want), "lines: %v", log.lines)
			assert.Equal(t, pingPrompt, tt.ping.asked)
		})
	}
}

func TestRunCheck_Paths(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	tests := []struct {
		name   string
		input  string
		output string
		wantOK bool
		want   string
	}{
		{"existing output", "", root, true, "SUCCESS Output directory writable"},
		{"output to be created", "", filepath.Join(root, "new", "deeper"), true, "SUCCESS Output directory can be created under " + root},
		{"output under a file", "", filepath.Join(file, "out"), false, "ERROR Output:"},
		{"readable input", root, "", true, "SUCCESS Input directory readable"},
		{"missing input", filepath.Join(root, "missing"), "", false, "ERROR Input:"},
		{"input is a file", file, "", false, "ERROR Input:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.InputDir = tt.input
			cfg.OutputDir = tt.output
			log := &captureLogger{}
			assert.Equal(t, tt.wantOK, RunCheck(context.Background(), &cfg, log, Deps{}))
			assert.True(t, log.has(tt.want), "lines: %v", log.lines)
		})
	}

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "scratch files are removed and nothing is created")
}

func TestRunCheck_Bot(t *testing.T) {
	cfg := baseConfig()
	cfg.Chat.Token = "123:abc"

	log := &captureLogger{}
	var got string
	ok := RunCheck(context.Background(), &cfg, log, Deps{Bot: func(_ context.Context, token string) (string, error) {
		got = token
		return "files_bot", nil
	}})
	assert.True(t, ok)
	assert.Equal(t, "123:abc", got)
	assert.True(t, log.has("SUCCESS Bot token valid: @files_bot"))

	log = &captureLogger{}
	ok = RunCheck(context.Background(), &cfg, log, Deps{Bot: func(context.Context, string) (string, error) {
		return "", errors.New("Unauthorized")
	}})
	assert.False(t, ok)
	assert.True(t, log.has("ERROR Bot token rejected: Unauthorized"))
	assert.True(t, log.has("ERROR Some checks failed"))
}
