package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/folderize/internal/config"
)

var lineRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} \[(INFO|SUCCESS|WARN|ERROR|DEBUG)\] `)

func TestLogger_Routing(t *testing.T) {
	var out, errOut bytes.Buffer
	l := New(&out, &errOut, false)

	l.Info("scanning %s", "in")
	l.Success("done")
	l.Warn("careful")
	l.Error("broken %d", 1)
	l.Debug("hidden")

	assert.Contains(t, out.String(), "[INFO] scanning in\n")
	assert.Contains(t, out.String(), "[SUCCESS] done\n")
	assert.Contains(t, out.String(), "[WARN] careful\n")
	assert.NotContains(t, out.String(), "broken")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, errOut.String(), "[ERROR] broken 1\n")
	assert.Regexp(t, lineRe, out.String())
	assert.False(t, l.Verbose())
}

func TestLogger_VerboseEmitsDebug(t *testing.T) {
	var out, errOut bytes.Buffer
	l := New(&out, &errOut, true)
	l.Debug("details %v", true)
	assert.True(t, l.Verbose())
	assert.Contains(t, out.String(), "[DEBUG] details true")
}

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	l, err := NewLogger(&cfg)
	require.NoError(t, err)
	defer l.Close()
	l.Info("test message")
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorAlways
	cfg.LogFile = filepath.Join(dir, "logs", "folderize.log")
	l, err := NewLogger(&cfg)
	require.NoError(t, err)
	l.Info("to file")
	require.NoError(t, l.Close())

	b, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Regexp(t, lineRe, string(b))
	assert.Contains(t, string(b), "[INFO] to file")
	assert.NotContains(t, string(b), "\033[", "file sink is plain text")
}
