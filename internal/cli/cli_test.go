package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/folderize/internal/config"
	"github.com/backmassage/folderize/internal/selector"
)

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd("test", &stdout)
	root.SetArgs(append(args, "--no-color"))
	code := exitCode(root.Execute(), &stderr)
	return code, stdout.String(), stderr.String()
}

func write(t *testing.T, dir, rel, body string) string {
	t.Helper()
	p := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		want       int
		wantStderr string
	}{
		{"success", nil, ExitOK, ""},
		{"usage", usageError(errors.New("need exactly one input_dir")), ExitUsage, "folderize: need exactly one input_dir\n"},
		{"already logged", failed(), ExitFailure, ""},
		{"missing input", errors.Wrap(selector.ErrNotFound, "/nope"), ExitUsage, "folderize: /nope: input path does not exist\n"},
		{"other", errors.New("boom"), ExitFailure, "folderize: boom\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			assert.Equal(t, tt.want, exitCode(tt.err, &stderr))
			assert.Equal(t, tt.wantStderr, stderr.String())
		})
	}
}

func testFlags(cfg *config.Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringVar(&cfg.OutputDir, "output-dir", "default", "")
	fs.BoolVar(&cfg.Recursive, "recursive", false, "")
	fs.StringArrayVar(&cfg.IncludeExts, "include-ext", nil, "")
	fs.StringVar(&cfg.Chat.Token, "token", "", "")
	return fs
}

func TestApplyViper_Environment(t *testing.T) {
	t.Setenv("FOLDERIZE_OUTPUT_DIR", "/tmp/from-env")
	t.Setenv("FOLDERIZE_RECURSIVE", "true")
	t.Setenv("FOLDERIZE_INCLUDE_EXT", ".md .txt")
	t.Setenv("FOLDERIZE_TOKEN", "")

	v, err := newViper("")
	require.NoError(t, err)

	var cfg config.Config
	fs := testFlags(&cfg)
	require.NoError(t, applyViper(fs, v))
	assert.Equal(t, "/tmp/from-env", cfg.OutputDir)
	assert.True(t, cfg.Recursive)
	assert.Equal(t, []string{".md", ".txt"}, cfg.IncludeExts)
	assert.Empty(t, cfg.Chat.Token)
}

func TestApplyViper_FlagsWin(t *testing.T) {
	t.Setenv("FOLDERIZE_OUTPUT_DIR", "/tmp/from-env")
	v, err := newViper("")
	require.NoError(t, err)

	var cfg config.Config
	fs := testFlags(&cfg)
	require.NoError(t, fs.Parse([]string{"--output-dir", "cli"}))
	require.NoError(t, applyViper(fs, v))
	assert.Equal(t, "cli", cfg.OutputDir)
}

func TestApplyViper_ConfigFile(t *testing.T) {
	path := write(t, t.TempDir(), "folderize.yaml", "output-dir: out\nrecursive: true\ninclude-ext:\n  - .go\n  - .md\n")
	v, err := newViper(path)
	require.NoError(t, err)

	var cfg config.Config
	fs := testFlags(&cfg)
	require.NoError(t, applyViper(fs, v))
	assert.Equal(t, "out", cfg.OutputDir)
	assert.True(t, cfg.Recursive)
	assert.Equal(t, []string{".go", ".md"}, cfg.IncludeExts)
}

func TestApplyViper_BadValue(t *testing.T) {
	t.Setenv("FOLDERIZE_RECURSIVE", "sometimes")
	v, err := newViper("")
	require.NoError(t, err)

	var cfg config.Config
	err = applyViper(testFlags(&cfg), v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid value "sometimes" for recursive`)
}

func TestNewViper_MissingExplicitFile(t *testing.T) {
	_, err := newViper(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestResolveSecrets(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", " gkey ")
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg := config.DefaultConfig()
	resolveSecrets(&cfg)
	assert.Equal(t, "gkey", cfg.APIKey)
	assert.Equal(t, "123:abc", cfg.Chat.Token)

	cfg = config.DefaultConfig()
	cfg.APIKey = "flag"
	cfg.Chat.Token = "9:z"
	resolveSecrets(&cfg)
	assert.Equal(t, "flag", cfg.APIKey)
	assert.Equal(t, "9:z", cfg.Chat.Token)
}

func TestGenerate_EndToEnd(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	write(t, in, "notes.txt", "hello")
	write(t, in, "main.go", "package main\n")

	code, stdout, stderr := run(t, "generate", in, "-o", out)
	require.Equal(t, ExitOK, code, stderr)
	assert.FileExists(t, filepath.Join(out, "notes", "README.md"))
	assert.FileExists(t, filepath.Join(out, "notes", "metadata.json"))
	assert.FileExists(t, filepath.Join(out, "main", "README.md"))
	assert.NoFileExists(t, filepath.Join(out, "notes", "notes.txt"))
	assert.Contains(t, stdout, "Processed:")
}

func TestOrganize_EndToEnd(t *testing.T) {
	in := filepath.Join(t.TempDir(), "inbox")
	write(t, in, "notes.txt", "hello")
	write(t, in, "photo.png", "png")

	code, _, stderr := run(t, "organize", "--source-dir", in, "--skip-ai", "--exclude-ext", ".png")
	require.Equal(t, ExitOK, code, stderr)
	out := in + "_organized"
	assert.FileExists(t, filepath.Join(out, "notes", "notes.txt"))
	assert.FileExists(t, filepath.Join(out, "notes", "README.md"))
	assert.NoDirExists(t, filepath.Join(out, "photo"))
	assert.FileExists(t, filepath.Join(in, "notes.txt"), "copy leaves the source")
}

func TestOrganize_Recursive(t *testing.T) {
	for _, flag := range []string{"", "-r", "--recursive"} {
		t.Run("flag="+flag, func(t *testing.T) {
			in := filepath.Join(t.TempDir(), "inbox")
			write(t, in, "top.txt", "top")
			write(t, in, filepath.Join("deep", "nested.txt"), "nested")

			args := []string{"organize", "--source-dir", in, "--skip-ai"}
			if flag != "" {
				args = append(args, flag)
			}
			code, _, stderr := run(t, args...)
			require.Equal(t, ExitOK, code, stderr)
			out := in + "_organized"
			assert.FileExists(t, filepath.Join(out, "top", "top.txt"))
			if flag == "" {
				assert.NoDirExists(t, filepath.Join(out, "nested"))
			} else {
				assert.FileExists(t, filepath.Join(out, "nested", "nested.txt"))
			}
		})
	}
}

func TestCommands_UsageErrors(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("FOLDERIZE_TOKEN", "")
	file := write(t, t.TempDir(), "plain.txt", "x")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"generate", "--bogus", "."}},
		{"no input", []string{"generate"}},
		{"missing input", []string{"generate", filepath.Join(t.TempDir(), "missing")}},
		{"input is a file", []string{"generate", file}},
		{"copy and move", []string{"organize", "--source-dir", ".", "--copy", "--move"}},
		{"bad provider", []string{"generate", ".", "--provider", "nobody"}},
		{"no token", []string{"chats", "list"}},
		{"send without pattern", []string{"chats", "send", "--token", "1:a", "--chat-id=-100"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := run(t, tt.args...)
			assert.Equal(t, ExitUsage, code)
		})
	}
}

func TestCheck_Paths(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("FOLDERIZE_TOKEN", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("FOLDERIZE_API_KEY", "")
	in := t.TempDir()

	code, _, stderr := run(t, "check", in, "--output-dir", filepath.Join(t.TempDir(), "out"))
	assert.Equal(t, ExitOK, code, stderr)

	code, _, _ = run(t, "check", filepath.Join(in, "missing"))
	assert.Equal(t, ExitFailure, code)
}

// botServer is a minimal Bot API stand-in for the chats commands.
type botServer struct {
	mu       sync.Mutex
	uploaded []string
}

func (b *botServer) start(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.TrimPrefix(r.URL.Path, "/bot1:a/")
		answer := func(result string) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": json.RawMessage(result)})
		}
		switch method {
		case "getMe":
			answer(`{"id":1,"is_bot":true,"first_name":"Files","username":"files_bot"}`)
		case "getUpdates":
			answer(`[{"update_id":1,"message":{"message_id":10,"date":1714564800,
				"chat":{"id":-100,"type":"supergroup","title":"Dev"},
				"document":{"file_id":"D1","file_unique_id":"u1","file_name":"build.zip","file_size":2048}}},
				{"update_id":2,"message":{"message_id":11,"date":1714564801,
				"chat":{"id":7,"type":"private","first_name":"Ann"},"text":"hi"}}]`)
		case "getChat":
			answer(`{"id":-100,"type":"supergroup","title":"Dev"}`)
		case "sendDocument":
			if err := r.ParseMultipartForm(1 << 20); err == nil {
				if f, hdr, err := r.FormFile("document"); err == nil {
					_, _ = io.Copy(io.Discard, f)
					b.mu.Lock()
					b.uploaded = append(b.uploaded, hdr.Filename)
					b.mu.Unlock()
				}
			}
			answer(`{"message_id":99,"date":1714564800,"chat":{"id":-100,"type":"supergroup"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error_code": 404, "description": "Not Found"})
		}
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/bot%s/%s"
}

func TestChats_Collect(t *testing.T) {
	endpoint := (&botServer{}).start(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "groups.json")
	history := filepath.Join(dir, "history.db")

	code, stdout, stderr := run(t, "chats", "collect", "--token", "1:a", "--api-endpoint", endpoint, "-o", out, "--history", history)
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "ID: -100")
	assert.FileExists(t, history)

	var doc map[string]struct {
		GroupInfo struct {
			Title string `json:"title"`
			Type  string `json:"type"`
		} `json:"group_info"`
		FileCount int `json:"file_count"`
	}
	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc, 1)
	assert.Equal(t, "Dev", doc["-100"].GroupInfo.Title)
	assert.Equal(t, "SUPERGROUP", doc["-100"].GroupInfo.Type)
	assert.Equal(t, 1, doc["-100"].FileCount)

	// --load works without a reachable API.
	copyOut := filepath.Join(dir, "copy.json")
	code, _, stderr = run(t, "chats", "collect", "--token", "1:a", "--api-endpoint", "http://127.0.0.1:1/bot%s/%s", "--load", out, "-o", copyOut)
	require.Equal(t, ExitOK, code, stderr)
	assert.FileExists(t, copyOut)
}

func TestChats_List(t *testing.T) {
	endpoint := (&botServer{}).start(t)
	code, stdout, stderr := run(t, "chats", "list", "--token", "1:a", "--api-endpoint", endpoint)
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, "ID: -100, Title: Dev, Type: SUPERGROUP\n")
	assert.Contains(t, stdout, "Type: PRIVATE\n")
}

func TestChats_Send(t *testing.T) {
	bot := &botServer{}
	endpoint := bot.start(t)
	dir := t.TempDir()
	write(t, dir, "a.txt", "alpha")
	write(t, dir, "b.txt", "beta")
	write(t, dir, "big.txt", strings.Repeat("x", 64))

	code, stdout, stderr := run(t, "chats", "send", "--token", "1:a", "--api-endpoint", endpoint,
		"--chat-id=-100", "--pattern", filepath.Join(dir, "*.txt"), "--max-upload-bytes", "32")
	assert.Equal(t, ExitFailure, code, stderr)
	assert.Contains(t, stdout, "too_large:")
	bot.mu.Lock()
	assert.Equal(t, []string{"a.txt", "b.txt"}, bot.uploaded)
	bot.mu.Unlock()
}

func TestChats_BadToken(t *testing.T) {
	endpoint := (&botServer{}).start(t)
	code, _, _ := run(t, "chats", "list", "--token", "2:b", "--api-endpoint", endpoint)
	assert.Equal(t, ExitFailure, code)
}
