package readme

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var src = Source{Name: "report.pdf", Stem: "report", Ext: ".pdf", RelPath: "in/report.pdf", Size: 2048}

func TestGenerated(t *testing.T) {
	want := strings.Join([]string{
		"# report.pdf",
		"",
		"This folder was auto-generated for this source file.",
		"",
		"## Metadata",
		"",
		"- **relative_path**: in/report.pdf",
		"- **size_bytes**: 2048",
		"- **extension**: .pdf",
		"",
		"",
	}, "\n")
	if diff := cmp.Diff(want, Generated(src, "")); diff != "" {
		t.Errorf("Generated mismatch (-want +got):\n%s", diff)
	}

	withAI := Generated(src, "It is a report.")
	assert.True(t, strings.HasSuffix(withAI, "## AI-Generated Overview\n\nIt is a report.\n"))

	noExt := Generated(Source{Name: "Makefile", Stem: "Makefile"}, "")
	assert.Contains(t, noExt, "- **extension**: (none)\n")
}

func TestFallback(t *testing.T) {
	out := Fallback(src, "")
	assert.True(t, strings.HasPrefix(out, "# report\n\nThis README was auto-generated without AI for `report.pdf`.\n"))
	assert.True(t, strings.HasSuffix(out, "- Add validation, tests, and documentation.\n\n"))
	assert.NotContains(t, out, "Snippet:")

	out = Fallback(src, "  line one\nline two \n")
	assert.True(t, strings.HasSuffix(out, "\n\nSnippet:\n\n````\nline one\nline two\n````\n"))

	assert.True(t, strings.HasPrefix(Fallback(Source{Name: "x"}, ""), "# x\n"))
}

func TestMetadata(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))

	m := NewMetadata(src, now, false, "gemini-1.5-flash")
	data, err := m.Marshal()
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	want := map[string]any{
		"file":         "report.pdf",
		"source_path":  "in/report.pdf",
		"size_bytes":   float64(2048),
		"generated_at": "2024-01-02T02:04:05Z",
		"used_ai":      false,
		"model":        nil,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}

	m = NewMetadata(src, now, true, "gemini-1.5-flash")
	require.NotNil(t, m.Model)
	assert.Equal(t, "gemini-1.5-flash", *m.Model)
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(dir, "README.md", "hello\n"))
	require.NoError(t, WriteMetadata(dir, MetadataFilename, NewMetadata(src, time.Now(), false, "")))

	b, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(b))

	b, err = os.ReadFile(filepath.Join(dir, MetadataFilename))
	require.NoError(t, err)
	assert.True(t, json.Valid(b))

	assert.Error(t, Write(filepath.Join(dir, "missing"), "README.md", "x"))
}

func TestAvoid(t *testing.T) {
	tests := []struct {
		name  string
		taken []string
		want  string
	}{
		{"README.md", []string{"notes.txt"}, "README.md"},
		{"README.md", []string{"README.md"}, "README.folderize.md"},
		{"README.md", []string{"readme.MD"}, "README.folderize.md"},
		{"metadata.json", []string{"metadata.json"}, "metadata.folderize.json"},
		{"README", []string{"README"}, "README.folderize"},
		{"metadata.json", []string{"", "METADATA.JSON", "metadata.folderize.json"}, "metadata.folderize.folderize.json"},
		{"README.md", nil, "README.md"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Avoid(tt.name, tt.taken...), "Avoid(%q, %q)", tt.name, tt.taken)
	}
}
