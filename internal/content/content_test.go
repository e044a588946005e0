package content

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestRead(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		max       int
		wantText  string
		isText    bool
		truncated bool
	}{
		{"utf8 text", []byte("héllo"), 100, "héllo", true, false},
		{"binary", []byte{'a', 0, 'b'}, 100, "", false, false},
		{"latin1 fallback", []byte{'c', 'a', 'f', 0xE9}, 100, "café", true, false},
		{"truncated ascii", []byte("abcdef"), 3, "abc", true, true},
		{"truncated mid rune", []byte("aé"), 2, "a", true, true},
		{"nul beyond sample ignored", []byte("abc\x00"), 3, "abc", true, true},
		{"empty file", nil, 10, "", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(writeFile(t, "f", tt.data), tt.max)
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Equal(t, tt.isText, got.IsText)
			assert.Equal(t, tt.truncated, got.Truncated)
		})
	}
}

func TestRead_MimeType(t *testing.T) {
	s, err := Read(writeFile(t, "data.json", []byte(`{"a": 1}`)), 100)
	require.NoError(t, err)
	assert.Equal(t, "application/json", s.MimeType)
	assert.True(t, s.Textual())

	s, err = Read(writeFile(t, "img.png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")), 100)
	require.NoError(t, err)
	assert.Equal(t, "image/png", s.MimeType)
	assert.False(t, s.Textual())
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing"), 10)
	assert.Error(t, err)

	_, err = Read(writeFile(t, "f", []byte("x")), 0)
	assert.Error(t, err)
}

func TestSnippet(t *testing.T) {
	s := Sample{Text: "héllo wörld", IsText: true}
	assert.Equal(t, "héllo", s.Snippet(5))
	assert.Equal(t, s.Text, s.Snippet(100))
	assert.Empty(t, Sample{Text: "x"}.Snippet(5), "binary samples have no snippet")
	assert.Len(t, []rune(Sample{Text: strings.Repeat("ü", 10), IsText: true}.Snippet(4)), 4)
}

func TestIsTextualMIME(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"text/plain", true},
		{"text/plain; charset=utf-8", true},
		{"text/x-python", true},
		{"application/json", true},
		{"application/xhtml+xml", true},
		{"application/x-sh", true},
		{"application/pdf", false},
		{"image/png", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTextualMIME(tt.in), tt.in)
	}
}

// onePagePDF builds a minimal single-page PDF that shows text with a
// standard font, with a correct cross-reference table.
func onePagePDF(text string) []byte {
	stream := fmt.Sprintf("BT\n/F1 24 Tf\n72 700 Td\n(%s) Tj\nET", text)
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

func TestRead_PDF(t *testing.T) {
	s, err := Read(writeFile(t, "doc.pdf", onePagePDF("Hello PDF")), 4096)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", s.MimeType)
	assert.True(t, s.Extracted)
	assert.True(t, s.Textual(), "extracted document text is quotable")
	assert.Contains(t, s.Text, "Hello PDF")
	assert.False(t, s.Truncated)

	s, err = Read(writeFile(t, "doc.pdf", onePagePDF("Hello PDF")), 8)
	require.NoError(t, err)
	assert.True(t, s.Extracted)
	assert.True(t, s.Truncated)
	assert.LessOrEqual(t, len(s.Text), 8)
}

func TestRead_MalformedPDF(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"no xref", []byte("%PDF-1.4\nnot really a document\n")},
		{"bad startxref", []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\nstartxref\n999999\n%%EOF\n")},
		{"truncated", onePagePDF("Hello PDF")[:60]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Read(writeFile(t, "broken.pdf", tt.data), 4096)
			require.NoError(t, err, "an unreadable document falls back to the raw sample")
			assert.Equal(t, "application/pdf", s.MimeType)
			assert.False(t, s.Extracted)
			assert.False(t, s.Textual())
		})
	}
}
