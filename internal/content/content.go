// Package content samples the leading bytes of a file for description
// prompts and classifies them as text or binary.
package content

import (
	"bytes"
	"io"
	"mime"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// Sample is the decoded head of a file.
type Sample struct {
	Text      string // Decoded text; empty for binary content.
	IsText    bool   // False when the sampled bytes contain a NUL.
	MimeType  string // Detected media type without parameters, e.g. "text/plain".
	Truncated bool   // The file is longer than the sample.
	Extracted bool   // Text came from a document's text layer (PDF), not its raw bytes.
}

// pdfPages caps how many leading pages of a PDF are read for text.
const pdfPages = 5

// textualTypes are non-text/* media types that are still readable as text.
var textualTypes = map[string]bool{
	"application/json":         true,
	"application/xml":          true,
	"application/javascript":   true,
	"application/x-javascript": true,
	"application/xhtml+xml":    true,
	"application/x-sh":         true,
}

// Read samples at most maxBytes from the start of path. Content with a NUL
// byte is binary. Text is decoded as UTF-8, or as ISO-8859-1 when the bytes
// are not valid UTF-8. For a PDF with a text layer the sample is the text of
// its first pages instead.
func Read(path string, maxBytes int) (Sample, error) {
	if maxBytes <= 0 {
		return Sample{}, errors.Errorf("sample size must be positive (got %d)", maxBytes)
	}
	f, err := os.Open(path)
	if err != nil {
		return Sample{}, errors.Wrap(err, "open sample")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(maxBytes)+1))
	if err != nil {
		return Sample{}, errors.Wrap(err, "read sample")
	}
	s := Sample{}
	if len(data) > maxBytes {
		data = data[:maxBytes]
		s.Truncated = true
	}
	s.MimeType = baseType(mimetype.Detect(data).String())

	if s.MimeType == "application/pdf" {
		if text, more, err := pdfText(f, maxBytes); err == nil && text != "" {
			s.Text, s.IsText, s.Extracted, s.Truncated = text, true, true, more
			return s, nil
		}
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return s, nil
	}
	s.IsText = true
	s.Text = decode(data, s.Truncated)
	return s, nil
}

// pdfText extracts plain text from the first pages of the PDF behind f, up
// to maxBytes. more is set when text was cut or pages were left unread.
// Malformed documents can panic inside the parser; that is reported as an
// error so the caller falls back to the raw sample.
func pdfText(f *os.File, maxBytes int) (text string, more bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("parse pdf: %v", r)
		}
	}()
	fi, err := f.Stat()
	if err != nil {
		return "", false, errors.Wrap(err, "stat pdf")
	}
	r, err := pdf.NewReader(f, fi.Size())
	if err != nil {
		return "", false, errors.Wrap(err, "open pdf")
	}

	total := r.NumPage()
	pages := min(total, pdfPages)
	more = total > pages
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		t, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		t = strings.TrimSpace(strings.ToValidUTF8(t, ""))
		if t == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(t)
		if b.Len() >= maxBytes {
			break
		}
	}
	out := b.String()
	if len(out) > maxBytes {
		out = out[:maxBytes]
		for !utf8.ValidString(out) {
			out = out[:len(out)-1]
		}
		more = true
	}
	return out, more, nil
}

// decode returns data as a string. A truncated sample may end mid-rune; up
// to three trailing bytes are dropped before giving up on UTF-8.
func decode(data []byte, truncated bool) string {
	if utf8.Valid(data) {
		return string(data)
	}
	if truncated {
		for cut := 1; cut < utf8.UTFMax && cut < len(data); cut++ {
			if head := data[:len(data)-cut]; utf8.Valid(head) {
				return string(head)
			}
		}
	}
	latin, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	return string(latin)
}

// Snippet returns the first maxChars runes of the text, or "" for binary.
func (s Sample) Snippet(maxChars int) string {
	if !s.IsText {
		return ""
	}
	if utf8.RuneCountInString(s.Text) <= maxChars {
		return s.Text
	}
	n := 0
	for i := range s.Text {
		if n == maxChars {
			return s.Text[:i]
		}
		n++
	}
	return s.Text
}

// Textual reports whether the sample is text and its media type is one a
// reader would treat as text. Extracted document text always counts.
func (s Sample) Textual() bool {
	return s.IsText && (s.Extracted || IsTextualMIME(s.MimeType))
}

// IsTextualMIME reports whether mediaType is text/* or one of the common
// textual application types. Parameters such as charset are ignored.
func IsTextualMIME(mediaType string) bool {
	t := baseType(mediaType)
	if t == "" {
		return false
	}
	return strings.HasPrefix(t, "text/") || textualTypes[t]
}

func baseType(mediaType string) string {
	if mediaType == "" {
		return ""
	}
	t, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(mediaType, ";", 2)[0]))
	}
	return t
}
