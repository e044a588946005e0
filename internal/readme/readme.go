// Package readme renders the per-folder artifacts: the README document and
// the metadata.json audit record.
package readme

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// MetadataFilename is written beside every README.
const MetadataFilename = "metadata.json"

// renameTag marks an artifact renamed away from a file it would replace.
const renameTag = ".folderize"

// Avoid returns name, or name with ".folderize" inserted before its
// extension when it matches any of taken, ignoring case.
// Avoid("README.md", "readme.md") is "README.folderize.md".
func Avoid(name string, taken ...string) string {
	for clashes(name, taken) {
		ext := filepath.Ext(name)
		name = strings.TrimSuffix(name, ext) + renameTag + ext
	}
	return name
}

func clashes(name string, taken []string) bool {
	for _, t := range taken {
		if t != "" && strings.EqualFold(name, t) {
			return true
		}
	}
	return false
}

// Source describes the file a folder was created for.
type Source struct {
	Name    string // Base name.
	Stem    string // Name without extension.
	Ext     string // With leading dot; may be empty.
	RelPath string // Path as discovered, for display.
	Size    int64
}

// Generated renders the metadata README. A non-empty overview is appended
// under "## AI-Generated Overview".
func Generated(src Source, overview string) string {
	ext := src.Ext
	if ext == "" {
		ext = "(none)"
	}
	lines := []string{
		"# " + src.Name,
		"",
		"This folder was auto-generated for this source file.",
		"",
		"## Metadata",
		"",
		"- **relative_path**: " + src.RelPath,
		"- **size_bytes**: " + strconv.FormatInt(src.Size, 10),
		"- **extension**: " + ext,
		"",
	}
	if overview != "" {
		lines = append(lines, "## AI-Generated Overview", "", overview)
	}
	return strings.Join(lines, "\n") + "\n"
}

// Fallback renders the fill-in-the-blanks README used when no description
// is available. A non-blank snippet is quoted at the end.
func Fallback(src Source, snippet string) string {
	title := src.Stem
	if title == "" {
		title = src.Name
	}
	var b strings.Builder
	b.WriteString("# " + title + "\n\n")
	b.WriteString("This README was auto-generated without AI for `" + src.Name + "`.\n\n")
	b.WriteString("## Summary\n\n")
	b.WriteString("Describe the purpose of this file and how it should be used.\n\n")
	b.WriteString("## Usage\n\n")
	b.WriteString("- Explain how to run or consume this file.\n")
	b.WriteString("- List dependencies or prerequisites.\n\n")
	b.WriteString("## Notes\n\n")
	b.WriteString("- Add relevant details discovered later.\n\n")
	b.WriteString("## Improvements\n\n")
	b.WriteString("- Add validation, tests, and documentation.\n")
	if s := strings.TrimSpace(snippet); s != "" {
		b.WriteString("\n\nSnippet:\n\n````\n" + s + "\n````\n")
	} else {
		b.WriteString("\n")
	}
	return b.String()
}

// Metadata is the audit record written once per folder.
type Metadata struct {
	File        string  `json:"file"`
	SourcePath  string  `json:"source_path"`
	SizeBytes   int64   `json:"size_bytes"`
	GeneratedAt string  `json:"generated_at"`
	UsedAI      bool    `json:"used_ai"`
	Model       *string `json:"model"` // null when no description was produced
}

// NewMetadata builds the record for src. model is recorded only when usedAI.
func NewMetadata(src Source, now time.Time, usedAI bool, model string) Metadata {
	m := Metadata{
		File:        src.Name,
		SourcePath:  src.RelPath,
		SizeBytes:   src.Size,
		GeneratedAt: now.UTC().Format(time.RFC3339),
		UsedAI:      usedAI,
	}
	if usedAI {
		m.Model = &model
	}
	return m
}

// Marshal returns the indented JSON form.
func (m Metadata) Marshal() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// WriteMetadata writes m as dir/filename, normally [MetadataFilename].
func WriteMetadata(dir, filename string, m Metadata) error {
	data, err := m.Marshal()
	if err != nil {
		return errors.Wrap(err, "encode metadata")
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// Write writes content as dir/filename.
func Write(dir, filename, content string) error {
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
