package describe

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// readmeSnippetLimit caps the snippet embedded in ReadmePrompt, in characters.
const readmeSnippetLimit = 4000

const metadataPreamble = "You are a helpful assistant generating project documentation for a repository reorganization.\n" +
	"For the given file metadata and optional text sample, produce a concise, high-signal README section.\n" +
	"Focus on: what the file likely does, key responsibilities, public APIs (if code), and how to test/use it.\n" +
	"Keep it practical and under 200 lines. Return Markdown only."

type fileInfo struct {
	Name         string `json:"name"`
	Extension    string `json:"extension"`
	SizeBytes    int64  `json:"size_bytes"`
	RelativePath string `json:"relative_path"`
}

// MetadataPrompt asks for a README section from file metadata plus an
// optional fenced text sample. Used by generate.
func MetadataPrompt(req Request) string {
	info, _ := json.MarshalIndent(fileInfo{
		Name:         req.Name,
		Extension:    req.Ext,
		SizeBytes:    req.Size,
		RelativePath: req.RelPath,
	}, "", "  ")

	parts := []string{metadataPreamble, "\n\n# File Metadata\n", string(info)}
	if req.IsText && req.Text != "" {
		parts = append(parts, "\n\n# Text Sample (truncated)\n\n", "```\n"+req.Text+"\n```\n")
	}
	return strings.Join(parts, "\n")
}

// ReadmePrompt asks for a complete README. The snippet is trimmed and cut to
// readmeSnippetLimit characters, with "..." marking the cut. Used by organize.
func ReadmePrompt(req Request) string {
	snippet := strings.TrimSpace(req.Text)
	if !req.IsText {
		snippet = ""
	}
	truncated := snippet
	if utf8.RuneCountInString(snippet) > readmeSnippetLimit {
		truncated = string([]rune(snippet)[:readmeSnippetLimit]) + "\n..."
	}

	ext := req.Ext
	if ext == "" {
		ext = "(none)"
	}

	var b strings.Builder
	b.WriteString("You are an expert technical writer. Write a clear, helpful README.md for the given file.\n")
	b.WriteString("Focus on purpose, how to use, key details, and potential improvements.\n\n")
	b.WriteString("File name: " + req.Name + "\n")
	b.WriteString("File extension: " + ext + "\n")
	b.WriteString("Generated at: " + req.Now.Format("2006-01-02T15:04:05.000000") + "\n\n")
	b.WriteString("If content is provided, analyze it to infer purpose.\n\n")
	b.WriteString("File content snippet (may be partial or empty):\n")
	if truncated != "" {
		b.WriteString("```\n" + truncated + "\n```\n")
	} else {
		b.WriteString("<no content available>\n")
	}
	b.WriteString("\nOutput in Markdown with:\n")
	b.WriteString("- An H1 title using the file name (without extension)\n")
	b.WriteString("- A 1-2 sentence summary\n")
	b.WriteString("- Usage or how-to steps\n")
	b.WriteString("- Notable details or assumptions\n")
	b.WriteString("- A short list of potential improvements\n")
	return b.String()
}
