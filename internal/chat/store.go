package chat

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// SaveJSON writes v to path as indented JSON. Non-ASCII text is written
// as-is. Documents are maps keyed by chat id.
func SaveJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "encode document")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// LoadJSON reads a document written by [SaveJSON] into v.
func LoadJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}
