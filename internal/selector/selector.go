// Package selector lists the candidate files of a batch run: regular files
// under a root, optionally recursive, filtered by extension.
package selector

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned by New when the root does not exist.
	ErrNotFound = errors.New("input path does not exist")
	// ErrNotADirectory is returned by New when the root is not a directory.
	ErrNotADirectory = errors.New("input path is not a directory")
)

// Item is one selected file.
type Item struct {
	Path    string // Full path, rooted at the selector root.
	Name    string // Base name, e.g. "report.pdf".
	Stem    string // Name without extension, e.g. "report". Equals Name for dotfiles.
	Ext     string // Extension as found, with leading dot, e.g. ".PDF". May be empty.
	Size    int64
	ModTime time.Time
}

// Options controls traversal and filtering.
type Options struct {
	Recursive bool
	Include   []string // Allow-list of extensions; empty means everything.
	Exclude   []string // Deny-list, applied after Include.
}

// Selector walks a validated root directory.
type Selector struct {
	root    string
	opts    Options
	include map[string]bool
	exclude map[string]bool
}

// New validates root and prepares the extension filters.
func New(root string, opts Options) (*Selector, error) {
	fi, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(ErrNotFound, root)
		}
		return nil, errors.Wrapf(err, "stat %s", root)
	}
	if !fi.IsDir() {
		return nil, errors.Wrap(ErrNotADirectory, root)
	}
	return &Selector{
		root:    root,
		opts:    opts,
		include: extSet(opts.Include),
		exclude: extSet(opts.Exclude),
	}, nil
}

// All yields matching files in lexical path order. The scan runs lazily as
// the sequence is consumed and starts over on every call. Per-entry errors are
// yielded alongside a zero Item; the walk continues if the consumer does.
func (s *Selector) All() iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		if s.opts.Recursive {
			s.walk(yield)
			return
		}
		s.list(yield)
	}
}

// List collects All into a slice, stopping at the first error.
func (s *Selector) List() ([]Item, error) {
	var items []Item
	for it, err := range s.All() {
		if err != nil {
			return items, err
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *Selector) list(yield func(Item, error) bool) {
	entries, err := os.ReadDir(s.root) // sorted by name
	if err != nil {
		yield(Item{}, errors.Wrapf(err, "read %s", s.root))
		return
	}
	for _, d := range entries {
		it, ok, err := s.consider(filepath.Join(s.root, d.Name()), d)
		if err != nil && !yield(Item{}, err) {
			return
		}
		if ok && !yield(it, nil) {
			return
		}
	}
}

func (s *Selector) walk(yield func(Item, error) bool) {
	_ = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if !yield(Item{}, errors.Wrapf(err, "walk %s", path)) {
				return filepath.SkipAll
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		it, ok, err := s.consider(path, d)
		if err != nil && !yield(Item{}, err) {
			return filepath.SkipAll
		}
		if ok && !yield(it, nil) {
			return filepath.SkipAll
		}
		return nil
	})
}

// consider turns a directory entry into an Item when it is a regular file,
// or a symlink to one, that passes the filters. Links to directories and
// dangling links are skipped; recursive scans never descend through links.
func (s *Selector) consider(path string, d fs.DirEntry) (Item, bool, error) {
	mode := d.Type()
	if !mode.IsRegular() && mode&fs.ModeSymlink == 0 {
		return Item{}, false, nil
	}
	if !s.Match(d.Name()) {
		return Item{}, false, nil
	}
	var fi fs.FileInfo
	var err error
	if mode&fs.ModeSymlink != 0 {
		fi, err = os.Stat(path)
		if err != nil || !fi.Mode().IsRegular() {
			return Item{}, false, nil
		}
	} else if fi, err = d.Info(); err != nil {
		return Item{}, false, errors.Wrapf(err, "stat %s", path)
	}
	name := d.Name()
	stem, ext := SplitName(name)
	return Item{
		Path:    path,
		Name:    name,
		Stem:    stem,
		Ext:     ext,
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}, true, nil
}

// Match reports whether a file name passes the include and exclude lists.
func (s *Selector) Match(name string) bool {
	_, ext := SplitName(name)
	ext = strings.ToLower(ext)
	if len(s.include) > 0 && !s.include[ext] {
		return false
	}
	return !s.exclude[ext]
}

// SplitName splits a file name into stem and extension. A leading dot does
// not start an extension: ".bashrc" has stem ".bashrc" and no extension.
func SplitName(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	stem = strings.TrimSuffix(name, ext)
	if stem == "" {
		return name, ""
	}
	return stem, ext
}

func extSet(exts []string) map[string]bool {
	norm := NormalizeExts(exts)
	if len(norm) == 0 {
		return nil
	}
	set := make(map[string]bool, len(norm))
	for _, e := range norm {
		set[e] = true
	}
	return set
}

// NormalizeExts lowercases and trims each extension, drops empties, and adds
// a missing leading dot, so "PY", ".py" and " py " all become ".py".
func NormalizeExts(exts []string) []string {
	var out []string
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || e == "." {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
