package naming

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

// Numbering describes how a disambiguator is appended to a taken name.
type Numbering struct {
	Sep   string // Placed between the name and the number.
	Start int    // First number tried after the bare name.
}

var (
	// DashFrom2 yields name, name-2, name-3, ...
	DashFrom2 = Numbering{Sep: "-", Start: 2}
	// UnderscoreFrom1 yields name, name_1, name_2, ...
	UnderscoreFrom1 = Numbering{Sep: "_", Start: 1}
)

// Candidate returns the i-th disambiguated form of name.
func (n Numbering) Candidate(name string, i int) string {
	return name + n.Sep + strconv.Itoa(i)
}

// AllocatorOptions tunes an Allocator.
type AllocatorOptions struct {
	// DryRun allocates without touching the filesystem. Returned paths are
	// reserved in memory so later allocations still see them as taken.
	DryRun bool
	// Reuse returns the bare name when it already exists on disk as a
	// directory, instead of numbering past it. A folder handed out earlier
	// in the same run is never reused.
	Reuse bool
}

// Allocator hands out unique child folders of a single root. The
// check-and-create step is an exclusive os.Mkdir, so a name taken by another
// process between calls is skipped rather than shared. All methods are
// goroutine-safe.
type Allocator struct {
	mu        sync.Mutex
	root      string
	numbering Numbering
	opts      AllocatorOptions
	claimed   map[string]struct{} // paths handed out by this allocator
	created   map[string]struct{} // claimed paths this allocator made with Mkdir
}

// NewAllocator creates an allocator for root. Outside dry-run, root must
// exist before the first Allocate.
func NewAllocator(root string, n Numbering, opts AllocatorOptions) *Allocator {
	return &Allocator{
		root:      root,
		numbering: n,
		opts:      opts,
		claimed:   make(map[string]struct{}),
		created:   make(map[string]struct{}),
	}
}

// Allocate returns a path under the root named from safeName that no earlier
// call returned and that did not already exist (unless Reuse applies). Outside
// dry-run the directory exists when Allocate returns.
func (a *Allocator) Allocate(safeName string) (string, error) {
	if safeName == "" || safeName != filepath.Base(safeName) || safeName == "." || safeName == ".." {
		return "", errors.Errorf("invalid folder name %q", safeName)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	base := filepath.Join(a.root, safeName)
	if a.opts.Reuse && a.reusable(base) {
		a.claimed[base] = struct{}{}
		return base, nil
	}

	candidate := base
	for i := a.numbering.Start; ; i++ {
		ok, err := a.claim(candidate)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
		candidate = filepath.Join(a.root, a.numbering.Candidate(safeName, i))
	}
}

// claim tries to take path, reporting false when it is already occupied.
func (a *Allocator) claim(path string) (bool, error) {
	if _, taken := a.claimed[path]; taken {
		return false, nil
	}
	if a.opts.DryRun {
		if _, err := os.Lstat(path); err == nil {
			return false, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return false, errors.Wrapf(err, "stat %s", path)
		}
	} else if err := os.Mkdir(path, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, errors.Wrapf(err, "create folder %s", path)
	}
	a.claimed[path] = struct{}{}
	if !a.opts.DryRun {
		a.created[path] = struct{}{}
	}
	return true, nil
}

// Release removes path and everything in it when this allocator created it.
// Reused folders, dry-run reservations and unknown paths are left alone.
// The name stays claimed for the rest of the run.
func (a *Allocator) Release(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.created[path]; !ok {
		return nil
	}
	delete(a.created, path)
	return errors.Wrapf(os.RemoveAll(path), "remove %s", path)
}

// reusable reports whether base is an existing directory not yet handed out.
func (a *Allocator) reusable(base string) bool {
	if _, taken := a.claimed[base]; taken {
		return false
	}
	fi, err := os.Stat(base)
	return err == nil && fi.IsDir()
}
