package naming

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocate_Numbering(t *testing.T) {
	tests := []struct {
		name      string
		numbering Numbering
		want      []string
	}{
		{"dash from 2", DashFrom2, []string{"photo", "photo-2", "photo-3", "photo-4"}},
		{"underscore from 1", UnderscoreFrom1, []string{"photo", "photo_1", "photo_2", "photo_3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			a := NewAllocator(root, tt.numbering, AllocatorOptions{})
			for _, want := range tt.want {
				got, err := a.Allocate("photo")
				require.NoError(t, err)
				assert.Equal(t, filepath.Join(root, want), got)
				assert.DirExists(t, got)
			}
		})
	}
}

func TestAllocate_ExistingFolder(t *testing.T) {
	tests := []struct {
		name      string
		numbering Numbering
		want      string
	}{
		{"generate", DashFrom2, "notes-2"},
		{"organize", UnderscoreFrom1, "notes_1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			require.NoError(t, os.Mkdir(filepath.Join(root, "notes"), 0o755))
			got, err := NewAllocator(root, tt.numbering, AllocatorOptions{}).Allocate("notes")
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(root, tt.want), got)
		})
	}
}

func TestAllocate_FileOccupiesName(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "data"), []byte("x"), 0o644))
	got, err := NewAllocator(root, DashFrom2, AllocatorOptions{Reuse: true}).Allocate("data")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "data-2"), got)
}

func TestAllocate_DryRun(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "photo"), 0o755))
	a := NewAllocator(root, DashFrom2, AllocatorOptions{DryRun: true})

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		got, err := a.Allocate("photo")
		require.NoError(t, err)
		assert.False(t, seen[got], "duplicate allocation %s", got)
		seen[got] = true
	}
	assert.False(t, seen[filepath.Join(root, "photo")], "existing folder handed out")

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "dry run must not create folders")
}

func TestAllocate_DryRunMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not-yet")
	a := NewAllocator(root, UnderscoreFrom1, AllocatorOptions{DryRun: true})
	first, err := a.Allocate("a")
	require.NoError(t, err)
	second, err := a.Allocate("a")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a"), first)
	assert.Equal(t, filepath.Join(root, "a_1"), second)
	assert.NoDirExists(t, root)
}

func TestAllocate_Reuse(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "notes")
	require.NoError(t, os.Mkdir(existing, 0o755))
	a := NewAllocator(root, UnderscoreFrom1, AllocatorOptions{Reuse: true})

	got, err := a.Allocate("notes")
	require.NoError(t, err)
	assert.Equal(t, existing, got, "existing folder is reused")

	got, err = a.Allocate("notes")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "notes_1"), got, "a folder is reused at most once per run")
}

func TestAllocate_InvalidName(t *testing.T) {
	a := NewAllocator(t.TempDir(), DashFrom2, AllocatorOptions{})
	for _, name := range []string{"", ".", "..", "a/b"} {
		_, err := a.Allocate(name)
		assert.Error(t, err, "Allocate(%q)", name)
	}
}

func TestAllocate_MissingRootFails(t *testing.T) {
	a := NewAllocator(filepath.Join(t.TempDir(), "missing"), DashFrom2, AllocatorOptions{})
	_, err := a.Allocate("x")
	assert.Error(t, err)
}

func TestAllocate_Concurrent(t *testing.T) {
	root := t.TempDir()
	a := NewAllocator(root, DashFrom2, AllocatorOptions{})

	const n = 20
	var wg sync.WaitGroup
	results := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := a.Allocate("photo")
			if assert.NoError(t, err) {
				results <- p
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for p := range results {
		assert.False(t, seen[p], "duplicate %s", p)
		seen[p] = true
	}
	assert.Len(t, seen, n)
}

func TestAllocate_Release(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "kept"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "kept", "old.txt"), []byte("x"), 0o644))

	a := NewAllocator(root, UnderscoreFrom1, AllocatorOptions{Reuse: true})
	made, err := a.Allocate("fresh")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(made, "partial.txt"), []byte("x"), 0o644))
	reused, err := a.Allocate("kept")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "kept"), reused)

	require.NoError(t, a.Release(made))
	assert.NoDirExists(t, made)
	require.NoError(t, a.Release(reused))
	assert.FileExists(t, filepath.Join(reused, "old.txt"), "reused folders are never removed")
	require.NoError(t, a.Release(filepath.Join(root, "unknown")))

	next, err := a.Allocate("fresh")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "fresh_1"), next, "a released name stays claimed for the run")
}

func TestAllocate_ReleaseDryRun(t *testing.T) {
	root := t.TempDir()
	a := NewAllocator(root, DashFrom2, AllocatorOptions{DryRun: true})
	p, err := a.Allocate("notes")
	require.NoError(t, err)
	require.NoError(t, a.Release(p))
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
