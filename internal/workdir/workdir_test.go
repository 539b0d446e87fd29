package workdir

import (
	"os"
	"path/filepath"
	"testing"
)

func setupSource(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.src"), []byte("original a\n"), 0o644); err != nil {
		t.Fatalf("seed a.src: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "b.src"), []byte("original b\n"), 0o644); err != nil {
		t.Fatalf("seed b.src: %v", err)
	}
	return root
}

func readWorkFile(t *testing.T, wd *WorkDir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(wd.Dir(), rel))
	if err != nil {
		t.Fatalf("reading %s: %v", rel, err)
	}
	return string(data)
}

func TestNewSeedsFullTree(t *testing.T) {
	root := setupSource(t)
	wd, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer wd.Close()

	if got := readWorkFile(t, wd, "a.src"); got != "original a\n" {
		t.Fatalf("unexpected seeded content: %q", got)
	}
	if got := readWorkFile(t, wd, "b.src"); got != "original b\n" {
		t.Fatalf("unexpected seeded content: %q", got)
	}
}

func TestSyncOverwritesTouchedFiles(t *testing.T) {
	root := setupSource(t)
	wd, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer wd.Close()

	if err := wd.Sync(map[string]string{"a.src": "mutated a\n"}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if got := readWorkFile(t, wd, "a.src"); got != "mutated a\n" {
		t.Fatalf("expected mutated content, got %q", got)
	}
	if got := readWorkFile(t, wd, "b.src"); got != "original b\n" {
		t.Fatalf("expected untouched file to remain original, got %q", got)
	}
}

// TestSyncRestoresFileNotTouchedByNextCandidate is spec.md §4.5's core
// rule: a file touched by the previous candidate but not the current one
// must be restored to the original before the current candidate's
// contents are written.
func TestSyncRestoresFileNotTouchedByNextCandidate(t *testing.T) {
	root := setupSource(t)
	wd, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer wd.Close()

	if err := wd.Sync(map[string]string{"a.src": "candidate-1 mutation\n"}); err != nil {
		t.Fatalf("Sync 1: %v", err)
	}
	// Candidate 2 touches only b.src; a.src must revert to its original
	// on-disk content, not stay at candidate 1's mutation.
	if err := wd.Sync(map[string]string{"b.src": "candidate-2 mutation\n"}); err != nil {
		t.Fatalf("Sync 2: %v", err)
	}
	if got := readWorkFile(t, wd, "a.src"); got != "original a\n" {
		t.Fatalf("expected a.src restored to original, got %q", got)
	}
	if got := readWorkFile(t, wd, "b.src"); got != "candidate-2 mutation\n" {
		t.Fatalf("expected b.src to hold candidate 2's mutation, got %q", got)
	}
}

func TestCloseRemovesDirectory(t *testing.T) {
	root := setupSource(t)
	wd, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dir := wd.Dir()
	if err := wd.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected worker directory to be removed")
	}
}
