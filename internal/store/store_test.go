package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "mendr.db")
	s, err := Open(Sqlite, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordRunStartThenFinishRoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	runID := uuid.New()
	started := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if err := s.RecordRunStart(ctx, runID, "/tmp/src", "evolutionary", started); err != nil {
		t.Fatalf("RecordRunStart: %v", err)
	}
	finished := started.Add(90 * time.Second)
	if err := s.RecordRunFinish(ctx, runID, finished, 1.0, 12, "found"); err != nil {
		t.Fatalf("RecordRunFinish: %v", err)
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected exactly one run, got %d", len(runs))
	}
	got := runs[0]
	if got.RunID != runID {
		t.Fatalf("expected run id %v, got %v", runID, got.RunID)
	}
	if got.SourceRoot != "/tmp/src" || got.Mode != "evolutionary" || got.Status != "found" {
		t.Fatalf("unexpected run summary: %+v", got)
	}
	if got.Generations != 12 || got.BestFitness != 1.0 {
		t.Fatalf("expected generations=12 best_fitness=1.0, got %+v", got)
	}
	if !got.FinishedAt.Equal(finished) {
		t.Fatalf("expected finished_at %v, got %v", finished, got.FinishedAt)
	}
}

func TestSaveMemoThenLoadMemoRoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	runID := uuid.New()

	if err := s.SaveMemo(ctx, runID, "op-key-a", 0.75); err != nil {
		t.Fatalf("SaveMemo: %v", err)
	}
	if err := s.SaveMemo(ctx, runID, "op-key-b", 0.0); err != nil {
		t.Fatalf("SaveMemo: %v", err)
	}

	memo, err := s.LoadMemo(ctx, runID)
	if err != nil {
		t.Fatalf("LoadMemo: %v", err)
	}
	if len(memo) != 2 || memo["op-key-a"] != 0.75 || memo["op-key-b"] != 0.0 {
		t.Fatalf("unexpected memo contents: %+v", memo)
	}
}

func TestSaveMemoUpsertsOnRepeatKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	runID := uuid.New()

	if err := s.SaveMemo(ctx, runID, "op-key-a", 0.3); err != nil {
		t.Fatalf("SaveMemo: %v", err)
	}
	if err := s.SaveMemo(ctx, runID, "op-key-a", 0.9); err != nil {
		t.Fatalf("SaveMemo: %v", err)
	}

	memo, err := s.LoadMemo(ctx, runID)
	if err != nil {
		t.Fatalf("LoadMemo: %v", err)
	}
	if len(memo) != 1 || memo["op-key-a"] != 0.9 {
		t.Fatalf("expected the later SaveMemo to win, got %+v", memo)
	}
}

func TestLoadMemoScopedToRunID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	runA, runB := uuid.New(), uuid.New()

	if err := s.SaveMemo(ctx, runA, "shared-key", 0.5); err != nil {
		t.Fatalf("SaveMemo: %v", err)
	}
	if err := s.SaveMemo(ctx, runB, "shared-key", 0.1); err != nil {
		t.Fatalf("SaveMemo: %v", err)
	}

	memoA, err := s.LoadMemo(ctx, runA)
	if err != nil {
		t.Fatalf("LoadMemo(runA): %v", err)
	}
	if memoA["shared-key"] != 0.5 {
		t.Fatalf("expected runA's memo to be scoped to its own run, got %+v", memoA)
	}
}

func TestListRunsOrdersMostRecentFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	older, newer := uuid.New(), uuid.New()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.RecordRunStart(ctx, older, "/tmp/a", "adaptive", base); err != nil {
		t.Fatalf("RecordRunStart(older): %v", err)
	}
	if err := s.RecordRunStart(ctx, newer, "/tmp/b", "adaptive", base.Add(time.Hour)); err != nil {
		t.Fatalf("RecordRunStart(newer): %v", err)
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != newer || runs[1].RunID != older {
		t.Fatalf("expected newer run first, got %+v", runs)
	}
}
