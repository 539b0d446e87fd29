package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunPreservesInputOrderInResults(t *testing.T) {
	jobs := []int{10, 20, 30, 40, 50}
	results, err := Run(context.Background(), 2, jobs, func(_ context.Context, _ int, job int) (int, error) {
		return job * 2, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []int{20, 40, 60, 80, 100}
	for i, w := range want {
		if results[i] != w {
			t.Fatalf("results[%d] = %d, want %d", i, results[i], w)
		}
	}
}

func TestRunNeverExceedsSizeConcurrentCalls(t *testing.T) {
	const size = 3
	var inFlight int32
	var maxSeen int32
	jobs := make([]int, 20)

	_, err := Run(context.Background(), size, jobs, func(_ context.Context, _ int, _ int) (struct{}, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			cur := atomic.LoadInt32(&maxSeen)
			if n <= cur || atomic.CompareAndSwapInt32(&maxSeen, cur, n) {
				break
			}
		}
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if maxSeen > size {
		t.Fatalf("observed %d concurrent calls, want at most %d", maxSeen, size)
	}
}

func TestRunWorkerIDsAreExclusiveWithinSize(t *testing.T) {
	const size = 4
	jobs := make([]int, 50)
	var mu sync.Mutex
	held := map[int]bool{}

	_, err := Run(context.Background(), size, jobs, func(_ context.Context, workerID int, _ int) (struct{}, error) {
		mu.Lock()
		if held[workerID] {
			mu.Unlock()
			t.Errorf("workerID %d claimed by two calls at once", workerID)
			return struct{}{}, nil
		}
		held[workerID] = true
		mu.Unlock()

		mu.Lock()
		held[workerID] = false
		mu.Unlock()
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunPropagatesFirstErrorAndCancelsContext(t *testing.T) {
	sentinel := errors.New("fatal during job 2")
	jobs := []int{1, 2, 3, 4, 5}

	_, err := Run(context.Background(), 1, jobs, func(_ context.Context, _ int, job int) (int, error) {
		if job == 2 {
			return 0, sentinel
		}
		return job, nil
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
}

func TestRunZeroJobsReturnsEmptyResults(t *testing.T) {
	results, err := Run(context.Background(), 2, []int{}, func(_ context.Context, _ int, job int) (int, error) {
		return job, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected zero results, got %d", len(results))
	}
}
