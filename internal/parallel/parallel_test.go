package parallel

import (
	"sync/atomic"
	"testing"
)

func TestFor_CoversAllIndices(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}

	n := 10000
	hits := make([]int32, n)
	For(n, func(i int) {
		atomic.AddInt32(&hits[i], 1)
	}, cfg)

	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, h)
		}
	}
}

func TestFor_SequentialFallback(t *testing.T) {
	// Below MinChunkSize the loop must run on the calling goroutine, in
	// order. Appending without synchronization would race otherwise.
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 100}

	var order []int
	For(10, func(i int) {
		order = append(order, i)
	}, cfg)

	if len(order) != 10 {
		t.Fatalf("visited %d indices, want 10", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestFor_Disabled(t *testing.T) {
	cfg := Config{Enabled: false, NumWorkers: 4, MinChunkSize: 1}

	var order []int
	For(5000, func(i int) {
		order = append(order, i)
	}, cfg)

	if len(order) != 5000 {
		t.Fatalf("visited %d indices, want 5000", len(order))
	}
}

func TestFor_Empty(t *testing.T) {
	called := false
	For(0, func(i int) { called = true }, DefaultConfig())
	if called {
		t.Fatal("body called for n=0")
	}
}

func TestForChunks_CoversRange(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1}

	n := 7919
	hits := make([]int32, n)
	ForChunks(n, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	}, cfg)

	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, h)
		}
	}
}

func TestForChunks_SmallInputSingleChunk(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 100}

	calls := 0
	ForChunks(10, func(start, end int) {
		calls++
		if start != 0 || end != 10 {
			t.Fatalf("got chunk [%d, %d), want [0, 10)", start, end)
		}
	}, cfg)

	if calls != 1 {
		t.Fatalf("got %d chunk calls, want 1", calls)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.NumWorkers < 1 {
		t.Fatalf("NumWorkers = %d, want >= 1", cfg.NumWorkers)
	}
	if cfg.MinChunkSize < 1 {
		t.Fatalf("MinChunkSize = %d, want >= 1", cfg.MinChunkSize)
	}
}
