package syncx

import (
	"sync"
	"testing"
)

func TestGuardGetSet(t *testing.T) {
	g := NewGuard(42)

	if got := g.Get(); got != 42 {
		t.Errorf("Get() = %d, want 42", got)
	}

	g.Set(100)
	if got := g.Get(); got != 100 {
		t.Errorf("Get() after Set = %d, want 100", got)
	}
}

func TestGuardSwap(t *testing.T) {
	g := NewGuard("idle")

	old := g.Swap("busy")
	if old != "idle" {
		t.Errorf("Swap returned %q, want %q", old, "idle")
	}
	if got := g.Get(); got != "busy" {
		t.Errorf("Get() after Swap = %q, want %q", got, "busy")
	}
}

func TestGuardWithStruct(t *testing.T) {
	type counts struct {
		frames int
		lines  int
	}

	g := NewGuard(counts{frames: 1})
	g.Set(counts{frames: 5, lines: 2})

	got := g.Get()
	if got.frames != 5 || got.lines != 2 {
		t.Errorf("Get() = %+v, want {5, 2}", got)
	}
}

// Each Swap atomically takes the previous value, so the old values plus
// the final value must form a permutation of everything ever stored.
func TestGuardSwapAtomicity(t *testing.T) {
	g := NewGuard(0)
	seen := make(chan int, 101)

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen <- g.Swap(i)
		}(i)
	}
	wg.Wait()
	seen <- g.Get()
	close(seen)

	counts := make(map[int]int)
	for v := range seen {
		counts[v]++
	}
	for i := 0; i <= 100; i++ {
		if counts[i] != 1 {
			t.Fatalf("value %d seen %d times, want exactly once", i, counts[i])
		}
	}
}

func TestGuardConcurrentReads(t *testing.T) {
	g := NewGuard("settling")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Set("busy")
			_ = g.Get()
		}()
	}
	wg.Wait()

	if got := g.Get(); got != "busy" {
		t.Errorf("Get() = %q, want busy", got)
	}
}
