package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestLRU_GetPut(t *testing.T) {
	c := New[string, int](3)
	c.Put("a", 1)
	c.Put("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}

	c.Put("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) after update = %d; want 10", v)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d; want 2", c.Len())
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should still be cached")
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d; want 1", got)
	}
}

func TestLRU_Load(t *testing.T) {
	c := New[string, string](4)
	calls := 0
	build := func() (string, error) {
		calls++
		return "compiled", nil
	}

	for range 3 {
		v, err := c.Load("Patient.name", build)
		if err != nil || v != "compiled" {
			t.Fatalf("Load() = %q, %v; want compiled, nil", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("build called %d times; want 1", calls)
	}

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("Stats() hits=%d misses=%d; want 2, 1", stats.Hits, stats.Misses)
	}
	if rate := stats.HitRate(); rate < 0.66 || rate > 0.67 {
		t.Errorf("HitRate() = %f; want ~0.667", rate)
	}
}

func TestLRU_LoadErrorNotCached(t *testing.T) {
	c := New[string, int](4)
	boom := errors.New("parse error")

	if _, err := c.Load("bad(", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("Load() error = %v; want %v", err, boom)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d; want 0 after failed build", c.Len())
	}
}

func TestLRU_RemoveAndPurge(t *testing.T) {
	c := New[int, int](4)
	for i := range 4 {
		c.Put(i, i)
	}
	c.Remove(0)
	if _, ok := c.Get(0); ok {
		t.Error("0 should have been removed")
	}
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len() after Purge = %d; want 0", c.Len())
	}
}

func TestLRU_DefaultCapacity(t *testing.T) {
	c := New[string, int](0)
	if got := c.Stats().Capacity; got != DefaultCapacity {
		t.Errorf("Capacity = %d; want %d", got, DefaultCapacity)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := New[string, int](16)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				key := fmt.Sprintf("k%d", (g+i)%32)
				if _, err := c.Load(key, func() (int, error) { return i, nil }); err != nil {
					t.Errorf("Load(%s) error = %v", key, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if c.Len() > 16 {
		t.Errorf("Len() = %d; want <= 16", c.Len())
	}
}
