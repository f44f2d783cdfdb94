package availability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mirastream/mirastream/internal/stream"
)

type fakeChecker struct {
	mu      sync.Mutex
	cached  map[string]bool
	calls   int
	queried []string
	err     error
}

func (f *fakeChecker) CheckAvailability(_ context.Context, hashes []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.queried = append(f.queried, hashes...)
	if f.err != nil {
		return nil, f.err
	}
	result := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		if f.cached[h] {
			result[h] = true
		}
	}
	return result, nil
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	ctx := context.Background()

	if _, known, _ := cache.Get(ctx, "abc"); known {
		t.Error("empty cache should not know anything")
	}

	if err := cache.Set(ctx, "ABC", true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	cached, known, err := cache.Get(ctx, "abc")
	if err != nil || !known || !cached {
		t.Errorf("Get = (%v, %v, %v), want (true, true, nil)", cached, known, err)
	}

	cache.Set(ctx, "def", false)
	cached, known, _ = cache.Get(ctx, "def")
	if !known || cached {
		t.Errorf("negative entries should be known: (%v, %v)", cached, known)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache(10 * time.Millisecond)
	ctx := context.Background()

	cache.Set(ctx, "abc", true)
	time.Sleep(20 * time.Millisecond)

	if _, known, _ := cache.Get(ctx, "abc"); known {
		t.Error("expired entry should not be known")
	}
}

func TestAnnotateFromCache(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	ctx := context.Background()
	cache.Set(ctx, "aa11", true)
	cache.Set(ctx, "bb22", false)

	checker := &fakeChecker{}
	service := NewService(cache, checker, 4, zerolog.Nop())

	candidates := service.Annotate(ctx, []stream.Candidate{
		{Title: "hit", InfoHash: "AA11"},
		{Title: "known miss", InfoHash: "bb22"},
	})

	if !candidates[0].Cached {
		t.Error("cache hit should mark candidate cached")
	}
	if candidates[1].Cached {
		t.Error("known-uncached candidate should stay unmarked")
	}
	if checker.calls != 0 {
		t.Errorf("fully cached request should not hit the checker, got %d calls", checker.calls)
	}
}

func TestAnnotateChecksUnknownHashes(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	ctx := context.Background()

	checker := &fakeChecker{cached: map[string]bool{"aa11": true}}
	service := NewService(cache, checker, 4, zerolog.Nop())

	candidates := service.Annotate(ctx, []stream.Candidate{
		{Title: "available", InfoHash: "aa11"},
		{Title: "not available", InfoHash: "bb22"},
		{Title: "no hash"},
		{Title: "already cached", InfoHash: "cc33", Cached: true},
	})

	if !candidates[0].Cached {
		t.Error("checker-confirmed candidate should be cached")
	}
	if candidates[1].Cached {
		t.Error("unavailable candidate should stay unmarked")
	}
	if candidates[3].Cached != true {
		t.Error("pre-cached candidate should stay cached")
	}

	checker.mu.Lock()
	queried := len(checker.queried)
	checker.mu.Unlock()
	if queried != 2 {
		t.Errorf("expected 2 hashes queried, got %d", queried)
	}

	// Results must be remembered for the next request.
	if cached, known, _ := cache.Get(ctx, "aa11"); !known || !cached {
		t.Error("positive result should be cached")
	}
	if cached, known, _ := cache.Get(ctx, "bb22"); !known || cached {
		t.Error("negative result should be cached")
	}
}

func TestAnnotateCheckerFailure(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	checker := &fakeChecker{err: errors.New("service down")}
	service := NewService(cache, checker, 4, zerolog.Nop())

	candidates := service.Annotate(context.Background(), []stream.Candidate{
		{Title: "a", InfoHash: "aa11"},
	})

	if candidates[0].Cached {
		t.Error("failed check must not mark anything cached")
	}
	if _, known, _ := cache.Get(context.Background(), "aa11"); known {
		t.Error("failed check must not poison the cache")
	}
}

func TestAnnotateWithoutChecker(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	service := NewService(cache, nil, 4, zerolog.Nop())

	candidates := service.Annotate(context.Background(), []stream.Candidate{
		{Title: "a", InfoHash: "aa11"},
	})
	if candidates[0].Cached {
		t.Error("no checker, no annotation")
	}
}

func TestAnnotateDeduplicatesHashes(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	checker := &fakeChecker{cached: map[string]bool{"aa11": true}}
	service := NewService(cache, checker, 4, zerolog.Nop())

	candidates := service.Annotate(context.Background(), []stream.Candidate{
		{Provider: "torrentio", Title: "a", InfoHash: "AA11"},
		{Provider: "nyaa", Title: "b", InfoHash: "aa11"},
	})

	checker.mu.Lock()
	queried := len(checker.queried)
	checker.mu.Unlock()
	if queried != 1 {
		t.Errorf("duplicate hashes should be queried once, got %d", queried)
	}
	if !candidates[0].Cached || !candidates[1].Cached {
		t.Error("all candidates sharing the hash should be annotated")
	}
}

func TestNoopCache(t *testing.T) {
	cache := NewNoopCache()
	ctx := context.Background()

	if err := cache.Set(ctx, "abc", true); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, known, _ := cache.Get(ctx, "abc"); known {
		t.Error("noop cache should never know anything")
	}
}
