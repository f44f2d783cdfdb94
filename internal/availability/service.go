package availability

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/mirastream/mirastream/internal/stream"
)

// Checker answers instant-availability queries against the debrid
// service for a batch of info hashes.
type Checker interface {
	CheckAvailability(ctx context.Context, infoHashes []string) (map[string]bool, error)
}

// batchSize bounds how many hashes go into one upstream query.
const batchSize = 50

// Service annotates candidates with debrid availability, consulting the
// cache first and falling back to batched upstream checks.
type Service struct {
	cache   Cache
	checker Checker
	logger  zerolog.Logger

	// sem bounds concurrent upstream batches across all requests.
	sem *semaphore.Weighted
}

// NewService creates an availability service. checker may be nil, in
// which case only cached knowledge is applied. maxConcurrent bounds
// simultaneous upstream batches; values below 1 default to 4.
func NewService(cache Cache, checker Checker, maxConcurrent int64, logger zerolog.Logger) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 4
	}
	return &Service{
		cache:   cache,
		checker: checker,
		logger:  logger.With().Str("component", "availability").Logger(),
		sem:     semaphore.NewWeighted(maxConcurrent),
	}
}

// Annotate sets Cached on every candidate whose hash is known to be held
// by the debrid service. Cache misses are checked upstream in batches;
// failures leave the affected candidates unannotated rather than failing
// the search.
func (s *Service) Annotate(ctx context.Context, candidates []stream.Candidate) []stream.Candidate {
	// Index candidates by hash; providers may report the same content.
	byHash := make(map[string][]int)
	var unknown []string

	for i, c := range candidates {
		if c.Cached || c.InfoHash == "" {
			continue
		}
		hash := normalizeHash(c.InfoHash)

		cached, known, err := s.cache.Get(ctx, hash)
		if err != nil {
			s.logger.Warn().Err(err).Str("infoHash", hash).Msg("Availability cache read failed")
		}
		if known {
			if cached {
				candidates[i].Cached = true
			}
			continue
		}

		if _, seen := byHash[hash]; !seen {
			unknown = append(unknown, hash)
		}
		byHash[hash] = append(byHash[hash], i)
	}

	if s.checker == nil || len(unknown) == 0 {
		return candidates
	}

	results := s.checkBatches(ctx, unknown)
	for hash, cached := range results {
		if err := s.cache.Set(ctx, hash, cached); err != nil {
			s.logger.Warn().Err(err).Str("infoHash", hash).Msg("Availability cache write failed")
		}
		if !cached {
			continue
		}
		for _, i := range byHash[hash] {
			candidates[i].Cached = true
		}
	}

	return candidates
}

// checkBatches fans the unknown hashes out to the checker in bounded
// parallel batches and merges the answers.
func (s *Service) checkBatches(ctx context.Context, hashes []string) map[string]bool {
	var (
		mu      sync.Mutex
		results = make(map[string]bool, len(hashes))
		wg      sync.WaitGroup
	)

	for start := 0; start < len(hashes); start += batchSize {
		end := start + batchSize
		if end > len(hashes) {
			end = len(hashes)
		}
		batch := hashes[start:end]

		if err := s.sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.sem.Release(1)

			found, err := s.checker.CheckAvailability(ctx, batch)
			if err != nil {
				s.logger.Warn().Err(err).Int("hashes", len(batch)).Msg("Availability check failed")
				return
			}

			mu.Lock()
			for hash, cached := range found {
				results[normalizeHash(hash)] = cached
			}
			// Hashes the service did not mention are not cached.
			for _, hash := range batch {
				if _, ok := results[hash]; !ok {
					results[hash] = false
				}
			}
			mu.Unlock()
		}()
	}

	wg.Wait()
	return results
}
