// Package search orchestrates candidate searches across providers and
// assembles the ranked result set.
package search

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mirastream/mirastream/internal/availability"
	"github.com/mirastream/mirastream/internal/provider"
	"github.com/mirastream/mirastream/internal/provider/ratelimit"
	"github.com/mirastream/mirastream/internal/stream"
)

// Service fans a media reference out to every applicable provider and
// turns the raw candidates into a deduplicated, filtered, ranked result.
type Service struct {
	providers    []provider.Client
	availability *availability.Service
	rateLimiter  *ratelimit.Limiter
	scorer       *stream.Scorer
	filter       *stream.Filter
	logger       zerolog.Logger

	// preferredLanguages applies to every request's scoring context.
	preferredLanguages []string
}

// NewService creates a search service with default scoring and filtering.
func NewService(providers []provider.Client, logger zerolog.Logger) *Service {
	return &Service{
		providers: providers,
		scorer:    stream.NewDefaultScorer(),
		filter:    stream.NewDefaultFilter(),
		logger:    logger.With().Str("component", "search").Logger(),
	}
}

// SetAvailability wires the debrid availability annotator.
func (s *Service) SetAvailability(service *availability.Service) {
	s.availability = service
}

// SetRateLimiter wires the per-provider rate limiter.
func (s *Service) SetRateLimiter(limiter *ratelimit.Limiter) {
	s.rateLimiter = limiter
}

// SetScoring replaces the default scorer and filter.
func (s *Service) SetScoring(scorer *stream.Scorer, filter *stream.Filter) {
	s.scorer = scorer
	s.filter = filter
}

// SetPreferredLanguages sets the languages favored during scoring.
func (s *Service) SetPreferredLanguages(languages []string) {
	s.preferredLanguages = languages
}

// ProviderNames lists the configured provider clients.
func (s *Service) ProviderNames() []string {
	names := make([]string, 0, len(s.providers))
	for _, client := range s.providers {
		names = append(names, client.Name())
	}
	return names
}

// ProviderError records one provider's failure without failing the
// request.
type ProviderError struct {
	Provider string `json:"provider"`
	Error    string `json:"error"`
}

// Result is the aggregated outcome of one search request.
type Result struct {
	RequestID      string                   `json:"requestId"`
	Candidates     []stream.RankedCandidate `json:"candidates"`
	Recommended    []stream.RankedCandidate `json:"recommended"`
	ProvidersUsed  int                      `json:"providersUsed"`
	ProviderErrors []ProviderError          `json:"providerErrors,omitempty"`
	ElapsedMs      int64                    `json:"elapsedMs"`
}

// searchTaskResult is one provider's contribution.
type searchTaskResult struct {
	Provider   string
	Candidates []stream.Candidate
	Error      error
}

// Search runs the full pipeline: provider fan-out, dedup, availability
// annotation, junk filtering, scoring, and recommendation.
func (s *Service) Search(ctx context.Context, ref provider.MediaRef) (*Result, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	started := time.Now()

	logger := s.logger.With().Str("requestId", requestID).Logger()
	logger.Info().
		Str("imdbId", ref.ImdbID).
		Str("title", ref.Title).
		Str("kind", string(ref.Kind)).
		Bool("anime", ref.Anime).
		Msg("Search started")

	clients := s.applicableProviders(ref, logger)

	result := s.aggregate(s.dispatch(ctx, clients, ref), logger)

	scoringCtx := stream.ScoringContext{
		Kind:               ref.Kind,
		Anime:              ref.Anime,
		PreferredLanguages: s.preferredLanguages,
	}

	merged := dedupeCandidates(result.raw)
	if s.availability != nil {
		merged = s.availability.Annotate(ctx, merged)
	}

	ranked := stream.Rank(merged, s.scorer, s.filter, scoringCtx)

	response := &Result{
		RequestID:      requestID,
		Candidates:     ranked,
		Recommended:    s.scorer.Recommend(ranked),
		ProvidersUsed:  result.providersUsed,
		ProviderErrors: result.errors,
		ElapsedMs:      time.Since(started).Milliseconds(),
	}

	logger.Info().
		Int("raw", len(result.raw)).
		Int("ranked", len(ranked)).
		Int("recommended", len(response.Recommended)).
		Int("providersUsed", result.providersUsed).
		Int("providerErrors", len(result.errors)).
		Msg("Search complete")

	return response, nil
}

// applicableProviders filters the configured clients down to those that
// handle the reference and still have rate budget.
func (s *Service) applicableProviders(ref provider.MediaRef, logger zerolog.Logger) []provider.Client {
	var clients []provider.Client
	for _, client := range s.providers {
		if !client.Handles(ref) {
			continue
		}
		if s.rateLimiter != nil && !s.rateLimiter.Allow(client.Name()) {
			logger.Warn().Str("provider", client.Name()).Msg("Provider skipped, rate limited")
			continue
		}
		clients = append(clients, client)
	}
	return clients
}

// dispatch runs every provider search concurrently. The returned channel
// closes once all providers have reported.
func (s *Service) dispatch(ctx context.Context, clients []provider.Client, ref provider.MediaRef) <-chan searchTaskResult {
	var wg sync.WaitGroup
	results := make(chan searchTaskResult, len(clients))

	for _, client := range clients {
		wg.Add(1)
		go func(client provider.Client) {
			defer wg.Done()
			candidates, err := client.Search(ctx, ref)
			results <- searchTaskResult{
				Provider:   client.Name(),
				Candidates: candidates,
				Error:      err,
			}
		}(client)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

type aggregated struct {
	raw           []stream.Candidate
	providersUsed int
	errors        []ProviderError
}

// aggregate collects the fan-out results. A failing provider contributes
// an empty result and an error record; it never aborts the request.
func (s *Service) aggregate(results <-chan searchTaskResult, logger zerolog.Logger) aggregated {
	var agg aggregated

	for result := range results {
		if result.Error != nil {
			logger.Warn().
				Str("provider", result.Provider).
				Err(result.Error).
				Msg("Provider search failed")
			agg.errors = append(agg.errors, ProviderError{
				Provider: result.Provider,
				Error:    result.Error.Error(),
			})
			continue
		}
		agg.providersUsed++
		agg.raw = append(agg.raw, result.Candidates...)
	}

	return agg
}

// dedupeCandidates collapses candidates that refer to the same content.
// On collision the richer entry wins: cached beats uncached, then higher
// seeder count.
func dedupeCandidates(candidates []stream.Candidate) []stream.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	seen := make(map[string]int, len(candidates))
	result := make([]stream.Candidate, 0, len(candidates))

	for _, candidate := range candidates {
		key := candidate.Key()
		existingIdx, exists := seen[key]
		if !exists {
			seen[key] = len(result)
			result = append(result, candidate)
			continue
		}

		existing := result[existingIdx]
		if (candidate.Cached && !existing.Cached) ||
			(candidate.Cached == existing.Cached && candidate.Seeders > existing.Seeders) {
			result[existingIdx] = candidate
		}
	}

	return result
}
