package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mirastream/mirastream/internal/api"
	"github.com/mirastream/mirastream/internal/availability"
	"github.com/mirastream/mirastream/internal/config"
	"github.com/mirastream/mirastream/internal/debrid"
	"github.com/mirastream/mirastream/internal/logger"
	"github.com/mirastream/mirastream/internal/provider"
	"github.com/mirastream/mirastream/internal/provider/nyaa"
	"github.com/mirastream/mirastream/internal/provider/ratelimit"
	"github.com/mirastream/mirastream/internal/provider/torrentio"
	"github.com/mirastream/mirastream/internal/search"
	"github.com/mirastream/mirastream/internal/stream"
)

const logTailSize = 500

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	tail := logger.NewTail(logTailSize)
	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Path:   cfg.Logging.Path,
		Tail:   tail,
	})
	defer log.Close()

	log.Info().
		Str("logLevel", cfg.Logging.Level).
		Msg("starting MiraStream")

	var providers []provider.Client
	if cfg.Providers.Torrentio.Enabled {
		providers = append(providers, torrentio.NewClient(torrentio.Settings{
			BaseURL: cfg.Providers.Torrentio.BaseURL,
			Options: cfg.Providers.Torrentio.Options,
		}, log.Logger))
	}
	if cfg.Providers.Nyaa.Enabled {
		providers = append(providers, nyaa.NewClient(nyaa.Settings{
			BaseURL:    cfg.Providers.Nyaa.BaseURL,
			Categories: cfg.Providers.Nyaa.Categories,
		}, log.Logger))
	}
	if len(providers) == 0 {
		log.Warn().Msg("no stream providers enabled, searches will return empty results")
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		QueryLimit:  cfg.Search.RateLimitQueries,
		QueryPeriod: cfg.Search.RateLimitPeriod,
	}, log.Logger)

	svc := search.NewService(providers, log.Logger)
	svc.SetPreferredLanguages(cfg.Search.PreferredLanguages)
	svc.SetRateLimiter(limiter)
	svc.SetScoring(stream.NewScorer(cfg.Scoring), stream.NewFilter(cfg.Filter))

	var resolver api.StreamResolver
	if cfg.Debrid.APIKey != "" {
		client := debrid.NewClient(cfg.Debrid.APIKey, cfg.Debrid.BaseURL, log.Logger)
		resolver = debrid.NewResolver(client, debrid.ResolverConfig{
			PollInterval:    cfg.Debrid.PollInterval,
			Timeout:         cfg.Debrid.Timeout,
			DeleteOnFailure: cfg.Debrid.DeleteOnFailure,
		}, log.Logger)

		cache := buildAvailabilityCache(cfg, log)
		svc.SetAvailability(availability.NewService(cache, client, cfg.Availability.MaxConcurrentChecks, log.Logger))
	} else {
		log.Warn().Msg("no debrid API key configured, resolution and availability checks disabled")
	}

	server := api.NewServer(svc, resolver, tail, log.Logger)
	server.SetRateLimiter(limiter)

	go func() {
		addr := cfg.Server.Address()
		log.Info().Str("address", addr).Msg("HTTP server listening")
		if err := server.Start(addr); err != nil {
			log.Info().Msg("server stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server stopped")
}

// buildAvailabilityCache picks the cache backend from config, falling
// back to in-memory when Redis is unreachable.
func buildAvailabilityCache(cfg *config.Config, log *logger.Logger) availability.Cache {
	switch cfg.Availability.Backend {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cache, err := availability.NewRedisCache(ctx,
			cfg.Availability.RedisAddr,
			cfg.Availability.RedisPassword,
			cfg.Availability.RedisDB,
			cfg.Availability.TTL)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Availability.RedisAddr).
				Msg("redis unavailable, falling back to in-memory availability cache")
			return availability.NewMemoryCache(cfg.Availability.TTL)
		}
		return cache
	case "off":
		return availability.NewNoopCache()
	default:
		return availability.NewMemoryCache(cfg.Availability.TTL)
	}
}
