package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mirastream/mirastream/internal/stream"
)

func TestDefaultPolicyMatchesStreamDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Scoring != stream.DefaultScoringConfig() {
		t.Errorf("Scoring = %+v, want stream defaults", cfg.Scoring)
	}
	if !reflect.DeepEqual(cfg.Filter, stream.DefaultFilterConfig()) {
		t.Errorf("Filter = %+v, want stream defaults", cfg.Filter)
	}
	if !reflect.DeepEqual(cfg.Providers.Nyaa.Categories, []string{"1_2", "1_4"}) {
		t.Errorf("Nyaa categories = %v", cfg.Providers.Nyaa.Categories)
	}
}

func TestLoadOverridesPolicyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	payload := `scoring:
  cached_points: 300
  recommend_count: 5
filter:
  episode_factor: 0.5
providers:
  nyaa:
    categories: ["1_2"]
`
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Scoring.CachedPoints != 300 {
		t.Errorf("CachedPoints = %v, want 300", cfg.Scoring.CachedPoints)
	}
	if cfg.Scoring.RecommendCount != 5 {
		t.Errorf("RecommendCount = %d, want 5", cfg.Scoring.RecommendCount)
	}
	// Untouched keys keep their defaults.
	if want := stream.DefaultScoringConfig().SeederScale; cfg.Scoring.SeederScale != want {
		t.Errorf("SeederScale = %v, want default %v", cfg.Scoring.SeederScale, want)
	}
	if cfg.Filter.EpisodeFactor != 0.5 {
		t.Errorf("EpisodeFactor = %v, want 0.5", cfg.Filter.EpisodeFactor)
	}
	if want := stream.DefaultFilterConfig().MovieMinMB[stream.Quality1080p]; cfg.Filter.MovieMinMB[stream.Quality1080p] != want {
		t.Errorf("MovieMinMB[1080p] = %v, want default %v", cfg.Filter.MovieMinMB[stream.Quality1080p], want)
	}
	if !reflect.DeepEqual(cfg.Providers.Nyaa.Categories, []string{"1_2"}) {
		t.Errorf("Nyaa categories = %v, want override", cfg.Providers.Nyaa.Categories)
	}
}
