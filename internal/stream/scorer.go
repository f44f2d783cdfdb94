package stream

import (
	"math"
	"sort"
)

// JunkScore is the sentinel assigned to junk candidates. They are excluded
// from ranked output entirely, not merely sorted last.
const JunkScore = -1e9

// ScoringConfig holds configurable weights for the scoring algorithm.
type ScoringConfig struct {
	// Quality bonuses. 2160p intentionally scores below 720p/1080p to bias
	// toward bandwidth-friendly tiers.
	Quality1080pPoints float64 `mapstructure:"quality_1080p_points"` // default: 100
	Quality720pPoints  float64 `mapstructure:"quality_720p_points"`  // default: 80
	Quality2160pPoints float64 `mapstructure:"quality_2160p_points"` // default: 60
	QualityOtherPoints float64 `mapstructure:"quality_other_points"` // default: 20 (any other detected tier)

	// CachedPoints is the flat bonus for instantly playable candidates.
	CachedPoints float64 `mapstructure:"cached_points"` // default: 150

	// Language bonuses: a small amount per detected language, plus a larger
	// amount per language in the caller's preferred list.
	LanguagePoints          float64 `mapstructure:"language_points"`           // default: 5
	PreferredLanguagePoints float64 `mapstructure:"preferred_language_points"` // default: 25

	// SeederScale multiplies log2(seeders+1); diminishing returns.
	SeederScale float64 `mapstructure:"seeder_scale"` // default: 4

	// Size penalty: SizePenaltyWeight * sizeGB^SizeExponent. The exponent
	// stays above 1 so runaway REMUX-sized entries are penalized
	// increasingly harshly relative to their size.
	SizePenaltyWeight float64 `mapstructure:"size_penalty_weight"` // default: 1.0
	SizeExponent      float64 `mapstructure:"size_exponent"`       // default: 1.2

	// RecommendCount is the size of the recommended subset.
	RecommendCount int `mapstructure:"recommend_count"` // default: 2
}

// DefaultScoringConfig returns the default scoring weights.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Quality1080pPoints:      100,
		Quality720pPoints:       80,
		Quality2160pPoints:      60,
		QualityOtherPoints:      20,
		CachedPoints:            150,
		LanguagePoints:          5,
		PreferredLanguagePoints: 25,
		SeederScale:             4,
		SizePenaltyWeight:       1.0,
		SizeExponent:            1.2,
		RecommendCount:          2,
	}
}

// Scorer computes desirability scores for candidates. Pure and
// deterministic: the same inputs always produce the same score.
type Scorer struct {
	config ScoringConfig
}

// NewScorer creates a scorer with the given weights.
func NewScorer(config ScoringConfig) *Scorer {
	return &Scorer{config: config}
}

// NewDefaultScorer creates a scorer with default weights.
func NewDefaultScorer() *Scorer {
	return NewScorer(DefaultScoringConfig())
}

// Score computes the desirability of a non-junk candidate. Higher is
// better. All terms are commutative sums.
func (s *Scorer) Score(c Candidate, meta Metadata, ctx ScoringContext) float64 {
	var score float64

	score += s.qualityBonus(meta.Quality)

	if c.Cached {
		score += s.config.CachedPoints
	}

	score += s.languageBonus(meta.Languages, ctx.PreferredLanguages)

	if c.Seeders > 0 {
		score += s.config.SeederScale * math.Log2(float64(c.Seeders)+1)
	}

	if size := meta.EffectiveSize(c); size > 0 {
		sizeGB := float64(size) / (1024 * 1024 * 1024)
		score -= s.config.SizePenaltyWeight * math.Pow(sizeGB, s.config.SizeExponent)
	}

	return score
}

func (s *Scorer) qualityBonus(quality string) float64 {
	switch quality {
	case Quality1080p:
		return s.config.Quality1080pPoints
	case Quality720p:
		return s.config.Quality720pPoints
	case Quality2160p:
		return s.config.Quality2160pPoints
	case "":
		return 0
	default:
		return s.config.QualityOtherPoints
	}
}

func (s *Scorer) languageBonus(detected, preferred []string) float64 {
	var bonus float64
	for _, lang := range detected {
		bonus += s.config.LanguagePoints
		for _, pref := range preferred {
			if lang == pref {
				bonus += s.config.PreferredLanguagePoints
				break
			}
		}
	}
	return bonus
}

// Rank parses, filters, and scores candidates, returning them sorted best
// first. Junk candidates receive the sentinel score and never appear in
// the output.
func Rank(candidates []Candidate, scorer *Scorer, filter *Filter, ctx ScoringContext) []RankedCandidate {
	ranked := make([]RankedCandidate, 0, len(candidates))

	for _, c := range candidates {
		meta := ParseTitle(c.Title)

		score := JunkScore
		if !filter.IsJunk(c, meta, ctx.Kind) {
			score = scorer.Score(c, meta, ctx)
		}
		if score <= JunkScore {
			continue
		}

		ranked = append(ranked, RankedCandidate{Candidate: c, Meta: meta, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		// Ties: higher quality tier first, then smaller size.
		ri, rj := QualityRank(ranked[i].Meta.Quality), QualityRank(ranked[j].Meta.Quality)
		if ri != rj {
			return ri > rj
		}
		return ranked[i].Meta.EffectiveSize(ranked[i].Candidate) < ranked[j].Meta.EffectiveSize(ranked[j].Candidate)
	})

	return ranked
}

// Recommend returns the top candidates of a ranked list that carry a
// strictly positive score.
func (s *Scorer) Recommend(ranked []RankedCandidate) []RankedCandidate {
	limit := s.config.RecommendCount
	if limit <= 0 {
		limit = 2
	}

	recommended := make([]RankedCandidate, 0, limit)
	for _, rc := range ranked {
		if rc.Score <= 0 {
			break
		}
		recommended = append(recommended, rc)
		if len(recommended) == limit {
			break
		}
	}
	return recommended
}
