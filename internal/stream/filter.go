package stream

import "regexp"

// Junk keywords matched as whole words against the lower-cased title.
// Any hit marks the candidate junk regardless of size.
var junkKeywordPattern = regexp.MustCompile(
	`(?i)\b(trailer|promo|sample|preview|clip|extra|bonus|teaser|opening|ending|op|ed)\b`)

// FilterConfig holds the minimum plausible sizes, in megabytes, for real
// content at each quality tier. The cutoffs are tuned policy, not domain
// law: they trade occasional false positives on unusually short legitimate
// content for cheap rejection of trailers and fake releases.
type FilterConfig struct {
	// MovieMinMB maps quality tier to the minimum size for feature-length
	// content. Episodic thresholds are MovieMinMB scaled by EpisodeFactor.
	MovieMinMB map[string]float64 `mapstructure:"movie_min_mb"`

	// EpisodeFactor scales movie thresholds down for single episodes.
	EpisodeFactor float64 `mapstructure:"episode_factor"`
}

// DefaultFilterConfig returns the default size thresholds.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MovieMinMB: map[string]float64{
			Quality2160p: 2500,
			Quality1080p: 1000,
			Quality720p:  500,
			Quality480p:  250,
			Quality360p:  120,
		},
		EpisodeFactor: 0.2,
	}
}

// Filter classifies candidates as junk (trailers, promos, fakes).
type Filter struct {
	config FilterConfig
}

// NewFilter creates a filter with the given thresholds.
func NewFilter(config FilterConfig) *Filter {
	return &Filter{config: config}
}

// NewDefaultFilter creates a filter with default thresholds.
func NewDefaultFilter() *Filter {
	return NewFilter(DefaultFilterConfig())
}

// IsJunk reports whether a candidate is promotional or otherwise not the
// requested main content. The keyword rule runs first; the size heuristic
// applies only when no keyword matched and a size is known.
func (f *Filter) IsJunk(c Candidate, meta Metadata, kind MediaKind) bool {
	if junkKeywordPattern.MatchString(c.Title) {
		return true
	}

	size := meta.EffectiveSize(c)
	if size <= 0 {
		// No size information, nothing to compare against.
		return false
	}

	threshold := f.minSizeMB(meta.Quality, kind)
	sizeMB := float64(size) / (1024 * 1024)
	return sizeMB < threshold
}

// minSizeMB returns the threshold for a quality tier, falling back to the
// lowest tier when the quality is unknown.
func (f *Filter) minSizeMB(quality string, kind MediaKind) float64 {
	threshold, ok := f.config.MovieMinMB[quality]
	if !ok {
		threshold = f.config.MovieMinMB[Quality360p]
	}
	if kind == KindSeries {
		threshold *= f.config.EpisodeFactor
	}
	return threshold
}
