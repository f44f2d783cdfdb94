// Package stream contains the candidate model shared by provider clients,
// the title metadata parser, the junk filter, and the scoring engine.
package stream

import "strings"

// MediaKind distinguishes feature-length from episodic content.
type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindSeries MediaKind = "series"
)

// Quality tiers detected from release titles.
const (
	Quality2160p = "2160p"
	Quality1080p = "1080p"
	Quality720p  = "720p"
	Quality480p  = "480p"
	Quality360p  = "360p"
)

// Candidate is one raw streamable result returned by a provider client.
// It is immutable once returned; enrichment happens on RankedCandidate.
type Candidate struct {
	Provider string `json:"provider"`
	Title    string `json:"title"`
	Size     int64  `json:"size"`
	Seeders  int    `json:"seeders,omitempty"`
	InfoHash string `json:"infoHash,omitempty"`

	// URL is set when the provider already resolved the candidate to a
	// direct playback URL.
	URL string `json:"url,omitempty"`

	// Cached reports whether the debrid service already holds this content,
	// so playback needs no caching round-trip.
	Cached bool `json:"cached"`
}

// Key returns the identifier used for cross-provider deduplication:
// the info hash when present, otherwise title+provider.
func (c Candidate) Key() string {
	if c.InfoHash != "" {
		return "hash:" + lowerHash(c.InfoHash)
	}
	return "title:" + c.Title + "|" + c.Provider
}

func lowerHash(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}

// Metadata holds the structured attributes parsed from a candidate's
// free-text title. Fields the parser could not recognize stay zero.
type Metadata struct {
	Quality   string   `json:"quality,omitempty"`
	Codec     string   `json:"codec,omitempty"`
	HDR       string   `json:"hdr,omitempty"`
	Audio     string   `json:"audio,omitempty"`
	Source    string   `json:"source,omitempty"`
	Languages []string `json:"languages,omitempty"`
	Size      int64    `json:"sizeBytes,omitempty"`
}

// EffectiveSize prefers the provider-reported size and falls back to the
// size parsed out of the title text.
func (m Metadata) EffectiveSize(c Candidate) int64 {
	if c.Size > 0 {
		return c.Size
	}
	return m.Size
}

// RankedCandidate is a candidate with its parsed metadata and score.
type RankedCandidate struct {
	Candidate
	Meta  Metadata `json:"meta"`
	Score float64  `json:"score"`
}

// ScoringContext carries the per-request inputs that influence ranking.
// It is read-only; the same context scored twice yields identical results.
type ScoringContext struct {
	Kind  MediaKind
	Anime bool

	// PreferredLanguages is ordered by priority, most preferred first.
	PreferredLanguages []string
}

// QualityRank maps a quality tier to a comparable magnitude used only for
// tie-breaking (not scoring; scoring has its own, non-monotonic ordering).
func QualityRank(quality string) int {
	switch quality {
	case Quality2160p:
		return 2160
	case Quality1080p:
		return 1080
	case Quality720p:
		return 720
	case Quality480p:
		return 480
	case Quality360p:
		return 360
	default:
		return 0
	}
}
