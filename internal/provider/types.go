// Package provider defines the interface implemented by stream index
// clients and the request model they share.
package provider

import (
	"context"
	"fmt"

	"github.com/mirastream/mirastream/internal/stream"
)

// MediaRef identifies the content a search is about. Season and Episode
// are 1-based and only meaningful for series.
type MediaRef struct {
	ImdbID        string           `json:"imdbId"`
	Kind          stream.MediaKind `json:"kind"`
	Season        int              `json:"season,omitempty"`
	Episode       int              `json:"episode,omitempty"`
	Title         string           `json:"title"`
	OriginalTitle string           `json:"originalTitle,omitempty"`
	Year          int              `json:"year,omitempty"`
	Anime         bool             `json:"anime"`
}

// Validate checks that the reference carries enough information for at
// least one provider to act on.
func (r MediaRef) Validate() error {
	if r.ImdbID == "" && r.Title == "" {
		return fmt.Errorf("media ref needs an imdb id or a title")
	}
	if r.Kind != stream.KindMovie && r.Kind != stream.KindSeries {
		return fmt.Errorf("unknown media kind %q", r.Kind)
	}
	if r.Kind == stream.KindSeries && (r.Season < 1 || r.Episode < 1) {
		return fmt.Errorf("series ref needs season and episode")
	}
	return nil
}

// Client is a single stream index. Implementations must be safe for
// concurrent use; Search failures are isolated by the aggregator and
// never abort a whole request.
type Client interface {
	// Name identifies the provider in candidates and logs.
	Name() string

	// Handles reports whether this provider is applicable to the given
	// content. The aggregator skips providers that decline.
	Handles(ref MediaRef) bool

	// Search returns raw candidates for the reference. An empty slice and
	// nil error means the index simply had nothing.
	Search(ctx context.Context, ref MediaRef) ([]stream.Candidate, error)
}
