// Package torrentio implements the provider client for a Torrentio-style
// stream aggregator: a JSON endpoint keyed by IMDb id that returns
// pre-scraped torrent streams across many public trackers.
package torrentio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mirastream/mirastream/internal/provider"
	"github.com/mirastream/mirastream/internal/stream"
)

const Name = "torrentio"

const defaultBaseURL = "https://torrentio.strem.fun"

// Settings holds the per-instance configuration for a Torrentio endpoint.
type Settings struct {
	// BaseURL is the aggregator root, without a trailing slash.
	BaseURL string

	// Options is the optional configured-path segment (debrid keys,
	// provider selection) inserted between the base URL and /stream.
	Options string

	Timeout time.Duration
}

// Client queries a Torrentio-compatible aggregator.
type Client struct {
	settings Settings
	client   *http.Client
	logger   zerolog.Logger
}

// NewClient creates a Torrentio client. Zero-value settings fall back to
// the public endpoint with a 15-second timeout.
func NewClient(settings Settings, logger zerolog.Logger) *Client {
	if settings.BaseURL == "" {
		settings.BaseURL = defaultBaseURL
	}
	settings.BaseURL = strings.TrimRight(settings.BaseURL, "/")
	if settings.Timeout <= 0 {
		settings.Timeout = 15 * time.Second
	}

	return &Client{
		settings: settings,
		client:   &http.Client{Timeout: settings.Timeout},
		logger:   logger.With().Str("component", "torrentio").Logger(),
	}
}

func (c *Client) Name() string { return Name }

// Handles accepts anything with an IMDb id; the aggregator indexes both
// movies and series, Western and anime alike.
func (c *Client) Handles(ref provider.MediaRef) bool {
	return ref.ImdbID != ""
}

// streamsURL builds the stream listing URL for a reference.
func (c *Client) streamsURL(ref provider.MediaRef) string {
	base := c.settings.BaseURL
	if c.settings.Options != "" {
		base += "/" + strings.Trim(c.settings.Options, "/")
	}
	if ref.Kind == stream.KindSeries {
		return fmt.Sprintf("%s/stream/series/%s:%d:%d.json", base, ref.ImdbID, ref.Season, ref.Episode)
	}
	return fmt.Sprintf("%s/stream/movie/%s.json", base, ref.ImdbID)
}

func (c *Client) Search(ctx context.Context, ref provider.MediaRef) ([]stream.Candidate, error) {
	url := c.streamsURL(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("torrentio request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Unknown id: treat as an empty index, not a failure.
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("torrentio HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	const maxResponseSize = 10 * 1024 * 1024 // 10 MB
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var payload streamsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode torrentio response: %w", err)
	}

	candidates := make([]stream.Candidate, 0, len(payload.Streams))
	for _, s := range payload.Streams {
		candidate, ok := s.toCandidate()
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}

	c.logger.Debug().
		Str("imdbId", ref.ImdbID).
		Int("streams", len(payload.Streams)).
		Int("candidates", len(candidates)).
		Msg("Torrentio search complete")

	return candidates, nil
}

// Wire format. Fields the aggregator omits simply stay zero; malformed
// entries are skipped rather than failing the whole response.

type streamsResponse struct {
	Streams []streamEntry `json:"streams"`
}

type streamEntry struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	InfoHash string `json:"infoHash"`
	FileIdx  int    `json:"fileIdx"`
	URL      string `json:"url"`

	BehaviorHints struct {
		BingeGroup string `json:"bingeGroup"`
		VideoSize  int64  `json:"videoSize"`
		Filename   string `json:"filename"`
	} `json:"behaviorHints"`
}

// seedersPattern matches the watcher-count decoration Torrentio embeds in
// stream titles, e.g. "👤 42".
var seedersPattern = regexp.MustCompile(`👤\s*(\d+)`)

func (s streamEntry) toCandidate() (stream.Candidate, bool) {
	if s.InfoHash == "" && s.URL == "" {
		return stream.Candidate{}, false
	}

	// The title field is multi-line: release name first, decorations
	// (seeders, size, source tags) on the following lines. Collapse it so
	// downstream parsing sees one string.
	title := strings.TrimSpace(strings.ReplaceAll(s.Title, "\n", " "))
	if title == "" {
		title = strings.TrimSpace(strings.ReplaceAll(s.Name, "\n", " "))
	}
	if title == "" {
		return stream.Candidate{}, false
	}

	var seeders int
	if m := seedersPattern.FindStringSubmatch(s.Title); m != nil {
		seeders, _ = strconv.Atoi(m[1])
	}

	// A direct URL means the stream is already resolved through a debrid
	// account and plays without a caching round-trip.
	return stream.Candidate{
		Provider: Name,
		Title:    title,
		Size:     s.BehaviorHints.VideoSize,
		Seeders:  seeders,
		InfoHash: s.InfoHash,
		URL:      s.URL,
		Cached:   s.URL != "",
	}, true
}
