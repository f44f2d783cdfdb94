// Package nyaa implements the provider client for a Nyaa-style anime
// index exposed over RSS.
package nyaa

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mirastream/mirastream/internal/provider"
	"github.com/mirastream/mirastream/internal/stream"
)

const Name = "nyaa"

const defaultBaseURL = "https://nyaa.si"

// Settings holds the per-instance configuration for a Nyaa endpoint.
type Settings struct {
	BaseURL string

	// Categories narrow results; each query runs once per category.
	// "1_2" is English-translated anime, "1_4" is raw.
	Categories []string

	Timeout time.Duration
}

// Client queries a Nyaa-compatible RSS index.
type Client struct {
	settings Settings
	client   *http.Client
	logger   zerolog.Logger
}

// NewClient creates a Nyaa client. Zero-value settings fall back to the
// public site, English-translated plus raw anime, 15-second timeout.
func NewClient(settings Settings, logger zerolog.Logger) *Client {
	if settings.BaseURL == "" {
		settings.BaseURL = defaultBaseURL
	}
	settings.BaseURL = strings.TrimRight(settings.BaseURL, "/")
	if len(settings.Categories) == 0 {
		settings.Categories = []string{"1_2", "1_4"}
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 15 * time.Second
	}

	return &Client{
		settings: settings,
		client:   &http.Client{Timeout: settings.Timeout},
		logger:   logger.With().Str("component", "nyaa").Logger(),
	}
}

func (c *Client) Name() string { return Name }

// Handles accepts anime references that carry a searchable title. The
// index has no IMDb lookup, so title-less refs are declined.
func (c *Client) Handles(ref provider.MediaRef) bool {
	return ref.Anime && (ref.Title != "" || ref.OriginalTitle != "")
}

// Search runs each title-variant query against every configured category
// and merges the results, deduplicating within the provider by info hash.
func (c *Client) Search(ctx context.Context, ref provider.MediaRef) ([]stream.Candidate, error) {
	queries := buildQueries(ref)

	var (
		merged   []stream.Candidate
		seen     = map[string]struct{}{}
		errs     []error
		attempts int
	)

	for _, query := range queries {
		for _, category := range c.settings.Categories {
			attempts++
			candidates, err := c.fetchFeed(ctx, query, category)
			if err != nil {
				// One feed failing does not invalidate the others, but a
				// cancelled context does.
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				errs = append(errs, err)
				continue
			}
			for _, candidate := range candidates {
				key := candidate.Key()
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				merged = append(merged, candidate)
			}
		}
	}

	if len(merged) == 0 && len(errs) == attempts && len(errs) > 0 {
		return nil, fmt.Errorf("all %d feed queries failed: %w", len(errs), errs[0])
	}

	c.logger.Debug().
		Str("title", ref.Title).
		Int("queries", attempts).
		Int("candidates", len(merged)).
		Msg("Nyaa search complete")

	return merged, nil
}

// buildQueries derives the feed query strings for a reference. Episodic
// content is tried both with SxxEyy numbering and with the bare padded
// episode number fansub groups prefer.
func buildQueries(ref provider.MediaRef) []string {
	titles := []string{ref.Title}
	if ref.OriginalTitle != "" && ref.OriginalTitle != ref.Title {
		titles = append(titles, ref.OriginalTitle)
	}

	var (
		queries []string
		seen    = map[string]struct{}{}
	)
	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" {
			return
		}
		if _, ok := seen[q]; ok {
			return
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
	}

	for _, title := range titles {
		if title == "" {
			continue
		}
		if ref.Kind == stream.KindSeries && ref.Season > 0 && ref.Episode > 0 {
			add(fmt.Sprintf("%s S%02dE%02d", title, ref.Season, ref.Episode))
			add(fmt.Sprintf("%s - %02d", title, ref.Episode))
			continue
		}
		if ref.Year > 0 {
			add(fmt.Sprintf("%s %d", title, ref.Year))
		}
		add(title)
	}

	return queries
}

func (c *Client) feedURL(query, category string) string {
	values := url.Values{}
	values.Set("page", "rss")
	values.Set("q", query)
	values.Set("c", category)
	values.Set("f", "0")
	return c.settings.BaseURL + "/?" + values.Encode()
}

func (c *Client) fetchFeed(ctx context.Context, query, category string) ([]stream.Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL(query, category), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	const maxResponseSize = 10 * 1024 * 1024 // 10 MB
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	return parseFeed(body)
}
