package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mirastream/mirastream/internal/debrid"
	"github.com/mirastream/mirastream/internal/logger"
	"github.com/mirastream/mirastream/internal/provider"
	"github.com/mirastream/mirastream/internal/stream"
)

// StreamResolver resolves an info hash into a playable URL.
type StreamResolver interface {
	Resolve(ctx context.Context, infoHash string) (*debrid.Resolution, error)
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// providerBudget is one provider's rate-limit state in the health body.
type providerBudget struct {
	Used     int       `json:"used"`
	Limit    int       `json:"limit"`
	ResetsAt time.Time `json:"resetsAt"`
}

func (s *Server) handleHealth(c echo.Context) error {
	body := map[string]any{"status": "ok"}

	if s.rateLimiter != nil && s.searchService != nil {
		budgets := map[string]providerBudget{}
		for _, name := range s.searchService.ProviderNames() {
			used, limit, resetsAt := s.rateLimiter.Status(name)
			budgets[name] = providerBudget{Used: used, Limit: limit, ResetsAt: resetsAt}
		}
		body["rateLimits"] = budgets
	}

	return c.JSON(http.StatusOK, body)
}

// handleStreams runs a search and returns the ranked candidates.
//
// GET /api/streams?imdb=tt0111161&kind=movie
// GET /api/streams?imdb=tt0944947&kind=series&season=3&episode=9
// GET /api/streams?title=Show+Name&kind=series&season=1&episode=5&anime=true
func (s *Server) handleStreams(c echo.Context) error {
	ref := provider.MediaRef{
		ImdbID:        c.QueryParam("imdb"),
		Kind:          stream.MediaKind(c.QueryParam("kind")),
		Title:         c.QueryParam("title"),
		OriginalTitle: c.QueryParam("originalTitle"),
	}
	if ref.Kind == "" {
		ref.Kind = stream.KindMovie
	}

	ref.Season, _ = strconv.Atoi(c.QueryParam("season"))
	ref.Episode, _ = strconv.Atoi(c.QueryParam("episode"))
	ref.Year, _ = strconv.Atoi(c.QueryParam("year"))
	ref.Anime, _ = strconv.ParseBool(c.QueryParam("anime"))

	if err := ref.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	}

	result, err := s.searchService.Search(c.Request().Context(), ref)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Code:    "search_failed",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, result)
}

type resolveRequest struct {
	InfoHash string `json:"infoHash"`
}

// handleResolve drives a torrent through the debrid service until it is
// playable. Error codes distinguish the terminal outcomes so clients can
// tell "try another candidate" from "try again later".
func (s *Server) handleResolve(c echo.Context) error {
	if s.resolver == nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{
			Code:    "resolver_unavailable",
			Message: "no debrid service configured",
		})
	}

	var req resolveRequest
	if err := c.Bind(&req); err != nil || req.InfoHash == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Code:    "invalid_request",
			Message: "infoHash is required",
		})
	}

	resolution, err := s.resolver.Resolve(c.Request().Context(), req.InfoHash)
	if err != nil {
		return s.resolveError(c, err)
	}

	return c.JSON(http.StatusOK, resolution)
}

// resolveError maps resolution failures onto HTTP statuses and stable
// error codes.
func (s *Server) resolveError(c echo.Context, err error) error {
	var (
		unplayable *debrid.UnplayableFileError
		timeout    *debrid.TimeoutError
		failed     *debrid.TorrentFailedError
		submit     *debrid.SubmitError
	)

	switch {
	case errors.As(err, &unplayable):
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{
			Code:    "unplayable_" + unplayable.Category,
			Message: err.Error(),
		})
	case errors.Is(err, debrid.ErrNoDownloadableFiles):
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{
			Code:    "no_video_files",
			Message: err.Error(),
		})
	case errors.As(err, &timeout):
		return c.JSON(http.StatusGatewayTimeout, errorResponse{
			Code:    "resolution_timeout",
			Message: err.Error(),
		})
	case errors.As(err, &failed):
		return c.JSON(http.StatusBadGateway, errorResponse{
			Code:    "torrent_failed",
			Message: err.Error(),
		})
	case errors.As(err, &submit):
		return c.JSON(http.StatusBadGateway, errorResponse{
			Code:    "submit_failed",
			Message: err.Error(),
		})
	case errors.Is(err, context.Canceled):
		// Client went away; 499 is conventional but echo has no constant.
		return c.NoContent(499)
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Code:    "resolution_failed",
			Message: err.Error(),
		})
	}
}

// handleLogs returns recent log entries from the ring buffer.
func (s *Server) handleLogs(c echo.Context) error {
	if s.logTail == nil {
		return c.JSON(http.StatusOK, []logger.LogEntry{})
	}
	entries := s.logTail.Recent()
	if entries == nil {
		entries = []logger.LogEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}
