package debrid

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
)

// API is the subset of the debrid client the resolver drives.
type API interface {
	CachedFiles(ctx context.Context, infoHash string) ([]CachedFile, error)
	AddMagnet(ctx context.Context, magnet string) (string, error)
	GetTorrentInfo(ctx context.Context, torrentID string) (*TorrentInfo, error)
	SelectFiles(ctx context.Context, torrentID string, fileIDs []int) error
	UnrestrictLink(ctx context.Context, link string) (*UnrestrictedLink, error)
	Delete(ctx context.Context, torrentID string) error
}

// Resolution is a torrent resolved to a directly streamable URL.
type Resolution struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Filesize int64  `json:"filesize"`
}

// ResolverConfig controls resolution timing and cleanup.
type ResolverConfig struct {
	// PollInterval is the delay between status checks.
	PollInterval time.Duration

	// Timeout is the wall-clock budget for the whole resolution.
	Timeout time.Duration

	// UnrestrictRetries and UnrestrictRetryDelay cover the window where
	// links lag behind the downloaded status.
	UnrestrictRetries    uint
	UnrestrictRetryDelay time.Duration

	// DeleteOnFailure removes the torrent from the account when
	// resolution fails, keeping the account list clean.
	DeleteOnFailure bool
}

// DefaultResolverConfig returns the default resolution timing.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		PollInterval:         5 * time.Second,
		Timeout:              2 * time.Minute,
		UnrestrictRetries:    3,
		UnrestrictRetryDelay: time.Second,
		DeleteOnFailure:      true,
	}
}

// Resolver turns an info hash into a playable stream URL by driving the
// debrid service: submit the magnet, select the main video file, wait for
// caching, and unrestrict the resulting link.
type Resolver struct {
	api    API
	config ResolverConfig
	logger zerolog.Logger
}

// NewResolver creates a resolver. Zero config values fall back to the
// defaults.
func NewResolver(api API, config ResolverConfig, logger zerolog.Logger) *Resolver {
	defaults := DefaultResolverConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.UnrestrictRetries == 0 {
		config.UnrestrictRetries = defaults.UnrestrictRetries
	}
	if config.UnrestrictRetryDelay <= 0 {
		config.UnrestrictRetryDelay = defaults.UnrestrictRetryDelay
	}
	return &Resolver{
		api:    api,
		config: config,
		logger: logger.With().Str("component", "debrid-resolver").Logger(),
	}
}

// Resolve runs the full resolution flow for an info hash. A hash the
// service already holds resolves through the instant path without
// submission or polling; everything else is submitted and polled until
// playable, terminal failure, or the budget runs out.
func (r *Resolver) Resolve(ctx context.Context, infoHash string) (*Resolution, error) {
	hashLogger := r.logger.With().Str("infoHash", infoHash).Logger()

	if resolution, done, err := r.resolveCached(ctx, infoHash, hashLogger); done {
		return resolution, err
	}

	magnet := "magnet:?xt=urn:btih:" + infoHash

	torrentID, err := r.api.AddMagnet(ctx, magnet)
	if err != nil {
		return nil, &SubmitError{InfoHash: infoHash, Err: err}
	}

	logger := hashLogger.With().Str("torrentId", torrentID).Logger()
	logger.Debug().Msg("Magnet submitted, polling for readiness")

	resolution, err := r.await(ctx, torrentID, logger)
	if err != nil {
		r.cleanup(torrentID, logger)
		return nil, err
	}
	return resolution, nil
}

// resolveCached attempts the instant path for a hash the service already
// holds: pick the largest playable file from the cached listing and
// unrestrict its link directly. The bool result reports whether the
// outcome is final; false means the caller falls through to submission.
// The availability check is advisory, so its own failures never abort
// the resolution.
func (r *Resolver) resolveCached(ctx context.Context, infoHash string, logger zerolog.Logger) (*Resolution, bool, error) {
	files, err := r.api.CachedFiles(ctx, infoHash)
	if err != nil {
		if ctx.Err() != nil {
			return nil, true, ctx.Err()
		}
		logger.Debug().Err(err).Msg("Availability check failed, submitting instead")
		return nil, false, nil
	}
	if len(files) == 0 {
		return nil, false, nil
	}

	var (
		best      *CachedFile
		offender  string
		offenderN int64
		playable  bool
	)
	for i, file := range files {
		if !IsPlayableFile(file.Filename) {
			if offender == "" || file.Filesize > offenderN {
				offender = file.Filename
				offenderN = file.Filesize
			}
			continue
		}
		playable = true
		if file.Link == "" {
			continue
		}
		if best == nil || file.Filesize > best.Filesize {
			best = &files[i]
		}
	}

	if best == nil {
		if playable {
			// Cached, but the listing carries no direct link; the
			// submission path still works.
			return nil, false, nil
		}
		return nil, true, unplayableError(offender)
	}

	unlocked, err := r.unrestrict(ctx, best.Link)
	if err != nil {
		if ctx.Err() != nil {
			return nil, true, ctx.Err()
		}
		logger.Warn().Err(err).Msg("Cached link unrestriction failed, submitting instead")
		return nil, false, nil
	}

	if !IsPlayableFile(unlocked.Filename) {
		return nil, true, unplayableError(unlocked.Filename)
	}

	logger.Info().Str("filename", unlocked.Filename).Int64("filesize", unlocked.Filesize).
		Msg("Cached torrent resolved without submission")

	return &Resolution{
		URL:      unlocked.Download,
		Filename: unlocked.Filename,
		Filesize: unlocked.Filesize,
	}, true, nil
}

// await drives the torrent through file selection and caching until it is
// ready, then unrestricts the link.
func (r *Resolver) await(ctx context.Context, torrentID string, logger zerolog.Logger) (*Resolution, error) {
	var (
		deadline   = time.Now().Add(r.config.Timeout)
		lastStatus string
		selected   bool
	)

	for {
		info, err := r.api.GetTorrentInfo(ctx, torrentID)
		switch {
		case err == ErrTorrentNotReady:
			// The service has not indexed its own torrent yet.
			lastStatus = "unknown"
		case err != nil:
			return nil, fmt.Errorf("failed to poll torrent %s: %w", torrentID, err)
		default:
			lastStatus = info.Status

			if _, failed := terminalFailureStatuses[info.Status]; failed {
				return nil, &TorrentFailedError{TorrentID: torrentID, Status: info.Status}
			}

			switch info.Status {
			case StatusWaitingFiles:
				if selected {
					break
				}
				fileID, err := pickVideoFile(info.Files)
				if err != nil {
					return nil, err
				}
				if err := r.api.SelectFiles(ctx, torrentID, []int{fileID}); err != nil {
					return nil, fmt.Errorf("failed to select files for %s: %w", torrentID, err)
				}
				selected = true
				logger.Debug().Int("fileId", fileID).Msg("Selected main video file")
				// Re-poll immediately: cached content reports downloaded
				// right after selection.
				continue

			case StatusDownloaded:
				return r.finish(ctx, info, logger)
			}
		}

		if time.Now().After(deadline) {
			return nil, &TimeoutError{
				TorrentID:  torrentID,
				LastStatus: lastStatus,
				Elapsed:    r.config.Timeout,
			}
		}

		timer := time.NewTimer(r.config.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// finish unrestricts the downloaded torrent's link into a direct URL and
// verifies the final file really is playable.
func (r *Resolver) finish(ctx context.Context, info *TorrentInfo, logger zerolog.Logger) (*Resolution, error) {
	if len(info.Links) == 0 {
		return nil, ErrNoDownloadableFiles
	}

	unlocked, err := r.unrestrict(ctx, info.Links[0])
	if err != nil {
		return nil, fmt.Errorf("failed to unrestrict link for %s: %w", info.ID, err)
	}

	// The unrestricted filename is authoritative; a torrent whose listing
	// looked fine can still resolve to a disc image or archive.
	if !IsPlayableFile(unlocked.Filename) {
		return nil, unplayableError(unlocked.Filename)
	}

	logger.Info().Str("filename", unlocked.Filename).Int64("filesize", unlocked.Filesize).
		Msg("Torrent resolved to direct stream")

	return &Resolution{
		URL:      unlocked.Download,
		Filename: unlocked.Filename,
		Filesize: unlocked.Filesize,
	}, nil
}

// unrestrict converts a hoster link into a direct download. Links
// occasionally lag behind the service's own state; a short retry covers
// the gap without a full poll cycle.
func (r *Resolver) unrestrict(ctx context.Context, link string) (*UnrestrictedLink, error) {
	return retry.DoWithData(func() (*UnrestrictedLink, error) {
		return r.api.UnrestrictLink(ctx, link)
	},
		retry.Context(ctx),
		retry.Attempts(r.config.UnrestrictRetries),
		retry.Delay(r.config.UnrestrictRetryDelay),
		retry.LastErrorOnly(true),
	)
}

func (r *Resolver) cleanup(torrentID string, logger zerolog.Logger) {
	if !r.config.DeleteOnFailure {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.api.Delete(ctx, torrentID); err != nil {
		logger.Warn().Err(err).Msg("Failed to delete torrent after failure")
	}
}

// pickVideoFile chooses the largest playable video file. Torrents bundle
// samples and extras; size is the reliable signal for the main feature.
// When nothing is playable the error names the largest offending file so
// callers can tell a disc image or archive from an empty torrent.
func pickVideoFile(files []TorrentFile) (int, error) {
	best := -1
	var bestSize int64
	var worstPath string
	var worstSize int64

	for _, file := range files {
		if !IsPlayableFile(file.Path) {
			if worstPath == "" || file.Bytes > worstSize {
				worstPath = file.Path
				worstSize = file.Bytes
			}
			continue
		}
		if best == -1 || file.Bytes > bestSize {
			best = file.ID
			bestSize = file.Bytes
		}
	}

	if best == -1 {
		if worstPath != "" {
			return 0, unplayableError(worstPath)
		}
		return 0, ErrNoDownloadableFiles
	}
	return best, nil
}
