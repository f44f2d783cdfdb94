package debrid

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoDownloadableFiles means the torrent finished selection with no
// playable video file to choose from.
var ErrNoDownloadableFiles = errors.New("torrent contains no downloadable video files")

// ErrTorrentNotReady is returned by the client when the service does not
// know the torrent yet. The resolver treats it as retryable.
var ErrTorrentNotReady = errors.New("torrent not yet known to the service")

// SubmitError wraps a failure to add a magnet to the service.
type SubmitError struct {
	InfoHash string
	Err      error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("failed to submit %s: %v", e.InfoHash, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// TorrentFailedError means the service reported a terminal failure status
// for the torrent.
type TorrentFailedError struct {
	TorrentID string
	Status    string
}

func (e *TorrentFailedError) Error() string {
	return fmt.Sprintf("torrent %s failed with status %q", e.TorrentID, e.Status)
}

// TimeoutError means the torrent did not become ready within the
// resolution deadline.
type TimeoutError struct {
	TorrentID  string
	LastStatus string
	Elapsed    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("torrent %s not ready after %s (last status %q)",
		e.TorrentID, e.Elapsed.Round(time.Second), e.LastStatus)
}

// File categories reported for unplayable content.
const (
	CategoryDiscImage = "disc_image"
	CategoryArchive   = "archive"
	CategoryOther     = "other"
)

// UnplayableFileError means the resolved file cannot be streamed
// directly. Category tells the caller what it actually was.
type UnplayableFileError struct {
	Filename string
	Ext      string
	Category string
}

func (e *UnplayableFileError) Error() string {
	return fmt.Sprintf("file %q (%s) is not playable: %s", e.Filename, e.Ext, e.Category)
}
