// Package debrid integrates with a Real-Debrid-compatible caching
// service and resolves torrents into directly streamable URLs.
package debrid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Torrent status values reported by the service.
const (
	StatusMagnetError      = "magnet_error"
	StatusMagnetConversion = "magnet_conversion"
	StatusWaitingFiles     = "waiting_files_selection"
	StatusQueued           = "queued"
	StatusDownloading      = "downloading"
	StatusDownloaded       = "downloaded"
	StatusError            = "error"
	StatusVirus            = "virus"
	StatusCompressing      = "compressing"
	StatusUploading        = "uploading"
	StatusDead             = "dead"
)

// terminalFailureStatuses are statuses the torrent never recovers from.
var terminalFailureStatuses = map[string]struct{}{
	StatusMagnetError: {},
	StatusError:       {},
	StatusVirus:       {},
	StatusDead:        {},
}

// TorrentFile is one file inside a submitted torrent.
type TorrentFile struct {
	ID       int    `json:"id"`
	Path     string `json:"path"`
	Bytes    int64  `json:"bytes"`
	Selected int    `json:"selected"`
}

// TorrentInfo is the service's view of a submitted torrent.
type TorrentInfo struct {
	ID       string        `json:"id"`
	Filename string        `json:"filename"`
	Hash     string        `json:"hash"`
	Bytes    int64         `json:"bytes"`
	Progress float64       `json:"progress"`
	Status   string        `json:"status"`
	Files    []TorrentFile `json:"files"`
	Links    []string      `json:"links"`
}

// UnrestrictedLink is the result of unrestricting a hoster link into a
// direct download.
type UnrestrictedLink struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Filesize   int64  `json:"filesize"`
	Link       string `json:"link"`
	Download   string `json:"download"`
	Streamable int    `json:"streamable"`
}

type apiError struct {
	Message string `json:"error"`
	Code    int    `json:"error_code,omitempty"`
}

const defaultBaseURL = "https://api.real-debrid.com/rest/1.0"

// Client talks to the Real-Debrid REST API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewClient creates an API client. baseURL may be empty to use the
// public endpoint.
func NewClient(apiKey, baseURL string, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With().Str("component", "debrid-client").Logger(),
	}
}

func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return c.client.Do(req)
}

func decodeError(statusCode int, body []byte) error {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("service error %d: %s (code %d)", statusCode, apiErr.Message, apiErr.Code)
	}
	return fmt.Errorf("service HTTP %d", statusCode)
}

// AddMagnet submits a magnet link and returns the torrent id.
func (c *Client) AddMagnet(ctx context.Context, magnet string) (string, error) {
	form := url.Values{}
	form.Set("magnet", magnet)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/torrents/addMagnet", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.doRequest(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", decodeError(resp.StatusCode, body)
	}

	var added struct {
		ID  string `json:"id"`
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(body, &added); err != nil {
		return "", fmt.Errorf("failed to decode add response: %w", err)
	}
	if added.ID == "" {
		return "", fmt.Errorf("service returned no torrent id")
	}

	c.logger.Debug().Str("torrentId", added.ID).Msg("Magnet submitted")
	return added.ID, nil
}

// GetTorrentInfo fetches the current state of a torrent. A 404 maps to
// ErrTorrentNotReady; the service is sometimes behind its own writes.
func (c *Client) GetTorrentInfo(ctx context.Context, torrentID string) (*TorrentInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/torrents/info/"+url.PathEscape(torrentID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTorrentNotReady
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, body)
	}

	var info TorrentInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode torrent info: %w", err)
	}
	return &info, nil
}

// SelectFiles marks the given file ids for download.
func (c *Client) SelectFiles(ctx context.Context, torrentID string, fileIDs []int) error {
	ids := make([]string, len(fileIDs))
	for i, id := range fileIDs {
		ids[i] = strconv.Itoa(id)
	}

	form := url.Values{}
	form.Set("files", strings.Join(ids, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/torrents/selectFiles/"+url.PathEscape(torrentID),
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return decodeError(resp.StatusCode, body)
	}
	return nil
}

// UnrestrictLink converts a hoster link into a direct download link.
func (c *Client) UnrestrictLink(ctx context.Context, link string) (*UnrestrictedLink, error) {
	form := url.Values{}
	form.Set("link", link)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/unrestrict/link", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, body)
	}

	var unlocked UnrestrictedLink
	if err := json.Unmarshal(body, &unlocked); err != nil {
		return nil, fmt.Errorf("failed to decode unrestrict response: %w", err)
	}
	return &unlocked, nil
}

// Delete removes a torrent from the account.
func (c *Client) Delete(ctx context.Context, torrentID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/torrents/delete/"+url.PathEscape(torrentID), nil)
	if err != nil {
		return err
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return decodeError(resp.StatusCode, body)
	}
	return nil
}

// CachedFile is one file of a torrent the service already holds. Link,
// when present, is a hoster link that can be unrestricted directly,
// without submitting the torrent first.
type CachedFile struct {
	Filename string
	Filesize int64
	Link     string
}

// availabilityFile is one file entry in the instant-availability payload.
type availabilityFile struct {
	Filename string `json:"filename"`
	Filesize int64  `json:"filesize"`
	Link     string `json:"link"`
}

// hash -> hoster -> variants -> fileId -> file
type availabilityPayload map[string]map[string][]map[string]availabilityFile

func (c *Client) fetchAvailability(ctx context.Context, infoHashes []string) (availabilityPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/torrents/instantAvailability/"+strings.Join(infoHashes, "/"), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, body)
	}

	var payload availabilityPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode availability response: %w", err)
	}
	return payload, nil
}

// CheckAvailability reports which of the given info hashes the service
// holds with at least one playable file.
func (c *Client) CheckAvailability(ctx context.Context, infoHashes []string) (map[string]bool, error) {
	if len(infoHashes) == 0 {
		return map[string]bool{}, nil
	}

	payload, err := c.fetchAvailability(ctx, infoHashes)
	if err != nil {
		return nil, err
	}

	results := make(map[string]bool, len(infoHashes))
	for hash, hosters := range payload {
		available := false
	variants:
		for _, variantList := range hosters {
			for _, variant := range variantList {
				for _, file := range variant {
					if IsPlayableFile(file.Filename) {
						available = true
						break variants
					}
				}
			}
		}
		results[strings.ToLower(hash)] = available
	}
	return results, nil
}

// CachedFiles returns the cached file listing for a single info hash, or
// nil when the service does not hold it. Variants are alternative cached
// file selections; the one containing the largest playable file wins.
func (c *Client) CachedFiles(ctx context.Context, infoHash string) ([]CachedFile, error) {
	payload, err := c.fetchAvailability(ctx, []string{infoHash})
	if err != nil {
		return nil, err
	}

	var (
		best     []CachedFile
		bestSize int64 = -1
	)
	for hash, hosters := range payload {
		if !strings.EqualFold(hash, infoHash) {
			continue
		}
		for _, variantList := range hosters {
			for _, variant := range variantList {
				files := make([]CachedFile, 0, len(variant))
				var largest int64
				for _, file := range variant {
					files = append(files, CachedFile{
						Filename: file.Filename,
						Filesize: file.Filesize,
						Link:     file.Link,
					})
					if IsPlayableFile(file.Filename) && file.Filesize > largest {
						largest = file.Filesize
					}
				}
				if len(files) > 0 && largest > bestSize {
					best = files
					bestSize = largest
				}
			}
		}
	}
	return best, nil
}
