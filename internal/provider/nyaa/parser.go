package nyaa

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/mirastream/mirastream/internal/stream"
)

// Nyaa-flavoured RSS: standard channel/item plus a nyaa namespace carrying
// seeders, info hash, and a human-readable size string.

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title    string `xml:"title"`
	Link     string `xml:"link"`
	GUID     string `xml:"guid"`
	Seeders  int    `xml:"seeders"`
	Leechers int    `xml:"leechers"`
	InfoHash string `xml:"infoHash"`
	Size     string `xml:"size"`
	Category string `xml:"categoryId"`
	Remake   bool   `xml:"remake"`
}

// parseFeed converts a feed document into candidates. Items without an
// info hash or download link are dropped; malformed size strings parse to
// zero and are kept.
func parseFeed(data []byte) ([]stream.Candidate, error) {
	var feed rssFeed
	if err := xml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	var candidates []stream.Candidate
	for _, item := range feed.Channel.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		if item.InfoHash == "" && item.Link == "" {
			continue
		}

		candidates = append(candidates, stream.Candidate{
			Provider: Name,
			Title:    title,
			Size:     stream.ParseSize(item.Size),
			Seeders:  item.Seeders,
			InfoHash: item.InfoHash,
		})
	}

	return candidates, nil
}
