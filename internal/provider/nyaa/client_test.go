package nyaa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mirastream/mirastream/internal/provider"
	"github.com/mirastream/mirastream/internal/stream"
)

const feedPayload = `<?xml version="1.0" encoding="utf-8"?>
<rss version="2.0" xmlns:nyaa="https://nyaa.si/xmlns/nyaa">
  <channel>
    <title>Nyaa - Search</title>
    <item>
      <title>[SubGroup] Show Name - 05 (1080p) [ABCD1234].mkv</title>
      <link>https://nyaa.si/download/100001.torrent</link>
      <guid>https://nyaa.si/view/100001</guid>
      <nyaa:seeders>120</nyaa:seeders>
      <nyaa:leechers>4</nyaa:leechers>
      <nyaa:infoHash>1111111111111111111111111111111111111111</nyaa:infoHash>
      <nyaa:size>1.4 GiB</nyaa:size>
      <nyaa:categoryId>1_2</nyaa:categoryId>
    </item>
    <item>
      <title>[OtherGroup] Show Name - 05 [720p].mkv</title>
      <link>https://nyaa.si/download/100002.torrent</link>
      <guid>https://nyaa.si/view/100002</guid>
      <nyaa:seeders>8</nyaa:seeders>
      <nyaa:infoHash>2222222222222222222222222222222222222222</nyaa:infoHash>
      <nyaa:size>350 MiB</nyaa:size>
    </item>
    <item>
      <title></title>
      <link>https://nyaa.si/download/100003.torrent</link>
    </item>
  </channel>
</rss>`

func TestParseFeed(t *testing.T) {
	candidates, err := parseFeed([]byte(feedPayload))
	if err != nil {
		t.Fatalf("parseFeed failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if first.Provider != Name {
		t.Errorf("Provider = %q", first.Provider)
	}
	if first.Seeders != 120 {
		t.Errorf("Seeders = %d, want 120", first.Seeders)
	}
	if first.InfoHash != "1111111111111111111111111111111111111111" {
		t.Errorf("InfoHash = %q", first.InfoHash)
	}
	gib := float64(1 << 30)
	if want := int64(1.4 * gib); first.Size != want {
		t.Errorf("Size = %d, want %d", first.Size, want)
	}

	if candidates[1].Size != 350<<20 {
		t.Errorf("second Size = %d, want %d", candidates[1].Size, 350<<20)
	}
}

func TestParseFeedMalformed(t *testing.T) {
	if _, err := parseFeed([]byte("not xml at all {")); err == nil {
		t.Fatal("expected error for malformed feed")
	}
}

func TestBuildQueries(t *testing.T) {
	tests := []struct {
		name string
		ref  provider.MediaRef
		want []string
	}{
		{
			name: "episode numbering variants",
			ref: provider.MediaRef{
				Title:   "Show Name",
				Kind:    stream.KindSeries,
				Season:  1,
				Episode: 5,
				Anime:   true,
			},
			want: []string{"Show Name S01E05", "Show Name - 05"},
		},
		{
			name: "movie with year",
			ref: provider.MediaRef{
				Title: "Film Name",
				Kind:  stream.KindMovie,
				Year:  2021,
				Anime: true,
			},
			want: []string{"Film Name 2021", "Film Name"},
		},
		{
			name: "original title adds variants",
			ref: provider.MediaRef{
				Title:         "Attack on Titan",
				OriginalTitle: "Shingeki no Kyojin",
				Kind:          stream.KindSeries,
				Season:        4,
				Episode:       16,
				Anime:         true,
			},
			want: []string{
				"Attack on Titan S04E16",
				"Attack on Titan - 16",
				"Shingeki no Kyojin S04E16",
				"Shingeki no Kyojin - 16",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildQueries(tt.ref); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("buildQueries = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchDeduplicatesAcrossQueries(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if got := r.URL.Query().Get("page"); got != "rss" {
			t.Errorf("page = %q, want rss", got)
		}
		w.Write([]byte(feedPayload))
	}))
	defer server.Close()

	client := NewClient(Settings{BaseURL: server.URL, Categories: []string{"1_2"}}, zerolog.Nop())

	candidates, err := client.Search(context.Background(), provider.MediaRef{
		Title:   "Show Name",
		Kind:    stream.KindSeries,
		Season:  1,
		Episode: 5,
		Anime:   true,
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if requests != 2 {
		t.Errorf("expected 2 feed queries, got %d", requests)
	}
	// Both queries return the same feed; hashes dedupe the overlap.
	if len(candidates) != 2 {
		t.Errorf("expected 2 deduplicated candidates, got %d", len(candidates))
	}
}

func TestSearchPartialFailure(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			http.Error(w, "temporarily down", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(feedPayload))
	}))
	defer server.Close()

	client := NewClient(Settings{BaseURL: server.URL, Categories: []string{"1_2"}}, zerolog.Nop())

	candidates, err := client.Search(context.Background(), provider.MediaRef{
		Title:   "Show Name",
		Kind:    stream.KindSeries,
		Season:  1,
		Episode: 5,
		Anime:   true,
	})
	if err != nil {
		t.Fatalf("partial failure should not abort the search: %v", err)
	}
	if len(candidates) != 2 {
		t.Errorf("expected results from the surviving query, got %d", len(candidates))
	}
}

func TestSearchSpansCategories(t *testing.T) {
	// One distinct item per category; the raw feed must contribute
	// candidates the translated feed does not carry.
	translated := `<?xml version="1.0" encoding="utf-8"?>
<rss version="2.0" xmlns:nyaa="https://nyaa.si/xmlns/nyaa">
  <channel>
    <item>
      <title>[SubGroup] Show Name - 05 (1080p).mkv</title>
      <guid>https://nyaa.si/view/200001</guid>
      <nyaa:seeders>50</nyaa:seeders>
      <nyaa:infoHash>aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa</nyaa:infoHash>
      <nyaa:size>1.2 GiB</nyaa:size>
    </item>
  </channel>
</rss>`
	raw := `<?xml version="1.0" encoding="utf-8"?>
<rss version="2.0" xmlns:nyaa="https://nyaa.si/xmlns/nyaa">
  <channel>
    <item>
      <title>Show Name - 05 RAW (1080p).mkv</title>
      <guid>https://nyaa.si/view/200002</guid>
      <nyaa:seeders>30</nyaa:seeders>
      <nyaa:infoHash>bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb</nyaa:infoHash>
      <nyaa:size>1.1 GiB</nyaa:size>
    </item>
  </channel>
</rss>`

	categories := map[string]int{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		category := r.URL.Query().Get("c")
		categories[category]++
		if category == "1_4" {
			w.Write([]byte(raw))
			return
		}
		w.Write([]byte(translated))
	}))
	defer server.Close()

	client := NewClient(Settings{BaseURL: server.URL, Categories: []string{"1_2", "1_4"}}, zerolog.Nop())

	candidates, err := client.Search(context.Background(), provider.MediaRef{
		Title:   "Show Name",
		Kind:    stream.KindSeries,
		Season:  1,
		Episode: 5,
		Anime:   true,
	})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if categories["1_2"] == 0 || categories["1_4"] == 0 {
		t.Errorf("every category should be queried, got %v", categories)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected candidates from both categories, got %d", len(candidates))
	}

	hashes := map[string]bool{}
	for _, c := range candidates {
		hashes[c.InfoHash] = true
	}
	if !hashes["aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"] || !hashes["bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"] {
		t.Errorf("unexpected merged hashes %v", hashes)
	}
}

func TestSearchAllQueriesFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Settings{BaseURL: server.URL}, zerolog.Nop())

	if _, err := client.Search(context.Background(), provider.MediaRef{
		Title: "Show Name",
		Kind:  stream.KindMovie,
		Anime: true,
	}); err == nil {
		t.Fatal("expected error when every query fails")
	}
}

func TestHandles(t *testing.T) {
	client := NewClient(Settings{}, zerolog.Nop())

	if !client.Handles(provider.MediaRef{Title: "Show", Kind: stream.KindSeries, Anime: true}) {
		t.Error("should handle anime refs with titles")
	}
	if client.Handles(provider.MediaRef{Title: "Show", Kind: stream.KindSeries}) {
		t.Error("should decline non-anime refs")
	}
	if client.Handles(provider.MediaRef{ImdbID: "tt1", Kind: stream.KindMovie, Anime: true}) {
		t.Error("should decline refs without any title")
	}
}
