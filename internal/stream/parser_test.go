package stream

import (
	"reflect"
	"testing"
)

func TestParseTitleQuality(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		quality string
	}{
		{"explicit 2160p", "Movie.Name.2023.2160p.WEB-DL.HEVC", Quality2160p},
		{"4k normalized", "Movie Name (2023) 4K HDR", Quality2160p},
		{"1080p", "Movie.Name.2023.1080p.BluRay.x264", Quality1080p},
		{"720p", "Show.S01E02.720p.HDTV", Quality720p},
		{"480p", "Old.Movie.480p.DVDRip", Quality480p},
		{"360p", "Clip.Something.360p", Quality360p},
		{"case insensitive", "movie.1080P.webrip", Quality1080p},
		{"no quality token", "Movie Name 2023", ""},
		{"embedded digits not matched", "Movie.21080p.x264", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := ParseTitle(tt.title)
			if meta.Quality != tt.quality {
				t.Errorf("ParseTitle(%q).Quality = %q, want %q", tt.title, meta.Quality, tt.quality)
			}
		})
	}
}

func TestParseTitleTokens(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		codec  string
		hdr    string
		audio  string
		source string
	}{
		{
			name:   "remux with truehd atmos",
			title:  "Movie.2023.2160p.REMUX.HEVC.DV.TrueHD.Atmos",
			codec:  "HEVC",
			hdr:    "DV",
			audio:  "Atmos",
			source: "REMUX",
		},
		{
			name:   "x265 synonym",
			title:  "Show.S02.1080p.WEB-DL.x265.DDP5.1",
			codec:  "HEVC",
			audio:  "DDP",
			source: "WEB-DL",
		},
		{
			name:   "h264 with dots",
			title:  "Movie.2023.720p.BluRay.H.264.DTS",
			codec:  "AVC",
			audio:  "DTS",
			source: "BluRay",
		},
		{
			name:  "hdr10plus beats hdr10",
			title: "Movie.2160p.HDR10+.AV1.Opus",
			codec: "AV1",
			hdr:   "HDR10+",
			audio: "Opus",
		},
		{
			name:   "dolby vision spelled out",
			title:  "Movie 2023 Dolby Vision WEBRip AAC",
			hdr:    "DV",
			audio:  "AAC",
			source: "WEBRip",
		},
		{
			name:   "cam release",
			title:  "New.Movie.2026.HDCAM.x264",
			codec:  "AVC",
			source: "CAM",
		},
		{
			name:  "nothing recognized",
			title: "Some Release Title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := ParseTitle(tt.title)
			if meta.Codec != tt.codec {
				t.Errorf("Codec = %q, want %q", meta.Codec, tt.codec)
			}
			if meta.HDR != tt.hdr {
				t.Errorf("HDR = %q, want %q", meta.HDR, tt.hdr)
			}
			if meta.Audio != tt.audio {
				t.Errorf("Audio = %q, want %q", meta.Audio, tt.audio)
			}
			if meta.Source != tt.source {
				t.Errorf("Source = %q, want %q", meta.Source, tt.source)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		name  string
		title string
		bytes int64
	}{
		{"binary gib", "Movie 1080p [2 GiB]", 2 << 30},
		{"fractional gib", "Movie 1080p 1.5 GiB", 1610612736},
		{"binary mib", "Episode 720p 350 MiB", 350 << 20},
		{"decimal gb", "Movie 💾 4 GB", 4_000_000_000},
		{"decimal mb", "Episode 700 MB", 700_000_000},
		{"comma decimal", "Movie 1,5 GB", 1_500_000_000},
		{"tib", "Collection 1 TiB", 1 << 40},
		{"no unit", "Movie 2023 1080p", 0},
		{"bare number", "Movie 1987", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseSize(tt.title); got != tt.bytes {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.title, got, tt.bytes)
			}
		})
	}
}

func TestParseLanguages(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{"single flag", "Movie 2023 1080p \U0001F1EB\U0001F1F7", []string{"French"}},
		{"multiple flags", "Movie \U0001F1EC\U0001F1E7 \U0001F1EF\U0001F1F5 dual audio", []string{"English", "Japanese"}},
		{"flags collapse to one language", "Movie \U0001F1EC\U0001F1E7 \U0001F1FA\U0001F1F8", []string{"English"}},
		{"scene token vostfr", "Movie.2023.VOSTFR.1080p", []string{"French"}},
		{"scene token multi", "Movie MULTI TrueFrench English", []string{"French", "English"}},
		{"iso codes", "Movie.ITA.ENG.1080p", []string{"Italian", "English"}},
		{"token and flag dedup", "Movie \U0001F1EB\U0001F1F7 TRUEFRENCH", []string{"French"}},
		{"unknown flag dropped", "Movie \U0001F1E6\U0001F1F6 1080p", nil},
		{"no language info", "Movie.2023.1080p.WEBRip", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLanguages(tt.title)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseLanguages(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestEffectiveSize(t *testing.T) {
	meta := Metadata{Size: 500}

	if got := meta.EffectiveSize(Candidate{Size: 1000}); got != 1000 {
		t.Errorf("provider size should win, got %d", got)
	}
	if got := meta.EffectiveSize(Candidate{}); got != 500 {
		t.Errorf("parsed size fallback, got %d", got)
	}
	if got := (Metadata{}).EffectiveSize(Candidate{}); got != 0 {
		t.Errorf("no size known, got %d", got)
	}
}

func TestCandidateKey(t *testing.T) {
	a := Candidate{Provider: "torrentio", Title: "Movie A", InfoHash: "ABCDEF0123"}
	b := Candidate{Provider: "nyaa", Title: "Movie A other name", InfoHash: "abcdef0123"}

	if a.Key() != b.Key() {
		t.Errorf("hash keys should match case-insensitively: %q vs %q", a.Key(), b.Key())
	}

	c := Candidate{Provider: "torrentio", Title: "Movie A"}
	d := Candidate{Provider: "nyaa", Title: "Movie A"}
	if c.Key() == d.Key() {
		t.Error("hashless candidates from different providers should not collide")
	}
}
