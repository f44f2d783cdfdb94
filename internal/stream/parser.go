package stream

import (
	"regexp"
	"strconv"
	"strings"
)

// Regex patterns for parsing release titles. Titles come from heterogeneous
// indexes and may carry decorative separators, bracketed tags, or flag
// glyphs; every rule below tolerates absence and never fails.
var (
	qualityPattern = regexp.MustCompile(`(?i)\b(2160p|4k|1080p|720p|480p|360p)\b`)

	// A number plus a unit, binary (1024-based) or decimal (1000-based).
	// Binary variants appear in RSS feeds; decimal in scraped stream lists.
	sizePattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(TiB|GiB|MiB|KiB|TB|GB|MB|KB)\b`)

	// Codec patterns, most specific first.
	codecPatterns = []tokenPattern{
		{"HEVC", regexp.MustCompile(`(?i)\b(x\.?265|h\.?265|hevc)\b`)},
		{"AVC", regexp.MustCompile(`(?i)\b(x\.?264|h\.?264|avc)\b`)},
		{"AV1", regexp.MustCompile(`(?i)\bav1\b`)},
	}

	// HDR patterns, most specific first. DV wins over plain HDR tags.
	hdrPatterns = []tokenPattern{
		{"DV", regexp.MustCompile(`(?i)(dolby[\s.]?vision|dovi|\bdv\b)`)},
		{"HDR10+", regexp.MustCompile(`(?i)hdr10\+|hdr10plus`)},
		{"HDR10", regexp.MustCompile(`(?i)hdr10`)},
		{"HLG", regexp.MustCompile(`(?i)\bhlg\b`)},
		{"HDR", regexp.MustCompile(`(?i)\bhdr\b`)},
	}

	audioPatterns = []tokenPattern{
		{"Atmos", regexp.MustCompile(`(?i)\batmos\b`)},
		{"TrueHD", regexp.MustCompile(`(?i)\btrue[\s.-]?hd\b`)},
		{"DTS-HD MA", regexp.MustCompile(`(?i)dts[\s.-]?hd[\s.-]?ma`)},
		{"DTS", regexp.MustCompile(`(?i)\bdts\b`)},
		{"DDP", regexp.MustCompile(`(?i)\b(ddp|dd\+|e[\s.-]?ac[\s.-]?3)\b`)},
		{"DD", regexp.MustCompile(`(?i)\b(dd|ac[\s.-]?3)\b`)},
		{"FLAC", regexp.MustCompile(`(?i)\bflac\b`)},
		{"AAC", regexp.MustCompile(`(?i)\baac\b`)},
		{"Opus", regexp.MustCompile(`(?i)\bopus\b`)},
	}

	sourcePatterns = []tokenPattern{
		{"REMUX", regexp.MustCompile(`(?i)\bremux\b`)},
		{"BluRay", regexp.MustCompile(`(?i)\b(blu-?ray|bdrip|brrip)\b`)},
		{"WEB-DL", regexp.MustCompile(`(?i)\bweb-?dl\b`)},
		{"WEBRip", regexp.MustCompile(`(?i)\bweb-?rip\b`)},
		{"HDTV", regexp.MustCompile(`(?i)\bhdtv\b`)},
		{"DVDRip", regexp.MustCompile(`(?i)\b(dvdrip|dvd-?r)\b`)},
		{"CAM", regexp.MustCompile(`(?i)\b(hdcam|cam|telesync)\b`)},
	}
)

type tokenPattern struct {
	canonical string
	pattern   *regexp.Regexp
}

// ParseTitle extracts structured metadata from a free-text release title.
// It is pure and deterministic: anything it cannot recognize is left unset,
// it never returns an error.
func ParseTitle(title string) Metadata {
	meta := Metadata{}

	if match := qualityPattern.FindString(title); match != "" {
		meta.Quality = normalizeQuality(match)
	}

	meta.Size = ParseSize(title)

	for _, tp := range codecPatterns {
		if tp.pattern.MatchString(title) {
			meta.Codec = tp.canonical
			break
		}
	}

	for _, tp := range hdrPatterns {
		if tp.pattern.MatchString(title) {
			meta.HDR = tp.canonical
			break
		}
	}

	for _, tp := range audioPatterns {
		if tp.pattern.MatchString(title) {
			meta.Audio = tp.canonical
			break
		}
	}

	for _, tp := range sourcePatterns {
		if tp.pattern.MatchString(title) {
			meta.Source = tp.canonical
			break
		}
	}

	meta.Languages = ParseLanguages(title)

	return meta
}

func normalizeQuality(match string) string {
	lowered := strings.ToLower(match)
	if lowered == "4k" {
		return Quality2160p
	}
	return lowered
}

// ParseSize converts the first recognized "<number> <unit>" token in the
// text to bytes. Unmatched text yields zero, never an error.
func ParseSize(title string) int64 {
	match := sizePattern.FindStringSubmatch(title)
	if match == nil {
		return 0
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", "."), 64)
	if err != nil {
		return 0
	}

	var multiplier float64
	switch strings.ToUpper(match[2]) {
	case "TIB":
		multiplier = 1 << 40
	case "GIB":
		multiplier = 1 << 30
	case "MIB":
		multiplier = 1 << 20
	case "KIB":
		multiplier = 1 << 10
	case "TB":
		multiplier = 1e12
	case "GB":
		multiplier = 1e9
	case "MB":
		multiplier = 1e6
	case "KB":
		multiplier = 1e3
	default:
		return 0
	}

	return int64(value * multiplier)
}
