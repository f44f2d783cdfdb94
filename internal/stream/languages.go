package stream

import (
	"regexp"
	"strings"
)

// Indexes encode audio languages three ways: emoji flag glyphs, ISO-style
// codes, and scene tags. All map to canonical English language names;
// unknown tokens are dropped rather than reported.

// flagLanguages maps ISO 3166 country codes (from regional-indicator flag
// pairs) to a language name. Countries sharing a language collapse to one
// canonical name.
var flagLanguages = map[string]string{
	"GB": "English",
	"US": "English",
	"AU": "English",
	"FR": "French",
	"DE": "German",
	"ES": "Spanish",
	"MX": "Spanish",
	"AR": "Spanish",
	"IT": "Italian",
	"JP": "Japanese",
	"KR": "Korean",
	"CN": "Chinese",
	"TW": "Chinese",
	"RU": "Russian",
	"PT": "Portuguese",
	"BR": "Portuguese",
	"NL": "Dutch",
	"PL": "Polish",
	"IN": "Hindi",
	"SE": "Swedish",
	"NO": "Norwegian",
	"DK": "Danish",
	"FI": "Finnish",
	"TR": "Turkish",
	"SA": "Arabic",
	"GR": "Greek",
	"CZ": "Czech",
	"HU": "Hungarian",
	"RO": "Romanian",
	"UA": "Ukrainian",
	"TH": "Thai",
	"VN": "Vietnamese",
	"ID": "Indonesian",
	"IL": "Hebrew",
}

// tokenLanguages maps lower-cased scene tags and ISO codes to a language
// name. Matched as whole words only.
var tokenLanguages = map[string]string{
	"english":    "English",
	"eng":        "English",
	"french":     "French",
	"truefrench": "French",
	"vff":        "French",
	"vf":         "French",
	"vostfr":     "French",
	"german":     "German",
	"ger":        "German",
	"italian":    "Italian",
	"ita":        "Italian",
	"spanish":    "Spanish",
	"castellano": "Spanish",
	"latino":     "Spanish",
	"esp":        "Spanish",
	"japanese":   "Japanese",
	"jpn":        "Japanese",
	"jap":        "Japanese",
	"korean":     "Korean",
	"kor":        "Korean",
	"chinese":    "Chinese",
	"chs":        "Chinese",
	"cht":        "Chinese",
	"russian":    "Russian",
	"rus":        "Russian",
	"portuguese": "Portuguese",
	"dublado":    "Portuguese",
	"dutch":      "Dutch",
	"polish":     "Polish",
	"lektor":     "Polish",
	"hindi":      "Hindi",
	"hin":        "Hindi",
	"arabic":     "Arabic",
	"turkish":    "Turkish",
	"hebrew":     "Hebrew",
	"greek":      "Greek",
	"czech":      "Czech",
	"hungarian":  "Hungarian",
	"romanian":   "Romanian",
	"ukrainian":  "Ukrainian",
	"thai":       "Thai",
	"vietnamese": "Vietnamese",
	"indonesian": "Indonesian",
	"swedish":    "Swedish",
	"norwegian":  "Norwegian",
	"danish":     "Danish",
	"finnish":    "Finnish",
}

var languageTokenPattern = regexp.MustCompile(`(?i)[a-z]+`)

const (
	regionalIndicatorFirst = 0x1F1E6
	regionalIndicatorLast  = 0x1F1FF
)

// ParseLanguages extracts the set of audio language names present in a
// title. The result is deduplicated and preserves first-seen order.
func ParseLanguages(title string) []string {
	var (
		languages []string
		seen      = map[string]struct{}{}
	)
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		languages = append(languages, name)
	}

	// Flag glyphs: consecutive regional-indicator rune pairs.
	runes := []rune(title)
	for i := 0; i+1 < len(runes); i++ {
		if !isRegionalIndicator(runes[i]) || !isRegionalIndicator(runes[i+1]) {
			continue
		}
		country := string([]rune{
			rune(runes[i] - regionalIndicatorFirst + 'A'),
			rune(runes[i+1] - regionalIndicatorFirst + 'A'),
		})
		add(flagLanguages[country])
		i++
	}

	// Word tokens: scene tags and ISO codes.
	for _, token := range languageTokenPattern.FindAllString(title, -1) {
		add(tokenLanguages[strings.ToLower(token)])
	}

	return languages
}

func isRegionalIndicator(r rune) bool {
	return r >= regionalIndicatorFirst && r <= regionalIndicatorLast
}
