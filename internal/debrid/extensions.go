package debrid

import (
	"path"
	"strings"
)

// videoExtensions is the allow-list of directly streamable containers.
var videoExtensions = map[string]struct{}{
	".mkv":  {},
	".mp4":  {},
	".avi":  {},
	".mov":  {},
	".wmv":  {},
	".flv":  {},
	".webm": {},
	".m4v":  {},
	".mpg":  {},
	".mpeg": {},
	".ts":   {},
	".m2ts": {},
}

// Deny-listed extensions grouped by the category reported to callers.
var discImageExtensions = map[string]struct{}{
	".iso": {},
	".img": {},
	".mdf": {},
	".nrg": {},
}

var archiveExtensions = map[string]struct{}{
	".zip": {},
	".rar": {},
	".7z":  {},
	".tar": {},
	".gz":  {},
	".bz2": {},
}

// classifyFile reports whether a filename is directly playable and, when
// it is not, which deny category it falls into.
func classifyFile(filename string) (bool, string) {
	ext := strings.ToLower(path.Ext(filename))
	if _, ok := videoExtensions[ext]; ok {
		return true, ""
	}
	if _, ok := discImageExtensions[ext]; ok {
		return false, CategoryDiscImage
	}
	if _, ok := archiveExtensions[ext]; ok {
		return false, CategoryArchive
	}
	return false, CategoryOther
}

// IsPlayableFile reports whether the filename has a streamable video
// extension.
func IsPlayableFile(filename string) bool {
	playable, _ := classifyFile(filename)
	return playable
}

func unplayableError(filename string) *UnplayableFileError {
	_, category := classifyFile(filename)
	return &UnplayableFileError{
		Filename: filename,
		Ext:      strings.ToLower(path.Ext(filename)),
		Category: category,
	}
}
