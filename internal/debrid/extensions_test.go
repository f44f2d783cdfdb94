package debrid

import "testing"

func TestClassifyFile(t *testing.T) {
	tests := []struct {
		filename string
		playable bool
		category string
	}{
		{"Movie.2023.1080p.mkv", true, ""},
		{"movie.MP4", true, ""},
		{"episode.avi", true, ""},
		{"stream.m2ts", true, ""},
		{"Movie.2023.iso", false, CategoryDiscImage},
		{"backup.img", false, CategoryDiscImage},
		{"release.rar", false, CategoryArchive},
		{"bundle.zip", false, CategoryArchive},
		{"release.7z", false, CategoryArchive},
		{"subs.srt", false, CategoryOther},
		{"readme.txt", false, CategoryOther},
		{"noextension", false, CategoryOther},
		{"path/to/Movie.mkv", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			playable, category := classifyFile(tt.filename)
			if playable != tt.playable || category != tt.category {
				t.Errorf("classifyFile(%q) = (%v, %q), want (%v, %q)",
					tt.filename, playable, category, tt.playable, tt.category)
			}
		})
	}
}

func TestUnplayableError(t *testing.T) {
	err := unplayableError("Movie.2023.iso")
	if err.Category != CategoryDiscImage {
		t.Errorf("Category = %q, want %q", err.Category, CategoryDiscImage)
	}
	if err.Ext != ".iso" {
		t.Errorf("Ext = %q, want .iso", err.Ext)
	}
}
