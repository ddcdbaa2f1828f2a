package mediaresolve

import (
	"testing"
)

func TestParseAbsoluteEpisode(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantEp int
		wantOk bool
	}{
		{"SubsPlease standard", "[SubsPlease] One Piece - 1153 (1080p) [HASH].mkv", 1153, true},
		{"SubsPlease 3-digit", "[SubsPlease] Anime - 042 (1080p).mkv", 42, true},
		{"SubsPlease with version", "[SubsPlease] One Piece - 1153v2 (1080p).mkv", 1153, true},
		{"Erai-raws standard", "[Erai-raws] One Piece - 1153 [1080p].mkv", 1153, true},
		{"Episode keyword", "Anime Episode 1153 [1080p].mkv", 1153, true},
		{"Episode keyword lowercase", "anime episode 42.mkv", 42, true},
		{"Ep dot format", "Anime Ep.1153 [720p].mkv", 1153, true},
		{"Hyphenated title after number", "One Piece - 1063 - Some Title [1080p].mkv", 1063, true},

		{"Resolution only", "Anime [1080p].mkv", 0, false},
		{"Year in parentheses", "Anime (2024) [1080p].mkv", 0, false},
		{"SxxEyy is not absolute", "Anime S01E42 [1080p].mkv", 0, false},
		{"Empty string", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotEp, gotOk := ParseAbsoluteEpisode(tt.input)
			if gotOk != tt.wantOk {
				t.Errorf("ParseAbsoluteEpisode(%q) ok = %v, want %v", tt.input, gotOk, tt.wantOk)
			}
			if gotEp != tt.wantEp {
				t.Errorf("ParseAbsoluteEpisode(%q) ep = %d, want %d", tt.input, gotEp, tt.wantEp)
			}
		})
	}
}

func TestFileMatchesEpisode(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		target EpisodeCode
		want   bool
	}{
		{"exact code", "Show.S02E05.720p.HDTV.mkv", EpisodeCode{2, 5}, true},
		{"other episode", "Show.S02E06.720p.HDTV.mkv", EpisodeCode{2, 5}, false},
		{"code in directory is ignored", "Show.S02E05/Show.S02E06.mkv", EpisodeCode{2, 5}, false},
		{"bare number season one", "Show - 05 [720p].mkv", EpisodeCode{1, 5}, true},
		{"bare number later season", "Show - 05 [720p].mkv", EpisodeCode{2, 5}, false},
		{"episode keyword", "Show Episode 3.mkv", EpisodeCode{1, 3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileMatchesEpisode(tt.file, tt.target); got != tt.want {
				t.Errorf("FileMatchesEpisode(%q, %s) = %v, want %v", tt.file, tt.target, got, tt.want)
			}
		})
	}
}

func TestSelect(t *testing.T) {
	pack := []File{
		{Path: "Show.S01.1080p.WEB-DL/Show.S01E01.1080p.WEB-DL.mkv", Size: 2 << 30},
		{Path: "Show.S01.1080p.WEB-DL/Show.S01E02.1080p.WEB-DL.mkv", Size: 2 << 30},
		{Path: "Show.S01.1080p.WEB-DL/Show.S01E03.1080p.WEB-DL.mkv", Size: 2 << 30},
		{Path: "Show.S01.1080p.WEB-DL/Sample/show.s01e02.sample.mkv", Size: 40 << 20},
	}
	movie := []File{
		{Path: "The.Matrix.1999.1080p.BluRay.x264-GRP/Sample/the.matrix.sample.mkv", Size: 50 << 20},
		{Path: "The.Matrix.1999.1080p.BluRay.x264-GRP/The.Matrix.1999.1080p.BluRay.x264-GRP.mkv", Size: 8 << 30},
	}
	anime := []File{
		{Path: "[Grp] One Piece - 1152 [1080p].mkv", Size: 1 << 30},
		{Path: "[Grp] One Piece - 1153 [1080p].mkv", Size: 1 << 30},
	}

	tests := []struct {
		name  string
		files []File
		hints Hints
		want  int
	}{
		{"episode from season pack", pack, Hints{ReleaseTitle: "Show.S01.1080p.WEB-DL", Season: 1, Episodes: []int{3}}, 2},
		{"episode beats its sample", pack[1:], Hints{ReleaseTitle: "Show.S01E02.1080p.WEB-DL", Season: 1, Episodes: []int{2}}, 0},
		{"missing episode", pack, Hints{Season: 1, Episodes: []int{5}}, -1},
		{"movie over sample", movie, Hints{ReleaseTitle: "The.Matrix.1999.1080p.BluRay.x264-GRP"}, 1},
		{"largest without title", movie, Hints{}, 1},
		{"absolute fallback", anime, Hints{Season: 21, Episodes: []int{5}, AbsoluteEpisode: 1153}, 1},
		{"nothing to pick", nil, Hints{ReleaseTitle: "x"}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := Select(tt.files, tt.hints)
			if got != tt.want {
				t.Errorf("Select() = %d (%s), want %d", got, reason, tt.want)
			}
			if got == -1 && reason == "" {
				t.Errorf("expected a reason when nothing is selected")
			}
		})
	}
}
