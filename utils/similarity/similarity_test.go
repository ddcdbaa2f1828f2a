package similarity

import "testing"

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		minScore float64
		maxScore float64
	}{
		{name: "identical", a: "Blade Runner", b: "Blade Runner", minScore: 1, maxScore: 1},
		{name: "case and dots", a: "Blade.Runner", b: "blade runner", minScore: 1, maxScore: 1},
		{name: "ampersand", a: "Simon & Garfunkel", b: "Simon and Garfunkel", minScore: 1, maxScore: 1},
		{name: "diacritics", a: "Amélie", b: "Amelie", minScore: 1, maxScore: 1},
		{name: "possessive prefix", a: "Marvel's The Avengers", b: "The Avengers", minScore: 0.9, maxScore: 1},
		{name: "one typo", a: "The Godfather", b: "The Godfahter", minScore: 0.8, maxScore: 0.9},
		{name: "unrelated", a: "Alien", b: "Heat", minScore: 0, maxScore: 0.3},
		{name: "empty", a: "", b: "Heat", minScore: 0, maxScore: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if got < tt.minScore || got > tt.maxScore {
				t.Errorf("Similarity(%q, %q) = %.3f, want in [%.2f, %.2f]", tt.a, tt.b, got, tt.minScore, tt.maxScore)
			}
		})
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct{ in, want string }{
		{"The Matrix", "matrix"},
		{"Léon: The Professional", "leontheprofessional"},
		{"A", "a"},
		{"Fast & Furious", "fastandfurious"},
		{"Artist.Name", "artistname"},
	}
	for _, tt := range tests {
		if got := CleanTitle(tt.in); got != tt.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDistance(t *testing.T) {
	if d := Distance([]rune("kitten"), []rune("sitting")); d != 3 {
		t.Errorf("Distance = %d, want 3", d)
	}
	if d := Distance([]rune(""), []rune("abc")); d != 3 {
		t.Errorf("Distance = %d, want 3", d)
	}
}
