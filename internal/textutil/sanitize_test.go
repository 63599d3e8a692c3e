package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"MOVIE_TITLE", "MOVIE_TITLE"},
		{"Alien: Director's Cut", "Alien- Director's Cut"},
		{"  spaced   out  ", "spaced out"},
		{"what?", "what"},
		{"trailing...", "trailing"},
		{"a/b\\c", "a-b-c"},
		{"", "fallback"},
		{"???", "fallback"},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.input, "fallback"); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"MOVIE_TITLE", "movie_title"},
		{"Some Disc: Part 2", "some_disc_part_2"},
		{"00800.mpls", "00800_mpls"},
		{"--x--", "x"},
		{"Amélie", "am_lie"},
		{"", "input"},
		{"!!!", "input"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.input); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
