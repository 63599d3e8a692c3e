package language

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"eng", "eng"},
		{"en", "eng"},
		{"EN", "eng"},
		{"english", "eng"},
		{"fre", "fra"},
		{"fra", "fra"},
		{"ger", "deu"},
		{"de", "deu"},
		{"chi", "zho"},
		{"jpn", "jpn"},
		{"ja", "jpn"},
		{"cze", "ces"},
		{"pt-BR", "por"},
		{"sv", "swe"},
		{"", "und"},
		{"  ", "und"},
		{"und", "und"},
		{"qqq", "qqq"},
		{"x", "und"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	if !Equal("ger", "de") {
		t.Fatal("expected ger and de to match")
	}
	if Equal("eng", "jpn") {
		t.Fatal("expected eng and jpn to differ")
	}
	if !Equal("", "und") {
		t.Fatal("expected empty and und to match")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"eng", "English"},
		{"ger", "German"},
		{"", "Unknown"},
		{"und", "Unknown"},
		{"swe", "Swedish"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{"en", "eng", " JPN ", "und", "", "ger"})
	want := []string{"eng", "jpn", "deu"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NormalizeList = %v, want %v", got, want)
		}
	}
	if NormalizeList(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestContains(t *testing.T) {
	if !Contains([]string{"eng", "fre"}, "fr") {
		t.Fatal("expected fr to match fre")
	}
	if Contains([]string{"eng"}, "jpn") {
		t.Fatal("expected jpn to be absent")
	}
}
