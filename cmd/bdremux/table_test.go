package main

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	long := strings.Repeat("word ", 30)
	tests := []struct {
		name    string
		columns []column
		rows    [][]string
		footer  []string
		want    []string
		check   func(t *testing.T, out string)
	}{
		{
			name:    "no columns",
			columns: nil,
			check: func(t *testing.T, out string) {
				if out != "" {
					t.Fatalf("expected empty output, got %q", out)
				}
			},
		},
		{
			name:    "short rows are padded",
			columns: []column{{title: "Name"}, {title: "Size", align: alignRight}},
			rows:    [][]string{{"00800.mpls"}},
			want:    []string{"NAME", "SIZE", "00800.mpls"},
		},
		{
			name:    "footer row",
			columns: []column{{title: "Directory"}, {title: "Size", align: alignRight}},
			rows:    [][]string{{"a", "1 KiB"}},
			footer:  []string{"Total: 1 directories", "1 KiB"},
			want:    []string{"Total: 1 directories"},
		},
		{
			name:    "wide detail wraps",
			columns: []column{{title: "Detail", maxWidth: detailWidth}},
			rows:    [][]string{{long}},
			check: func(t *testing.T, out string) {
				for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
					if n := len([]rune(line)); n > detailWidth+4 {
						t.Fatalf("line wider than bound (%d): %q", n, line)
					}
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := renderTable(tc.columns, tc.rows, tc.footer)
			for _, fragment := range tc.want {
				if !strings.Contains(out, fragment) {
					t.Fatalf("expected %q in\n%s", fragment, out)
				}
			}
			if tc.check != nil {
				tc.check(t, out)
			}
		})
	}
}
