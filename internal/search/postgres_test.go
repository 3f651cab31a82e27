package search

import "testing"

func TestLikePattern(t *testing.T) {
	cases := map[string]string{
		"golang":     "%golang%",
		"  tips  ":   "%tips%",
		"100%":       `%100\%%`,
		"snake_case": `%snake\_case%`,
		`back\slash`: `%back\\slash%`,
	}
	for in, want := range cases {
		if got := likePattern(in); got != want {
			t.Fatalf("likePattern(%q) = %q, want %q", in, got, want)
		}
	}
}
