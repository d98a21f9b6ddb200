package ranker_test

import (
	"testing"

	"github.com/FrenchMajesty/problem-matcher/pkg/ranker"
)

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"nbsp runs are kept", "<p>x&nbsp;&nbsp;y</p>", "x  y"},
		{"outer whitespace trimmed", "  <div> <b>bold</b> text </div>\n", "bold text"},
		{"outer nbsp trimmed", "&nbsp;<span>a</span>&nbsp;", "a"},
		{"attributes removed with tag", `<img src="a.png" alt="x">see figure`, "see figure"},
		{"other entities untouched", "a &lt; b&amp;c", "a &lt; b&amp;c"},
		{"empty", "", ""},
		{"no markup", "plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ranker.CleanHTML(tt.in); got != tt.want {
				t.Errorf("CleanHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
