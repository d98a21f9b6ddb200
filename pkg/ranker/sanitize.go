package ranker

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<.*?>`)

// CleanHTML strips markup from a question article for the model prompt.
// Tags are removed, every &nbsp; becomes one literal space (runs are not
// collapsed), and outer whitespace is trimmed.
func CleanHTML(raw string) string {
	text := tagPattern.ReplaceAllString(raw, "")
	return strings.TrimSpace(strings.ReplaceAll(text, "&nbsp;", " "))
}
