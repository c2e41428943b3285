package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// maxPasses bounds how many levels of entity encoding are peeled off.
const maxPasses = 4

// Text strips all markup from s, unescapes entities and collapses whitespace.
// Markup that only appears after unescaping is stripped too.
func Text(s string) string {
	converged := false
	for i := 0; i < maxPasses; i++ {
		next := html.UnescapeString(strict.Sanitize(s))
		if next == s {
			converged = true
			break
		}
		s = next
	}
	if !converged {
		// Still nested after maxPasses; keep it escaped.
		s = strict.Sanitize(s)
	}
	return strings.Join(strings.Fields(s), " ")
}

// TextPtr applies Text to an optional value.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := Text(*s)
	return &v
}
