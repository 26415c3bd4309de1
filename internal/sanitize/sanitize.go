// Package sanitize normalizes client-supplied free text before it reaches
// validation or storage.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// Strip removes all HTML/markup from s and trims surrounding whitespace.
func Strip(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}

// Fields applies Strip to every value of a field map and returns a new map;
// the input is never mutated.
func Fields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = Strip(v)
	}
	return out
}
