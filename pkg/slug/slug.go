// Package slug turns free-form catalog text into stable key segments.
package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate lowercases name and collapses every run of characters outside
// [a-z0-9] into a single hyphen:
//
//	"Gaming Laptops"   -> "gaming-laptops"
//	"  RAM / Memory! " -> "ram-memory"
func Generate(name string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// Join slugs each part and joins them with ":". Empty parts become "_" so
// that positional segments never collapse into each other.
func Join(parts ...string) string {
	segs := make([]string, len(parts))
	for i, p := range parts {
		if segs[i] = Generate(p); segs[i] == "" {
			segs[i] = "_"
		}
	}
	return strings.Join(segs, ":")
}
