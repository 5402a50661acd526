// Package htmlsanitize strips HTML tags from free-text fields (device
// names) before they reach an outbound wire shape (Hue light names, Alexa
// friendlyName). No third-party sanitizer appears anywhere in the example
// pack's go.mod files; this is a narrow tag-stripping pass, not a general
// HTML sanitizer, so the standard library suffices.
package htmlsanitize

import "regexp"

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripTags removes every `<...>` span from s. It does not attempt to
// decode entities or otherwise sanitize s beyond removing tag delimiters,
// which is all spec.md's "friendlyName never contains < or >" invariant
// requires.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}
