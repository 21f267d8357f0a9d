package peer

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxHandleCodepoints is the exclusive upper bound on a handle's length:
// handles must have strictly fewer codepoints than this.
const MaxHandleCodepoints = 80

// ValidHandle reports whether s satisfies the handle rule: starts with '@'
// and has strictly fewer than MaxHandleCodepoints codepoints. The input is
// first normalized to NFC so that a handle built from combining characters
// is measured the way it will actually be rendered, rather than by raw
// rune count of an unnormalized byte string.
func ValidHandle(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	normalized := norm.NFC.String(s)
	runes := []rune(normalized)
	if len(runes) == 0 || runes[0] != '@' {
		return false
	}
	return len(runes) < MaxHandleCodepoints
}

// HandleCodepoints returns the NFC-normalized codepoint count of s, used
// when reporting the length of an over-long handle in disconnect events.
func HandleCodepoints(s string) int {
	return len([]rune(norm.NFC.String(s)))
}
