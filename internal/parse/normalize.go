package parse

import (
	"strings"
	"unicode"
)

// boilerplateTokens are producer and country markers that traders attach
// around the actual polymer code. They carry no identity and must not leak
// into the matching key.
var boilerplateTokens = []string{
	"uz-kor gas",
	"uzkorgas",
	"uz-kor",
	"shurtan",
	"iran",
}

// NormalizeName canonicalizes a polymer name into the key used for
// deduplication and lookups: emoji and boilerplate stripped, whitespace
// collapsed, lower-cased, a single trailing period removed.
//
// It is total and idempotent; pure noise normalizes to the empty string.
func NormalizeName(raw string) string {
	s := strings.ToLower(StripEmoji(raw))

	for _, tok := range boilerplateTokens {
		s = strings.ReplaceAll(s, tok, " ")
	}

	s = CollapseWhitespace(s)
	// Traders habitually end numeric codes with a stray period.
	s = strings.TrimSuffix(s, ".")

	return strings.TrimSpace(s)
}

// StripEmoji removes pictographic code points: emoji blocks, country flags,
// dingbats, skin-tone modifiers, ZWJ sequences, variation selectors and
// keycap marks. The check is range-based so newly assigned emoji stay out of
// the matching key without a denylist update.
func StripEmoji(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, r := range s {
		if isEmojiRune(r) {
			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}

func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FFFF:
		// Emoticons, pictographs, transport, flags, supplemental symbols
		// and everything Unicode keeps adding to plane 1.
		return true
	case r >= 0x2600 && r <= 0x27BF:
		// Miscellaneous symbols and dingbats.
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		// Arrows and geometric shapes used as markers.
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		// Variation selectors.
		return true
	case r >= 0xE0020 && r <= 0xE007F:
		// Tag characters (flag sequences).
		return true
	case r == 0x200D || r == 0x20E3 || r == 0xFE0F:
		// ZWJ and combining enclosing keycap.
		return true
	}

	return false
}

// CollapseWhitespace squeezes whitespace runs to single spaces and trims.
func CollapseWhitespace(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	space := false

	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}

		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}

		space = false

		b.WriteRune(r)
	}

	return b.String()
}
