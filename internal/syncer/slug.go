package syncer

import "strings"

// slugMaxChars bounds how much of the source text feeds the slug.
const slugMaxChars = 50

// fallbackSlug is used when the source text yields nothing usable.
const fallbackSlug = "new-chat"

// Slugify derives a filesystem-safe slug from message text: the first 50
// characters, alphanumerics lowercased, everything else collapsed into
// single hyphens, with leading and trailing hyphens trimmed.
func Slugify(text string) string {
	runes := []rune(text)
	if len(runes) > slugMaxChars {
		runes = runes[:slugMaxChars]
	}

	var b strings.Builder
	lastWasHyphen := true // trims leading hyphens
	for _, r := range runes {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasHyphen = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
			lastWasHyphen = false
		default:
			if !lastWasHyphen {
				b.WriteByte('-')
				lastWasHyphen = true
			}
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}
