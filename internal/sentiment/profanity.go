package sentiment

import (
	"regexp"
	"strings"
)

// denylist of offensive terms, Spanish and English. Matching is whole-word
// and case-insensitive; each match is replaced with an equal-length run of
// the mask character.
var denylist = []string{
	// Spanish
	"puta", "puto", "mierda", "coño", "carajo", "joder", "cabrón", "cabrona",
	"pendejo", "pendeja", "verga", "chingar", "chinga", "pinche", "culero",
	"culera", "boludo", "pelotudo", "gilipollas", "hostia", "cojones",
	"maricón", "zorra", "imbécil", "malparido", "hijueputa", "hijodeputa",
	"maldito", "maldita", "bastardo", "bastarda", "sinvergüenza",
	// English
	"fuck", "shit", "bitch", "dick", "pussy", "cunt", "whore", "slut",
	"bastard", "motherfucker", "fucker", "douche", "twat", "wanker",
	"asshole", "dickhead", "prick", "shithead", "douchebag", "scumbag",
	"cocksucker", "dipshit", "fuckwit",
}

var profanityPattern = buildProfanityPattern()

func buildProfanityPattern() *regexp.Regexp {
	escaped := make([]string, len(denylist))
	for i, word := range denylist {
		escaped[i] = regexp.QuoteMeta(word)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

// Mask returns a display-safe rendering of text with each denylisted word
// replaced by asterisks of the same length. Strictly a read-path transform:
// stored and scored text is always the original.
func Mask(text string) string {
	return profanityPattern.ReplaceAllStringFunc(text, func(match string) string {
		return strings.Repeat("*", len([]rune(match)))
	})
}

// CountMatches reports how many denylisted words appear in text, for
// moderation counters.
func CountMatches(text string) int {
	return len(profanityPattern.FindAllString(text, -1))
}
