// package sentiment implements the review scoring pipeline: text
// normalization, three-way classification and profanity masking.
package sentiment

import (
	"regexp"
	"strings"
)

// NormalizedText is the classifier-facing form of a review body. The stored
// review keeps the original text; normalization only ever feeds the model.
type NormalizedText struct {
	Text         string
	LanguageHint string // "en" or "es", best effort
	HadEmoji     bool
}

// emojiPhrases maps recognized emoji to short phrases carrying the same
// polarity, so a classifier trained on natural language reacts to them.
// Unrecognized emoji pass through unchanged.
var emojiPhrases = map[rune]string{
	'😀': "muy feliz",
	'😄': "muy feliz",
	'😍': "me encanta",
	'🥰': "me encanta",
	'😊': "contento",
	'🙂': "contento",
	'👍': "muy bueno",
	'🔥': "increíble",
	'🎉': "fantástico",
	'❤': "me encanta",
	'💯': "perfecto",
	'😐': "indiferente",
	'😕': "confundido",
	'😢': "muy triste",
	'😭': "muy triste",
	'😞': "decepcionado",
	'😡': "muy enojado",
	'🤬': "muy enojado",
	'👎': "muy malo",
	'💔': "desilusionado",
	'🤮': "asqueroso",
	'😴': "aburrido",
}

var (
	// High-frequency function words per language, in the style of a
	// pattern-based detector. Counts are weighted against each other and
	// combined with accented-letter evidence.
	englishWords = regexp.MustCompile(`\b(the|and|that|have|for|not|with|you|this|but|his|from|they|is|was|very|really|song|album)\b`)
	spanishWords = regexp.MustCompile(`\b(que|de|no|la|el|es|en|un|una|por|con|como|para|todo|pero|más|muy|canción|disco)\b`)

	spanishLetters = regexp.MustCompile(`[áéíóúüñ¿¡]`)
)

// Normalize expands recognized emoji into sentiment-bearing phrases and
// attaches a best-effort language hint. Pure function of its input and the
// static tables above.
func Normalize(text string) NormalizedText {
	var b strings.Builder
	hadEmoji := false

	for _, r := range text {
		if phrase, ok := emojiPhrases[r]; ok {
			hadEmoji = true
			b.WriteByte(' ')
			b.WriteString(phrase)
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}

	normalized := strings.Join(strings.Fields(b.String()), " ")

	return NormalizedText{
		Text:         normalized,
		LanguageHint: detectLanguage(text),
		HadEmoji:     hadEmoji,
	}
}

// detectLanguage classifies text as "en" or "es". Accented letters are
// strong Spanish evidence; otherwise function-word counts decide. Ties and
// ambiguous input default to "es", the locale the service primarily serves.
func detectLanguage(text string) string {
	lower := strings.ToLower(text)

	esScore := len(spanishWords.FindAllString(lower, -1))
	esScore += 2 * len(spanishLetters.FindAllString(lower, -1))
	enScore := len(englishWords.FindAllString(lower, -1))

	if enScore > esScore {
		return "en"
	}
	return "es"
}
