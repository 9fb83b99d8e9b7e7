package engine

import (
	"strings"
	"unicode"
)

// resetPhrases clear the session when they appear as whole words in a
// message, in any casing. The set is multilingual: the storefronts this
// assistant serves take orders in English and Arabic.
var resetPhrases = [][]string{
	{"reset"},
	{"restart"},
	{"start", "over"},
	{"إعادة"},
	{"جديد"},
	{"من", "جديد"},
}

// isResetMessage reports whether the message contains a reset phrase on
// word boundaries. Tokenizing on non-letter/non-digit runes keeps the
// matching correct for Arabic, where ASCII word-boundary tricks fail.
func isResetMessage(message string) bool {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return false
	}
	for _, phrase := range resetPhrases {
		if containsPhrase(words, phrase) {
			return true
		}
	}
	return false
}

func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 || len(words) < len(phrase) {
		return false
	}
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, p := range phrase {
			if words[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
