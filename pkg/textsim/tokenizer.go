package textsim

import (
	"strings"
	"unicode"
)

var stopWords = toSet(
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
	"of", "with", "by", "from", "as", "is", "was", "are", "were", "been",
	"be", "have", "has", "had", "do", "does", "did", "will", "would",
	"could", "should", "may", "might", "can", "this", "that", "these",
	"those", "i", "you", "he", "she", "it", "we", "they", "what", "which",
	"who", "when", "where", "why", "how", "all", "each", "every", "both",
	"few", "more", "most", "other", "some", "such", "no", "not", "only",
	"own", "same", "so", "than", "too", "very", "just", "about", "into",
	"through", "during", "before", "after", "above", "below", "between",
	"under", "again", "further", "then", "once",
)

// suffixes are tried in order; the first that fits is stripped.
var suffixes = []string{"ing", "ed", "es", "s", "ly", "er", "est", "tion", "ness", "ment"}

// IsStopWord reports whether word is ignored during tokenization.
func IsStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

// Clean strips digits, turns punctuation into spaces, lowercases
// and collapses whitespace.
func Clean(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			continue
		case strings.ContainsRune(".,;:?!'\"()-", r):
			b.WriteRune(' ')
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Stem applies light suffix stripping. Words shorter than four runes are kept as is.
func Stem(word string) string {
	n := len([]rune(word))
	if n < 4 {
		return word
	}
	for _, suffix := range suffixes {
		if strings.HasSuffix(word, suffix) && n > len(suffix)+2 {
			return strings.TrimSuffix(word, suffix)
		}
	}
	return word
}

// Tokenize cleans text and returns stemmed, non stop-word tokens longer than one rune.
func Tokenize(text string) []string {
	words := strings.Fields(Clean(text))
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		if len([]rune(word)) <= 1 || IsStopWord(word) {
			continue
		}
		stemmed := Stem(word)
		if len([]rune(stemmed)) <= 1 {
			continue
		}
		tokens = append(tokens, stemmed)
	}

	return tokens
}

// Bigrams returns the set of overlapping two-rune windows of the cleaned text.
func Bigrams(text string) map[string]struct{} {
	runes := []rune(Clean(text))
	grams := make(map[string]struct{})
	for i := 0; i+2 <= len(runes); i++ {
		grams[string(runes[i:i+2])] = struct{}{}
	}
	return grams
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
