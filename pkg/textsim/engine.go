// Package textsim compares free-text fields using TF-IDF cosine,
// token Jaccard and character-bigram Jaccard similarity.
package textsim

import (
	"math"
	"slices"

	"github.com/Ramsey-B/fern/pkg/scoring"
)

// Weights of the three measures in the overall score
type Weights struct {
	TFIDF   float64
	Jaccard float64
	NGram   float64
}

// DefaultWeights returns 0.5 TF-IDF, 0.3 Jaccard, 0.2 bigram
func DefaultWeights() Weights {
	return Weights{TFIDF: 0.5, Jaccard: 0.3, NGram: 0.2}
}

// Result holds the similarity of two texts. All scores are rounded to two decimals.
type Result struct {
	Overall    float64 `json:"overall"`
	TFIDF      float64 `json:"tfidf"`
	Jaccard    float64 `json:"jaccard"`
	NGram      float64 `json:"ngram"`
	ExactMatch bool    `json:"exact_match"`
}

// Engine computes text similarity. The zero value is not usable; use New.
type Engine struct {
	weights Weights
}

func New() *Engine {
	return NewWithWeights(DefaultWeights())
}

func NewWithWeights(w Weights) *Engine {
	return &Engine{weights: w}
}

var defaultEngine = New()

// Similarity compares two texts with the default weights.
func Similarity(text1, text2 string) Result {
	return defaultEngine.Similarity(text1, text2)
}

// Score returns only the overall similarity with the default weights.
func Score(text1, text2 string) float64 {
	return defaultEngine.Similarity(text1, text2).Overall
}

// Similarity compares two texts. Empty input on either side yields zeros;
// identical cleaned text yields ones with ExactMatch set.
func (e *Engine) Similarity(text1, text2 string) Result {
	clean1, clean2 := Clean(text1), Clean(text2)
	if clean1 == "" || clean2 == "" {
		return Result{}
	}
	if clean1 == clean2 {
		return Result{Overall: 1, TFIDF: 1, Jaccard: 1, NGram: 1, ExactMatch: true}
	}

	tokens1, tokens2 := Tokenize(text1), Tokenize(text2)
	tfidf := TFIDFCosine(tokens1, tokens2)
	jaccard := Jaccard(toSet(tokens1...), toSet(tokens2...))
	ngram := Jaccard(Bigrams(text1), Bigrams(text2))

	overall := tfidf*e.weights.TFIDF + jaccard*e.weights.Jaccard + ngram*e.weights.NGram

	return Result{
		Overall: scoring.Round2(scoring.Clamp01(overall)),
		TFIDF:   scoring.Round2(tfidf),
		Jaccard: scoring.Round2(jaccard),
		NGram:   scoring.Round2(ngram),
	}
}

// TFIDFCosine weights term frequencies by a two-document IDF of ln(2/df)+1
// and returns the cosine of the weighted vectors.
func TFIDFCosine(tokens1, tokens2 []string) float64 {
	tf1, tf2 := termFrequency(tokens1), termFrequency(tokens2)

	// sorted terms keep float summation order stable across calls
	var dot, norm1, norm2 float64
	for _, term := range sortedTerms(tf1, tf2) {
		df := 0
		if _, ok := tf1[term]; ok {
			df++
		}
		if _, ok := tf2[term]; ok {
			df++
		}
		idf := math.Log(2/float64(df)) + 1

		v1, v2 := tf1[term]*idf, tf2[term]*idf
		dot += v1 * v2
		norm1 += v1 * v1
		norm2 += v2 * v2
	}

	if norm1 == 0 || norm2 == 0 {
		return 0
	}
	return scoring.Clamp01(dot / (math.Sqrt(norm1) * math.Sqrt(norm2)))
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when both are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	unionSize := len(a) + len(b) - intersection
	return float64(intersection) / float64(unionSize)
}

func termFrequency(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	if len(tokens) == 0 {
		return tf
	}
	for _, t := range tokens {
		tf[t]++
	}
	total := float64(len(tokens))
	for t, count := range tf {
		tf[t] = count / total
	}
	return tf
}

func sortedTerms(a, b map[string]float64) []string {
	terms := make([]string, 0, len(a)+len(b))
	for k := range a {
		terms = append(terms, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			terms = append(terms, k)
		}
	}
	slices.Sort(terms)
	return terms
}
