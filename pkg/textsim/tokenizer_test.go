package textsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "digits and punctuation", input: "iPhone-13, Black!", expected: "iphone black"},
		{name: "collapses whitespace", input: "  brown \t leather\nwallet ", expected: "brown leather wallet"},
		{name: "quotes and parens", input: `"Keys" (car)`, expected: "keys car"},
		{name: "only digits", input: "12345", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clean(tt.input))
		})
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		word     string
		expected string
	}{
		{word: "running", expected: "runn"},
		{word: "dogs", expected: "dog"},
		{word: "glasses", expected: "glass"},
		{word: "bus", expected: "bus"},
		{word: "red", expected: "red"},
		{word: "wallet", expected: "wallet"},
		{word: "keys", expected: "key"},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.expected, Stem(tt.word))
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"runn", "dog", "bark"}, Tokenize("The running dogs are barking!"))
	assert.Empty(t, Tokenize("it is a"))
	assert.Equal(t, []string{"black", "iphone"}, Tokenize("Black iPhone 13"))
}

func TestBigrams(t *testing.T) {
	grams := Bigrams("Abc")
	assert.Len(t, grams, 2)
	assert.Contains(t, grams, "ab")
	assert.Contains(t, grams, "bc")
	assert.Empty(t, Bigrams("a"))
}
