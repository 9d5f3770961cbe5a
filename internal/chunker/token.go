package chunker

import (
	"strings"
	"unicode"
)

// tokensPerWord is the rough token cost of an English word.
const tokensPerWord = 1.33

// EstimateTokens gives a rough token count from the word count.
// Exact tokenization is not required for sizing prompts.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * tokensPerWord)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// TruncateTokens cuts text after the last whole word that keeps the estimate
// within maxTokens. Line breaks inside the kept prefix are preserved.
func TruncateTokens(text string, maxTokens int) string {
	if maxTokens <= 0 || EstimateTokens(text) <= maxTokens {
		return text
	}
	maxWords := int(float64(maxTokens) / tokensPerWord)
	if maxWords < 1 {
		maxWords = 1
	}
	words := 0
	inWord := false
	for i, r := range text {
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			if words == maxWords {
				return strings.TrimRightFunc(text[:i], unicode.IsSpace)
			}
			words++
			inWord = true
		}
	}
	return text
}
