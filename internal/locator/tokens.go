package locator

import (
	"strings"
	"unicode"

	"github.com/rollforge/sheetscan/internal/document"
)

// Tokenize splits flat text into unpositioned word tokens. Used by strategies
// whose input has no layout information (plain text, OCR output).
func Tokenize(text string) []document.Token {
	fields := strings.Fields(text)
	tokens := make([]document.Token, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, document.Token{Text: f})
	}
	return tokens
}

// normalizeToken lowercases a token and strips surrounding punctuation, so
// "Strength:" anchors the same as "strength".
func normalizeToken(s string) string {
	s = strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.ToLower(s)
}

// isSeparator reports whether a token is pure punctuation between a label and
// its value ("Name:", "Name - value").
func isSeparator(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// digitsOf extracts the leading integer from a token, tolerating glued
// punctuation and OCR artifacts like "17," or "(17)". Returns "" when the
// token carries no leading number.
func digitsOf(s string) string {
	start := -1
	for i, r := range s {
		if unicode.IsDigit(r) {
			start = i
			break
		}
		if unicode.IsLetter(r) {
			return ""
		}
	}
	if start < 0 {
		return ""
	}
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[start:end]
}
