package document

import (
	"strings"
	"unicode/utf8"
)

// loadTextPages treats the bytes as one logical page of plain text.
// Invalid UTF-8 sequences are replaced with the replacement character.
func loadTextPages(raw []byte) ([]Page, error) {
	text := string(raw)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return []Page{textPage(text)}, nil
}

// textPage builds an unpositioned page from flat text.
func textPage(text string) Page {
	fields := strings.Fields(text)
	tokens := make([]Token, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, Token{Text: f})
	}
	return Page{Text: text, Tokens: tokens}
}
