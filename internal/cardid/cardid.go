// Package cardid derives stable card identifiers from card content.
package cardid

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/conorfennell/studyforge/internal/domain"
)

// Normalize joins the card's question, answer and topic after trimming
// whitespace, lowercasing and normalizing line endings in each part.
func Normalize(card domain.Card) string {
	clean := func(part string) string {
		p := strings.ReplaceAll(part, "\r\n", "\n")
		return strings.ToLower(strings.TrimSpace(p))
	}

	// Newline separators keep "ab"+"c" distinct from "a"+"bc".
	return strings.Join([]string{clean(card.Question), clean(card.Answer), clean(card.Topic)}, "\n")
}

// For returns the SHA-256 of the normalized card as a hex string. Cards that
// differ only in case or surrounding whitespace share an ID, so re-importing
// a deck never duplicates cards.
func For(card domain.Card) string {
	sum := sha256.Sum256([]byte(Normalize(card)))
	return hex.EncodeToString(sum[:])
}
