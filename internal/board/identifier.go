package board

import (
	"fmt"
	"strconv"
	"strings"

	"servicos/internal/models"
)

// IdentifierPrefix starts every human-facing card code.
const IdentifierPrefix = "PROT"

// NextIdentifier returns the code for a new card: the largest numeric
// suffix among cards plus one, zero-padded to three digits.
func NextIdentifier(cards []models.Card) string {
	highest := 0
	for _, card := range cards {
		if n := identifierNumber(card.Identifier); n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s-%03d", IdentifierPrefix, highest+1)
}

// identifierNumber reads the leading digits of the segment after the first
// dash. Anything unreadable counts as zero.
func identifierNumber(identifier string) int {
	_, rest, ok := strings.Cut(identifier, "-")
	if !ok {
		return 0
	}
	if seg, _, found := strings.Cut(rest, "-"); found {
		rest = seg
	}
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0
	}
	return n
}
