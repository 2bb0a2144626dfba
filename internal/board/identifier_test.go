package board

import (
	"testing"

	"servicos/internal/models"
)

func TestNextIdentifier(t *testing.T) {
	tests := []struct {
		name        string
		identifiers []string
		want        string
	}{
		{"empty board", nil, "PROT-001"},
		{"single", []string{"PROT-001"}, "PROT-002"},
		{"unordered", []string{"PROT-003", "PROT-010", "PROT-002"}, "PROT-011"},
		{"malformed ignored", []string{"PROT-abc", "", "PROT", "PROT-004"}, "PROT-005"},
		{"only malformed", []string{"PROT-", "lixo"}, "PROT-001"},
		{"leading digits", []string{"PROT-12x"}, "PROT-013"},
		{"extra segment", []string{"PROT-020-B"}, "PROT-021"},
		{"wider than padding", []string{"PROT-999"}, "PROT-1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards := make([]models.Card, len(tt.identifiers))
			for i, id := range tt.identifiers {
				cards[i] = models.Card{Identifier: id}
			}
			if got := NextIdentifier(cards); got != tt.want {
				t.Fatalf("NextIdentifier() = %s, want %s", got, tt.want)
			}
		})
	}
}
