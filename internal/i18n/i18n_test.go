package i18n

import "testing"

func TestT(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"plain", T(CommentAdded), "Novo comentário adicionado"},
		{"label", T(FieldPriority), "Prioridade"},
		{"nested", T(FieldChangedTo, T(FieldPriority), T(PriorityHigh)), "Prioridade foi alterado para Alta"},
		{"quoted", T(ImageAttached, "raio-x.png"), `Imagem "raio-x.png" foi anexado`},
		{"login", T(InvalidLogin), "Usuário ou senha inválidos!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestEveryKeyTranslated(t *testing.T) {
	for key := range ptBR {
		if ptBR[key] == "" {
			t.Errorf("empty translation for %q", key)
		}
	}
}
