// Package i18n holds the Brazilian Portuguese strings shown to board users.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Locale is the only language the board is presented in.
var Locale = language.BrazilianPortuguese

// Message keys. Keys are the English source strings.
const (
	FieldTitle       = "Title"
	FieldDescription = "Description"
	FieldDueDate     = "Due date"
	FieldPriority    = "Priority"
	FieldAssignedTo  = "Assignee"

	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"

	FieldChanged     = "%s was changed"
	FieldChangedTo   = "%s was changed to %s"
	CommentAdded     = "New comment added"
	ImageAttached    = "Image \"%s\" was attached"
	DocumentAttached = "Document \"%s\" was attached"

	InvalidLogin   = "Invalid username or password!"
	UnsavedChanges = "There are unsaved changes. Do you really want to close?"
	IsRequired     = "%s is required"
)

var ptBR = map[string]string{
	FieldTitle:       "Título",
	FieldDescription: "Descrição",
	FieldDueDate:     "Data de Entrega",
	FieldPriority:    "Prioridade",
	FieldAssignedTo:  "Responsável",

	PriorityLow:    "Baixa",
	PriorityMedium: "Média",
	PriorityHigh:   "Alta",

	FieldChanged:     "%s foi alterado",
	FieldChangedTo:   "%s foi alterado para %s",
	CommentAdded:     "Novo comentário adicionado",
	ImageAttached:    "Imagem \"%s\" foi anexado",
	DocumentAttached: "Documento \"%s\" foi anexado",

	InvalidLogin:   "Usuário ou senha inválidos!",
	UnsavedChanges: "Há alterações não salvas. Deseja realmente fechar?",
	IsRequired:     "%s é obrigatório",
}

var printer = mustRegister()

func mustRegister() *message.Printer {
	for key, msg := range ptBR {
		if err := message.SetString(Locale, key, msg); err != nil {
			panic(fmt.Sprintf("register message %q: %v", key, err))
		}
	}
	return message.NewPrinter(Locale)
}

// T returns the localized form of key formatted with args.
func T(key string, args ...any) string {
	return printer.Sprintf(key, args...)
}
