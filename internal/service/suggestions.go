package service

import (
	"context"
	"strings"

	"github.com/agfi/registro-backend/internal/model"
)

// SuggestionInput is an anonymous suggestion box entry. Only Message is
// required.
type SuggestionInput struct {
	Subject      string
	Message      string
	RelatedEvent string
}

// Suggest stores a suggestion. The author is deliberately not recorded.
func (s *Service) Suggest(ctx context.Context, in SuggestionInput) (*model.Suggestion, error) {
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return nil, invalid("El mensaje es obligatorio.")
	}
	sg := &model.Suggestion{
		Subject:      optString(in.Subject),
		Message:      msg,
		RelatedEvent: optString(in.RelatedEvent),
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateSuggestion(ctx, sg); err != nil {
		return nil, wrapRepo(err, "")
	}
	return sg, nil
}

// Suggestions lists the suggestion box, newest first.
func (s *Service) Suggestions(ctx context.Context, actor Actor) ([]model.Suggestion, error) {
	if !actor.IsManager() {
		return nil, forbidden("No tienes permisos para ver el buzón.")
	}
	list, err := s.store.ListSuggestions(ctx)
	return list, wrapRepo(err, "")
}
