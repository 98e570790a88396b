package app

import (
	"context"

	"quiz-widget/internal/domain"
)

// QuestionRepository provides validated, read-only question sets by name.
type QuestionRepository interface {
	GetQuestions(ctx context.Context, set string) ([]domain.Question, error)
}
