package application

import (
	"context"

	"interview-assistant/internal/domain"
)

// ResultLogger is the append-only sink for answered questions.
type ResultLogger interface {
	Append(ctx context.Context, record domain.AnswerRecord) error
}

// History lists archived answers, newest first.
type History interface {
	Recent(ctx context.Context, limit int) ([]domain.AnswerRecord, error)
}

// TeeLogger appends to each logger in order and stops at the first error.
type TeeLogger []ResultLogger

func (t TeeLogger) Append(ctx context.Context, record domain.AnswerRecord) error {
	for _, l := range t {
		if err := l.Append(ctx, record); err != nil {
			return err
		}
	}
	return nil
}
