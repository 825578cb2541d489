package application

import "context"

// TextGenerator is the hosted large-language-model service: a prompt in,
// generated text out.
type TextGenerator interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}
