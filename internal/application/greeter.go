package application

import (
	"context"
	"fmt"
	"strings"
)

const greetingPrompt = `You are a friendly AI interviewer named 'Santosh'.
Warmly greet %s, introduce yourself, and explain the interview process:
one question at a time, answered by voice recording.
Keep it professional and approachable in 2-3 sentences.`

type greeter struct {
	llm     TextGenerator
	metrics Metrics
}

func NewGreeter(llm TextGenerator, metrics Metrics) Greeter {
	return &greeter{llm: llm, metrics: metrics}
}

func (g *greeter) Greet(ctx context.Context, candidate string) (string, error) {
	text, err := g.llm.Complete(ctx, "", fmt.Sprintf(greetingPrompt, candidate))
	g.metrics.ServiceCall(ctx, "greeting", err)
	if err != nil {
		return "", fmt.Errorf("greeting: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// FallbackGreeting is shown when the greeting could not be generated.
func FallbackGreeting(candidate string) string {
	return fmt.Sprintf("Hello %s, welcome to your interview. I will ask you one question at a time; record your answer and submit it when you are ready.", candidate)
}
