package application

import (
	"context"

	"interview-assistant/internal/domain"
)

type QuestionGenerator interface {
	Generate(ctx context.Context, role, description string, count int) ([]string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, jobDescription, question, transcript string) (domain.Evaluation, error)
	// Summarize grades the interview as a whole once every question is answered.
	Summarize(ctx context.Context, role string, records []domain.AnswerRecord) (domain.Evaluation, error)
}

type Greeter interface {
	Greet(ctx context.Context, candidate string) (string, error)
}

// Services is the capability set the controller drives. It is chosen once
// at startup: backed by hosted services, or canned for mock mode.
type Services struct {
	Questions   QuestionGenerator
	Transcriber Transcriber
	Evaluator   Evaluator
	Greeter     Greeter
}

// NewHostedServices wires the capability set to a text generation service
// and a speech-to-text service.
func NewHostedServices(llm TextGenerator, stt SpeechToText, store AudioStore, metrics Metrics) Services {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return Services{
		Questions:   NewQuestionGenerator(llm, metrics),
		Transcriber: NewTranscriber(stt, store, metrics),
		Evaluator:   NewEvaluator(llm, metrics),
		Greeter:     NewGreeter(llm, metrics),
	}
}
