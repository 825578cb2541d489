package application

import "context"

type Metrics interface {
	InterviewStarted(ctx context.Context)
	InterviewCompleted(ctx context.Context)
	AnswerLogged(ctx context.Context, score float64)
	ServiceCall(ctx context.Context, service string, err error)
	ParseFallback(ctx context.Context, kind string)
}

type NoopMetrics struct{}

func (NoopMetrics) InterviewStarted(context.Context)           {}
func (NoopMetrics) InterviewCompleted(context.Context)         {}
func (NoopMetrics) AnswerLogged(context.Context, float64)      {}
func (NoopMetrics) ServiceCall(context.Context, string, error) {}
func (NoopMetrics) ParseFallback(context.Context, string)      {}
