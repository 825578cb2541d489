// Package metrics records interview counters with OpenTelemetry and serves
// them in Prometheus format.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Recorder implements application.Metrics.
type Recorder struct {
	provider *sdkmetric.MeterProvider
	handler  http.Handler

	started   metric.Int64Counter
	completed metric.Int64Counter
	answers   metric.Int64Counter
	scores    metric.Float64Histogram
	calls     metric.Int64Counter
	fallbacks metric.Int64Counter
}

func New(serviceName string) (*Recorder, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	res := resource.NewSchemaless(semconv.ServiceName(serviceName))
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	meter := provider.Meter("interview-assistant")

	r := &Recorder{
		provider: provider,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}

	if r.started, err = meter.Int64Counter("interviews_started",
		metric.WithDescription("Interviews that reached the first question")); err != nil {
		return nil, err
	}
	if r.completed, err = meter.Int64Counter("interviews_completed",
		metric.WithDescription("Interviews with every question answered")); err != nil {
		return nil, err
	}
	if r.answers, err = meter.Int64Counter("answers_logged",
		metric.WithDescription("Rows appended to the results file")); err != nil {
		return nil, err
	}
	if r.scores, err = meter.Float64Histogram("answer_score",
		metric.WithDescription("Per-answer score"),
		metric.WithExplicitBucketBoundaries(0, 2, 4, 5, 6, 8, 10)); err != nil {
		return nil, err
	}
	if r.calls, err = meter.Int64Counter("service_calls",
		metric.WithDescription("Calls to hosted services by outcome")); err != nil {
		return nil, err
	}
	if r.fallbacks, err = meter.Int64Counter("parse_fallbacks",
		metric.WithDescription("Service replies that did not match the requested format")); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Recorder) Handler() http.Handler {
	return r.handler
}

func (r *Recorder) Shutdown(ctx context.Context) error {
	return r.provider.Shutdown(ctx)
}

func (r *Recorder) InterviewStarted(ctx context.Context) {
	r.started.Add(ctx, 1)
}

func (r *Recorder) InterviewCompleted(ctx context.Context) {
	r.completed.Add(ctx, 1)
}

func (r *Recorder) AnswerLogged(ctx context.Context, score float64) {
	r.answers.Add(ctx, 1)
	r.scores.Record(ctx, score)
}

func (r *Recorder) ServiceCall(ctx context.Context, service string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("outcome", outcome),
	))
}

func (r *Recorder) ParseFallback(ctx context.Context, kind string) {
	r.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
