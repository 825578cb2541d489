package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"interview-assistant/internal/domain"
)

type ControllerConfig struct {
	QuestionCount  int
	ServiceTimeout time.Duration
}

// Controller drives a session through
// NotStarted -> AwaitingAnswer(i) -> Evaluating(i) -> ... -> Complete.
// Calls for one session must not overlap; the caller serializes them.
type Controller struct {
	services Services
	audio    AudioStore
	results  ResultLogger
	notifier Notifier
	metrics  Metrics
	logger   *slog.Logger
	cfg      ControllerConfig
	now      func() time.Time
}

func NewController(
	services Services,
	audio AudioStore,
	results ResultLogger,
	notifier Notifier,
	metrics Metrics,
	logger *slog.Logger,
	cfg ControllerConfig,
) *Controller {
	if notifier == nil {
		notifier = &NoopNotifier{}
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	if cfg.QuestionCount <= 0 {
		cfg.QuestionCount = DefaultQuestionCount
	}
	return &Controller{
		services: services,
		audio:    audio,
		results:  results,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for record timestamps.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	return c
}

type StartInput struct {
	Candidate      string
	Role           string
	JobDescription string
	Count          int
}

// Start greets the candidate and generates the questions. On failure the
// session stays NotStarted.
func (c *Controller) Start(ctx context.Context, s *domain.Session, in StartInput) error {
	if s.State != domain.StateNotStarted {
		return stepErr(StepStart, fmt.Errorf("%w: interview already started", domain.ErrInvalidState))
	}

	candidate := strings.TrimSpace(in.Candidate)
	role := strings.TrimSpace(in.Role)
	description := strings.TrimSpace(in.JobDescription)
	if candidate == "" || role == "" || description == "" {
		return stepErr(StepStart, fmt.Errorf("%w: candidate, role and job description are required", domain.ErrEmptyInput))
	}

	count := in.Count
	if count <= 0 {
		count = c.cfg.QuestionCount
	}

	greetCtx, cancel := c.serviceContext(ctx)
	greeting, err := c.services.Greeter.Greet(greetCtx, candidate)
	cancel()
	if err != nil || greeting == "" {
		c.logger.Warn("greeting failed, using fallback", "session", s.ID, "error", err)
		greeting = FallbackGreeting(candidate)
	}

	genCtx, cancel := c.serviceContext(ctx)
	questions, err := c.services.Questions.Generate(genCtx, role, description, count)
	cancel()
	if err != nil {
		c.logger.Error("generating questions", "session", s.ID, "role", role, "error", err)
		return stepErr(StepStart, classify(err))
	}

	s.Candidate = candidate
	s.Role = role
	s.JobDescription = description
	s.Greeting = greeting
	s.Questions = questions
	s.Index = 0
	s.Records = nil
	s.PendingAudio = ""
	s.PendingTranscript = nil
	s.State = domain.StateAwaitingAnswer
	s.UpdatedAt = c.now()

	c.metrics.InterviewStarted(ctx)
	c.logger.Info("interview started",
		"session", s.ID,
		"candidate", candidate,
		"role", role,
		"questions", len(questions),
	)
	return nil
}

// Record stores a clip for the current question. It may be called again to
// re-record until the answer is submitted.
func (c *Controller) Record(ctx context.Context, s *domain.Session, contentType string, data []byte) (string, error) {
	if s.State != domain.StateAwaitingAnswer {
		return "", stepErr(StepRecord, fmt.Errorf("%w: cannot record in state %s", domain.ErrInvalidState, s.State))
	}
	if len(data) == 0 {
		return "", stepErr(StepRecord, fmt.Errorf("%w: empty recording", domain.ErrEmptyInput))
	}

	path, err := c.audio.Save(s.ID, s.Candidate, s.Index+1, contentType, data)
	if err != nil {
		c.logger.Error("saving recording", "session", s.ID, "question", s.Index+1, "error", err)
		return "", stepErr(StepRecord, err)
	}

	s.PendingAudio = path
	s.UpdatedAt = c.now()

	c.logger.Info("answer recorded", "session", s.ID, "question", s.Index+1, "path", path, "bytes", len(data))
	return path, nil
}

// Submit freezes the recorded clip, transcribes and evaluates it and logs
// the result. Calling Submit again while the session is Evaluating retries
// the failed step. A *StepError with Fatal() true means the result log
// could not be written.
func (c *Controller) Submit(ctx context.Context, s *domain.Session) (*domain.AnswerRecord, error) {
	switch s.State {
	case domain.StateAwaitingAnswer:
		if s.PendingAudio == "" {
			return nil, stepErr(StepRecord, fmt.Errorf("%w: no recording for question %d", domain.ErrEmptyInput, s.Index+1))
		}
		s.State = domain.StateEvaluating
		s.UpdatedAt = c.now()
	case domain.StateEvaluating:
		c.logger.Info("retrying answer", "session", s.ID, "question", s.Index+1)
	default:
		return nil, stepErr(StepEvaluate, fmt.Errorf("%w: cannot submit in state %s", domain.ErrInvalidState, s.State))
	}

	question, ok := s.CurrentQuestion()
	if !ok {
		return nil, stepErr(StepEvaluate, fmt.Errorf("%w: no current question", domain.ErrInvalidState))
	}

	if s.PendingTranscript == nil {
		tctx, cancel := c.serviceContext(ctx)
		text, err := c.services.Transcriber.Transcribe(tctx, s.PendingAudio)
		cancel()
		if err != nil {
			c.logger.Error("transcription failed", "session", s.ID, "question", s.Index+1, "error", err)
			if errors.Is(err, domain.ErrEmptyInput) || errors.Is(err, domain.ErrUnusableAudio) {
				// retrying the same clip cannot succeed, so let the candidate record again
				s.PendingAudio = ""
				s.State = domain.StateAwaitingAnswer
				s.UpdatedAt = c.now()
			}
			return nil, stepErr(StepTranscribe, classify(err))
		}
		s.PendingTranscript = &text
	}
	transcript := *s.PendingTranscript

	ectx, cancel := c.serviceContext(ctx)
	eval, err := c.services.Evaluator.Evaluate(ectx, s.JobDescription, question, transcript)
	cancel()
	if err != nil {
		c.logger.Error("evaluation failed", "session", s.ID, "question", s.Index+1, "error", err)
		return nil, stepErr(StepEvaluate, classify(err))
	}
	if !eval.Parsed {
		c.logger.Warn("evaluation not parseable, neutral score used", "session", s.ID, "question", s.Index+1)
	}

	record := domain.AnswerRecord{
		Candidate:  s.Candidate,
		Role:       s.Role,
		Question:   question,
		AudioPath:  s.PendingAudio,
		Transcript: transcript,
		Score:      domain.ClampScore(eval.Score),
		Commentary: eval.Commentary,
		Timestamp:  c.now().UTC(),
	}

	if err := c.results.Append(ctx, record); err != nil {
		c.logger.Error("writing result log", "session", s.ID, "question", s.Index+1, "error", err)
		return nil, stepErr(StepLog, err)
	}

	if err := s.AddRecord(record); err != nil {
		return nil, stepErr(StepEvaluate, err)
	}
	s.UpdatedAt = c.now()

	c.metrics.AnswerLogged(ctx, record.Score)
	c.logger.Info("answer logged",
		"session", s.ID,
		"question", len(s.Records),
		"of", s.Total(),
		"score", record.Score,
	)

	if s.Complete() {
		c.finish(ctx, s)
	}

	return &record, nil
}

func (c *Controller) finish(ctx context.Context, s *domain.Session) {
	summary := domain.NewSummary(s)

	sctx, cancel := c.serviceContext(ctx)
	overall, err := c.services.Evaluator.Summarize(sctx, s.Role, summary.Records)
	cancel()
	if err != nil {
		c.logger.Warn("overall evaluation failed, using average", "session", s.ID, "error", err)
		summary.Overall = fmt.Sprintf("Average score %.1f/10 across %d answers.", summary.AverageScore, summary.Answered)
	} else {
		summary.Overall = overall.Commentary
		summary.Recommendation = overall.Recommendation
	}
	s.Summary = summary

	c.metrics.InterviewCompleted(ctx)
	c.logger.Info("interview complete", "session", s.ID, "candidate", s.Candidate, "average", summary.AverageScore)

	if err := c.notifier.Notify(ctx, FormatSummary(summary)); err != nil {
		c.logger.Error("notifying summary", "session", s.ID, "error", err)
	}
}

// FormatSummary renders a completed interview as plain text.
func FormatSummary(sum *domain.Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Interview complete: %s (%s)\n", sum.Candidate, sum.Role)
	fmt.Fprintf(&sb, "Answered %d/%d, average score %.1f/10\n", sum.Answered, sum.Total, sum.AverageScore)
	if sum.Recommendation != domain.RecommendNone {
		fmt.Fprintf(&sb, "Recommendation: %s\n", sum.Recommendation)
	}
	if sum.Overall != "" {
		sb.WriteString(sum.Overall)
	}
	return strings.TrimSpace(sb.String())
}

func (c *Controller) serviceContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.ServiceTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.ServiceTimeout)
}

// classify makes an expired service deadline count as an unavailable service.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrServiceUnavailable) {
		return fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
	}
	return err
}
