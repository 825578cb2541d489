package application

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"interview-assistant/internal/domain"
)

const rubric = `1. Technical accuracy (0-5)
2. Communication clarity (0-3)
3. Problem-solving ability (0-2)`

const answerPrompt = `You are an expert recruiter evaluating one answer in a job interview.

Job Description:
%s

Question:
%s

Candidate's transcribed answer:
%s

Scoring Rubric:
%s

Return format (exactly these three lines):
Final Score: #/10
Overall Feedback: ...
Recommendation: Consider/Reject`

const interviewPrompt = `You are an expert recruiter evaluating a %s interview.

Candidate's responses:
%s

Scoring Rubric:
%s

Return format:
Final Score: #/10
Overall Feedback: ...
Recommendation: Consider/Reject`

const parseFailureNote = "The evaluation could not be parsed; a neutral score was assigned."

type evaluator struct {
	llm     TextGenerator
	metrics Metrics
}

func NewEvaluator(llm TextGenerator, metrics Metrics) Evaluator {
	return &evaluator{llm: llm, metrics: metrics}
}

func (e *evaluator) Evaluate(ctx context.Context, jobDescription, question, transcript string) (domain.Evaluation, error) {
	if strings.TrimSpace(transcript) == "" {
		return domain.Evaluation{
			Score:          domain.MinScore,
			Commentary:     "No spoken answer was detected in the recording.",
			Recommendation: domain.RecommendNone,
			Parsed:         true,
		}, nil
	}

	prompt := fmt.Sprintf(answerPrompt, jobDescription, question, transcript, rubric)
	raw, err := e.llm.Complete(ctx, recruiterSystem, prompt)
	e.metrics.ServiceCall(ctx, "evaluation", err)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("evaluating answer: %w", err)
	}

	eval, err := ParseEvaluation(raw)
	if err != nil {
		e.metrics.ParseFallback(ctx, "evaluation")
	}
	return eval, nil
}

func (e *evaluator) Summarize(ctx context.Context, role string, records []domain.AnswerRecord) (domain.Evaluation, error) {
	if len(records) == 0 {
		return domain.Evaluation{}, fmt.Errorf("%w: no answers to summarize", domain.ErrEmptyInput)
	}

	var qa strings.Builder
	for i, r := range records {
		fmt.Fprintf(&qa, "Q%d: %s\nA: %s\n\n", i+1, r.Question, r.Transcript)
	}

	raw, err := e.llm.Complete(ctx, recruiterSystem, fmt.Sprintf(interviewPrompt, role, strings.TrimSpace(qa.String()), rubric))
	e.metrics.ServiceCall(ctx, "summary", err)
	if err != nil {
		return domain.Evaluation{}, fmt.Errorf("summarizing interview: %w", err)
	}

	eval, err := ParseEvaluation(raw)
	if err != nil {
		e.metrics.ParseFallback(ctx, "summary")
	}
	return eval, nil
}

const scoreValue = `\s*\**\s*[:=\-]?\s*\**\s*(-?\d+(?:\.\d+)?)\s*(?:/\s*(\d+(?:\.\d+)?))?`

var (
	finalScorePattern     = regexp.MustCompile(`(?i)(?:final|overall)\s+score` + scoreValue)
	scorePattern          = regexp.MustCompile(`(?i)score` + scoreValue)
	feedbackPattern       = regexp.MustCompile(`(?is)(?:feedback|commentary|comments?)\s*\**\s*:\s*\**\s*(.+?)\s*(?:\n[^\n]*recommendation\s*\**\s*:|\z)`)
	recommendationPattern = regexp.MustCompile(`(?i)recommendation\s*\**\s*:\s*\**\s*(consider|reject)`)
)

// ParseEvaluation reads a "Final Score / Overall Feedback / Recommendation"
// response. It always returns a usable evaluation: when no score is found the
// neutral score is used, Parsed is false and the returned error wraps
// domain.ErrUnparseableResponse.
func ParseEvaluation(raw string) (domain.Evaluation, error) {
	raw = strings.TrimSpace(raw)

	eval := domain.Evaluation{
		Score:  domain.NeutralScore,
		Parsed: false,
	}

	if m := recommendationPattern.FindStringSubmatch(raw); m != nil {
		if strings.EqualFold(m[1], "reject") {
			eval.Recommendation = domain.RecommendReject
		} else {
			eval.Recommendation = domain.RecommendConsider
		}
	}

	if m := feedbackPattern.FindStringSubmatch(raw); m != nil {
		eval.Commentary = strings.TrimSpace(m[1])
	}

	// per-criterion scores may come before the final one
	m := finalScorePattern.FindStringSubmatch(raw)
	if m == nil {
		m = scorePattern.FindStringSubmatch(raw)
	}
	if m == nil {
		eval.Commentary = joinNonEmpty(parseFailureNote, firstNonEmpty(eval.Commentary, raw))
		return eval, fmt.Errorf("%w: no score in evaluation", domain.ErrUnparseableResponse)
	}

	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		eval.Commentary = joinNonEmpty(parseFailureNote, firstNonEmpty(eval.Commentary, raw))
		return eval, fmt.Errorf("%w: score %q: %w", domain.ErrUnparseableResponse, m[1], err)
	}
	if m[2] != "" {
		if outOf, err := strconv.ParseFloat(m[2], 64); err == nil && outOf > 0 && outOf != domain.MaxScore {
			score = score / outOf * domain.MaxScore
		}
	}

	eval.Score = domain.ClampScore(score)
	eval.Parsed = true
	if eval.Commentary == "" {
		eval.Commentary = raw
	}
	return eval, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(a, b string) string {
	if strings.TrimSpace(b) == "" {
		return a
	}
	return a + " " + b
}
