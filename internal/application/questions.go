package application

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"interview-assistant/internal/domain"
)

const DefaultQuestionCount = 5

const questionPrompt = `As an expert recruiter, generate %d interview questions for a %s position.
Job Description: %s

Rules:
- Write exactly %d questions.
- Put each question on its own line, numbered "1.", "2.", ...
- Provide only the questions, no introduction and no extra commentary.`

const recruiterSystem = "You are an expert technical recruiter conducting a structured job interview."

type questionGenerator struct {
	llm     TextGenerator
	metrics Metrics
}

func NewQuestionGenerator(llm TextGenerator, metrics Metrics) QuestionGenerator {
	return &questionGenerator{llm: llm, metrics: metrics}
}

func (g *questionGenerator) Generate(ctx context.Context, role, description string, count int) ([]string, error) {
	role = strings.TrimSpace(role)
	description = strings.TrimSpace(description)
	if role == "" || description == "" {
		return nil, fmt.Errorf("%w: role and job description are required", domain.ErrEmptyInput)
	}
	if count <= 0 {
		count = DefaultQuestionCount
	}

	raw, err := g.llm.Complete(ctx, recruiterSystem, fmt.Sprintf(questionPrompt, count, role, description, count))
	g.metrics.ServiceCall(ctx, "questions", err)
	if err != nil {
		return nil, fmt.Errorf("generating questions: %w", err)
	}

	questions, err := ParseQuestions(raw, count)
	if err != nil {
		g.metrics.ParseFallback(ctx, "questions")
		return nil, err
	}
	return questions, nil
}

var listMarker = regexp.MustCompile(`^(?:(?:Q(?:uestion)?\s*)?\d+\s*[.):\-]\s*|[-*•]\s+)`)

// ParseQuestions splits a list-formatted response into questions. Empty
// lines and header lines are dropped and list markers stripped. When any
// line carries a list marker, unmarked lines are treated as prose and
// dropped. Fewer than count questions is an error; extras are cut.
func ParseQuestions(raw string, count int) ([]string, error) {
	var questions, marked []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		clean := strings.Trim(line, "*_ ")
		stripped := strings.TrimSpace(listMarker.ReplaceAllString(clean, ""))
		stripped = strings.Trim(stripped, "*_ ")
		if stripped == "" {
			continue
		}

		// "Here are 5 questions:" and similar preambles
		if stripped == clean && strings.HasSuffix(stripped, ":") {
			continue
		}

		questions = append(questions, stripped)
		if stripped != clean {
			marked = append(marked, stripped)
		}
	}
	if len(marked) > 0 {
		questions = marked
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions in response", domain.ErrUnparseableResponse)
	}
	if count > 0 {
		if len(questions) < count {
			return nil, fmt.Errorf("%w: expected %d questions, got %d", domain.ErrUnparseableResponse, count, len(questions))
		}
		questions = questions[:count]
	}
	return questions, nil
}
