package application

import (
	"context"
	"fmt"
	"strings"

	"interview-assistant/internal/domain"
)

const (
	MockTranscript = "Mock transcription"
	MockCommentary = "Good performance."
)

var mockQuestions = []string{
	"Mock Question 1: Tell me about a project you are proud of.",
	"Mock Question 2: How do you approach debugging a production issue?",
	"Mock Question 3: Describe a time you disagreed with a teammate.",
	"Mock Question 4: How do you keep your technical skills current?",
	"Mock Question 5: Why are you interested in this role?",
}

// NewMockServices returns the canned capability set used in mock mode. It
// never touches the network and always produces the same output for the
// same input.
func NewMockServices() Services {
	return Services{
		Questions:   mockQuestionGenerator{},
		Transcriber: mockTranscriber{},
		Evaluator:   mockEvaluator{},
		Greeter:     mockGreeter{},
	}
}

type mockQuestionGenerator struct{}

func (mockQuestionGenerator) Generate(_ context.Context, role, description string, count int) ([]string, error) {
	if strings.TrimSpace(role) == "" || strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: role and job description are required", domain.ErrEmptyInput)
	}
	if count <= 0 {
		count = DefaultQuestionCount
	}

	questions := make([]string, count)
	for i := range questions {
		if i < len(mockQuestions) {
			questions[i] = mockQuestions[i]
		} else {
			questions[i] = fmt.Sprintf("Mock Question %d", i+1)
		}
	}
	return questions, nil
}

type mockTranscriber struct{}

func (mockTranscriber) Transcribe(_ context.Context, audioPath string) (string, error) {
	if audioPath == "" {
		return "", fmt.Errorf("%w: no recording", domain.ErrEmptyInput)
	}
	return MockTranscript, nil
}

type mockEvaluator struct{}

func (mockEvaluator) Evaluate(_ context.Context, _, _, _ string) (domain.Evaluation, error) {
	return domain.Evaluation{
		Score:          7,
		Commentary:     MockCommentary,
		Recommendation: domain.RecommendConsider,
		Parsed:         true,
	}, nil
}

func (mockEvaluator) Summarize(_ context.Context, _ string, _ []domain.AnswerRecord) (domain.Evaluation, error) {
	return domain.Evaluation{
		Score:          7,
		Commentary:     MockCommentary,
		Recommendation: domain.RecommendConsider,
		Parsed:         true,
	}, nil
}

type mockGreeter struct{}

func (mockGreeter) Greet(_ context.Context, candidate string) (string, error) {
	return fmt.Sprintf("Hello %s! This is a mock interview.", candidate), nil
}
