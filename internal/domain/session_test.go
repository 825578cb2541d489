package domain_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"interview-assistant/internal/domain"
)

func TestSession_AddRecordAdvances(t *testing.T) {
	s := domain.NewSession(time.Now())
	s.Questions = []string{"q1", "q2"}
	s.State = domain.StateEvaluating
	s.PendingAudio = "audios/x/Q1.wav"

	if err := s.AddRecord(domain.AnswerRecord{Question: "q1"}); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}

	if s.State != domain.StateAwaitingAnswer {
		t.Errorf("state: got %s, want %s", s.State, domain.StateAwaitingAnswer)
	}
	if s.PendingAudio != "" {
		t.Errorf("pending audio not cleared: %q", s.PendingAudio)
	}

	if err := s.AddRecord(domain.AnswerRecord{Question: "q2"}); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if !s.Complete() {
		t.Errorf("session should be complete, state %s", s.State)
	}

	if _, ok := s.CurrentQuestion(); ok {
		t.Error("no question should be pending after completion")
	}
}

func TestSession_AddRecordRejectsMismatch(t *testing.T) {
	s := domain.NewSession(time.Now())
	s.Questions = []string{"q1", "q2"}

	err := s.AddRecord(domain.AnswerRecord{Question: "q2"})
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if len(s.Records) != 0 {
		t.Errorf("records: got %d, want 0", len(s.Records))
	}
}

func TestSession_RecordsNeverExceedQuestions(t *testing.T) {
	s := domain.NewSession(time.Now())
	s.Questions = []string{"only"}

	_ = s.AddRecord(domain.AnswerRecord{Question: "only"})
	err := s.AddRecord(domain.AnswerRecord{Question: "only"})
	if err == nil {
		t.Fatal("expected error adding a record past the last question")
	}
	if len(s.Records) > len(s.Questions) {
		t.Errorf("records %d exceed questions %d", len(s.Records), len(s.Questions))
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-3, 0},
		{0, 0},
		{7.5, 7.5},
		{10, 10},
		{42, 10},
		{math.NaN(), domain.NeutralScore},
		{math.Inf(1), 10},
	}

	for _, tt := range tests {
		if got := domain.ClampScore(tt.in); got != tt.want {
			t.Errorf("ClampScore(%v): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewSummary_Average(t *testing.T) {
	s := domain.NewSession(time.Now())
	s.Candidate = "Ada"
	s.Role = "Backend Engineer"
	s.Questions = []string{"a", "b", "c"}
	s.Records = []domain.AnswerRecord{{Score: 6}, {Score: 8}}

	sum := domain.NewSummary(s)
	if sum.Answered != 2 || sum.Total != 3 {
		t.Errorf("answered/total: got %d/%d, want 2/3", sum.Answered, sum.Total)
	}
	if sum.AverageScore != 7 {
		t.Errorf("average: got %v, want 7", sum.AverageScore)
	}
}
