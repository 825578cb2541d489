package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StateNotStarted     State = "not_started"
	StateAwaitingAnswer State = "awaiting_answer"
	StateEvaluating     State = "evaluating"
	StateComplete       State = "complete"
)

// Session is the state of one candidate's interview. It lives from the
// start form until Complete and is only mutated by the controller.
type Session struct {
	ID             string
	Candidate      string
	Role           string
	JobDescription string
	Greeting       string

	Questions []string
	Index     int
	State     State

	// PendingAudio is the clip recorded for the current question.
	// It is frozen once the session enters StateEvaluating.
	PendingAudio string
	// PendingTranscript caches a successful transcription so a retry
	// after an evaluation failure does not transcribe again.
	PendingTranscript *string

	Records []AnswerRecord
	Summary *Summary

	StartedAt time.Time
	UpdatedAt time.Time
}

func NewSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		State:     StateNotStarted,
		StartedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) Complete() bool {
	return s.State == StateComplete
}

func (s *Session) Total() int {
	return len(s.Questions)
}

// CurrentQuestion returns the question at Index, or false once every
// question has been answered.
func (s *Session) CurrentQuestion() (string, bool) {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return "", false
	}
	return s.Questions[s.Index], true
}

// AddRecord appends the answer to the current question and advances the
// index. It enforces the record/question correspondence.
func (s *Session) AddRecord(r AnswerRecord) error {
	q, ok := s.CurrentQuestion()
	if !ok {
		return fmt.Errorf("%w: no question pending", ErrInvalidState)
	}
	if r.Question != q {
		return fmt.Errorf("%w: record for %q does not match question %d", ErrInvalidState, r.Question, s.Index+1)
	}

	s.Records = append(s.Records, r)
	s.Index++
	s.PendingAudio = ""
	s.PendingTranscript = nil

	if s.Index >= len(s.Questions) {
		s.State = StateComplete
	} else {
		s.State = StateAwaitingAnswer
	}
	return nil
}
