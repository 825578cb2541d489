package application

import (
	"errors"
	"fmt"

	"interview-assistant/internal/domain"
)

type Step string

const (
	StepStart      Step = "start"
	StepRecord     Step = "record"
	StepTranscribe Step = "transcribe"
	StepEvaluate   Step = "evaluate"
	StepLog        Step = "log"
)

// StepError is what the controller returns. Everything except a failed
// log write is recoverable: the session stays where it was and the user
// may retry.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (e *StepError) Fatal() bool {
	return e.Step == StepLog || errors.Is(e.Err, domain.ErrLogWrite)
}

// UserMessage is the text shown next to the retry affordance.
func (e *StepError) UserMessage() string {
	switch {
	case e.Fatal():
		return "The interview log could not be written. Please contact the administrator."
	case errors.Is(e.Err, domain.ErrInvalidState):
		return "That action is not available right now."
	case e.Step == StepTranscribe && (errors.Is(e.Err, domain.ErrUnusableAudio) || errors.Is(e.Err, domain.ErrEmptyInput)):
		return "The recording could not be transcribed, please record your answer again."
	case errors.Is(e.Err, domain.ErrEmptyInput):
		switch e.Step {
		case StepStart:
			return "Please enter your name, the job title and the job description."
		default:
			return "Please record an answer before submitting."
		}
	}

	switch e.Step {
	case StepStart:
		if errors.Is(e.Err, domain.ErrUnparseableResponse) {
			return "The interview questions could not be read, please try again."
		}
		return "Question generation failed, please retry."
	case StepRecord:
		return "The recording could not be saved, please record again."
	case StepTranscribe:
		return "Transcription failed, please retry."
	case StepEvaluate:
		return "Evaluation failed, please retry."
	default:
		return "Something went wrong, please retry."
	}
}

func stepErr(step Step, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Step: step, Err: err}
}
