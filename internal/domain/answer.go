package domain

import (
	"math"
	"time"
)

const (
	MinScore     = 0.0
	MaxScore     = 10.0
	NeutralScore = 5.0
)

type Recommendation string

const (
	RecommendConsider Recommendation = "Consider"
	RecommendReject   Recommendation = "Reject"
	RecommendNone     Recommendation = ""
)

// AnswerRecord is one logged row. It is never mutated once created.
type AnswerRecord struct {
	Candidate  string
	Role       string
	Question   string
	AudioPath  string
	Transcript string
	Score      float64
	Commentary string
	Timestamp  time.Time
}

type Evaluation struct {
	Score          float64
	Commentary     string
	Recommendation Recommendation
	// Parsed is false when the service response did not contain a score
	// and the neutral default was used instead.
	Parsed bool
}

// ClampScore forces a score into [MinScore, MaxScore].
func ClampScore(score float64) float64 {
	switch {
	case math.IsNaN(score):
		return NeutralScore
	case score < MinScore:
		return MinScore
	case score > MaxScore:
		return MaxScore
	default:
		return score
	}
}

type Summary struct {
	Candidate      string
	Role           string
	Answered       int
	Total          int
	AverageScore   float64
	Overall        string
	Recommendation Recommendation
	Records        []AnswerRecord
}

func NewSummary(s *Session) *Summary {
	records := make([]AnswerRecord, len(s.Records))
	copy(records, s.Records)

	var total float64
	for _, r := range records {
		total += r.Score
	}

	avg := 0.0
	if len(records) > 0 {
		avg = total / float64(len(records))
	}

	return &Summary{
		Candidate:    s.Candidate,
		Role:         s.Role,
		Answered:     len(records),
		Total:        len(s.Questions),
		AverageScore: avg,
		Records:      records,
	}
}
