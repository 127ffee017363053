package models

import "time"

// StreamingState tracks where an assessment is in its lifecycle, from the moment a submission is
// accepted until its stream ends.
type StreamingState string

const (
	StreamingStateLoading   StreamingState = "loading"
	StreamingStateStreaming StreamingState = "streaming"
	StreamingStateEnded     StreamingState = "ended"
	StreamingStateFailed    StreamingState = "failed"
)

// Assessment is a stored record of one submission: the inputs it was composed from and the text the
// model streamed back.
type Assessment struct {
	ID             string
	Vibe           Vibe
	JobDescription string
	Resume         string
	Text           string
	State          StreamingState
	Error          string
	CreatedAt      time.Time
	FinishedAt     time.Time
}

// Vibe is the tone option offered next to the form fields. It is stored with each assessment and
// does not change the composed prompt.
type Vibe string

const (
	VibeProfessional Vibe = "Professional"
	VibeCasual       Vibe = "Casual"
	VibeFunny        Vibe = "Funny"
)

// Vibes lists the selectable tone options in display order.
var Vibes = []Vibe{VibeProfessional, VibeCasual, VibeFunny}

// ParseVibe maps s to one of the known vibes, falling back to VibeProfessional.
func ParseVibe(s string) Vibe {
	for _, v := range Vibes {
		if string(v) == s {
			return v
		}
	}
	return VibeProfessional
}
