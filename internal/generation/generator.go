package generation

import "context"

// Candidate is a raw, unvalidated question/answer pair extracted from
// generator output, prior to passing validation. The generator's prompt is
// written in the user's study language, so the JSON keys vary: both the
// English field names and the Lithuanian ones produced by the original
// prompt ("klausimas"/"atsakymas") are accepted.
type Candidate struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`

	// Alternate field names emitted by the Lithuanian prompt variant.
	Klausimas string `json:"klausimas,omitempty"`
	Atsakymas string `json:"atsakymas,omitempty"`
}

// QuestionText returns the candidate's question under whichever field name
// the generator used.
func (c Candidate) QuestionText() string {
	if c.Question != "" {
		return c.Question
	}
	return c.Klausimas
}

// AnswerText returns the candidate's answer under whichever field name the
// generator used.
func (c Candidate) AnswerText() string {
	if c.Answer != "" {
		return c.Answer
	}
	return c.Atsakymas
}

// Request describes one card generation call.
type Request struct {
	// SourceText is the study material to generate cards from. Callers are
	// expected to have truncated it to the configured maximum already.
	SourceText string

	// CardCount is how many cards to ask the generator for.
	CardCount int

	// Language is the language the cards should be written in.
	Language string
}

// Generator defines the interface for generating flashcard candidates from
// source text. It is the boundary between the application core and the
// external LLM service; implementations live under internal/platform.
type Generator interface {
	// GenerateCards produces card candidates for the given request.
	// The returned candidates are unvalidated; callers run them through
	// FilterCandidates before creating domain cards. An empty slice with a
	// nil error means the generator responded but produced nothing usable,
	// which is a recoverable outcome rather than a failure.
	GenerateCards(ctx context.Context, req Request) ([]Candidate, error)
}
