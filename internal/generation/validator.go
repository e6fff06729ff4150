package generation

import "strings"

// FilterCandidates drops every candidate that is missing a question or an
// answer (after whitespace trimming) and normalizes the survivors onto the
// canonical field names. Dropping is silent: partial AI output is expected
// and common, and only the aggregate count of surviving cards matters to the
// caller. Output ordering matches input ordering.
//
// Exact duplicates are deliberately kept as separate candidates; see
// DESIGN.md for the reasoning.
func FilterCandidates(candidates []Candidate) []Candidate {
	valid := make([]Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		question := strings.TrimSpace(candidate.QuestionText())
		answer := strings.TrimSpace(candidate.AnswerText())

		if question == "" || answer == "" {
			continue
		}

		valid = append(valid, Candidate{
			Question: question,
			Answer:   answer,
		})
	}
	return valid
}
