package generation

import (
	"encoding/json"
	"strings"
)

// Markers for fenced code blocks in generator output.
const (
	jsonFence = "```json"
	bareFence = "```"
)

// ParseCandidates extracts a list of card candidates from a raw generator
// response. The input is arbitrary text: it may wrap the JSON array in a
// markdown code fence (tagged or untagged), surround it with prose, or be
// malformed entirely.
//
// The strategy has two tiers:
//  1. strict: unfence the text (preferring a ```json-tagged block over a
//     bare one) and unmarshal it as a JSON array;
//  2. salvage: if that fails, scan for the outermost [...] span within the
//     text and unmarshal that.
//
// Both tiers failing is not an error; it is the recoverable "no cards
// produced" outcome, so the function returns an empty slice. Candidate
// ordering is preserved from the source text; it establishes the
// user-visible card order and is deterministic for identical input.
func ParseCandidates(raw string) []Candidate {
	content := extractFencedBlock(raw)

	if candidates, ok := unmarshalCandidates(content); ok {
		return candidates
	}

	// Salvage tier: the generator often surrounds the array with prose the
	// fence heuristic did not catch. Take the outermost bracketed span.
	if span, ok := bracketedSpan(content); ok {
		if candidates, ok := unmarshalCandidates(span); ok {
			return candidates
		}
	}

	return []Candidate{}
}

// extractFencedBlock returns the contents of the first markdown code fence
// in the text, preferring a block tagged as JSON when both tagged and
// untagged fences are present. If no fence exists, the input is returned
// unchanged.
func extractFencedBlock(raw string) string {
	if inner, ok := innerFence(raw, jsonFence); ok {
		return inner
	}
	if inner, ok := innerFence(raw, bareFence); ok {
		return inner
	}
	return raw
}

// innerFence extracts the text between an opening fence marker and the next
// closing ``` marker. A fence that is opened but never closed yields the
// remainder of the text, which tolerates truncated responses.
func innerFence(raw, marker string) (string, bool) {
	start := strings.Index(raw, marker)
	if start == -1 {
		return "", false
	}

	inner := raw[start+len(marker):]
	if end := strings.Index(inner, bareFence); end != -1 {
		inner = inner[:end]
	}
	return inner, true
}

// bracketedSpan returns the span from the first '[' to the last ']' in the
// text, when such a span exists.
func bracketedSpan(text string) (string, bool) {
	start := strings.Index(text, "[")
	if start == -1 {
		return "", false
	}
	end := strings.LastIndex(text, "]")
	if end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// unmarshalCandidates attempts to parse the text as a JSON array of
// candidate objects. Array elements that are not objects are dropped rather
// than failing the whole parse; partial generator output is expected.
func unmarshalCandidates(text string) ([]Candidate, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}

	// Unmarshal into raw messages first so a single malformed element does
	// not discard its well-formed siblings.
	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &elements); err != nil {
		return nil, false
	}

	candidates := make([]Candidate, 0, len(elements))
	for _, element := range elements {
		var candidate Candidate
		if err := json.Unmarshal(element, &candidate); err != nil {
			// Not an object (e.g. a bare string or number); skip it.
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, true
}
