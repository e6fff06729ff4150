// Package export serializes a deck's cards into formats external study tools
// can import. All exporters are pure functions over the card list; nothing
// here touches storage or review state.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/studydeck/studydeck-api/internal/domain"
)

// Format identifies a supported export format.
type Format string

const (
	// FormatAnki is semicolon-delimited CSV for Anki's text importer.
	FormatAnki Format = "anki"
	// FormatQuizlet is the JSON shape Quizlet's import tooling consumes.
	FormatQuizlet Format = "quizlet"
	// FormatText is a human-readable numbered list.
	FormatText Format = "txt"
)

// ErrUnknownFormat indicates a format string outside the supported set.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat maps a query-string value to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatAnki, FormatQuizlet, FormatText:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type to serve the format with.
func (f Format) ContentType() string {
	switch f {
	case FormatQuizlet:
		return "application/json; charset=utf-8"
	case FormatAnki:
		return "text/csv; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension for download filenames.
func (f Format) Extension() string {
	switch f {
	case FormatQuizlet:
		return "json"
	case FormatAnki:
		return "csv"
	default:
		return "txt"
	}
}

// Render serializes cards in the given format. title and lang only affect
// the Quizlet format, which carries them as metadata.
func Render(f Format, title, lang string, cards []*domain.Card) ([]byte, error) {
	switch f {
	case FormatAnki:
		return AnkiCSV(cards)
	case FormatQuizlet:
		return QuizletJSON(title, lang, cards)
	case FormatText:
		return PlainText(cards), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// AnkiCSV renders cards as semicolon-delimited question;answer rows. Anki's
// importer treats the first column as the front of the card and the second as
// the back.
func AnkiCSV(cards []*domain.Card) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	for _, card := range cards {
		if err := w.Write([]string{card.Question, card.Answer}); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// quizletDocument is the import shape Quizlet tooling expects.
type quizletDocument struct {
	Title           string        `json:"title"`
	LangTerms       string        `json:"lang_terms"`
	LangDefinitions string        `json:"lang_definitions"`
	Terms           []quizletTerm `json:"terms"`
}

type quizletTerm struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// QuizletJSON renders cards as a Quizlet import document. Questions become
// terms and answers become definitions. An empty lang falls back to "lt",
// the language the bundled prompt template was originally tuned for.
func QuizletJSON(title, lang string, cards []*domain.Card) ([]byte, error) {
	if lang == "" {
		lang = "lt"
	}

	doc := quizletDocument{
		Title:           title,
		LangTerms:       lang,
		LangDefinitions: lang,
		Terms:           make([]quizletTerm, 0, len(cards)),
	}
	for _, card := range cards {
		doc.Terms = append(doc.Terms, quizletTerm{
			Term:       card.Question,
			Definition: card.Answer,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// Keep non-ASCII text readable rather than \u-escaped.
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode Quizlet JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// PlainText renders cards as a numbered list, one question per entry with
// the answer indented beneath it.
func PlainText(cards []*domain.Card) []byte {
	var buf bytes.Buffer
	for i, card := range cards {
		fmt.Fprintf(&buf, "%d. %s\n   → %s\n\n", i+1, card.Question, card.Answer)
	}
	return buf.Bytes()
}
