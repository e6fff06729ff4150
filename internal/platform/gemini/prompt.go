package gemini

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/studydeck/studydeck-api/internal/generation"
)

// defaultPromptTemplate instructs the model to answer with a bare JSON
// array. The model routinely wraps it in a markdown fence anyway, which is
// why the response goes through generation.ParseCandidates rather than a
// plain json.Unmarshal.
const defaultPromptTemplate = `You are a flashcard author helping a student study.

Create exactly {{.CardCount}} flashcards from the study material below.
Write the flashcards in {{.Language}}.

Rules:
- Each flashcard is one JSON object with the keys "question" and "answer".
- Questions must be answerable from the material alone.
- Keep answers short and factual.
- Respond with ONLY a JSON array of these objects. No commentary, no markdown.

Study material:
{{.SourceText}}`

// promptData is the payload applied to the prompt template.
type promptData struct {
	SourceText string
	CardCount  int
	Language   string
}

// buildPrompt renders the prompt for one generation request.
func buildPrompt(tmpl *template.Template, req generation.Request) (string, error) {
	if req.SourceText == "" {
		return "", generation.ErrEmptySourceText
	}

	language := req.Language
	if language == "" {
		language = "the same language as the study material"
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, promptData{
		SourceText: req.SourceText,
		CardCount:  req.CardCount,
		Language:   language,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return buf.String(), nil
}
