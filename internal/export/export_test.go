package export_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studydeck/studydeck-api/internal/domain"
	"github.com/studydeck/studydeck-api/internal/export"
)

func testCards(t *testing.T) []*domain.Card {
	t.Helper()
	userID := uuid.New()
	deckID := uuid.New()

	first, err := domain.NewCard(userID, deckID, "Kas yra fotosintezė?", "Procesas, kurio metu augalai gamina maistą")
	require.NoError(t, err)
	second, err := domain.NewCard(userID, deckID, "What is 2+2?", "4")
	require.NoError(t, err)
	return []*domain.Card{first, second}
}

func TestAnkiCSV(t *testing.T) {
	t.Parallel()

	out, err := export.AnkiCSV(testCards(t))
	require.NoError(t, err)

	assert.Equal(t,
		"Kas yra fotosintezė?;Procesas, kurio metu augalai gamina maistą\nWhat is 2+2?;4\n",
		string(out))
}

func TestAnkiCSVQuotesDelimiter(t *testing.T) {
	t.Parallel()

	card, err := domain.NewCard(uuid.New(), uuid.New(), "a;b?", "c")
	require.NoError(t, err)

	out, err := export.AnkiCSV([]*domain.Card{card})
	require.NoError(t, err)
	assert.Equal(t, "\"a;b?\";c\n", string(out))
}

func TestQuizletJSON(t *testing.T) {
	t.Parallel()

	out, err := export.QuizletJSON("Biology", "lt", testCards(t))
	require.NoError(t, err)

	var doc struct {
		Title           string `json:"title"`
		LangTerms       string `json:"lang_terms"`
		LangDefinitions string `json:"lang_definitions"`
		Terms           []struct {
			Term       string `json:"term"`
			Definition string `json:"definition"`
		} `json:"terms"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))

	assert.Equal(t, "Biology", doc.Title)
	assert.Equal(t, "lt", doc.LangTerms)
	assert.Equal(t, "lt", doc.LangDefinitions)
	require.Len(t, doc.Terms, 2)
	assert.Equal(t, "Kas yra fotosintezė?", doc.Terms[0].Term)
	assert.Equal(t, "Procesas, kurio metu augalai gamina maistą", doc.Terms[0].Definition)
	assert.Equal(t, "What is 2+2?", doc.Terms[1].Term)

	// Non-ASCII text stays readable, not \u-escaped.
	assert.Contains(t, string(out), "fotosintezė")
}

func TestQuizletJSONDefaultsLanguage(t *testing.T) {
	t.Parallel()

	out, err := export.QuizletJSON("Untitled", "", nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"lang_terms": "lt"`)
	assert.Contains(t, string(out), `"terms": []`)
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	out := export.PlainText(testCards(t))
	assert.Equal(t,
		"1. Kas yra fotosintezė?\n   → Procesas, kurio metu augalai gamina maistą\n\n2. What is 2+2?\n   → 4\n\n",
		string(out))
}

func TestRenderDispatch(t *testing.T) {
	t.Parallel()
	cards := testCards(t)

	for _, format := range []export.Format{export.FormatAnki, export.FormatQuizlet, export.FormatText} {
		out, err := export.Render(format, "Deck", "", cards)
		require.NoError(t, err, "format %s", format)
		assert.NotEmpty(t, out)
	}

	_, err := export.Render("pdf", "Deck", "", cards)
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    export.Format
		wantErr bool
	}{
		{"anki", export.FormatAnki, false},
		{"quizlet", export.FormatQuizlet, false},
		{"txt", export.FormatText, false},
		{"", "", true},
		{"ANKI", "", true},
		{"csv", "", true},
	}
	for _, tc := range tests {
		got, err := export.ParseFormat(tc.input)
		if tc.wantErr {
			assert.ErrorIs(t, err, export.ErrUnknownFormat, "input %q", tc.input)
			continue
		}
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.want, got)
	}
}

func TestFormatMetadata(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "text/csv; charset=utf-8", export.FormatAnki.ContentType())
	assert.Equal(t, "application/json; charset=utf-8", export.FormatQuizlet.ContentType())
	assert.Equal(t, "text/plain; charset=utf-8", export.FormatText.ContentType())

	assert.Equal(t, "csv", export.FormatAnki.Extension())
	assert.Equal(t, "json", export.FormatQuizlet.Extension())
	assert.Equal(t, "txt", export.FormatText.Extension())
}
