package api

import (
	"log/slog"
	"net/http"

	"github.com/studydeck/studydeck-api/internal/api/shared"
	"github.com/studydeck/studydeck-api/internal/platform/logger"
	"github.com/studydeck/studydeck-api/internal/service"
)

// GenerateCardsRequest defines the payload for the card generation endpoint.
// The source text is raw study material; extracting it from PDFs or other
// media is the client's problem.
type GenerateCardsRequest struct {
	SourceText string `json:"source_text" validate:"required,min=1"`
	CardCount  int    `json:"card_count"  validate:"gte=0,lte=50"`
	Language   string `json:"language"    validate:"max=100"`
}

// GenerateCardsResponse reports the outcome of a generation call. Created
// can be zero when the generator produced nothing usable; that is still a
// success.
type GenerateCardsResponse struct {
	DeckID    string         `json:"deck_id"`
	Created   int            `json:"created"`
	Discarded int            `json:"discarded"`
	Cards     []CardResponse `json:"cards"`
}

// UpdateCardRequest defines the payload for editing a card's text.
type UpdateCardRequest struct {
	Question string `json:"question" validate:"required,min=1"`
	Answer   string `json:"answer"   validate:"required,min=1"`
}

// CardHandler handles card-related HTTP requests.
type CardHandler struct {
	cardService service.CardService
	logger      *slog.Logger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardService service.CardService, logger *slog.Logger) *CardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CardHandler{
		cardService: cardService,
		logger:      logger.With(slog.String("component", "card_handler")),
	}
}

// GenerateCards handles POST /decks/{id}/generate. It runs the full
// pipeline: prompt the generator, parse and validate candidates, persist the
// survivors into the deck, and enroll them for study.
func (h *CardHandler) GenerateCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	deckID, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	var req GenerateCardsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	result, err := h.cardService.GenerateCards(r.Context(), service.GenerateRequest{
		UserID:     userID,
		DeckID:     deckID,
		SourceText: req.SourceText,
		CardCount:  req.CardCount,
		Language:   req.Language,
	})
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to generate cards"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("generation request completed",
		slog.String("deck_id", deckID.String()),
		slog.Int("created", len(result.Cards)),
		slog.Int("discarded", result.Discarded))

	shared.RespondWithJSON(w, r, http.StatusOK, GenerateCardsResponse{
		DeckID:    result.Deck.ID.String(),
		Created:   len(result.Cards),
		Discarded: result.Discarded,
		Cards:     cardsToResponse(result.Cards),
	})
}

// GetCard handles GET /cards/{id}.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	cardID, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	card, err := h.cardService.GetCard(r.Context(), userID, cardID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// UpdateCard handles PUT /cards/{id}.
func (h *CardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	cardID, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateCardRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	card, err := h.cardService.UpdateCardText(r.Context(), userID, cardID, req.Question, req.Answer)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// DeleteCard handles DELETE /cards/{id}.
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	cardID, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.cardService.DeleteCard(r.Context(), userID, cardID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
