package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/studydeck/studydeck-api/internal/api/shared"
	"github.com/studydeck/studydeck-api/internal/domain"
	"github.com/studydeck/studydeck-api/internal/domain/leitner"
	"github.com/studydeck/studydeck-api/internal/platform/logger"
	"github.com/studydeck/studydeck-api/internal/service"
)

// RecordReviewRequest defines the payload for recording a study outcome.
// Difficulty is the self-assessed recall grade on the 1..5 Leitner scale.
type RecordReviewRequest struct {
	Difficulty int `json:"difficulty" validate:"required,min=1,max=5"`
}

// ReviewStateResponse represents a card's scheduling state.
type ReviewStateResponse struct {
	CardID        string    `json:"card_id"`
	Difficulty    int       `json:"difficulty"`
	NextReviewAt  time.Time `json:"next_review_at"`
	TimesReviewed int       `json:"times_reviewed"`
	Mastered      bool      `json:"mastered"`
}

// DueCardResponse pairs a due card with its scheduling state.
type DueCardResponse struct {
	Card  CardResponse        `json:"card"`
	State ReviewStateResponse `json:"state"`
}

// stateToResponse converts a domain.ReviewState to a ReviewStateResponse.
func stateToResponse(state *domain.ReviewState) ReviewStateResponse {
	return ReviewStateResponse{
		CardID:        state.CardID.String(),
		Difficulty:    state.Difficulty,
		NextReviewAt:  state.NextReviewAt,
		TimesReviewed: state.TimesReviewed,
		Mastered:      state.Mastered(),
	}
}

// StudyHandler handles spaced repetition study HTTP requests.
type StudyHandler struct {
	studyService service.StudyService
	logger       *slog.Logger
	timeFunc     func() time.Time
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(studyService service.StudyService, logger *slog.Logger) *StudyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StudyHandler{
		studyService: studyService,
		logger:       logger.With(slog.String("component", "study_handler")),
		timeFunc:     time.Now,
	}
}

// DueCards handles GET /reviews/due. Due is date-granular: a card scheduled
// for any time today is included regardless of the hour.
func (h *StudyHandler) DueCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	due, err := h.studyService.DueCards(r.Context(), userID, h.timeFunc())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]DueCardResponse, 0, len(due))
	for _, d := range due {
		out = append(out, DueCardResponse{
			Card:  cardToResponse(d.Card),
			State: stateToResponse(d.State),
		})
	}

	log.Debug("listed due cards",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(out)))
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// Enroll handles POST /cards/{id}/enroll. Enrolling an already enrolled card
// is a no-op success; the existing schedule is preserved.
func (h *StudyHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	cardID, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.studyService.Enroll(r.Context(), userID, cardID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecordOutcome handles POST /cards/{id}/review. It grades a review and
// reschedules the card. The card must already be enrolled.
func (h *StudyHandler) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	cardID, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	var req RecordReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	state, err := h.studyService.RecordOutcome(r.Context(), userID, cardID, req.Difficulty)
	if err != nil {
		// The validate tags already bound difficulty to 1..5; the scheduler
		// rejecting it anyway means the payload slipped past validation.
		if errors.Is(err, leitner.ErrInvalidDifficulty) {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid difficulty", err)
			return
		}
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stateToResponse(state))
}
