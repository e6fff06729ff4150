package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/studydeck/studydeck-api/internal/api/shared"
	"github.com/studydeck/studydeck-api/internal/domain"
	"github.com/studydeck/studydeck-api/internal/exam"
	"github.com/studydeck/studydeck-api/internal/platform/logger"
	"github.com/studydeck/studydeck-api/internal/service"
	"github.com/studydeck/studydeck-api/internal/store"
)

// CreateExamRequest defines the payload for starting an exam. An absent
// DeckID draws questions from all of the user's cards. A zero or absent
// TimeLimitSeconds means the exam has no deadline.
type CreateExamRequest struct {
	DeckID           *uuid.UUID `json:"deck_id"`
	Count            int        `json:"count"              validate:"gte=0,lte=500"`
	TimeLimitSeconds int        `json:"time_limit_seconds" validate:"gte=0,lte=86400"`
}

// AnswerRequest defines the payload for grading the current exam question.
type AnswerRequest struct {
	Correct *bool `json:"correct" validate:"required"`
}

// ExamQuestion is the current question shown to the examinee. The answer is
// present only after it has been revealed.
type ExamQuestion struct {
	CardID   string `json:"card_id"`
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
}

// ExamResponse represents an exam session's visible state.
type ExamResponse struct {
	ID       string        `json:"id"`
	Status   exam.Status   `json:"status"`
	Answered int           `json:"answered"`
	Total    int           `json:"total"`
	Question *ExamQuestion `json:"question,omitempty"`
}

// ExamSummaryResponse is the final report of a finished exam.
type ExamSummaryResponse struct {
	Total     int            `json:"total"`
	Answered  int            `json:"answered"`
	Correct   int            `json:"correct"`
	Score     float64        `json:"score"`
	TimedOut  bool           `json:"timed_out"`
	WeakSpots []CardResponse `json:"weak_spots"`
}

// ExamHandler handles exam session HTTP requests. Sessions live in the
// in-memory registry only; they do not survive a restart and never touch
// review scheduling.
type ExamHandler struct {
	registry    *exam.Registry
	deckService service.DeckService
	cardStore   store.CardStore
	logger      *slog.Logger
	timeFunc    func() time.Time
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(
	registry *exam.Registry,
	deckService service.DeckService,
	cardStore store.CardStore,
	logger *slog.Logger,
) *ExamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExamHandler{
		registry:    registry,
		deckService: deckService,
		cardStore:   cardStore,
		logger:      logger.With(slog.String("component", "exam_handler")),
		timeFunc:    time.Now,
	}
}

// CreateExam handles POST /exams. The session starts immediately; the
// response carries the first question, unrevealed.
func (h *ExamHandler) CreateExam(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateExamRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	pool, err := h.examPool(r, userID, req.DeckID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	session := h.registry.Create(userID)
	if err := session.Start(pool, req.Count, time.Duration(req.TimeLimitSeconds)*time.Second); err != nil {
		// Leave no orphaned session behind on a failed start.
		_ = h.registry.Remove(session.ID(), userID)
		respondServiceError(w, r, err)
		return
	}

	log.Info("exam started",
		slog.String("session_id", session.ID().String()),
		slog.String("user_id", userID.String()),
		slog.Int("pool_size", len(pool)),
		slog.Int("time_limit_seconds", req.TimeLimitSeconds))

	shared.RespondWithJSON(w, r, http.StatusCreated, h.stateResponse(session))
}

// GetExam handles GET /exams/{id}. Each poll also checks the deadline, so a
// client that keeps polling observes the timeout transition.
func (h *ExamHandler) GetExam(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	session.CheckTimeout(h.timeFunc())
	shared.RespondWithJSON(w, r, http.StatusOK, h.stateResponse(session))
}

// Reveal handles POST /exams/{id}/reveal. The response carries the current
// question with its answer visible.
func (h *ExamHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	session.CheckTimeout(h.timeFunc())
	if _, err := session.Reveal(); err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, h.stateResponse(session))
}

// Answer handles POST /exams/{id}/answer. The current question must have
// been revealed first.
func (h *ExamHandler) Answer(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	session.CheckTimeout(h.timeFunc())
	if err := session.Answer(*req.Correct); err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, h.stateResponse(session))
}

// CancelExam handles DELETE /exams/{id}. Cancelling discards all statistics
// and drops the session from the registry.
func (h *ExamHandler) CancelExam(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	sessionID, ok := requirePathUUID(w, r, "id")
	if !ok {
		return
	}

	session, err := h.registry.Get(sessionID, userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	// A session that already finished or never started has nothing to
	// cancel; dropping it from the registry is still the right outcome.
	if err := session.Cancel(); err != nil && !errors.Is(err, exam.ErrNotInProgress) {
		respondServiceError(w, r, err)
		return
	}
	if err := h.registry.Remove(sessionID, userID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	log.Info("exam cancelled",
		slog.String("session_id", sessionID.String()),
		slog.String("user_id", userID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /exams/{id}/summary. Only finished sessions have one.
func (h *ExamHandler) Summary(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	session.CheckTimeout(h.timeFunc())
	summary, err := session.Summary()
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ExamSummaryResponse{
		Total:     summary.Total,
		Answered:  summary.Answered,
		Correct:   summary.Correct,
		Score:     summary.Score,
		TimedOut:  summary.TimedOut,
		WeakSpots: cardsToResponse(summary.WeakSpots),
	})
}

// requireSession resolves the {id} path parameter to one of the caller's
// sessions or writes an error response.
func (h *ExamHandler) requireSession(w http.ResponseWriter, r *http.Request) (*exam.Session, bool) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return nil, false
	}
	sessionID, ok := requirePathUUID(w, r, "id")
	if !ok {
		return nil, false
	}

	session, err := h.registry.Get(sessionID, userID)
	if err != nil {
		respondServiceError(w, r, err)
		return nil, false
	}
	return session, true
}

// examPool loads the cards an exam draws from: one deck's cards when a deck
// is named, otherwise everything the user owns.
func (h *ExamHandler) examPool(r *http.Request, userID uuid.UUID, deckID *uuid.UUID) ([]*domain.Card, error) {
	if deckID != nil {
		return h.deckService.ListDeckCards(r.Context(), userID, *deckID)
	}
	return h.cardStore.ListByUser(r.Context(), userID)
}

// stateResponse builds the visible state of a session, including the
// current question while one is being presented.
func (h *ExamHandler) stateResponse(session *exam.Session) ExamResponse {
	answered, total := session.Progress()
	resp := ExamResponse{
		ID:       session.ID().String(),
		Status:   session.Status(),
		Answered: answered,
		Total:    total,
	}

	if card, revealed, err := session.Current(); err == nil {
		question := &ExamQuestion{
			CardID:   card.ID.String(),
			Question: card.Question,
		}
		if revealed {
			question.Answer = card.Answer
		}
		resp.Question = question
	}
	return resp
}
