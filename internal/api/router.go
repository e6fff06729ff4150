package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/studydeck/studydeck-api/internal/api/middleware"
	"github.com/studydeck/studydeck-api/internal/api/shared"
)

// RouterDeps carries the handlers and middleware the router wires together.
type RouterDeps struct {
	AuthHandler    *AuthHandler
	DeckHandler    *DeckHandler
	CardHandler    *CardHandler
	StudyHandler   *StudyHandler
	ExamHandler    *ExamHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// NewRouter builds the HTTP route tree. Everything under /api except the
// auth endpoints requires a valid access token.
func NewRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.TraceMiddleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", deps.AuthHandler.Register)
		r.Post("/auth/login", deps.AuthHandler.Login)
		r.Post("/auth/refresh", deps.AuthHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.Authenticate)

			r.Route("/decks", func(r chi.Router) {
				r.Post("/", deps.DeckHandler.CreateDeck)
				r.Get("/", deps.DeckHandler.ListDecks)
				r.Get("/{id}", deps.DeckHandler.GetDeck)
				r.Delete("/{id}", deps.DeckHandler.DeleteDeck)
				r.Get("/{id}/cards", deps.DeckHandler.ListDeckCards)
				r.Get("/{id}/export", deps.DeckHandler.ExportDeck)
				r.Post("/{id}/generate", deps.CardHandler.GenerateCards)
			})

			r.Route("/cards", func(r chi.Router) {
				r.Get("/{id}", deps.CardHandler.GetCard)
				r.Put("/{id}", deps.CardHandler.UpdateCard)
				r.Delete("/{id}", deps.CardHandler.DeleteCard)
				r.Post("/{id}/enroll", deps.StudyHandler.Enroll)
				r.Post("/{id}/review", deps.StudyHandler.RecordOutcome)
			})

			r.Get("/reviews/due", deps.StudyHandler.DueCards)

			r.Route("/exams", func(r chi.Router) {
				r.Post("/", deps.ExamHandler.CreateExam)
				r.Get("/{id}", deps.ExamHandler.GetExam)
				r.Delete("/{id}", deps.ExamHandler.CancelExam)
				r.Post("/{id}/reveal", deps.ExamHandler.Reveal)
				r.Post("/{id}/answer", deps.ExamHandler.Answer)
				r.Get("/{id}/summary", deps.ExamHandler.Summary)
			})
		})
	})

	return r
}
