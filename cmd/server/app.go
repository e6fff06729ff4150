package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver

	"github.com/studydeck/studydeck-api/internal/api"
	"github.com/studydeck/studydeck-api/internal/api/middleware"
	"github.com/studydeck/studydeck-api/internal/config"
	"github.com/studydeck/studydeck-api/internal/domain/leitner"
	"github.com/studydeck/studydeck-api/internal/exam"
	"github.com/studydeck/studydeck-api/internal/platform/gemini"
	"github.com/studydeck/studydeck-api/internal/platform/postgres"
	"github.com/studydeck/studydeck-api/internal/service"
	"github.com/studydeck/studydeck-api/internal/service/auth"
	"github.com/studydeck/studydeck-api/internal/store"
	"github.com/studydeck/studydeck-api/internal/store/memory"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second

	// Finished exam sessions linger so summaries stay fetchable, then the
	// sweeper collects them.
	examSweepInterval = 10 * time.Minute
)

// application holds the wired server and the resources it owns.
type application struct {
	cfg      *config.Config
	logger   *slog.Logger
	handler  http.Handler
	registry *exam.Registry
	db       *sql.DB // nil in memory mode
}

// newApplication wires storage, services, and handlers from configuration.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	stores, txRunner, db, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	generator, err := gemini.NewGeminiGenerator(ctx, logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create card generator: %w", err)
	}

	cardService, err := service.NewCardService(stores, txRunner, generator, cfg.Generation, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create card service: %w", err)
	}
	studyService, err := service.NewStudyService(stores, txRunner, leitner.NewDefaultService(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create study service: %w", err)
	}
	deckService := service.NewDeckService(stores, txRunner, logger)

	registry := exam.NewRegistry(logger)

	router := api.NewRouter(api.RouterDeps{
		AuthHandler: api.NewAuthHandler(
			stores.Users,
			jwtService,
			auth.NewBcryptHasher(cfg.Auth.BcryptCost),
			auth.NewBcryptVerifier(),
			logger,
		),
		DeckHandler:    api.NewDeckHandler(deckService, logger),
		CardHandler:    api.NewCardHandler(cardService, logger),
		StudyHandler:   api.NewStudyHandler(studyService, logger),
		ExamHandler:    api.NewExamHandler(registry, deckService, stores.Cards, logger),
		AuthMiddleware: middleware.NewAuthMiddleware(jwtService),
	})

	return &application{
		cfg:      cfg,
		logger:   logger,
		handler:  router,
		registry: registry,
		db:       db,
	}, nil
}

// buildStores selects the storage backend. An empty database URL selects the
// in-memory store, which is intended for local development only.
func buildStores(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (store.Stores, store.TxRunner, *sql.DB, error) {
	if cfg.Database.URL == "" {
		logger.Warn("no database URL configured, using in-memory storage; data will not survive a restart")
		mem := memory.New()
		stores := store.Stores{
			Users:   mem.Users(),
			Decks:   mem.Decks(),
			Cards:   mem.Cards(),
			Reviews: mem.Reviews(),
		}
		return stores, mem, nil, nil
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return store.Stores{}, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return store.Stores{}, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := postgres.MigrateUp(db); err != nil {
		_ = db.Close()
		return store.Stores{}, nil, nil, err
	}

	stores := store.Stores{
		Users:   postgres.NewPostgresUserStore(db, logger),
		Decks:   postgres.NewPostgresDeckStore(db, logger),
		Cards:   postgres.NewPostgresCardStore(db, logger),
		Reviews: postgres.NewPostgresReviewStateStore(db, logger),
	}
	return stores, postgres.NewTxRunner(db, logger), db, nil
}

// run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (app *application) run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Server.Port),
		Handler:           app.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go app.sweepExamSessions(ctx)

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// sweepExamSessions periodically drops finished exam sessions from the
// registry so abandoned exams do not accumulate.
func (app *application) sweepExamSessions(ctx context.Context) {
	ticker := time.NewTicker(examSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := app.registry.Sweep(); removed > 0 {
				app.logger.Debug("swept exam sessions", slog.Int("removed", removed))
			}
		}
	}
}

// close releases resources the application owns.
func (app *application) close() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}
}
