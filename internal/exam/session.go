package exam

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studydeck/studydeck-api/internal/domain"
)

// Status is the lifecycle state of an exam session.
type Status string

const (
	// StatusNotStarted is the state of a freshly created or cancelled session.
	StatusNotStarted Status = "not_started"
	// StatusInProgress means questions are being presented.
	StatusInProgress Status = "in_progress"
	// StatusFinished means the session ended, either by answering every
	// question or by running out of time. Finished sessions keep their
	// results until the registry sweeps them.
	StatusFinished Status = "finished"
)

// Session errors. ErrNotRevealed is a contract violation by the caller, not
// an expected runtime condition; the API layer maps it to 409 Conflict.
var (
	ErrAlreadyStarted = errors.New("exam session already started")
	ErrNotInProgress  = errors.New("exam session is not in progress")
	ErrNotFinished    = errors.New("exam session is not finished")
	ErrEmptyPool      = errors.New("exam card pool is empty")
	ErrNotRevealed    = errors.New("answer must be revealed before it can be graded")
)

// Result records the outcome of a single answered question.
type Result struct {
	Card    *domain.Card `json:"card"`
	Correct bool         `json:"correct"`
}

// Summary is the final report of a finished session.
type Summary struct {
	// Total is how many questions the session drew.
	Total int `json:"total"`
	// Answered is how many questions were graded before the session ended.
	// On a timeout this can be less than Total.
	Answered int `json:"answered"`
	// Correct is how many answered questions were graded correct.
	Correct int `json:"correct"`
	// Score is Correct divided by Answered. A session with no answered
	// questions scores zero.
	Score float64 `json:"score"`
	// WeakSpots lists the distinct cards answered incorrectly.
	WeakSpots []*domain.Card `json:"weak_spots"`
	// TimedOut reports whether the session ended by deadline rather than by
	// answering the last question.
	TimedOut bool `json:"timed_out"`
}

// Session is a single exam run for one user. All methods are safe for
// concurrent use; each session serializes its own state behind a mutex.
//
// The flow is Start, then for each question Reveal followed by Answer.
// Answering the last question finishes the session. Cancel aborts an
// in-progress session and returns it to the not-started state with all
// statistics discarded.
type Session struct {
	mu sync.Mutex

	id     uuid.UUID
	userID uuid.UUID

	status    Status
	cards     []*domain.Card
	current   int
	revealed  bool
	results   []Result
	timeLimit time.Duration
	startedAt time.Time
	timedOut  bool

	rng      *rand.Rand
	timeFunc func() time.Time
}

// NewSession creates a session for the given user in the not-started state.
func NewSession(userID uuid.UUID) *Session {
	return &Session{
		id:       uuid.New(),
		userID:   userID,
		status:   StatusNotStarted,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		timeFunc: time.Now,
	}
}

// ID returns the session's identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// UserID returns the owning user's identifier.
func (s *Session) UserID() uuid.UUID { return s.userID }

// Status returns the session's current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start draws the exam questions and begins the session.
//
// count is clamped to the pool size; a non-positive count uses the whole
// pool. Questions are a uniform random sample without replacement, so a
// card appears at most once per session. A zero timeLimit means no deadline.
func (s *Session) Start(pool []*domain.Card, count int, timeLimit time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusNotStarted {
		return ErrAlreadyStarted
	}
	if len(pool) == 0 {
		return ErrEmptyPool
	}

	if count <= 0 || count > len(pool) {
		count = len(pool)
	}

	drawn := make([]*domain.Card, len(pool))
	copy(drawn, pool)
	s.rng.Shuffle(len(drawn), func(i, j int) {
		drawn[i], drawn[j] = drawn[j], drawn[i]
	})

	s.cards = drawn[:count]
	s.current = 0
	s.revealed = false
	s.results = make([]Result, 0, count)
	s.timeLimit = timeLimit
	s.startedAt = s.timeFunc()
	s.timedOut = false
	s.status = StatusInProgress
	return nil
}

// Current returns the card under examination and whether its answer has been
// revealed. Returns ErrNotInProgress unless the session is in progress.
func (s *Session) Current() (*domain.Card, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusInProgress {
		return nil, false, ErrNotInProgress
	}
	return s.cards[s.current], s.revealed, nil
}

// Reveal marks the current question's answer as shown. Revealing is
// idempotent and has no effect on results or question order.
func (s *Session) Reveal() (*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusInProgress {
		return nil, ErrNotInProgress
	}
	s.revealed = true
	return s.cards[s.current], nil
}

// Answer grades the current question and advances to the next one. The
// answer must have been revealed first; grading an unrevealed question is a
// caller bug and fails with ErrNotRevealed. Answering the last question
// finishes the session.
func (s *Session) Answer(correct bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusInProgress {
		return ErrNotInProgress
	}
	if !s.revealed {
		return fmt.Errorf("question %d: %w", s.current+1, ErrNotRevealed)
	}

	s.results = append(s.results, Result{Card: s.cards[s.current], Correct: correct})
	s.current++
	s.revealed = false

	if s.current == len(s.cards) {
		s.status = StatusFinished
	}
	return nil
}

// CheckTimeout finishes the session if its deadline has passed. Timeouts are
// cooperative; nothing fires on its own, callers invoke this with the
// current time. Results gathered before the deadline are preserved. Returns
// whether the session is now timed out. Calling on a session that is not in
// progress is a no-op.
func (s *Session) CheckTimeout(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusInProgress || s.timeLimit <= 0 {
		return s.timedOut
	}
	if now.Sub(s.startedAt) >= s.timeLimit {
		s.timedOut = true
		s.status = StatusFinished
	}
	return s.timedOut
}

// Cancel aborts an in-progress session, discarding its questions and results
// and returning it to the not-started state.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusInProgress {
		return ErrNotInProgress
	}

	s.status = StatusNotStarted
	s.cards = nil
	s.results = nil
	s.current = 0
	s.revealed = false
	s.timedOut = false
	return nil
}

// Progress reports how far the session has advanced: questions answered so
// far and the total drawn.
func (s *Session) Progress() (answered, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results), len(s.cards)
}

// Summary builds the final report. Only finished sessions have one; a
// timed-out session is scored on the questions answered before the deadline.
func (s *Session) Summary() (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusFinished {
		return nil, ErrNotFinished
	}

	correct := 0
	seen := make(map[uuid.UUID]bool)
	weak := make([]*domain.Card, 0)
	for _, r := range s.results {
		if r.Correct {
			correct++
			continue
		}
		if !seen[r.Card.ID] {
			seen[r.Card.ID] = true
			weak = append(weak, r.Card)
		}
	}

	score := 0.0
	if len(s.results) > 0 {
		score = float64(correct) / float64(len(s.results))
	}

	return &Summary{
		Total:     len(s.cards),
		Answered:  len(s.results),
		Correct:   correct,
		Score:     score,
		WeakSpots: weak,
		TimedOut:  s.timedOut,
	}, nil
}
