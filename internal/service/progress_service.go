package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"flashquiz/internal/models"
	"flashquiz/internal/storage"
)

var errInvalidProgress = errors.New("invalid quiz progress")

// QuizProgressTracker persists resumable quiz progress, one entry per category
type QuizProgressTracker struct {
	store          storage.Store
	scope          string
	onPersistError PersistErrorFunc
}

// ProgressOption configures a QuizProgressTracker
type ProgressOption func(*QuizProgressTracker)

// WithProgressScope prefixes every category key with a user id so accounts
// sharing a device do not see each other's progress
func WithProgressScope(userID string) ProgressOption {
	return func(t *QuizProgressTracker) { t.scope = userID }
}

// WithProgressPersistErrorHandler replaces the default logging handler
func WithProgressPersistErrorHandler(fn PersistErrorFunc) ProgressOption {
	return func(t *QuizProgressTracker) { t.onPersistError = fn }
}

// NewQuizProgressTracker creates a new tracker
func NewQuizProgressTracker(store storage.Store, opts ...ProgressOption) *QuizProgressTracker {
	t := &QuizProgressTracker{
		store:          store,
		onPersistError: LogPersistError,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Key returns the storage key used for a category
func (t *QuizProgressTracker) Key(category string) string {
	if t.scope == "" {
		return storage.ProgressKey(category)
	}
	return storage.ProgressKey(t.scope + "/" + category)
}

// Load returns the saved progress for a category. ok is false when nothing
// was saved or the saved entry cannot be used; the caller starts fresh.
func (t *QuizProgressTracker) Load(ctx context.Context, category string) (progress models.QuizProgress, ok bool) {
	key := t.Key(category)

	raw, err := t.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return models.QuizProgress{}, false
	}
	if err != nil {
		t.onPersistError("get", key, err)
		return models.QuizProgress{}, false
	}
	if err := json.Unmarshal([]byte(raw), &progress); err != nil {
		t.onPersistError("decode", key, err)
		return models.QuizProgress{}, false
	}

	if err := validateProgress(progress); err != nil {
		t.onPersistError("decode", key, err)
		return models.QuizProgress{}, false
	}
	return progress, true
}

// Save overwrites the saved progress for a category
func (t *QuizProgressTracker) Save(ctx context.Context, category string, progress models.QuizProgress) {
	key := t.Key(category)
	if err := storage.SaveJSON(ctx, t.store, key, progress); err != nil {
		t.onPersistError("set", key, err)
	}
}

// Reset removes the saved progress for a category
func (t *QuizProgressTracker) Reset(ctx context.Context, category string) {
	key := t.Key(category)
	if err := t.store.Remove(ctx, key); err != nil {
		t.onPersistError("remove", key, err)
	}
}

func validateProgress(p models.QuizProgress) error {
	switch {
	case p.CurrentQuestionIndex < 0:
		return fmt.Errorf("%w: negative question index %d", errInvalidProgress, p.CurrentQuestionIndex)
	case p.CorrectAnswers < 0:
		return fmt.Errorf("%w: negative correct answers %d", errInvalidProgress, p.CorrectAnswers)
	case math.IsNaN(p.ProgressPercent) || p.ProgressPercent < 0 || p.ProgressPercent > 100:
		return fmt.Errorf("%w: percent %v out of range", errInvalidProgress, p.ProgressPercent)
	}
	return nil
}
