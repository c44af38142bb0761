package service

import (
	"context"
	"errors"
	"sync"

	"flashquiz/internal/models"
	"flashquiz/internal/storage"
)

// ThemeStore holds the light/dark display preference
type ThemeStore struct {
	store          storage.Store
	onPersistError PersistErrorFunc

	mu    sync.RWMutex
	theme models.Theme
}

// NewThemeStore creates a theme store starting in light mode
func NewThemeStore(store storage.Store) *ThemeStore {
	return &ThemeStore{
		store:          store,
		onPersistError: LogPersistError,
		theme:          models.ThemeLight,
	}
}

// SetPersistErrorHandler replaces the default logging handler
func (t *ThemeStore) SetPersistErrorHandler(fn PersistErrorFunc) {
	t.onPersistError = fn
}

// Load reads the saved preference. Anything other than "dark" is light.
func (t *ThemeStore) Load(ctx context.Context) models.Theme {
	theme := models.ThemeLight

	value, err := t.store.Get(ctx, storage.KeyThemePreference)
	switch {
	case err == nil && models.Theme(value) == models.ThemeDark:
		theme = models.ThemeDark
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		t.onPersistError("get", storage.KeyThemePreference, err)
	}

	t.mu.Lock()
	t.theme = theme
	t.mu.Unlock()
	return theme
}

// Toggle flips the theme and saves it
func (t *ThemeStore) Toggle(ctx context.Context) models.Theme {
	t.mu.Lock()
	t.theme = t.theme.Toggled()
	theme := t.theme
	t.mu.Unlock()

	if err := t.store.Set(ctx, storage.KeyThemePreference, string(theme)); err != nil {
		t.onPersistError("set", storage.KeyThemePreference, err)
	}
	return theme
}

// Theme returns the current theme
func (t *ThemeStore) Theme() models.Theme {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.theme
}

// IsDark reports whether dark mode is on
func (t *ThemeStore) IsDark() bool {
	return t.Theme() == models.ThemeDark
}
