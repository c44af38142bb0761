package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"flashquiz/internal/models"
	"flashquiz/internal/security"
	"flashquiz/internal/storage"
)

var (
	ErrInvalidLogin     = errors.New("login requires a user id and an auth token")
	ErrNotAuthenticated = errors.New("not logged in")
	ErrTokenExpired     = errors.New("auth token expired")
)

// SessionSnapshot is the session state at one point in time
type SessionSnapshot struct {
	User  models.UserSession
	Token string
	Stats models.UsageStats
}

// SessionStore owns the authenticated user's profile, auth token and usage
// stats, and keeps them in local storage across restarts.
//
// Writes to storage are best-effort: failures go to the PersistErrorFunc and
// never roll back in-memory state. Overlapping calls are not serialized
// against each other in storage; the last write to complete wins.
type SessionStore struct {
	store          storage.Store
	sealer         *security.TokenSealer
	onPersistError PersistErrorFunc
	now            func() time.Time

	mu    sync.RWMutex
	user  models.UserSession
	token string
	stats models.UsageStats

	restoreOnce sync.Once
	restored    chan struct{}
}

// SessionOption configures a SessionStore
type SessionOption func(*SessionStore)

// WithTokenSealer encrypts the auth token before it is written to storage
func WithTokenSealer(sealer *security.TokenSealer) SessionOption {
	return func(s *SessionStore) { s.sealer = sealer }
}

// WithSessionPersistErrorHandler replaces the default logging handler
func WithSessionPersistErrorHandler(fn PersistErrorFunc) SessionOption {
	return func(s *SessionStore) { s.onPersistError = fn }
}

// NewSessionStore creates a session store holding the default placeholder user
func NewSessionStore(store storage.Store, opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		store:          store,
		onPersistError: LogPersistError,
		now:            time.Now,
		user:           models.DefaultUserSession(),
		restored:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the persisted session. A persisted user record replaces the
// defaults wholesale. Read and decode failures are reported and treated as
// nothing persisted for that entry; Restore never fails.
// The separately persisted profile image and bio take precedence over the
// copies inside the bulk user record.
func (s *SessionStore) Restore(ctx context.Context) SessionSnapshot {
	defer s.restoreOnce.Do(func() { close(s.restored) })

	snap := SessionSnapshot{User: models.DefaultUserSession()}

	if raw, ok := s.read(ctx, storage.KeyToken); ok {
		snap.Token = s.openToken(raw)
	}

	var user models.UserSession
	if s.readJSON(ctx, storage.KeyUser, &user) && user.ID != "" {
		snap.User = user
	}

	if image, ok := s.read(ctx, storage.KeyProfileImage); ok && image != "" {
		snap.User.ProfileImage = image
	}
	if bio, ok := s.read(ctx, storage.KeyBio); ok && bio != "" {
		snap.User.Bio = bio
	}

	var stats models.UsageStats
	if s.readJSON(ctx, storage.KeyUsageStats, &stats) {
		snap.Stats = clampStats(stats)
	}

	s.mu.Lock()
	s.user = snap.User
	s.token = snap.Token
	s.stats = snap.Stats
	s.mu.Unlock()

	return snap
}

// Restored is closed once the first Restore call has finished
func (s *SessionStore) Restored() <-chan struct{} {
	return s.restored
}

// IsRestored reports whether Restore has finished, distinguishing "still
// restoring" from "restored to empty"
func (s *SessionStore) IsRestored() bool {
	select {
	case <-s.restored:
		return true
	default:
		return false
	}
}

// Login replaces the session wholesale with user and authToken and persists them.
// It fails without changing anything if user has no id or authToken is empty.
func (s *SessionStore) Login(ctx context.Context, user models.UserSession, authToken string) error {
	if user.ID == "" || authToken == "" {
		return ErrInvalidLogin
	}

	s.mu.Lock()
	s.user = user
	s.token = authToken
	s.mu.Unlock()

	s.persistUser(ctx, user)

	value := authToken
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(authToken)
		if err != nil {
			s.onPersistError("set", storage.KeyToken, err)
			return nil
		}
		value = sealed
	}
	s.write(ctx, storage.KeyToken, value)
	return nil
}

// Update merges patch onto the current user and persists the result
func (s *SessionStore) Update(ctx context.Context, patch models.UserPatch) models.UserSession {
	s.mu.Lock()
	s.user = s.user.Apply(patch)
	user := s.user
	s.mu.Unlock()

	s.persistUser(ctx, user)
	return user
}

// UpdateProfileImage sets the profile image. Both the separate profile image
// entry and the bulk user record are written before it returns.
func (s *SessionStore) UpdateProfileImage(ctx context.Context, uri string) models.UserSession {
	return s.Update(ctx, models.UserPatch{ProfileImage: &uri})
}

// UpdateUsageStats replaces the usage stats wholesale and persists them.
// Negative counts are stored as zero.
func (s *SessionStore) UpdateUsageStats(ctx context.Context, stats models.UsageStats) {
	stats = clampStats(stats)

	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()

	if err := storage.SaveJSON(ctx, s.store, storage.KeyUsageStats, stats); err != nil {
		s.onPersistError("set", storage.KeyUsageStats, err)
	}
}

// Logout resets the session to defaults and removes every persisted session entry
func (s *SessionStore) Logout(ctx context.Context) {
	s.mu.Lock()
	s.user = models.DefaultUserSession()
	s.token = ""
	s.stats = models.UsageStats{}
	s.mu.Unlock()

	for _, key := range []string{storage.KeyToken, storage.KeyUser, storage.KeyProfileImage, storage.KeyBio, storage.KeyUsageStats} {
		s.remove(ctx, key)
	}
}

// Snapshot returns the current in-memory session
func (s *SessionStore) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionSnapshot{User: s.user, Token: s.token, Stats: s.stats}
}

// User returns the current user
func (s *SessionStore) User() models.UserSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Stats returns the current usage stats
func (s *SessionStore) Stats() models.UsageStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// AuthToken returns the current auth token, or "" when logged out
func (s *SessionStore) AuthToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether a token is held
func (s *SessionStore) IsAuthenticated() bool {
	return s.AuthToken() != ""
}

// Token implements oauth2.TokenSource so API calls carry the session's
// bearer token. A JWT whose exp claim has passed is reported as expired.
func (s *SessionStore) Token() (*oauth2.Token, error) {
	token := s.AuthToken()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	t := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
	if expiry, ok := security.TokenExpiry(token); ok {
		if !s.now().Before(expiry) {
			return nil, fmt.Errorf("%w at %s", ErrTokenExpired, expiry.Format(time.RFC3339))
		}
		t.Expiry = expiry
	}
	return t, nil
}

// persistUser writes the bulk user record plus the separate profile image and
// bio entries. An empty image or bio removes the separate entry so a stale
// value cannot override the bulk record on the next restore.
func (s *SessionStore) persistUser(ctx context.Context, user models.UserSession) {
	if err := storage.SaveJSON(ctx, s.store, storage.KeyUser, user); err != nil {
		s.onPersistError("set", storage.KeyUser, err)
	}

	if user.ProfileImage != "" {
		s.write(ctx, storage.KeyProfileImage, user.ProfileImage)
	} else {
		s.remove(ctx, storage.KeyProfileImage)
	}

	if user.Bio != "" {
		s.write(ctx, storage.KeyBio, user.Bio)
	} else {
		s.remove(ctx, storage.KeyBio)
	}
}

func (s *SessionStore) openToken(raw string) string {
	if s.sealer == nil {
		return raw
	}
	token, err := s.sealer.Open(raw)
	if err != nil {
		s.onPersistError("decode", storage.KeyToken, err)
		return ""
	}
	return token
}

func (s *SessionStore) read(ctx context.Context, key string) (string, bool) {
	value, err := s.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false
	}
	if err != nil {
		s.onPersistError("get", key, err)
		return "", false
	}
	return value, true
}

func (s *SessionStore) readJSON(ctx context.Context, key string, v interface{}) bool {
	raw, ok := s.read(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.onPersistError("decode", key, err)
		return false
	}
	return true
}

func (s *SessionStore) write(ctx context.Context, key, value string) {
	if err := s.store.Set(ctx, key, value); err != nil {
		s.onPersistError("set", key, err)
	}
}

func (s *SessionStore) remove(ctx context.Context, key string) {
	if err := s.store.Remove(ctx, key); err != nil {
		s.onPersistError("remove", key, err)
	}
}

func clampStats(stats models.UsageStats) models.UsageStats {
	stats.TotalFlashcards = max(stats.TotalFlashcards, 0)
	stats.QuizzesTaken = max(stats.QuizzesTaken, 0)
	stats.CategoriesCreated = max(stats.CategoriesCreated, 0)
	return stats
}
