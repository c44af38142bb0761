package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"flashquiz/internal/models"
	"flashquiz/internal/security"
	"flashquiz/internal/storage"
)

func strPtr(s string) *string { return &s }

func TestSessionStoreLoginRestore(t *testing.T) {
	tests := []struct {
		name  string
		user  models.UserSession
		token string
	}{
		{
			name:  "id and name",
			user:  models.UserSession{ID: "42", Name: "Ana"},
			token: "tok-1",
		},
		{
			name: "every field set",
			user: models.UserSession{
				ID:           "7",
				Name:         "Bo",
				Username:     "bo7",
				Email:        "bo@example.com",
				Bio:          "likes flashcards",
				ProfileImage: "file://bo.png",
			},
			token: "tok-2",
		},
		{
			name:  "bio without image",
			user:  models.UserSession{ID: "8", Bio: "hi"},
			token: "tok-3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewMemoryStore()

			if err := NewSessionStore(store).Login(ctx, tt.user, tt.token); err != nil {
				t.Fatalf("Login() error = %v", err)
			}

			restarted := NewSessionStore(store)
			snap := restarted.Restore(ctx)
			if !reflect.DeepEqual(snap.User, tt.user) {
				t.Errorf("restored user = %+v, want %+v", snap.User, tt.user)
			}
			if snap.Token != tt.token {
				t.Errorf("restored token = %q, want %q", snap.Token, tt.token)
			}
			if !restarted.IsAuthenticated() {
				t.Error("expected restored session to be authenticated")
			}
		})
	}
}

func TestSessionStoreLoginRejectsIncompletePayload(t *testing.T) {
	tests := []struct {
		name  string
		user  models.UserSession
		token string
	}{
		{name: "missing id", user: models.UserSession{Name: "Ana"}, token: "tok-1"},
		{name: "missing token", user: models.UserSession{ID: "42"}, token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := storage.NewMemoryStore()
			s := NewSessionStore(store)

			err := s.Login(ctx, tt.user, tt.token)
			if !errors.Is(err, ErrInvalidLogin) {
				t.Fatalf("Login() error = %v, want ErrInvalidLogin", err)
			}
			if s.User() != models.DefaultUserSession() {
				t.Errorf("user changed to %+v", s.User())
			}
			if s.AuthToken() != "" {
				t.Errorf("token changed to %q", s.AuthToken())
			}
			if store.Len() != 0 {
				t.Errorf("store has %d entries, want 0", store.Len())
			}
		})
	}
}

func TestSessionStoreLogoutRestoresDefaults(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	s := NewSessionStore(store)

	user := models.UserSession{ID: "42", Name: "Ana", Bio: "bio", ProfileImage: "file://a.png"}
	if err := s.Login(ctx, user, "tok-1"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	s.UpdateUsageStats(ctx, models.UsageStats{TotalFlashcards: 3, QuizzesTaken: 2, CategoriesCreated: 1})

	s.Logout(ctx)

	if s.IsAuthenticated() {
		t.Error("expected logged out session")
	}
	if store.Len() != 0 {
		t.Errorf("store has %d entries after logout, want 0", store.Len())
	}

	snap := NewSessionStore(store).Restore(ctx)
	if snap.User != models.DefaultUserSession() {
		t.Errorf("restored user = %+v, want defaults", snap.User)
	}
	if snap.Token != "" {
		t.Errorf("restored token = %q, want empty", snap.Token)
	}
	if snap.Stats != (models.UsageStats{}) {
		t.Errorf("restored stats = %+v, want zero", snap.Stats)
	}
}

func TestSessionStoreLogoutKeepsUnrelatedEntries(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	_ = store.Set(ctx, storage.KeyThemePreference, "dark")
	_ = store.Set(ctx, storage.ProgressKey("Banking"), `{"currentQuestionIndex":1,"correctAnswers":1,"progress":50}`)

	s := NewSessionStore(store)
	_ = s.Login(ctx, models.UserSession{ID: "42"}, "tok-1")
	s.Logout(ctx)

	if store.Len() != 2 {
		t.Errorf("store has %d entries, want theme and progress to remain", store.Len())
	}
}

func TestSessionStoreUpdateBioOverridesBulkRecord(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	s := NewSessionStore(store)
	_ = s.Login(ctx, models.UserSession{ID: "42", Name: "Ana", Bio: "old"}, "tok-1")

	// Bulk record written by an older build, still carrying the old bio.
	_ = store.Set(ctx, storage.KeyUser, `{"id":"42","name":"Ana","bio":"old"}`)
	_ = store.Set(ctx, storage.KeyBio, "x")

	snap := NewSessionStore(store).Restore(ctx)
	if snap.User.Bio != "x" {
		t.Errorf("restored bio = %q, want %q", snap.User.Bio, "x")
	}

	updated := s.Update(ctx, models.UserPatch{Bio: strPtr("y")})
	if updated.Bio != "y" || updated.Name != "Ana" {
		t.Errorf("Update() = %+v, want bio y and name kept", updated)
	}
	snap = NewSessionStore(store).Restore(ctx)
	if snap.User.Bio != "y" {
		t.Errorf("restored bio after update = %q, want %q", snap.User.Bio, "y")
	}
}

func TestSessionStoreUpdateProfileImage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	s := NewSessionStore(store)
	_ = s.Login(ctx, models.UserSession{ID: "42", Name: "Ana"}, "tok-1")

	s.UpdateProfileImage(ctx, "file://x.png")

	image, err := store.Get(ctx, storage.KeyProfileImage)
	if err != nil || image != "file://x.png" {
		t.Errorf("profile image entry = %q, %v", image, err)
	}
	var bulk models.UserSession
	if _, err := storage.LoadJSON(ctx, store, storage.KeyUser, &bulk); err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}
	if bulk.ProfileImage != "file://x.png" {
		t.Errorf("bulk record image = %q, want file://x.png", bulk.ProfileImage)
	}

	snap := NewSessionStore(store).Restore(ctx)
	if snap.User.ProfileImage != "file://x.png" {
		t.Errorf("restored image = %q", snap.User.ProfileImage)
	}
	if snap.User.Name != "Ana" {
		t.Errorf("restored name = %q, want Ana", snap.User.Name)
	}
}

func TestSessionStoreClearingBioRemovesEntry(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	s := NewSessionStore(store)
	_ = s.Login(ctx, models.UserSession{ID: "42", Bio: "old"}, "tok-1")

	s.Update(ctx, models.UserPatch{Bio: strPtr("")})

	if _, err := store.Get(ctx, storage.KeyBio); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("bio entry still present, err = %v", err)
	}
	if snap := NewSessionStore(store).Restore(ctx); snap.User.Bio != "" {
		t.Errorf("restored bio = %q, want empty", snap.User.Bio)
	}
}

func TestSessionStoreRestoreFailsSoftly(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(f *faultyStore)
		wantUser  models.UserSession
		wantToken string
		wantEvent string
	}{
		{
			name: "unparsable user record",
			setup: func(f *faultyStore) {
				_ = f.MemoryStore.Set(context.Background(), storage.KeyUser, "{not json")
				_ = f.MemoryStore.Set(context.Background(), storage.KeyToken, "tok-1")
			},
			wantUser:  models.DefaultUserSession(),
			wantToken: "tok-1",
			wantEvent: "decode userData",
		},
		{
			name: "token read fails",
			setup: func(f *faultyStore) {
				_ = f.MemoryStore.Set(context.Background(), storage.KeyUser, `{"id":"42","name":"Ana"}`)
				_ = f.MemoryStore.Set(context.Background(), storage.KeyToken, "tok-1")
				f.failGet[storage.KeyToken] = true
			},
			wantUser:  models.UserSession{ID: "42", Name: "Ana"},
			wantToken: "",
			wantEvent: "get userToken",
		},
		{
			name: "every read fails",
			setup: func(f *faultyStore) {
				f.failAll = true
			},
			wantUser:  models.DefaultUserSession(),
			wantToken: "",
			wantEvent: "get profileImage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFaultyStore()
			tt.setup(store)
			events := &persistErrors{}

			s := NewSessionStore(store, WithSessionPersistErrorHandler(events.record))
			if s.IsRestored() {
				t.Fatal("IsRestored() = true before Restore")
			}
			snap := s.Restore(context.Background())

			if snap.User != tt.wantUser {
				t.Errorf("user = %+v, want %+v", snap.User, tt.wantUser)
			}
			if snap.Token != tt.wantToken {
				t.Errorf("token = %q, want %q", snap.Token, tt.wantToken)
			}
			if !events.has(tt.wantEvent) {
				t.Errorf("events = %v, want %q", events.list(), tt.wantEvent)
			}
			select {
			case <-s.Restored():
			default:
				t.Error("Restored() not closed after Restore")
			}
		})
	}
}

func TestSessionStoreRestoreTwice(t *testing.T) {
	s := NewSessionStore(storage.NewMemoryStore())
	s.Restore(context.Background())
	s.Restore(context.Background())
	if !s.IsRestored() {
		t.Error("IsRestored() = false")
	}
}

func TestSessionStoreWriteFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore()
	store.failAll = true
	events := &persistErrors{}
	s := NewSessionStore(store, WithSessionPersistErrorHandler(events.record))

	user := models.UserSession{ID: "42", Name: "Ana", Bio: "b"}
	if err := s.Login(ctx, user, "tok-1"); err != nil {
		t.Fatalf("Login() error = %v, want nil on write failure", err)
	}
	if s.User() != user || s.AuthToken() != "tok-1" {
		t.Errorf("in-memory session = %+v %q", s.User(), s.AuthToken())
	}
	for _, want := range []string{"set userData", "set userToken", "set bio", "remove profileImage"} {
		if !events.has(want) {
			t.Errorf("missing event %q in %v", want, events.list())
		}
	}

	s.Logout(ctx)
	if s.IsAuthenticated() {
		t.Error("logout did not clear memory state")
	}
	if !events.has("remove userToken") {
		t.Errorf("missing remove event in %v", events.list())
	}
}

func TestSessionStoreUsageStats(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	s := NewSessionStore(store)

	s.UpdateUsageStats(ctx, models.UsageStats{TotalFlashcards: 10, QuizzesTaken: -1, CategoriesCreated: 2})

	want := models.UsageStats{TotalFlashcards: 10, QuizzesTaken: 0, CategoriesCreated: 2}
	if s.Stats() != want {
		t.Errorf("Stats() = %+v, want %+v", s.Stats(), want)
	}
	if snap := NewSessionStore(store).Restore(ctx); snap.Stats != want {
		t.Errorf("restored stats = %+v, want %+v", snap.Stats, want)
	}
}

func TestSessionStoreSealedToken(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	sealer, err := security.NewTokenSealer("local-secret")
	if err != nil {
		t.Fatalf("NewTokenSealer() error = %v", err)
	}

	s := NewSessionStore(store, WithTokenSealer(sealer))
	if err := s.Login(ctx, models.UserSession{ID: "42"}, "tok-1"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	raw, _ := store.Get(ctx, storage.KeyToken)
	if raw == "tok-1" || strings.Contains(raw, "tok-1") {
		t.Errorf("token stored in plaintext: %q", raw)
	}

	if snap := NewSessionStore(store, WithTokenSealer(sealer)).Restore(ctx); snap.Token != "tok-1" {
		t.Errorf("restored token = %q, want tok-1", snap.Token)
	}

	other, _ := security.NewTokenSealer("other-secret")
	events := &persistErrors{}
	snap := NewSessionStore(store, WithTokenSealer(other), WithSessionPersistErrorHandler(events.record)).Restore(ctx)
	if snap.Token != "" {
		t.Errorf("token opened with wrong secret: %q", snap.Token)
	}
	if !events.has("decode userToken") {
		t.Errorf("events = %v, want decode userToken", events.list())
	}
}

func TestSessionStoreToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sign := func(exp time.Time) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		})
		signed, err := token.SignedString([]byte("server-secret"))
		if err != nil {
			t.Fatalf("SignedString() error = %v", err)
		}
		return signed
	}

	tests := []struct {
		name       string
		token      string
		wantErr    error
		wantExpiry bool
	}{
		{name: "logged out", token: "", wantErr: ErrNotAuthenticated},
		{name: "opaque token", token: "tok-1"},
		{name: "unexpired jwt", token: sign(now.Add(time.Hour)), wantExpiry: true},
		{name: "expired jwt", token: sign(now.Add(-time.Hour)), wantErr: ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSessionStore(storage.NewMemoryStore())
			s.now = func() time.Time { return now }
			if tt.token != "" {
				if err := s.Login(context.Background(), models.UserSession{ID: "42"}, tt.token); err != nil {
					t.Fatalf("Login() error = %v", err)
				}
			}

			tok, err := s.Token()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Token() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Token() error = %v", err)
			}
			if tok.AccessToken != tt.token || tok.TokenType != "Bearer" {
				t.Errorf("Token() = %+v", tok)
			}
			if tok.Expiry.IsZero() == tt.wantExpiry {
				t.Errorf("Token().Expiry = %v, want set=%v", tok.Expiry, tt.wantExpiry)
			}
		})
	}
}
