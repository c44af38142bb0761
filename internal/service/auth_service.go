package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"flashquiz/internal/api"
	"flashquiz/internal/models"
	"flashquiz/internal/validation"
)

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrNoActiveSession  = errors.New("no user logged in")
)

// AuthAPI is the part of the remote API used for authentication
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (models.UserSession, string, error)
	Register(ctx context.Context, username, email, password string) (string, error)
	ForgotPassword(ctx context.Context, email, newPassword, confirmPassword string) (string, error)
	Logout(ctx context.Context) (string, error)
}

// AuthService handles authentication against the remote API and keeps the
// session store in step with it
type AuthService struct {
	api     AuthAPI
	session *SessionStore
}

// NewAuthService creates a new auth service
func NewAuthService(api AuthAPI, session *SessionStore) *AuthService {
	return &AuthService{
		api:     api,
		session: session,
	}
}

// Login authenticates with the remote API and starts a session
func (s *AuthService) Login(ctx context.Context, email, password string) (models.UserSession, error) {
	if err := validation.ValidateRequired("email", email); err != nil {
		return models.UserSession{}, err
	}
	if err := validation.ValidateRequired("password", password); err != nil {
		return models.UserSession{}, err
	}

	user, token, err := s.api.Login(ctx, email, password)
	if err != nil {
		return models.UserSession{}, fmt.Errorf("failed to login: %w", err)
	}

	if err := s.session.Login(ctx, user, token); err != nil {
		return models.UserSession{}, err
	}
	return user, nil
}

// Register creates a new account. The user still has to log in afterwards.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (string, error) {
	if err := validation.ValidateRequired("username", username); err != nil {
		return "", err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return "", err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return "", err
	}

	message, err := s.api.Register(ctx, username, email, password)
	if err != nil {
		return "", fmt.Errorf("failed to register: %w", err)
	}
	return message, nil
}

// ResetPassword sets a new password for the account with the given email
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword, confirmPassword string) (string, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return "", err
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return "", err
	}
	if newPassword != confirmPassword {
		return "", ErrPasswordMismatch
	}

	message, err := s.api.ForgotPassword(ctx, email, newPassword, confirmPassword)
	if err != nil {
		return "", fmt.Errorf("failed to reset password: %w", err)
	}
	return message, nil
}

// Logout ends the session on the server and then clears it locally.
// When the server rejects the token as expired or unauthorized the local
// session is cleared anyway, since it can no longer be used.
func (s *AuthService) Logout(ctx context.Context) (string, error) {
	if !s.session.IsAuthenticated() {
		return "", ErrNoActiveSession
	}

	message, err := s.api.Logout(ctx)
	if err != nil {
		if !errors.Is(err, ErrTokenExpired) && !api.IsUnauthorized(err) {
			return "", fmt.Errorf("failed to logout: %w", err)
		}
		log.Printf("Warning: server logout rejected, clearing local session: %v", err)
	}

	s.session.Logout(ctx)
	return message, nil
}

// UpdateProfile applies local profile edits. Name and email are validated
// when present.
func (s *AuthService) UpdateProfile(ctx context.Context, patch models.UserPatch) (models.UserSession, error) {
	if patch.Name != nil {
		if err := validation.ValidateName(*patch.Name); err != nil {
			return models.UserSession{}, err
		}
	}
	if patch.Email != nil {
		if err := validation.ValidateEmail(*patch.Email); err != nil {
			return models.UserSession{}, err
		}
	}
	return s.session.Update(ctx, patch), nil
}
