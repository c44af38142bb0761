package service

import (
	"context"
	"fmt"

	"flashquiz/internal/models"
	"flashquiz/internal/validation"
)

// CatalogAPI is the part of the remote API serving categories and flashcards
type CatalogAPI interface {
	Categories(ctx context.Context, userID string) ([]models.Category, error)
	Questions(ctx context.Context, userID, category string) ([]models.Flashcard, error)
	CreateFlashcard(ctx context.Context, card models.Flashcard) (models.Flashcard, error)
}

// CatalogService fetches the logged-in user's categories and flashcards
type CatalogService struct {
	api      CatalogAPI
	session  *SessionStore
	progress *QuizProgressTracker
}

// NewCatalogService creates a new catalog service
func NewCatalogService(api CatalogAPI, session *SessionStore, progress *QuizProgressTracker) *CatalogService {
	return &CatalogService{
		api:      api,
		session:  session,
		progress: progress,
	}
}

// Refresh fetches the user's categories, attaches saved quiz progress to each
// and updates the session's usage stats from them
func (s *CatalogService) Refresh(ctx context.Context) ([]models.Category, error) {
	if !s.session.IsAuthenticated() {
		return nil, ErrNoActiveSession
	}

	categories, err := s.api.Categories(ctx, s.session.User().ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	for i := range categories {
		if saved, ok := s.progress.Load(ctx, categories[i].CategoryName); ok {
			categories[i].SavedProgress = saved.ProgressPercent
		}
	}

	s.session.UpdateUsageStats(ctx, DeriveUsageStats(categories))
	return categories, nil
}

// Questions fetches a category's flashcards as quiz questions
func (s *CatalogService) Questions(ctx context.Context, category string) ([]models.Question, error) {
	if !s.session.IsAuthenticated() {
		return nil, ErrNoActiveSession
	}

	cards, err := s.api.Questions(ctx, s.session.User().ID, category)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch questions: %w", err)
	}

	questions := make([]models.Question, 0, len(cards))
	for _, card := range cards {
		q := models.QuestionFromFlashcard(card)
		if q.Category == "" {
			q.Category = category
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// CreateFlashcard adds a flashcard for the logged-in user
func (s *CatalogService) CreateFlashcard(ctx context.Context, question, answer, category string) (models.Flashcard, error) {
	if err := validation.ValidateFlashcard(question, answer, category); err != nil {
		return models.Flashcard{}, err
	}
	if !s.session.IsAuthenticated() {
		return models.Flashcard{}, ErrNoActiveSession
	}

	card, err := s.api.CreateFlashcard(ctx, models.Flashcard{
		QuestionText: question,
		AnswerText:   answer,
		Category:     category,
		UserID:       s.session.User().ID,
	})
	if err != nil {
		return models.Flashcard{}, fmt.Errorf("failed to create flashcard: %w", err)
	}
	return card, nil
}

// DeriveUsageStats computes usage stats from a category listing
func DeriveUsageStats(categories []models.Category) models.UsageStats {
	stats := models.UsageStats{CategoriesCreated: len(categories)}
	for _, c := range categories {
		stats.TotalFlashcards += len(c.Flashcards)
		stats.QuizzesTaken += max(c.QuizzesTaken, 0)
	}
	return stats
}
