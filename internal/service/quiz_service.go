package service

import (
	"context"
	"errors"
	"strings"

	"flashquiz/internal/models"
)

var (
	ErrNoQuestions   = errors.New("category has no questions")
	ErrQuizCompleted = errors.New("quiz already completed")
)

// AnswerResult describes the outcome of one submitted answer
type AnswerResult struct {
	Correct   bool
	Completed bool
	Expected  string
	Progress  models.QuizProgress
}

// QuizRunner drives a quiz over one category's questions, saving progress
// after every correct answer. A wrong answer changes nothing. It is not safe
// for concurrent use.
type QuizRunner struct {
	category  string
	questions []models.Question
	tracker   *QuizProgressTracker
	state     models.QuizProgress
}

// NewQuizRunner creates a quiz runner for a category
func NewQuizRunner(category string, questions []models.Question, tracker *QuizProgressTracker) (*QuizRunner, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return &QuizRunner{
		category:  category,
		questions: questions,
		tracker:   tracker,
	}, nil
}

// Start resumes saved progress, or starts fresh when there is none.
// The saved percent is recomputed against the current question count and the
// saved position is clamped into range, so a category that gained or lost
// cards since the last save still resumes cleanly.
func (r *QuizRunner) Start(ctx context.Context) models.QuizProgress {
	saved, ok := r.tracker.Load(ctx, r.category)
	if !ok {
		r.state = models.QuizProgress{}
		return r.state
	}

	total := len(r.questions)
	state := models.QuizProgress{
		CurrentQuestionIndex: saved.CurrentQuestionIndex,
		CorrectAnswers:       min(saved.CorrectAnswers, total),
		Completed:            saved.Completed,
	}
	if state.Completed || state.CurrentQuestionIndex >= total {
		state.Completed = true
		state.CurrentQuestionIndex = total
	}
	state.ProgressPercent = models.PercentOf(state.CorrectAnswers, total)

	r.state = state
	return r.state
}

// Current returns the question awaiting an answer. ok is false once the quiz is complete.
func (r *QuizRunner) Current() (q models.Question, ok bool) {
	if r.state.Completed {
		return models.Question{}, false
	}
	return r.questions[r.state.CurrentQuestionIndex], true
}

// Submit checks an answer against the current question. A correct answer
// advances the quiz and saves progress. Answering the last question
// completes the quiz and saves the completed state.
func (r *QuizRunner) Submit(ctx context.Context, answer string) (AnswerResult, error) {
	question, ok := r.Current()
	if !ok {
		return AnswerResult{Completed: true, Progress: r.state}, ErrQuizCompleted
	}

	result := AnswerResult{}
	if len(question.Answers) > 0 {
		result.Expected = question.Answers[0]
	}

	if !MatchesAnswer(answer, question.Answers) {
		result.Progress = r.state
		return result, nil
	}

	total := len(r.questions)
	r.state.CorrectAnswers = min(r.state.CorrectAnswers+1, total)
	if r.state.CurrentQuestionIndex >= total-1 {
		r.state.CurrentQuestionIndex = total
		r.state.Completed = true
	} else {
		r.state.CurrentQuestionIndex++
	}
	r.state.ProgressPercent = models.PercentOf(r.state.CorrectAnswers, total)

	r.tracker.Save(ctx, r.category, r.state)

	result.Correct = true
	result.Completed = r.state.Completed
	result.Progress = r.state
	return result, nil
}

// Restart discards saved progress and starts from the first question
func (r *QuizRunner) Restart(ctx context.Context) {
	r.tracker.Reset(ctx, r.category)
	r.state = models.QuizProgress{}
}

// Progress returns the current in-memory progress
func (r *QuizRunner) Progress() models.QuizProgress {
	return r.state
}

// Total returns the number of questions in the quiz
func (r *QuizRunner) Total() int {
	return len(r.questions)
}

// MatchesAnswer reports whether answer equals any accepted answer, ignoring
// case and surrounding whitespace. An empty answer never matches.
func MatchesAnswer(answer string, accepted []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(answer))
	if normalized == "" {
		return false
	}
	for _, a := range accepted {
		if normalized == strings.ToLower(strings.TrimSpace(a)) {
			return true
		}
	}
	return false
}
