package models

// Flashcard is a single question/answer card owned by a user
type Flashcard struct {
	ID           string `json:"_id,omitempty"`
	QuestionText string `json:"questionText"`
	AnswerText   string `json:"answerText"`
	Category     string `json:"category,omitempty"`
	UserID       string `json:"userId,omitempty"`
}

// Category groups a user's flashcards
type Category struct {
	ID           string      `json:"_id,omitempty"`
	CategoryName string      `json:"categoryName"`
	Flashcards   []Flashcard `json:"flashcard"`
	QuizzesTaken int         `json:"quizzesTaken"`

	// SavedProgress is the locally persisted quiz progress percent, if any
	SavedProgress float64 `json:"-"`
}

// Question is one quiz prompt with the answers accepted for it
type Question struct {
	ID       string
	Text     string
	Category string
	Answers  []string
}

// QuestionFromFlashcard turns a flashcard into a quiz question
func QuestionFromFlashcard(f Flashcard) Question {
	return Question{
		ID:       f.ID,
		Text:     f.QuestionText,
		Category: f.Category,
		Answers:  []string{f.AnswerText},
	}
}

// Theme is the user's light/dark display preference
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggled returns the opposite theme
func (t Theme) Toggled() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
