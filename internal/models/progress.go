package models

// QuizProgress is the resumable state of a quiz in one category
type QuizProgress struct {
	CurrentQuestionIndex int     `json:"currentQuestionIndex"`
	CorrectAnswers       int     `json:"correctAnswers"`
	ProgressPercent      float64 `json:"progress"`
	Completed            bool    `json:"completed,omitempty"`
}

// PercentOf returns correct/total as a percentage, or 0 when total is not positive
func PercentOf(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}
