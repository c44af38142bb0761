package api

import "flashquiz/internal/models"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginUser struct {
	models.UserSession
	MongoID string `json:"_id"`
	Token   string `json:"token"`
}

type loginResponse struct {
	User *loginUser `json:"user"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email           string `json:"email"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type categoriesResponse struct {
	Categories []models.Category `json:"categories"`
}

type questionsResponse struct {
	Questions []models.Flashcard `json:"questions"`
}

type createFlashcardResponse struct {
	Question models.Flashcard `json:"question"`
}
