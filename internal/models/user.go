package models

// UserSession describes the authenticated user as known to the client.
// Empty optional fields mean "not set".
type UserSession struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	Bio          string `json:"bio,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// DefaultUserSession returns the placeholder session used before restore
// and after logout
func DefaultUserSession() UserSession {
	return UserSession{
		ID:   "1",
		Name: "User",
	}
}

// UserPatch is a partial update of a UserSession. Nil fields are left unchanged.
type UserPatch struct {
	Name         *string `json:"name,omitempty"`
	Username     *string `json:"username,omitempty"`
	Email        *string `json:"email,omitempty"`
	Bio          *string `json:"bio,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`
}

// Apply returns a copy of u with the patch's non-nil fields merged on top
func (u UserSession) Apply(p UserPatch) UserSession {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.ProfileImage != nil {
		u.ProfileImage = *p.ProfileImage
	}
	return u
}

// UsageStats are aggregate counts derived from server data ("chart data")
type UsageStats struct {
	TotalFlashcards   int `json:"totalFlashcards"`
	QuizzesTaken      int `json:"quizzesTaken"`
	CategoriesCreated int `json:"categoriesCreated"`
}
