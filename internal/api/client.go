// Package api is a client for the flashcard backend's HTTP/JSON API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"flashquiz/internal/models"
)

// DefaultBaseURL is the hosted backend the mobile client talks to
const DefaultBaseURL = "https://flashcard-klqk.onrender.com/api/user"

const maxResponseBytes = 4 << 20

// Client calls the remote flashcard API. Authenticated endpoints take their
// bearer token from the configured oauth2.TokenSource.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
	deviceID   string
	debug      bool
}

// NewClient creates a new API client. tokens may be nil if only
// unauthenticated endpoints are used.
func NewClient(baseURL string, timeout time.Duration, tokens oauth2.TokenSource) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
	}
}

// SetDeviceID sets the installation ID sent with every request
func (c *Client) SetDeviceID(id string) {
	c.deviceID = id
}

// SetDebug enables request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Login authenticates with email and password and returns the user and auth token
func (c *Client) Login(ctx context.Context, email, password string) (models.UserSession, string, error) {
	var resp loginResponse
	if err := c.do(ctx, c.httpClient, http.MethodPost, "/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return models.UserSession{}, "", fmt.Errorf("login: %w", err)
	}
	if resp.User == nil {
		return models.UserSession{}, "", nil
	}

	user := resp.User.UserSession
	if user.ID == "" {
		user.ID = resp.User.MongoID
	}
	return user, resp.User.Token, nil
}

// Register creates a new account and returns the server's message
func (c *Client) Register(ctx context.Context, username, email, password string) (string, error) {
	var resp messageResponse
	req := registerRequest{Username: username, Email: email, Password: password}
	if err := c.do(ctx, c.httpClient, http.MethodPost, "/register", req, &resp); err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	return resp.Message, nil
}

// ForgotPassword resets the password for email and returns the server's message
func (c *Client) ForgotPassword(ctx context.Context, email, newPassword, confirmPassword string) (string, error) {
	var resp messageResponse
	req := forgotPasswordRequest{Email: email, NewPassword: newPassword, ConfirmPassword: confirmPassword}
	if err := c.do(ctx, c.httpClient, http.MethodPost, "/forgot-password", req, &resp); err != nil {
		return "", fmt.Errorf("forgot password: %w", err)
	}
	return resp.Message, nil
}

// Categories lists the categories and flashcards owned by userID
func (c *Client) Categories(ctx context.Context, userID string) ([]models.Category, error) {
	hc, err := c.authorized(ctx)
	if err != nil {
		return nil, err
	}

	var resp categoriesResponse
	if err := c.do(ctx, hc, http.MethodGet, "/categories/"+url.PathEscape(userID), nil, &resp); err != nil {
		return nil, fmt.Errorf("get categories (user_id: %s): %w", userID, err)
	}
	return resp.Categories, nil
}

// Questions lists the flashcards of one category
func (c *Client) Questions(ctx context.Context, userID, category string) ([]models.Flashcard, error) {
	hc, err := c.authorized(ctx)
	if err != nil {
		return nil, err
	}

	var resp questionsResponse
	path := "/QA/" + url.PathEscape(userID) + "/" + url.PathEscape(category)
	if err := c.do(ctx, hc, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get questions (user_id: %s, category: %s): %w", userID, category, err)
	}
	return resp.Questions, nil
}

// CreateFlashcard stores a new flashcard and returns it as saved by the server
func (c *Client) CreateFlashcard(ctx context.Context, card models.Flashcard) (models.Flashcard, error) {
	hc, err := c.authorized(ctx)
	if err != nil {
		return models.Flashcard{}, err
	}

	card.ID = ""
	var resp createFlashcardResponse
	if err := c.do(ctx, hc, http.MethodPost, "/createflashcard", card, &resp); err != nil {
		return models.Flashcard{}, fmt.Errorf("create flashcard (category: %s): %w", card.Category, err)
	}
	return resp.Question, nil
}

// Logout invalidates the current token on the server and returns its message
func (c *Client) Logout(ctx context.Context) (string, error) {
	hc, err := c.authorized(ctx)
	if err != nil {
		return "", err
	}

	var resp messageResponse
	if err := c.do(ctx, hc, http.MethodPost, "/logout", nil, &resp); err != nil {
		return "", fmt.Errorf("logout: %w", err)
	}
	return resp.Message, nil
}

// authorized returns an HTTP client that sets the bearer token on each request
func (c *Client) authorized(ctx context.Context) (*http.Client, error) {
	if c.tokens == nil {
		return nil, ErrNoTokenSource
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, c.tokens), nil
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-ID", c.deviceID)
	}

	if c.debug {
		log.Printf("[DEBUG] %s %s", method, req.URL.Redacted())
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if c.debug {
		log.Printf("[DEBUG] %s %s -> %d", method, path, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg messageResponse
		_ = json.Unmarshal(data, &msg)
		return &APIError{StatusCode: resp.StatusCode, Message: msg.Message}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
