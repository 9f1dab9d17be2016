package pitchside

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrUnauthorized is returned by Users when the token is missing or rejected.
	ErrUnauthorized = errors.New("pitchside: unauthorized")

	// ErrRejected is returned when the members API refuses an update, for
	// example a wrong current password.
	ErrRejected = errors.New("pitchside: update rejected")
)

// User is a member record from the members API.
type User struct {
	UUID      string `json:"uuid"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Club      string `json:"club_name"`
}

// UserUpdate is the editable part of a member record.
type UserUpdate struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// PasswordChange is a request to replace the member's password.
type PasswordChange struct {
	Old string `json:"old_password"`
	New string `json:"password"`
}

// Users reads and updates the member a session token belongs to.
type Users interface {
	GetUser(ctx context.Context, token string) (User, error)
	UpdateUser(ctx context.Context, token string, update UserUpdate) (User, error)
	UpdatePassword(ctx context.Context, token string, change PasswordChange) error
}

// UsersClient reads members from the JSON members API.
type UsersClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewUsersClient creates a client for the members API at baseURL.
func NewUsersClient(baseURL string) *UsersClient {
	return &UsersClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// GetUser implements Users by calling GET /users/me with a bearer token.
func (u *UsersClient) GetUser(ctx context.Context, token string) (User, error) {
	var user User
	err := u.do(ctx, http.MethodGet, "/users/me", token, nil, &user)
	return user, err
}

// UpdateUser implements Users by calling PUT /users/me.
func (u *UsersClient) UpdateUser(ctx context.Context, token string, update UserUpdate) (User, error) {
	var user User
	err := u.do(ctx, http.MethodPut, "/users/me", token, update, &user)
	return user, err
}

// UpdatePassword implements Users by calling PUT /users/me/password.
func (u *UsersClient) UpdatePassword(ctx context.Context, token string, change PasswordChange) error {
	return u.do(ctx, http.MethodPut, "/users/me/password", token, change, nil)
}

// do sends a JSON request to the members API and decodes the reply into out
// when out is non-nil.
func (u *UsersClient) do(ctx context.Context, method, path, token string, body, out any) error {
	if token == "" {
		return ErrUnauthorized
	}
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := u.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("users: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return ErrRejected
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("users: unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("users: decode: %w", err)
	}
	return nil
}
