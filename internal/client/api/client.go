// Package api is the HTTP client of the business API used by the CLI.
package api

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

	"github.com/baleriaa/493/internal/client/models"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("name or email already in use")
	ErrRateLimited  = errors.New("too many requests")
)

// StatusError is returned for non-2xx responses without a dedicated sentinel.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (c *Client) Register(ctx context.Context, name, email string, password []byte) (*models.User, error) {
	var user models.User
	body := registerRequest{Name: name, Email: email, Password: string(password)}
	if err := c.do(ctx, http.MethodPost, "/users", "", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, identifier string, password []byte) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := loginRequest{Identifier: identifier, Password: string(password)}
	if err := c.do(ctx, http.MethodPost, "/users/login", "", body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("empty token in login response")
	}
	return resp.Token, nil
}

func (c *Client) GetUser(ctx context.Context, token string, id int64) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Businesses(ctx context.Context, token string, userID int64) ([]models.Business, error) {
	var resp struct {
		Businesses []models.Business `json:"businesses"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/businesses", userID), token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Businesses, nil
}

func (c *Client) Reviews(ctx context.Context, token string, userID int64) ([]models.Review, error) {
	var resp struct {
		Reviews []models.Review `json:"reviews"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/reviews", userID), token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Reviews, nil
}

func (c *Client) Photos(ctx context.Context, token string, userID int64) ([]models.Photo, error) {
	var resp struct {
		Photos []models.Photo `json:"photos"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/photos", userID), token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Photos, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorFromResponse(resp *http.Response) error {
	var eb struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	if resp.StatusCode >= 500 && eb.Error == "" {
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}
	return &StatusError{Status: resp.StatusCode, Message: eb.Error}
}
