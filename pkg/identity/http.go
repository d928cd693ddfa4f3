package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// HTTPProvider talks to a hosted GoTrue-compatible authentication endpoint
// over REST. It keeps the last issued session in memory (the client-side
// analogue of the hosted SDK's ambient session) and refreshes it lazily
// through the refresh-token grant when it expires.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client

	mu      sync.Mutex
	current *Session

	events *dispatcher
}

// HTTPOption configures an HTTPProvider during construction.
type HTTPOption func(*HTTPProvider)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPProvider) {
		if c != nil {
			p.client = c
		}
	}
}

// NewHTTPProvider creates a provider for the auth service at baseURL.
// The apiKey is sent as the "apikey" header on every request.
func NewHTTPProvider(baseURL, apiKey string, opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		events:  newDispatcher(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// tokenResponse is the wire shape of token and signup responses.
type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
	User         wireUser `json:"user"`
}

type wireUser struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at"`
	Metadata         map[string]any `json:"user_metadata"`
}

type wireError struct {
	Message     string `json:"msg"`
	Description string `json:"error_description"`
}

func (e wireError) text() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Message
}

func (p *HTTPProvider) GetSession(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	current := p.current
	p.mu.Unlock()

	if current == nil {
		return nil, ErrNoSession
	}

	if time.Now().Before(current.ExpiresAt) {
		return current.Clone(), nil
	}

	if current.RefreshToken == "" {
		p.mu.Lock()
		p.current = nil
		p.mu.Unlock()
		return nil, ErrNoSession
	}

	sess, err := p.refreshGrant(ctx, current.RefreshToken)
	if err != nil {
		p.mu.Lock()
		p.current = nil
		p.mu.Unlock()
		return nil, err
	}

	p.events.emit(EventTokenRefreshed, sess)
	return sess.Clone(), nil
}

func (p *HTTPProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var resp tokenResponse
	err := p.post(ctx, "/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	sess, err := sessionFromToken(resp)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.current = sess
	p.mu.Unlock()

	p.events.emit(EventSignedIn, sess)
	return sess.Clone(), nil
}

func (p *HTTPProvider) SignUp(ctx context.Context, email, password string, meta Metadata) (*SignUpResult, error) {
	var resp tokenResponse
	err := p.post(ctx, "/signup", map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"name": meta.Name},
	}, &resp)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(resp.User.ID)
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}
	result := &SignUpResult{UserID: userID}

	// A response without a token means the account awaits email confirmation.
	if resp.AccessToken == "" {
		return result, nil
	}

	sess, err := sessionFromToken(resp)
	if err != nil {
		return nil, err
	}
	result.Session = sess.Clone()

	p.mu.Lock()
	p.current = sess
	p.mu.Unlock()

	p.events.emit(EventSignedIn, sess)
	return result, nil
}

func (p *HTTPProvider) SignInWithOTP(ctx context.Context, email string, opts OTPOptions) error {
	return p.post(ctx, "/otp", map[string]any{
		"email":       email,
		"create_user": opts.CreateUser,
	}, nil)
}

func (p *HTTPProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	current := p.current
	p.current = nil
	p.mu.Unlock()

	if current == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/logout", nil)
	if err != nil {
		return errors.Join(ErrProviderUnavailable, err)
	}
	req.Header.Set("apikey", p.apiKey)
	req.Header.Set("Authorization", "Bearer "+current.AccessToken)

	resp, err := p.client.Do(req)
	if err == nil {
		_ = resp.Body.Close()
	}

	// Session is cleared locally regardless of whether the remote call
	// succeeded.
	p.events.emit(EventSignedOut, nil)
	return nil
}

func (p *HTTPProvider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return p.post(ctx, "/recover", map[string]string{
		"email":       email,
		"redirect_to": redirectTo,
	}, nil)
}

func (p *HTTPProvider) OnSessionChange(handler ChangeHandler) func() {
	return p.events.subscribe(handler)
}

func (p *HTTPProvider) refreshGrant(ctx context.Context, refreshToken string) (*Session, error) {
	var resp tokenResponse
	err := p.post(ctx, "/token?grant_type=refresh_token", map[string]string{
		"refresh_token": refreshToken,
	}, &resp)
	if err != nil {
		return nil, err
	}

	sess, err := sessionFromToken(resp)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.current = sess
	p.mu.Unlock()

	return sess, nil
}

func (p *HTTPProvider) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Join(ErrProviderUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Join(ErrProviderUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Join(ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		var werr wireError
		_ = json.NewDecoder(resp.Body).Decode(&werr)
		return mapProviderError(resp.StatusCode, werr.text())
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Join(ErrProviderUnavailable, err)
		}
	}
	return nil
}

// mapProviderError translates the provider's error text into typed errors.
// The "Email not confirmed" match is load-bearing: sign-in must surface an
// actionable message for unverified accounts rather than a generic failure.
func mapProviderError(status int, text string) error {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "email not confirmed"):
		return ErrEmailNotConfirmed
	case strings.Contains(lower, "invalid login credentials"):
		return ErrInvalidCredentials
	case strings.Contains(lower, "already registered"):
		return ErrEmailAlreadyExists
	case strings.Contains(lower, "rate limit") || status == http.StatusTooManyRequests:
		return ErrRateLimited
	case strings.Contains(lower, "user not found") || strings.Contains(lower, "signups not allowed"):
		return ErrUserNotFound
	}
	if text == "" {
		return fmt.Errorf("%w: status %d", ErrProviderUnavailable, status)
	}
	return fmt.Errorf("%w: %s", ErrProviderUnavailable, text)
}

func sessionFromToken(resp tokenResponse) (*Session, error) {
	userID, err := uuid.Parse(resp.User.ID)
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	var name string
	if v, ok := resp.User.Metadata["name"].(string); ok {
		name = v
	}

	return &Session{
		UserID:           userID,
		Email:            resp.User.Email,
		Name:             name,
		EmailConfirmedAt: resp.User.EmailConfirmedAt,
		AccessToken:      resp.AccessToken,
		RefreshToken:     resp.RefreshToken,
		ExpiresAt:        time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}, nil
}
