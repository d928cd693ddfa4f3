package authapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/barakahq/authkit/pkg/authstate"
	"github.com/barakahq/authkit/pkg/identity"
)

// RouteRecorder captures the manager's navigation signals so handlers can
// return them as a redirect hint. Pass the same recorder to the manager via
// authstate.WithNavigator and to NewService.
type RouteRecorder struct {
	mu    sync.Mutex
	route string
}

func NewRouteRecorder() *RouteRecorder {
	return &RouteRecorder{}
}

func (r *RouteRecorder) NavigateTo(route string) {
	r.mu.Lock()
	r.route = route
	r.mu.Unlock()
}

// Take returns the most recent route and clears it.
func (r *RouteRecorder) Take() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	route := r.route
	r.route = ""
	return route
}

type Service struct {
	manager *authstate.Manager
	routes  *RouteRecorder
	log     *slog.Logger
}

type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRouteRecorder wires navigation capture into responses. Without it the
// redirect field is always empty.
func WithRouteRecorder(r *RouteRecorder) Option {
	return func(s *Service) {
		s.routes = r
	}
}

func NewService(manager *authstate.Manager, opts ...Option) *Service {
	if manager == nil {
		panic("authapi: manager is required")
	}
	s := &Service{
		manager: manager,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/state", s.state)
	r.Post("/login", s.login)
	r.Post("/signup", s.signup)
	r.Post("/logout", s.logout)
	r.Post("/reset-password", s.resetPassword)
	r.Post("/refresh", s.refresh)
	r.Post("/generations/consume", s.consumeGeneration)
	r.Post("/premium", s.setPremium)

	return r
}

type userResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	EmailConfirmed bool   `json:"email_confirmed"`
	IsPremium      bool   `json:"is_premium"`
	RecipeCount    int    `json:"recipe_count"`
}

type sessionResponse struct {
	ExpiresAt int64 `json:"expires_at,omitempty"`
}

type stateResponse struct {
	User            *userResponse    `json:"user"`
	Session         *sessionResponse `json:"session"`
	IsAuthenticated bool             `json:"is_authenticated"`
	IsLoading       bool             `json:"is_loading"`
	IsInitialized   bool             `json:"is_initialized"`
	HasReachedLimit bool             `json:"has_reached_limit"`
	Error           string           `json:"error,omitempty"`
	Redirect        string           `json:"redirect,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Service) state(w http.ResponseWriter, r *http.Request) {
	s.writeState(w, "")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Service) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.manager.Login(r.Context(), req.Email, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeState(w, s.takeRoute())
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Service) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.manager.Signup(r.Context(), req.Name, req.Email, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeState(w, s.takeRoute())
}

func (s *Service) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Logout(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeState(w, s.takeRoute())
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

func (s *Service) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.manager.ResetPassword(r.Context(), req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeState(w, "")
}

func (s *Service) refresh(w http.ResponseWriter, r *http.Request) {
	s.manager.RefreshSession(r.Context())
	s.writeState(w, "")
}

func (s *Service) consumeGeneration(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.ConsumeGeneration(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeState(w, "")
}

type premiumRequest struct {
	Premium bool `json:"premium"`
}

func (s *Service) setPremium(w http.ResponseWriter, r *http.Request) {
	var req premiumRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.manager.SetPremium(r.Context(), req.Premium); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeState(w, "")
}

func (s *Service) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (s *Service) takeRoute() string {
	if s.routes == nil {
		return ""
	}
	return s.routes.Take()
}

func (s *Service) writeState(w http.ResponseWriter, redirect string) {
	state := s.manager.State()

	resp := stateResponse{
		IsAuthenticated: state.IsAuthenticated,
		IsLoading:       state.IsLoading,
		IsInitialized:   state.IsInitialized,
		HasReachedLimit: s.manager.HasReachedLimit(),
		Error:           state.Error,
		Redirect:        redirect,
	}
	if state.User != nil {
		resp.User = &userResponse{
			ID:             state.User.ID.String(),
			Name:           state.User.Name,
			Email:          state.User.Email,
			EmailConfirmed: state.User.EmailConfirmed,
			IsPremium:      state.User.IsPremium,
			RecipeCount:    state.User.RecipeCount,
		}
	}
	// Tokens stay server-side; clients only need the expiry to schedule
	// refresh calls.
	if state.Session != nil {
		resp.Session = &sessionResponse{ExpiresAt: state.Session.ExpiresAt.Unix()}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, authstate.ErrInvalidCredentials),
		errors.Is(err, authstate.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, authstate.ErrEmailNotConfirmed):
		status = http.StatusForbidden
	case errors.Is(err, authstate.ErrEmailAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, authstate.ErrWeakPassword):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, authstate.ErrRateLimited),
		errors.Is(err, identity.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, authstate.ErrProviderUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}

	// The manager stores a user-facing message alongside the typed error;
	// prefer it when present.
	msg := s.manager.State().Error
	if msg == "" {
		msg = err.Error()
	}
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", "error", err)
	}
}
