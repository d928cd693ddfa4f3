package authstate_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/barakahq/authkit/pkg/identity"
)

// MockProvider is a mock implementation of identity.Provider. Emit replays a
// session-change notification to whatever handler the manager registered.
type MockProvider struct {
	mock.Mock

	mu      sync.Mutex
	handler identity.ChangeHandler
}

func (m *MockProvider) GetSession(ctx context.Context) (*identity.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Session), args.Error(1)
}

func (m *MockProvider) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Session), args.Error(1)
}

func (m *MockProvider) SignUp(ctx context.Context, email, password string, meta identity.Metadata) (*identity.SignUpResult, error) {
	args := m.Called(ctx, email, password, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.SignUpResult), args.Error(1)
}

func (m *MockProvider) SignInWithOTP(ctx context.Context, email string, opts identity.OTPOptions) error {
	args := m.Called(ctx, email, opts)
	return args.Error(0)
}

func (m *MockProvider) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockProvider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	args := m.Called(ctx, email, redirectTo)
	return args.Error(0)
}

func (m *MockProvider) OnSessionChange(handler identity.ChangeHandler) func() {
	m.mu.Lock()
	m.handler = handler
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		m.handler = nil
		m.mu.Unlock()
	}
}

// Emit delivers a session-change notification to the registered handler.
func (m *MockProvider) Emit(event identity.EventType, sess *identity.Session) {
	m.mu.Lock()
	handler := m.handler
	m.mu.Unlock()
	if handler != nil {
		handler(event, sess)
	}
}

// MockProfileStore is a mock implementation of profiles.Store.
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GenerationsLeft(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockProfileStore) SetGenerationsLeft(ctx context.Context, userID uuid.UUID, count int) error {
	args := m.Called(ctx, userID, count)
	return args.Error(0)
}

// routeRecorder captures navigation signals in order.
type routeRecorder struct {
	mu     sync.Mutex
	routes []string
}

func (r *routeRecorder) NavigateTo(route string) {
	r.mu.Lock()
	r.routes = append(r.routes, route)
	r.mu.Unlock()
}

func (r *routeRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

func (r *routeRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}
