package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	id           uuid.UUID
	email        string
	name         string
	passwordHash []byte
	confirmedAt  *time.Time
}

// LocalProvider is a self-contained identity provider backed by in-memory
// accounts. Passwords are stored as bcrypt hashes and access tokens are
// signed HS256 JWTs, so the provider behaves like a hosted one from the
// session manager's point of view. Intended for tests and self-hosted
// deployments without an external auth service.
type LocalProvider struct {
	mu          sync.Mutex
	accounts    map[string]*account
	current     *Session
	signingKey  []byte
	tokenTTL    time.Duration
	bcryptCost  int
	autoConfirm bool
	resetLog    []string

	events *dispatcher
}

// LocalOption configures a LocalProvider during construction.
type LocalOption func(*LocalProvider)

// WithSigningKey sets the HS256 signing key for access tokens.
func WithSigningKey(key []byte) LocalOption {
	return func(p *LocalProvider) {
		if len(key) > 0 {
			p.signingKey = key
		}
	}
}

// WithTokenTTL sets the access token lifetime.
func WithTokenTTL(ttl time.Duration) LocalOption {
	return func(p *LocalProvider) {
		if ttl > 0 {
			p.tokenTTL = ttl
		}
	}
}

// WithBcryptCost sets the bcrypt cost for password hashing. Tests typically
// use bcrypt.MinCost.
func WithBcryptCost(cost int) LocalOption {
	return func(p *LocalProvider) {
		p.bcryptCost = cost
	}
}

// WithAutoConfirm makes signup confirm emails immediately and issue a
// session, skipping the confirmation round-trip.
func WithAutoConfirm() LocalOption {
	return func(p *LocalProvider) {
		p.autoConfirm = true
	}
}

// NewLocalProvider creates a LocalProvider with the given options.
func NewLocalProvider(opts ...LocalOption) *LocalProvider {
	p := &LocalProvider{
		accounts:   make(map[string]*account),
		signingKey: []byte("local-identity-signing-key"),
		tokenTTL:   time.Hour,
		bcryptCost: bcrypt.DefaultCost,
		events:     newDispatcher(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *LocalProvider) GetSession(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return nil, ErrNoSession
	}
	if time.Now().After(p.current.ExpiresAt) {
		p.current = nil
		return nil, ErrNoSession
	}
	return p.current.Clone(), nil
}

func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	p.mu.Lock()
	acc, ok := p.accounts[normalizeEmail(email)]
	p.mu.Unlock()

	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if acc.confirmedAt == nil {
		return nil, ErrEmailNotConfirmed
	}

	sess, err := p.issueSession(acc)
	if err != nil {
		return nil, err
	}

	p.events.emit(EventSignedIn, sess)
	return sess.Clone(), nil
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string, meta Metadata) (*SignUpResult, error) {
	email = normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return nil, errors.Join(ErrProviderUnavailable, err)
	}

	p.mu.Lock()
	if _, exists := p.accounts[email]; exists {
		p.mu.Unlock()
		return nil, ErrEmailAlreadyExists
	}
	acc := &account{
		id:           uuid.New(),
		email:        email,
		name:         meta.Name,
		passwordHash: hash,
	}
	if p.autoConfirm {
		now := time.Now()
		acc.confirmedAt = &now
	}
	p.accounts[email] = acc
	p.mu.Unlock()

	result := &SignUpResult{UserID: acc.id}

	if p.autoConfirm {
		sess, err := p.issueSession(acc)
		if err != nil {
			return nil, err
		}
		result.Session = sess.Clone()
		p.events.emit(EventSignedIn, sess)
	}

	return result, nil
}

func (p *LocalProvider) SignInWithOTP(ctx context.Context, email string, opts OTPOptions) error {
	p.mu.Lock()
	_, exists := p.accounts[normalizeEmail(email)]
	p.mu.Unlock()

	if exists {
		return nil
	}
	if !opts.CreateUser {
		return ErrUserNotFound
	}
	// Passwordless account creation is not supported locally.
	return ErrUserNotFound
}

func (p *LocalProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	hadSession := p.current != nil
	p.current = nil
	p.mu.Unlock()

	if hadSession {
		p.events.emit(EventSignedOut, nil)
	}
	return nil
}

func (p *LocalProvider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	// Generic by contract: record the request without revealing whether the
	// account exists.
	p.mu.Lock()
	p.resetLog = append(p.resetLog, normalizeEmail(email))
	p.mu.Unlock()
	return nil
}

func (p *LocalProvider) OnSessionChange(handler ChangeHandler) func() {
	return p.events.subscribe(handler)
}

// ConfirmEmail marks an account's email as verified. Returns ErrUserNotFound
// for unknown emails.
func (p *LocalProvider) ConfirmEmail(email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	acc, ok := p.accounts[normalizeEmail(email)]
	if !ok {
		return ErrUserNotFound
	}
	if acc.confirmedAt == nil {
		now := time.Now()
		acc.confirmedAt = &now
	}
	return nil
}

// RefreshToken mints a fresh access token for the current session and emits
// EventTokenRefreshed. Returns ErrNoSession without an active session.
func (p *LocalProvider) RefreshToken() error {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return ErrNoSession
	}
	acc, ok := p.accounts[p.current.Email]
	p.mu.Unlock()
	if !ok {
		return ErrNoSession
	}

	sess, err := p.issueSession(acc)
	if err != nil {
		return err
	}

	p.events.emit(EventTokenRefreshed, sess)
	return nil
}

// ResetRequests returns the emails that requested a password reset, in order.
func (p *LocalProvider) ResetRequests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.resetLog...)
}

func (p *LocalProvider) issueSession(acc *account) (*Session, error) {
	expiresAt := time.Now().Add(p.tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   acc.id.String(),
		"email": acc.email,
		"exp":   expiresAt.Unix(),
		"iat":   time.Now().Unix(),
	})
	signed, err := token.SignedString(p.signingKey)
	if err != nil {
		return nil, errors.Join(ErrTokenGeneration, err)
	}

	sess := &Session{
		UserID:           acc.id,
		Email:            acc.email,
		Name:             acc.name,
		EmailConfirmedAt: acc.confirmedAt,
		AccessToken:      signed,
		ExpiresAt:        expiresAt,
	}

	p.mu.Lock()
	p.current = sess
	p.mu.Unlock()

	return sess, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
