// Package fakeprovider is an in-memory identity provider. It backs the tests and the
// portal's memory mode. Accounts need their email confirmed before they can sign in unless
// the provider is built WithAutoConfirm.
package fakeprovider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-portal/identity"
	"github.com/jrsteele09/go-auth-portal/profiles"
	"github.com/jrsteele09/go-auth-portal/sessions"
)

// Operation names a provider call for failure injection and call counting
type Operation string

const (
	OpGetCurrentSession Operation = "get_current_session"
	OpSignIn            Operation = "sign_in"
	OpSignUp            Operation = "sign_up"
	OpSignOut           Operation = "sign_out"
)

var _ identity.Provider = (*Provider)(nil)

type Provider struct {
	lock     sync.Mutex
	accounts map[string]*account // email -> account
	current  *sessions.Session
	subs     identity.Subscribers

	failures map[Operation]error
	calls    map[Operation]int
	signUps  []identity.SignUpRequest

	secret      []byte
	sessionTTL  time.Duration
	autoConfirm bool
	profiles    profiles.Writer
	nowTime     func() time.Time
}

// ProviderOption defines a function type to modify the Provider instance.
type ProviderOption func(*Provider)

// WithAutoConfirm makes sign-up return a live session instead of waiting for confirmation
func WithAutoConfirm() ProviderOption {
	return func(p *Provider) {
		p.autoConfirm = true
	}
}

// WithProfileWriter creates a profile for every new account, like a database trigger would
func WithProfileWriter(w profiles.Writer) ProviderOption {
	return func(p *Provider) {
		p.profiles = w
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.nowTime = nowFunc
	}
}

// WithSessionTTL sets how long minted sessions stay valid
func WithSessionTTL(ttl time.Duration) ProviderOption {
	return func(p *Provider) {
		p.sessionTTL = ttl
	}
}

// WithSigningSecret sets the HS256 key for access tokens
func WithSigningSecret(secret []byte) ProviderOption {
	return func(p *Provider) {
		p.secret = secret
	}
}

func New(options ...ProviderOption) *Provider {
	p := &Provider{
		accounts:   make(map[string]*account),
		failures:   make(map[Operation]error),
		calls:      make(map[Operation]int),
		sessionTTL: time.Hour,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	if len(p.secret) == 0 {
		p.secret = []byte(randomToken(32))
	}
	return p
}

func (p *Provider) GetCurrentSession(ctx context.Context) (*sessions.Session, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if err := p.begin(ctx, OpGetCurrentSession); err != nil {
		return nil, err
	}
	if p.current == nil {
		return nil, nil
	}
	if !p.current.Valid(p.nowTime()) {
		p.current = nil
		return nil, nil
	}
	cp := *p.current
	return &cp, nil
}

func (p *Provider) Subscribe(handler identity.ChangeHandler) identity.Unsubscribe {
	return p.subs.Add(handler)
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*sessions.Session, error) {
	session, err := func() (*sessions.Session, error) {
		p.lock.Lock()
		defer p.lock.Unlock()

		if err := p.begin(ctx, OpSignIn); err != nil {
			return nil, err
		}
		acc, ok := p.accounts[normaliseEmail(email)]
		if !ok || !checkPasswordHash(password, acc.PasswordHash) {
			return nil, identity.NewInvalidCredentialsError()
		}
		if !acc.Confirmed {
			return nil, &identity.Error{Code: identity.CodeEmailNotConfirmed, Message: "Email not confirmed", Status: 400}
		}
		return p.startSession(acc)
	}()
	if err != nil {
		return nil, err
	}

	p.subs.Emit(sessions.EventSignedIn, session)
	return session, nil
}

// SignUp creates the account and its profile. With auto-confirm the account is signed in
// once the profile is written; a failed profile write removes the account again.
func (p *Provider) SignUp(ctx context.Context, req identity.SignUpRequest) (*sessions.Session, error) {
	acc, err := func() (*account, error) {
		p.lock.Lock()
		defer p.lock.Unlock()

		if err := p.begin(ctx, OpSignUp); err != nil {
			return nil, err
		}
		p.signUps = append(p.signUps, req)

		email := normaliseEmail(req.Email)
		if email == "" {
			return nil, &identity.Error{Code: "validation_failed", Message: "Email address is required", Status: 400}
		}
		if _, exists := p.accounts[email]; exists {
			return nil, identity.NewAlreadyRegisteredError()
		}
		if len(req.Password) < 6 {
			return nil, &identity.Error{Code: "weak_password", Message: "Password should be at least 6 characters", Status: 422}
		}
		return p.addAccount(email, req.Password, req.FullName, p.autoConfirm)
	}()
	if err != nil {
		return nil, err
	}

	if err := p.writeProfile(ctx, acc); err != nil {
		p.removeAccount(acc)
		return nil, err
	}
	if !p.autoConfirm {
		return nil, nil
	}

	p.lock.Lock()
	session, err := p.startSession(acc)
	p.lock.Unlock()
	if err != nil {
		return nil, err
	}
	p.subs.Emit(sessions.EventSignedIn, session)
	return session, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	if err := func() error {
		p.lock.Lock()
		defer p.lock.Unlock()

		if err := p.begin(ctx, OpSignOut); err != nil {
			return err
		}
		p.current = nil
		return nil
	}(); err != nil {
		return err
	}

	p.subs.Emit(sessions.EventSignedOut, nil)
	return nil
}

// AddAccount registers a confirmed account and returns its ID
func (p *Provider) AddAccount(ctx context.Context, email, password, fullName string) (string, error) {
	p.lock.Lock()
	acc, err := p.addAccount(normaliseEmail(email), password, fullName, true)
	p.lock.Unlock()
	if err != nil {
		return "", err
	}
	if err := p.writeProfile(ctx, acc); err != nil {
		p.removeAccount(acc)
		return "", err
	}
	return acc.ID, nil
}

// Confirm marks the account's email as confirmed
func (p *Provider) Confirm(email string) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	acc, ok := p.accounts[normaliseEmail(email)]
	if !ok {
		return fmt.Errorf("[fakeprovider.Confirm] unknown account %q", email)
	}
	acc.Confirmed = true
	return nil
}

// StartSession makes the provider hold a session for email without a SignIn call, as if one
// had been resumed from an earlier run. No notification is emitted.
func (p *Provider) StartSession(email string) (*sessions.Session, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	acc, ok := p.accounts[normaliseEmail(email)]
	if !ok {
		return nil, fmt.Errorf("[fakeprovider.StartSession] unknown account %q", email)
	}
	return p.startSession(acc)
}

// Refresh re-issues the current session's tokens and emits TOKEN_REFRESHED
func (p *Provider) Refresh() (*sessions.Session, error) {
	session, err := func() (*sessions.Session, error) {
		p.lock.Lock()
		defer p.lock.Unlock()

		if p.current == nil {
			return nil, fmt.Errorf("[fakeprovider.Refresh] no current session")
		}
		acc, ok := p.accounts[p.current.Identity.Email]
		if !ok {
			return nil, fmt.Errorf("[fakeprovider.Refresh] account gone")
		}
		return p.startSession(acc)
	}()
	if err != nil {
		return nil, err
	}
	p.subs.Emit(sessions.EventTokenRefreshed, session)
	return session, nil
}

// Expire drops the current session provider-side and emits SIGNED_OUT
func (p *Provider) Expire() {
	p.lock.Lock()
	p.current = nil
	p.lock.Unlock()
	p.subs.Emit(sessions.EventSignedOut, nil)
}

// Emit sends an arbitrary notification to subscribers
func (p *Provider) Emit(kind sessions.EventKind, session *sessions.Session) {
	p.subs.Emit(kind, session)
}

// FailNext makes the next call to op return err
func (p *Provider) FailNext(op Operation, err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.failures[op] = err
}

// Calls returns how many times op has been called
func (p *Provider) Calls(op Operation) int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.calls[op]
}

// SignUps returns every sign-up request received, in order
func (p *Provider) SignUps() []identity.SignUpRequest {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]identity.SignUpRequest(nil), p.signUps...)
}

// Subscribers returns the number of live subscriptions
func (p *Provider) Subscribers() int {
	return p.subs.Len()
}

// begin records the call and returns any injected failure. Caller holds the lock.
func (p *Provider) begin(ctx context.Context, op Operation) error {
	p.calls[op]++
	if err, ok := p.failures[op]; ok {
		delete(p.failures, op)
		return err
	}
	return ctx.Err()
}

// addAccount creates an account. Caller holds the lock.
func (p *Provider) addAccount(email, password, fullName string, confirmed bool) (*account, error) {
	if _, exists := p.accounts[email]; exists {
		return nil, identity.NewAlreadyRegisteredError()
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("[fakeprovider.addAccount] hashPassword: %w", err)
	}
	acc := &account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Confirmed:    confirmed,
		CreatedAt:    p.nowTime(),
	}
	p.accounts[email] = acc
	return acc, nil
}

// removeAccount undoes addAccount when the account's profile could not be written
func (p *Provider) removeAccount(acc *account) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.accounts[acc.Email] == acc {
		delete(p.accounts, acc.Email)
	}
}

// startSession mints and stores a session. Caller holds the lock.
func (p *Provider) startSession(acc *account) (*sessions.Session, error) {
	session, err := p.mintSession(acc)
	if err != nil {
		return nil, err
	}
	p.current = session
	cp := *session
	return &cp, nil
}

func (p *Provider) writeProfile(ctx context.Context, acc *account) error {
	if p.profiles == nil || acc == nil {
		return nil
	}
	if err := p.profiles.UpsertProfile(ctx, profiles.Profile{
		UserID:    acc.ID,
		FullName:  acc.FullName,
		CreatedAt: acc.CreatedAt,
	}); err != nil {
		return fmt.Errorf("[fakeprovider.writeProfile] UpsertProfile: %w", err)
	}
	return nil
}
