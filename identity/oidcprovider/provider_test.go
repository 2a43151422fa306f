package oidcprovider_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-portal/identity"
	"github.com/jrsteele09/go-auth-portal/identity/oidcprovider"
	"github.com/jrsteele09/go-auth-portal/identity/oidcprovider/oidctest"
	"github.com/jrsteele09/go-auth-portal/sessions"
	"github.com/stretchr/testify/require"
)

const (
	clientID     = "auth-portal"
	clientSecret = "portal-secret"
	testEmail    = "user@test.com"
	testPassword = "secret123"
	testName     = "Juan Pérez"
	siteURL      = "http://localhost:3000/"
)

type event struct {
	kind    sessions.EventKind
	session *sessions.Session
}

type eventLog struct {
	lock   sync.Mutex
	events []event
}

func (l *eventLog) handler(kind sessions.EventKind, session *sessions.Session) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.events = append(l.events, event{kind: kind, session: session})
}

func (l *eventLog) all() []event {
	l.lock.Lock()
	defer l.lock.Unlock()
	return append([]event(nil), l.events...)
}

type testFixture struct {
	issuer   *oidctest.Issuer
	provider *oidcprovider.Provider
	events   *eventLog
}

func setupTestFixture(t *testing.T, issuerOpts []oidctest.IssuerOption, opts ...oidcprovider.ProviderOption) *testFixture {
	t.Helper()
	issuer, err := oidctest.NewIssuer(clientID, clientSecret, issuerOpts...)
	require.NoError(t, err)
	t.Cleanup(issuer.Close)

	provider, err := oidcprovider.New(context.Background(), oidcprovider.Config{
		IssuerURL:    issuer.URL() + "/",
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}, opts...)
	require.NoError(t, err)

	events := &eventLog{}
	unsubscribe := provider.Subscribe(events.handler)
	t.Cleanup(unsubscribe)
	return &testFixture{issuer: issuer, provider: provider, events: events}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	_, err := oidcprovider.New(ctx, oidcprovider.Config{ClientID: clientID})
	require.ErrorContains(t, err, "issuer URL is required")
	_, err = oidcprovider.New(ctx, oidcprovider.Config{IssuerURL: "http://127.0.0.1:1"})
	require.ErrorContains(t, err, "client ID is required")
	_, err = oidcprovider.New(ctx, oidcprovider.Config{IssuerURL: "http://127.0.0.1:1", ClientID: clientID})
	require.ErrorContains(t, err, "failed to create OIDC provider")
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("verified ID token", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		subject := f.issuer.AddAccount(testEmail, testPassword, testName)

		session, err := f.provider.SignIn(ctx, testEmail, testPassword)
		require.NoError(t, err)
		require.Equal(t, sessions.Identity{ID: subject, Email: testEmail, Name: testName}, session.Identity)
		require.NotEmpty(t, session.AccessToken)
		require.NotEmpty(t, session.RefreshToken)
		require.NotEmpty(t, session.IDToken)
		require.True(t, session.Valid(time.Now()))

		current, err := f.provider.GetCurrentSession(ctx)
		require.NoError(t, err)
		require.Equal(t, session.ID, current.ID)

		events := f.events.all()
		require.Len(t, events, 1)
		require.Equal(t, sessions.EventSignedIn, events[0].kind)
		require.Equal(t, subject, events[0].session.UserID())
	})

	t.Run("access token claims when no ID token", func(t *testing.T) {
		f := setupTestFixture(t, []oidctest.IssuerOption{oidctest.WithoutIDToken()})
		subject := f.issuer.AddAccount(testEmail, testPassword, testName)

		session, err := f.provider.SignIn(ctx, testEmail, testPassword)
		require.NoError(t, err)
		require.Equal(t, subject, session.Identity.ID)
		require.Equal(t, testName, session.Identity.Name)
		require.Empty(t, session.IDToken)
	})

	t.Run("invalid grant is invalid credentials", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.issuer.AddAccount(testEmail, testPassword, testName)

		_, err := f.provider.SignIn(ctx, testEmail, "wrong-password")
		require.Error(t, err)
		require.True(t, identity.IsInvalidCredentials(err))
		pe, ok := identity.AsProviderError(err)
		require.True(t, ok)
		require.Equal(t, 400, pe.Status)
		require.Equal(t, "Invalid login credentials", pe.Message)

		current, err := f.provider.GetCurrentSession(ctx)
		require.NoError(t, err)
		require.Nil(t, current)
		require.Empty(t, f.events.all())
	})

	t.Run("other provider errors keep their message", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		_, err := f.provider.SignUp(ctx, identity.SignUpRequest{Email: testEmail, Password: testPassword, FullName: testName})
		require.NoError(t, err)

		_, err = f.provider.SignIn(ctx, testEmail, testPassword)
		require.False(t, identity.IsInvalidCredentials(err))
		pe, ok := identity.AsProviderError(err)
		require.True(t, ok)
		require.Equal(t, identity.CodeEmailNotConfirmed, pe.Code)
		require.Equal(t, "Email not confirmed", pe.Message)
		require.True(t, identity.IsNotConfirmed(err))
	})

	t.Run("unreachable issuer is not a provider error", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.issuer.Close()

		_, err := f.provider.SignIn(ctx, testEmail, testPassword)
		require.Error(t, err)
		_, ok := identity.AsProviderError(err)
		require.False(t, ok)
	})
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()
	req := identity.SignUpRequest{Email: testEmail, Password: testPassword, FullName: testName, RedirectTo: siteURL}

	t.Run("pending confirmation", func(t *testing.T) {
		f := setupTestFixture(t, nil)

		session, err := f.provider.SignUp(ctx, req)
		require.NoError(t, err)
		require.Nil(t, session)
		require.Equal(t, []oidctest.SignUp{{Email: testEmail, FullName: testName, RedirectTo: siteURL}}, f.issuer.SignUps())
		require.Empty(t, f.events.all())

		require.True(t, f.issuer.Confirm(testEmail))
		signedIn, err := f.provider.SignIn(ctx, testEmail, testPassword)
		require.NoError(t, err)
		require.Equal(t, testName, signedIn.Identity.Name)
	})

	t.Run("auto confirmed starts a session", func(t *testing.T) {
		f := setupTestFixture(t, []oidctest.IssuerOption{oidctest.WithAutoConfirm()})

		session, err := f.provider.SignUp(ctx, req)
		require.NoError(t, err)
		require.NotNil(t, session)
		require.Equal(t, testEmail, session.Identity.Email)

		events := f.events.all()
		require.Len(t, events, 1)
		require.Equal(t, sessions.EventSignedIn, events[0].kind)
	})

	t.Run("duplicate", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		f.issuer.AddAccount(testEmail, testPassword, testName)

		_, err := f.provider.SignUp(ctx, req)
		require.True(t, identity.IsAlreadyRegistered(err))
		pe, _ := identity.AsProviderError(err)
		require.Equal(t, 409, pe.Status)
	})

	t.Run("weak password is shown verbatim", func(t *testing.T) {
		f := setupTestFixture(t, nil)
		weak := req
		weak.Password = "123"

		_, err := f.provider.SignUp(ctx, weak)
		pe, ok := identity.AsProviderError(err)
		require.True(t, ok)
		require.Equal(t, "weak_password", pe.Code)
		require.Equal(t, "Password should be at least 6 characters", pe.Error())
		require.False(t, identity.IsAlreadyRegistered(err))
	})
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, nil)
	f.issuer.AddAccount(testEmail, testPassword, testName)

	session, err := f.provider.SignIn(ctx, testEmail, testPassword)
	require.NoError(t, err)

	require.NoError(t, f.provider.SignOut(ctx))

	revocations := f.issuer.Revocations()
	require.Len(t, revocations, 2)
	require.Equal(t, oidctest.Revocation{Token: session.RefreshToken, TokenTypeHint: "refresh_token", ClientID: clientID}, revocations[0])
	require.Equal(t, oidctest.Revocation{Token: session.AccessToken, TokenTypeHint: "access_token", ClientID: clientID}, revocations[1])

	current, err := f.provider.GetCurrentSession(ctx)
	require.NoError(t, err)
	require.Nil(t, current)

	events := f.events.all()
	require.Len(t, events, 2)
	require.Equal(t, sessions.EventSignedOut, events[1].kind)
	require.Nil(t, events[1].session)

	t.Run("without a session", func(t *testing.T) {
		require.NoError(t, f.provider.SignOut(ctx))
		require.Len(t, f.issuer.Revocations(), 2)
		require.Len(t, f.events.all(), 3)
	})

	t.Run("revocation failure is not fatal", func(t *testing.T) {
		_, err := f.provider.SignIn(ctx, testEmail, testPassword)
		require.NoError(t, err)
		f.issuer.Close()
		require.NoError(t, f.provider.SignOut(ctx))
	})
}

func TestExpiredSessionIsDropped(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	repo := sessions.NewInMemoryRepo()
	f := setupTestFixture(t, nil,
		oidcprovider.WithSessionRepo(repo),
		oidcprovider.WithNowTime(func() time.Time { return now }),
	)
	f.issuer.AddAccount(testEmail, testPassword, testName)

	_, err := f.provider.SignIn(ctx, testEmail, testPassword)
	require.NoError(t, err)
	_, err = repo.Current()
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	current, err := f.provider.GetCurrentSession(ctx)
	require.NoError(t, err)
	require.Nil(t, current)
	_, err = repo.Current()
	require.Error(t, err)
}
