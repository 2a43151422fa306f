package console_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-portal/console"
	"github.com/jrsteele09/go-auth-portal/identity/fakeprovider"
	"github.com/jrsteele09/go-auth-portal/navigation"
	"github.com/jrsteele09/go-auth-portal/profiles"
	fakeprofilerepo "github.com/jrsteele09/go-auth-portal/profiles/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "user@test.com"
	testPassword = "secret123"
	testName     = "Juan Pérez"
	siteURL      = "http://localhost:3000/"
)

type testFixture struct {
	provider *fakeprovider.Provider
	profiles *fakeprofilerepo.FakeProfileRepo
	router   *navigation.Router
	out      *bytes.Buffer
}

func setupTestFixture(t *testing.T, initialRoute string) *testFixture {
	t.Helper()
	repo := fakeprofilerepo.NewFakeProfileRepo()
	return &testFixture{
		provider: fakeprovider.New(fakeprovider.WithProfileWriter(repo)),
		profiles: repo,
		router:   navigation.NewRouter(initialRoute, 8),
		out:      &bytes.Buffer{},
	}
}

func (f *testFixture) run(t *testing.T, ctx context.Context, in io.Reader) error {
	t.Helper()
	portal, err := console.New(f.provider, f.profiles, f.router, in, f.out, siteURL)
	require.NoError(t, err)
	return portal.Run(ctx)
}

// syncBuffer is written by the portal while the test reads it
type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func script(lines ...string) io.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func TestNew(t *testing.T) {
	f := setupTestFixture(t, navigation.RouteMain)
	_, err := console.New(nil, f.profiles, f.router, strings.NewReader(""), f.out, siteURL)
	require.ErrorContains(t, err, "provider is required")
	_, err = console.New(f.provider, nil, f.router, strings.NewReader(""), f.out, siteURL)
	require.ErrorContains(t, err, "profile reader is required")
	_, err = console.New(f.provider, f.profiles, nil, strings.NewReader(""), f.out, siteURL)
	require.ErrorContains(t, err, "router is required")
	_, err = console.New(f.provider, f.profiles, f.router, nil, f.out, siteURL)
	require.ErrorContains(t, err, "input and output are required")
}

func TestSignUpConfirmSignInSignOut(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, navigation.RouteMain)

	// Sign up, then toggle back to login after the confirmation notice and fail once before
	// the account is confirmed
	err := f.run(t, ctx, script(
		testName,
		testEmail,
		testPassword,
		testEmail,
		testPassword,
		":quit",
	))
	require.NoError(t, err)

	out := f.out.String()
	require.Contains(t, out, "Loading...")
	require.Contains(t, out, "Create an account")
	require.Contains(t, out, "✔ Account created! Check your email to confirm.")
	require.Contains(t, out, "Sign in")
	require.Contains(t, out, "✖ Email not confirmed")
	require.Equal(t, navigation.RouteAuth, f.router.Current())

	signUps := f.provider.SignUps()
	require.Len(t, signUps, 1)
	require.Equal(t, testName, signUps[0].FullName)
	require.Equal(t, siteURL, signUps[0].RedirectTo)

	require.NoError(t, f.provider.Confirm(testEmail))
	f.out.Reset()

	err = f.run(t, ctx, script(
		":toggle",
		testEmail,
		testPassword,
		"signout",
		":quit",
	))
	require.NoError(t, err)

	out = f.out.String()
	require.Contains(t, out, "✔ Welcome back!")
	require.Contains(t, out, "Hello, ")
	require.Contains(t, out, "Welcome to your personalized space")
	require.Contains(t, out, "✔ Signed out successfully")
	require.Equal(t, navigation.RouteAuth, f.router.Current())
	require.Equal(t, 0, f.provider.Subscribers())
}

func TestValidationErrorsStayOnForm(t *testing.T) {
	f := setupTestFixture(t, navigation.RouteAuth)

	err := f.run(t, context.Background(), script(
		testName,
		testEmail,
		"123",
		"",
		testEmail,
		testPassword,
	))
	require.NoError(t, err)

	out := f.out.String()
	require.Contains(t, out, "✖ Password must be at least 6 characters")
	require.Contains(t, out, "✖ Please enter your full name")
	require.Zero(t, f.provider.Calls(fakeprovider.OpSignUp))
}

func TestSignedInUserSkipsForm(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t, navigation.RouteAuth)
	userID, err := f.provider.AddAccount(ctx, testEmail, testPassword, testName)
	require.NoError(t, err)
	require.NoError(t, f.profiles.UpsertProfile(ctx, profiles.Profile{UserID: userID, FullName: testName}))
	_, err = f.provider.StartSession(testEmail)
	require.NoError(t, err)

	in, w := io.Pipe()
	defer w.Close()
	out := &syncBuffer{}
	portal, err := console.New(f.provider, f.profiles, f.router, in, out, siteURL)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- portal.Run(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Hello, Juan Pérez!")
	}, 2*time.Second, 5*time.Millisecond)
	_, err = io.WriteString(w, ":quit\n")
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("portal did not exit")
	}
	require.NotContains(t, out.String(), "Create an account")
	require.Equal(t, navigation.RouteMain, f.router.Current())
}

func TestRunStopsOnCancel(t *testing.T) {
	f := setupTestFixture(t, navigation.RouteAuth)
	in, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.run(t, ctx, in) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("portal ignored cancellation")
	}
}
