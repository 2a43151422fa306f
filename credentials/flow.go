// Package credentials validates the credential form and submits it to the identity provider.
package credentials

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jrsteele09/go-auth-portal/identity"
	"github.com/jrsteele09/go-auth-portal/internal/errors"
	"github.com/jrsteele09/go-auth-portal/navigation"
	"github.com/jrsteele09/go-auth-portal/notify"
	"github.com/rs/zerolog/log"
)

// ErrInFlight is returned by Submit while another submission has not finished.
var ErrInFlight = errors.New("submission already in flight")

// Outcome is how a submission ended.
type Outcome int

const (
	// OutcomeInvalid means a local rule failed and nothing was sent
	OutcomeInvalid Outcome = iota
	// OutcomeSignedIn means the provider accepted the login
	OutcomeSignedIn
	// OutcomeConfirmationPending means the account was created and awaits email confirmation
	OutcomeConfirmationPending
	// OutcomeRejected means the provider answered with an error
	OutcomeRejected
	// OutcomeFailed means the provider could not be reached or the request blew up
	OutcomeFailed
	// OutcomeBusy means another submission was still in flight
	OutcomeBusy
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeSignedIn:
		return "signed_in"
	case OutcomeConfirmationPending:
		return "confirmation_pending"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	case OutcomeBusy:
		return "busy"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Flow is one credential form instance.
type Flow struct {
	provider       identity.Provider
	navigator      navigation.Navigator
	notifier       notify.Notifier
	redirectTarget string
	mainRoute      string

	modeLock sync.RWMutex
	mode     Mode

	inFlight atomic.Bool
}

// FlowOption defines a function type to modify the Flow instance.
type FlowOption func(*Flow)

// WithMainRoute sets where a successful login navigates to
func WithMainRoute(route string) FlowOption {
	return func(f *Flow) {
		f.mainRoute = route
	}
}

// WithInitialMode overrides the starting mode
func WithInitialMode(mode Mode) FlowOption {
	return func(f *Flow) {
		f.mode = mode
	}
}

// NewFlow creates a form in sign-up mode. redirectTarget is handed to the provider on
// sign-up as the place the confirmation email returns to.
func NewFlow(
	provider identity.Provider,
	navigator navigation.Navigator,
	notifier notify.Notifier,
	redirectTarget string,
	options ...FlowOption,
) (*Flow, error) {
	if provider == nil {
		return nil, errors.New("[credentials.NewFlow] provider is required")
	}
	if navigator == nil {
		return nil, errors.New("[credentials.NewFlow] navigator is required")
	}
	if notifier == nil {
		return nil, errors.New("[credentials.NewFlow] notifier is required")
	}

	f := &Flow{
		provider:       provider,
		navigator:      navigator,
		notifier:       notifier,
		redirectTarget: redirectTarget,
		mainRoute:      navigation.RouteMain,
		mode:           ModeSignUp,
	}
	for _, opt := range options {
		opt(f)
	}
	return f, nil
}

func (f *Flow) Mode() Mode {
	f.modeLock.RLock()
	defer f.modeLock.RUnlock()
	return f.mode
}

func (f *Flow) SetMode(mode Mode) {
	f.modeLock.Lock()
	defer f.modeLock.Unlock()
	f.mode = mode
}

// Toggle flips between sign-up and login and returns the new mode
func (f *Flow) Toggle() Mode {
	f.modeLock.Lock()
	defer f.modeLock.Unlock()
	f.mode = f.mode.Other()
	return f.mode
}

// InFlight reports whether a submission is waiting on the provider
func (f *Flow) InFlight() bool {
	return f.inFlight.Load()
}

// Submit validates fields for the current mode and issues exactly one provider request.
// Every outcome is also reported to the notifier. The returned error is nil only for
// OutcomeSignedIn and OutcomeConfirmationPending.
func (f *Flow) Submit(ctx context.Context, fields Fields) (outcome Outcome, err error) {
	if !f.inFlight.CompareAndSwap(false, true) {
		return OutcomeBusy, ErrInFlight
	}
	defer f.inFlight.Store(false)
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("credential submission panicked")
			f.notifier.Notify(notify.KindError, MsgGenericFailure)
			outcome, err = OutcomeFailed, fmt.Errorf("[Flow.Submit] panic: %v", r)
		}
	}()

	mode := f.Mode()
	if err := Validate(fields, mode); err != nil {
		var verr *ValidationError
		errors.As(err, &verr)
		f.notifier.Notify(notify.KindError, verr.Message)
		return OutcomeInvalid, err
	}

	if mode == ModeLogin {
		return f.signIn(ctx, fields)
	}
	return f.signUp(ctx, fields)
}

func (f *Flow) signIn(ctx context.Context, fields Fields) (Outcome, error) {
	email := strings.TrimSpace(fields.Email)
	if _, err := f.provider.SignIn(ctx, email, fields.Password); err != nil {
		return f.providerFailure("provider.SignIn", err, identity.IsInvalidCredentials, MsgIncorrectLogin)
	}

	log.Info().Str("email", email).Msg("signed in")
	f.notifier.Notify(notify.KindSuccess, MsgWelcomeBack)
	f.navigator.GoTo(f.mainRoute)
	return OutcomeSignedIn, nil
}

func (f *Flow) signUp(ctx context.Context, fields Fields) (Outcome, error) {
	req := identity.SignUpRequest{
		Email:      strings.TrimSpace(fields.Email),
		Password:   fields.Password,
		FullName:   strings.TrimSpace(fields.FullName),
		RedirectTo: f.redirectTarget,
	}
	if _, err := f.provider.SignUp(ctx, req); err != nil {
		return f.providerFailure("provider.SignUp", err, identity.IsAlreadyRegistered, MsgAlreadyRegistered)
	}

	log.Info().Str("email", req.Email).Msg("account created, awaiting confirmation")
	f.notifier.Notify(notify.KindSuccess, MsgAccountCreated)
	f.SetMode(ModeLogin)
	return OutcomeConfirmationPending, nil
}

// providerFailure shows classifiedMsg when classify matches, the provider's own message for
// any other provider error, and the generic failure for everything else.
func (f *Flow) providerFailure(call string, err error, classify func(error) bool, classifiedMsg string) (Outcome, error) {
	pe, ok := identity.AsProviderError(err)
	if !ok {
		log.Err(err).Str("call", call).Msg("identity provider request failed")
		f.notifier.Notify(notify.KindError, MsgGenericFailure)
		return OutcomeFailed, errors.Wrapf(err, "[Flow.Submit] %s", call)
	}

	msg := pe.Error()
	if classify(err) {
		msg = classifiedMsg
	}
	log.Debug().Str("call", call).Str("code", pe.Code).Msg("identity provider rejected request")
	f.notifier.Notify(notify.KindError, msg)
	return OutcomeRejected, errors.Wrapf(err, "[Flow.Submit] %s", call)
}

// RedirectIfSignedIn sends the user to the main view when the provider already holds a
// session. A failed lookup is logged and leaves the form where it is.
func (f *Flow) RedirectIfSignedIn(ctx context.Context) bool {
	session, err := f.provider.GetCurrentSession(ctx)
	if err != nil {
		log.Err(err).Msg("session lookup failed")
		return false
	}
	if session == nil {
		return false
	}
	f.navigator.GoTo(f.mainRoute)
	return true
}
