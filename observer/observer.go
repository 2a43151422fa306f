// Package observer keeps the portal's view of the current session.
//
// An Observer reconciles two sources that race from Start: the provider's session-change
// notifications and a one-shot "current session" lookup. Both feed a single event loop, the
// only writer of the observer's state, so events are applied in arrival order and the source
// resolving last decides the final state. Either source can move the view out of Loading and
// either can trigger the redirect to credential entry; the redirect fires once per transition
// into Unauthenticated.
//
// Profile lookups are best effort. They run as independent tasks, their failures are logged,
// and they only ever change the display name.
package observer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jrsteele09/go-auth-portal/identity"
	"github.com/jrsteele09/go-auth-portal/internal/errors"
	"github.com/jrsteele09/go-auth-portal/navigation"
	"github.com/jrsteele09/go-auth-portal/notify"
	"github.com/jrsteele09/go-auth-portal/profiles"
	"github.com/jrsteele09/go-auth-portal/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	eventQueueSize = 64

	msgSignedOut      = "Signed out successfully"
	msgSignOutFailure = "Error signing out"
)

// Observer owns the session-change subscription between Start and Stop.
type Observer struct {
	provider      identity.Provider
	profiles      profiles.Reader
	navigator     navigation.Navigator
	notifier      notify.Notifier
	redirectRoute string
	listener      func(Snapshot)
	logger        zerolog.Logger

	events   chan event
	done     chan struct{}
	loopDone chan struct{}
	// callingOut is set while the loop runs the listener or the navigator
	callingOut atomic.Bool

	lifecycle   sync.Mutex
	started     bool
	stopped     bool
	unsubscribe identity.Unsubscribe
	cancel      context.CancelFunc
	stopOnce    sync.Once

	stateLock sync.RWMutex
	snapshot  Snapshot
}

// ObserverOption defines a function type to modify the Observer instance.
type ObserverOption func(*Observer)

// WithListener is called from the event loop with every new snapshot. It must not block.
func WithListener(listener func(Snapshot)) ObserverOption {
	return func(o *Observer) {
		o.listener = listener
	}
}

// WithRedirectRoute sets where the observer sends the user when there is no session.
func WithRedirectRoute(route string) ObserverOption {
	return func(o *Observer) {
		o.redirectRoute = route
	}
}

// WithNotifier sets where SignOut reports its outcome.
func WithNotifier(notifier notify.Notifier) ObserverOption {
	return func(o *Observer) {
		o.notifier = notifier
	}
}

// WithLogger replaces the global logger
func WithLogger(logger zerolog.Logger) ObserverOption {
	return func(o *Observer) {
		o.logger = logger
	}
}

// New creates an Observer in the Loading state. Nothing happens until Start.
func New(
	provider identity.Provider,
	profileReader profiles.Reader,
	navigator navigation.Navigator,
	options ...ObserverOption,
) (*Observer, error) {
	if provider == nil {
		return nil, errors.New("[observer.New] provider is required")
	}
	if profileReader == nil {
		return nil, errors.New("[observer.New] profile reader is required")
	}
	if navigator == nil {
		return nil, errors.New("[observer.New] navigator is required")
	}

	o := &Observer{
		provider:      provider,
		profiles:      profileReader,
		navigator:     navigator,
		notifier:      notify.Nop,
		redirectRoute: navigation.RouteAuth,
		logger:        log.Logger,
		events:        make(chan event, eventQueueSize),
		done:          make(chan struct{}),
		loopDone:      make(chan struct{}),
		snapshot:      Snapshot{State: Loading, DisplayName: profiles.DefaultDisplayName},
	}

	for _, opt := range options {
		opt(o)
	}
	return o, nil
}

// Start subscribes to session changes and, concurrently, looks up the current session.
// Neither cancels the other. ctx bounds the lookups Start issues.
func (o *Observer) Start(ctx context.Context) error {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()

	if o.stopped {
		return errors.Wrapf(errors.ErrStopped, "[Observer.Start]")
	}
	if o.started {
		return errors.Wrapf(errors.ErrAlreadyStarted, "[Observer.Start]")
	}
	o.started = true

	ctx, o.cancel = context.WithCancel(ctx)
	go o.run(ctx)
	o.unsubscribe = o.provider.Subscribe(o.onChange)
	go o.lookupCurrentSession(ctx)
	return nil
}

// Stop releases the subscription and halts the event loop. Notifications and profile results
// arriving afterwards are dropped. Safe to call more than once, and before Start. Stop may be
// called from the listener or from the navigator's GoTo; it then returns without waiting for
// the callback that is still running.
func (o *Observer) Stop() {
	o.stopOnce.Do(func() {
		o.lifecycle.Lock()
		o.stopped = true
		started := o.started
		unsubscribe := o.unsubscribe
		cancel := o.cancel
		o.lifecycle.Unlock()

		if unsubscribe != nil {
			unsubscribe()
		}
		close(o.done)
		if cancel != nil {
			cancel()
		}
		if started && !o.callingOut.Load() {
			<-o.loopDone
		}
	})
}

// State returns the current snapshot.
func (o *Observer) State() Snapshot {
	o.stateLock.RLock()
	defer o.stateLock.RUnlock()
	return o.snapshot.copy()
}

// SignOut ends the session at the provider and reports the outcome to the user. On success
// the observer moves to Unauthenticated, which redirects unless a sign-out notification has
// already done so.
func (o *Observer) SignOut(ctx context.Context) error {
	if err := o.provider.SignOut(ctx); err != nil {
		o.logger.Err(err).Msg("sign out failed")
		o.notifier.Notify(notify.KindError, msgSignOutFailure)
		return errors.Wrapf(err, "[Observer.SignOut] provider.SignOut")
	}

	o.notifier.Notify(notify.KindSuccess, msgSignedOut)
	if !o.running() || !o.post(signedOutEvent{}) {
		// No loop left to run the transition
		o.navigator.GoTo(o.redirectRoute)
	}
	return nil
}

func (o *Observer) running() bool {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()
	return o.started && !o.stopped
}

// onChange is the provider-facing notification handler. It only enqueues.
func (o *Observer) onChange(kind sessions.EventKind, session *sessions.Session) {
	o.post(changeEvent{kind: kind, session: session})
}

// lookupCurrentSession is the one-shot initial query. When it finds a session the profile
// is fetched right here, in the same task, rather than deferred.
func (o *Observer) lookupCurrentSession(ctx context.Context) {
	session, err := o.provider.GetCurrentSession(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		o.logger.Debug().Err(err).Msg("initial session lookup cancelled")
		session = nil
	case err != nil:
		o.logger.Err(err).Msg("initial session lookup failed, treating as signed out")
		session = nil
	}
	if !o.post(initialEvent{session: session}) || session == nil {
		return
	}

	userID := session.Identity.ID
	profile, err := o.profiles.GetProfile(ctx, userID)
	o.post(profileResult{userID: userID, profile: profile, err: err})
}

// fetchProfile is the deferred profile lookup scheduled after a notification.
func (o *Observer) fetchProfile(ctx context.Context, userID string) {
	profile, err := o.profiles.GetProfile(ctx, userID)
	o.post(profileResult{userID: userID, profile: profile, err: err})
}

// post hands ev to the event loop. It reports false once the observer is stopped.
func (o *Observer) post(ev event) bool {
	select {
	case <-o.done:
		return false
	default:
	}

	select {
	case o.events <- ev:
		return true
	case <-o.done:
		return false
	}
}
