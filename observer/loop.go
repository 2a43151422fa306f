package observer

import (
	"context"

	"github.com/jrsteele09/go-auth-portal/profiles"
	"github.com/jrsteele09/go-auth-portal/sessions"
)

type event interface{ isEvent() }

// changeEvent is a provider notification
type changeEvent struct {
	kind    sessions.EventKind
	session *sessions.Session
}

// initialEvent is the result of the one-shot current-session lookup
type initialEvent struct {
	session *sessions.Session
}

// profileResult is a finished profile lookup
type profileResult struct {
	userID  string
	profile *profiles.Profile
	err     error
}

// signedOutEvent is a sign-out this observer requested itself
type signedOutEvent struct{}

func (changeEvent) isEvent()    {}
func (initialEvent) isEvent()   {}
func (profileResult) isEvent()  {}
func (signedOutEvent) isEvent() {}

// run is the single writer of o.snapshot.
func (o *Observer) run(ctx context.Context) {
	defer close(o.loopDone)
	for {
		select {
		case <-o.done:
			return
		case ev := <-o.events:
			// select picks at random when both are ready
			if o.isStopping() {
				return
			}
			o.handle(ctx, ev)
		}
	}
}

func (o *Observer) isStopping() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

func (o *Observer) handle(ctx context.Context, ev event) {
	switch ev := ev.(type) {
	case changeEvent:
		o.logger.Debug().Str("event", string(ev.kind)).Str("user_id", ev.session.UserID()).Msg("session change")
		o.applySession(ev.session)
		if ev.session != nil {
			// Deferred: the lookup runs as its own task once this event is applied
			go o.fetchProfile(ctx, ev.session.Identity.ID)
		}

	case initialEvent:
		o.logger.Debug().Str("user_id", ev.session.UserID()).Msg("initial session resolved")
		o.applySession(ev.session)

	case signedOutEvent:
		o.applySession(nil)

	case profileResult:
		o.applyProfile(ev)
	}
}

// applySession replaces the current session (last write wins) and redirects on a transition
// into Unauthenticated.
func (o *Observer) applySession(session *sessions.Session) {
	o.stateLock.Lock()
	prev := o.snapshot
	next := prev.withSession(session)
	o.snapshot = next
	o.stateLock.Unlock()

	o.publish(next)
	if next.State == Unauthenticated && prev.State != Unauthenticated {
		o.callOut(func() { o.navigator.GoTo(o.redirectRoute) })
	}
}

// applyProfile updates the display name if the result still belongs to the current session.
func (o *Observer) applyProfile(res profileResult) {
	if res.err != nil {
		o.logger.Err(res.err).Str("user_id", res.userID).Msg("error fetching profile")
		return
	}
	if res.profile == nil || res.profile.FullName == "" {
		return
	}

	o.stateLock.Lock()
	if o.snapshot.Session == nil || o.snapshot.Session.Identity.ID != res.userID {
		o.stateLock.Unlock()
		o.logger.Debug().Str("user_id", res.userID).Msg("dropping profile for a session that is no longer current")
		return
	}
	if o.snapshot.DisplayName == res.profile.FullName {
		o.stateLock.Unlock()
		return
	}
	o.snapshot.DisplayName = res.profile.FullName
	next := o.snapshot
	o.stateLock.Unlock()

	o.publish(next)
}

func (o *Observer) publish(s Snapshot) {
	if o.listener != nil {
		o.callOut(func() { o.listener(s.copy()) })
	}
}

func (o *Observer) callOut(fn func()) {
	o.callingOut.Store(true)
	defer o.callingOut.Store(false)
	fn()
}
