package console

import (
	"context"
	"fmt"
	"io"

	"github.com/jrsteele09/go-auth-portal/notify"
	"github.com/jrsteele09/go-auth-portal/observer"
)

const welcomeText = "Welcome to your personalized space"

// mainView mounts an observer for the visit and stops it on the way out.
func (p *Portal) mainView(ctx context.Context) (string, error) {
	changed := make(chan struct{}, 1)
	obs, err := observer.New(p.provider, p.profiles, p.router,
		observer.WithNotifier(p.notifier),
		observer.WithListener(func(observer.Snapshot) {
			select {
			case changed <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		return "", err
	}
	if err := obs.Start(ctx); err != nil {
		return "", err
	}
	defer obs.Stop()

	var rendered *observer.Snapshot
	render := func() {
		s := obs.State()
		if rendered != nil && rendered.State == s.State && rendered.DisplayName == s.DisplayName {
			return
		}
		rendered = &s
		switch s.State {
		case observer.Loading:
			fmt.Fprintln(p.out, "Loading...")
		case observer.Authenticated:
			p.heading(s.Greeting())
			fmt.Fprintln(p.out, welcomeText)
			p.hint(fmt.Sprintf("Type %q to sign out or %q to exit.", cmdSignOut, cmdQuit))
		}
	}
	render()

	for {
		// Only offer commands once the greeting is on screen
		var lines <-chan lineResult
		if rendered != nil && rendered.State == observer.Authenticated {
			lines = p.input.next(false)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case next := <-p.router.Changes():
			return next, nil

		case <-changed:
			render()

		case res, ok := <-lines:
			p.input.received()
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			switch res.line {
			case cmdQuit:
				return "", errQuit
			case cmdSignOut:
				// SignOut reports its own outcome; on success the redirect follows
				if err := obs.SignOut(ctx); err == nil {
					select {
					case <-ctx.Done():
						return "", ctx.Err()
					case next := <-p.router.Changes():
						return next, nil
					}
				}
			case "":
			default:
				p.notifier.Notify(notify.KindError, fmt.Sprintf("Unknown command %q", res.line))
			}
		}
	}
}
