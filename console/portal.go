// Package console is the portal's terminal front end. It renders one view per route: the
// personalized main view, which owns a session observer for as long as it is shown, and the
// credential form.
package console

import (
	"context"
	"fmt"
	"io"

	"github.com/jrsteele09/go-auth-portal/identity"
	"github.com/jrsteele09/go-auth-portal/internal/errors"
	"github.com/jrsteele09/go-auth-portal/navigation"
	"github.com/jrsteele09/go-auth-portal/notify"
	"github.com/jrsteele09/go-auth-portal/profiles"
	"github.com/rs/zerolog/log"
)

const (
	cmdQuit    = ":quit"
	cmdToggle  = ":toggle"
	cmdSignOut = "signout"
)

// errQuit ends Run without an error
var errQuit = errors.New("quit")

type Portal struct {
	provider identity.Provider
	profiles profiles.Reader
	router   *navigation.Router
	notifier notify.Notifier
	out      io.Writer
	input    *lineReader

	in         io.Reader
	terminalFD int
	siteURL    string
	colour     bool
}

// PortalOption defines a function type to modify the Portal instance.
type PortalOption func(*Portal)

// WithTerminal reads passwords from fd without echo when fd is a terminal
func WithTerminal(fd int) PortalOption {
	return func(p *Portal) {
		p.terminalFD = fd
	}
}

// WithColour turns on ANSI colours for headings and notices
func WithColour(colour bool) PortalOption {
	return func(p *Portal) {
		p.colour = colour
	}
}

// WithNotifier replaces the notifier built over out
func WithNotifier(notifier notify.Notifier) PortalOption {
	return func(p *Portal) {
		p.notifier = notifier
	}
}

// New builds a portal that reads commands from in and renders to out. siteURL is where
// confirmation emails send new accounts back to.
func New(
	provider identity.Provider,
	profileReader profiles.Reader,
	router *navigation.Router,
	in io.Reader,
	out io.Writer,
	siteURL string,
	options ...PortalOption,
) (*Portal, error) {
	if provider == nil {
		return nil, errors.New("[console.New] provider is required")
	}
	if profileReader == nil {
		return nil, errors.New("[console.New] profile reader is required")
	}
	if router == nil {
		return nil, errors.New("[console.New] router is required")
	}
	if in == nil || out == nil {
		return nil, errors.New("[console.New] input and output are required")
	}

	p := &Portal{
		provider:   provider,
		profiles:   profileReader,
		router:     router,
		in:         in,
		out:        out,
		terminalFD: -1,
		siteURL:    siteURL,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.notifier == nil {
		p.notifier = notify.NewConsole(out, p.colour)
	}
	return p, nil
}

// Run shows the view for the router's current route and follows route changes until the
// user quits, input ends or ctx is cancelled. Quitting and the end of input return nil.
func (p *Portal) Run(ctx context.Context) error {
	p.input = newLineReader(p.in, p.terminalFD)
	defer p.input.close()

	route := p.router.Current()
	for {
		var (
			next string
			err  error
		)
		switch route {
		case navigation.RouteAuth:
			next, err = p.authView(ctx)
		default:
			next, err = p.mainView(ctx)
		}

		switch {
		case errors.Is(err, errQuit), errors.Is(err, io.EOF):
			log.Debug().Str("route", route).Msg("portal closed")
			return nil
		case err != nil:
			return err
		}
		log.Debug().Str("from", route).Str("to", next).Msg("route change")
		route = next
	}
}

// readLine prompts and waits for a line, a route change or cancellation. On a route change
// next is the new route and line is empty.
func (p *Portal) readLine(ctx context.Context, prompt string, masked bool) (line string, next string, err error) {
	fmt.Fprint(p.out, prompt)
	select {
	case <-ctx.Done():
		return "", "", ctx.Err()
	case next := <-p.router.Changes():
		fmt.Fprintln(p.out)
		return "", next, nil
	case res, ok := <-p.input.next(masked):
		p.input.received()
		if !ok {
			return "", "", io.EOF
		}
		if masked && p.terminalFD >= 0 {
			fmt.Fprintln(p.out)
		}
		if res.err != nil {
			return "", "", res.err
		}
		if res.line == cmdQuit {
			return "", "", errQuit
		}
		return res.line, "", nil
	}
}

func (p *Portal) heading(text string) {
	if p.colour {
		fmt.Fprintln(p.out, notify.Yellow+text+notify.ResetColor)
		return
	}
	fmt.Fprintln(p.out, text)
}

func (p *Portal) hint(text string) {
	if p.colour {
		fmt.Fprintln(p.out, notify.Gray+text+notify.ResetColor)
		return
	}
	fmt.Fprintln(p.out, text)
}
