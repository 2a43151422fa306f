package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-auth-portal/credentials"
)

// authView runs the credential form until a route change takes the user elsewhere.
func (p *Portal) authView(ctx context.Context) (string, error) {
	flow, err := credentials.NewFlow(p.provider, p.router, p.notifier, p.siteURL)
	if err != nil {
		return "", err
	}

	// Already signed in: the redirect is waiting on the router
	if flow.RedirectIfSignedIn(ctx) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case next := <-p.router.Changes():
			return next, nil
		}
	}

	for {
		fields, next, err := p.fillForm(ctx, flow)
		if err != nil || next != "" {
			return next, err
		}
		if fields == nil {
			continue
		}

		outcome, _ := flow.Submit(ctx, *fields)
		if outcome == credentials.OutcomeSignedIn {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case next := <-p.router.Changes():
				return next, nil
			}
		}
	}
}

// fillForm prompts for the fields of the current mode. fields is nil when the user toggled
// the mode and the form should start over.
func (p *Portal) fillForm(ctx context.Context, flow *credentials.Flow) (fields *credentials.Fields, next string, err error) {
	mode := flow.Mode()
	if mode == credentials.ModeSignUp {
		p.heading("Create an account")
		p.hint(fmt.Sprintf("Already have an account? Type %q to sign in.", cmdToggle))
	} else {
		p.heading("Sign in")
		p.hint(fmt.Sprintf("No account yet? Type %q to sign up.", cmdToggle))
	}

	type prompt struct {
		label  string
		masked bool
		dst    *string
	}
	f := &credentials.Fields{}
	prompts := []prompt{
		{label: "Email: ", dst: &f.Email},
		{label: "Password: ", masked: true, dst: &f.Password},
	}
	if mode == credentials.ModeSignUp {
		prompts = append([]prompt{{label: "Full name: ", dst: &f.FullName}}, prompts...)
	}

	for _, pr := range prompts {
		line, next, err := p.readLine(ctx, pr.label, pr.masked)
		if err != nil || next != "" {
			return nil, next, err
		}
		if strings.TrimSpace(line) == cmdToggle {
			flow.Toggle()
			return nil, "", nil
		}
		*pr.dst = line
	}
	return f, "", nil
}
