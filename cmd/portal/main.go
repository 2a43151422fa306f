package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-auth-portal/console"
	"github.com/jrsteele09/go-auth-portal/identity"
	"github.com/jrsteele09/go-auth-portal/identity/fakeprovider"
	"github.com/jrsteele09/go-auth-portal/identity/oidcprovider"
	"github.com/jrsteele09/go-auth-portal/internal/config"
	"github.com/jrsteele09/go-auth-portal/internal/logging"
	"github.com/jrsteele09/go-auth-portal/navigation"
	"github.com/jrsteele09/go-auth-portal/profiles/sqlite"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running portal")
	}
	log.Info().Msg("Portal stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		waitForStopSignal()
		cancel()
	}()

	store, err := sqlite.Open(c.GetProfileDBPath())
	if err != nil {
		return fmt.Errorf("sqlite.Open: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Err(err).Msg("Failed to close profile store")
		}
	}()

	provider, err := newProvider(ctx, c, store)
	if err != nil {
		return err
	}

	fd := int(os.Stdin.Fd())
	portal, err := console.New(provider, store, navigation.NewRouter(navigation.RouteMain, 8), os.Stdin, os.Stdout, c.GetSiteURL(),
		console.WithTerminal(fd),
		console.WithColour(term.IsTerminal(int(os.Stdout.Fd()))),
	)
	if err != nil {
		return err
	}

	if err := portal.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("portal.Run: %w", err)
	}
	return nil
}

// newProvider builds the configured identity provider. Memory mode writes profiles to the
// same store the portal reads them from.
func newProvider(ctx context.Context, c config.Config, store *sqlite.Store) (identity.Provider, error) {
	switch c.GetProvider() {
	case config.ProviderMemory:
		opts := []fakeprovider.ProviderOption{fakeprovider.WithProfileWriter(store)}
		if c.GetMemoryAutoConfirm() {
			opts = append(opts, fakeprovider.WithAutoConfirm())
		}
		log.Warn().Msg("Using the in-memory identity provider, accounts are lost on exit")
		return fakeprovider.New(opts...), nil

	case config.ProviderOIDC:
		p, err := oidcprovider.New(ctx, oidcprovider.Config{
			IssuerURL:    c.GetIssuerURL(),
			ClientID:     c.GetClientID(),
			ClientSecret: c.GetClientSecret(),
			Scopes:       c.GetScopes(),
		})
		if err != nil {
			return nil, fmt.Errorf("oidcprovider.New: %w", err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown provider %q", c.GetProvider())
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
