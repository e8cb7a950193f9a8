// democlient is a smoke-test harness for the session and entitlement
// controllers against a live backend: it bootstraps from stored
// credentials, logs in with DEMO_EMAIL/DEMO_PASSWORD if needed, then prints
// the gating decisions the UI would act on.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/credentials/badgerstore"
	"github.com/jrsteele09/go-session-client/entitlement"
	"github.com/jrsteele09/go-session-client/gate"
	"github.com/jrsteele09/go-session-client/httpclient"
	"github.com/jrsteele09/go-session-client/internal/config"
	"github.com/jrsteele09/go-session-client/internal/utils"
	"github.com/jrsteele09/go-session-client/session"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("democlient failed")
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	c := config.New()
	displayAppname(c.GetAppName())

	store, err := badgerstore.Open(c.GetDataFolder())
	if err != nil {
		return fmt.Errorf("badgerstore.Open: %w", err)
	}
	defer store.Close()

	authClient := api.NewAuthClient(c.GetAPIBaseURL())
	sessionController, err := session.NewController(authClient, store,
		session.WithBootstrapTimeout(c.GetBootstrapTimeout()),
		session.WithRefreshTimeout(c.GetRefreshTimeout()),
	)
	if err != nil {
		return fmt.Errorf("session.NewController: %w", err)
	}

	ctx := context.Background()
	status := sessionController.Bootstrap(ctx)
	log.Info().Str("status", string(status)).Msg("bootstrap resolved")

	if status != session.StatusAuthenticated {
		email := config.GetEnv("DEMO_EMAIL", "")
		password := config.GetEnv("DEMO_PASSWORD", "")
		if email == "" || password == "" {
			return errors.New("no stored session and DEMO_EMAIL/DEMO_PASSWORD not set")
		}
		user, err := sessionController.Login(ctx, email, password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		log.Info().Str("user_id", user.ID).Msg("logged in")
	}

	authed, err := httpclient.New(sessionController)
	if err != nil {
		return fmt.Errorf("httpclient.New: %w", err)
	}
	monetizationClient := api.NewMonetizationClient(c.GetAPIBaseURL(), authed)
	entitlementController, err := entitlement.NewController(monetizationClient)
	if err != nil {
		return fmt.Errorf("entitlement.NewController: %w", err)
	}
	if err := entitlementController.Refresh(ctx); err != nil {
		return fmt.Errorf("entitlement refresh: %w", err)
	}

	gateCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	view, err := gate.WaitReady(gateCtx, sessionController, entitlementController)
	if err != nil {
		return fmt.Errorf("gate.WaitReady: %w", err)
	}

	user := utils.Value(view.Session.User)
	fmt.Printf("\nuser:            %s <%s>\n", user.FirstName, user.Email)
	fmt.Printf("premium:         %v\n", view.Entitlement.IsPremium)
	fmt.Printf("trial days left: %d\n", view.Entitlement.TrialDaysLeft)
	fmt.Printf("history access:  %v\n", view.Entitlement.HasHistoryAccess())
	if view.Entitlement.PostTrialSelectionRequired {
		children, err := entitlementController.Children(ctx)
		if err != nil {
			return fmt.Errorf("children: %w", err)
		}
		fmt.Printf("post-trial selection required among %d children\n", len(children))
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
