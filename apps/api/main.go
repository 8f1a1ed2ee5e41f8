package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	echoapi "github.com/apoiopedagogico/portal/apps/api/echo"
	"github.com/apoiopedagogico/portal/apps/shared"
	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/account"
	"github.com/apoiopedagogico/portal/core/formation"
	"github.com/apoiopedagogico/portal/core/mindmap"
	"github.com/apoiopedagogico/portal/core/profile"
	"github.com/apoiopedagogico/portal/core/session"
	"github.com/apoiopedagogico/portal/core/trainer"
	"github.com/apoiopedagogico/portal/services/identity"
	"github.com/apoiopedagogico/portal/services/textgen"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := shared.NewLogger(conf)
	defer logger.Close()

	ctx := context.Background()

	repos, err := shared.OpenRepositories(ctx, conf, true /* migrate */)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = repos.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()

	accountSvc := account.NewService(repos.Accounts, shared.NewMailService(conf, logger), conf)
	profileSvc := profile.NewService(repos.Profiles)
	trainerSvc := trainer.NewService(repos.Trainers)
	formationSvc := formation.NewService(repos.Formations, trainerSvc)

	auth, err := newAuthenticator(ctx, conf, accountSvc)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up identity provider: %v", err), err)
	}

	var mindMaps *mindmap.Generator
	if conf.TextGen.APIKey != "" {
		mindMaps = mindmap.NewGenerator(textgen.NewClient(conf))
	} else {
		logger.Warn("text generation is not configured: mind maps are disabled")
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := shared.NewValidator()
	core.ParseEmailTemplates(logger)
	account.LoadCommonPasswords(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:         conf,
		Logger:       logger,
		Validate:     validate,
		Translator:   translator,
		Auth:         auth,
		AccountSvc:   accountSvc,
		Resolver:     session.NewResolver(profileSvc),
		FormationSvc: formationSvc,
		TrainerSvc:   trainerSvc,
		ProfileSvc:   profileSvc,
		MindMaps:     mindMaps,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func newAuthenticator(ctx context.Context, conf *core.Config, accounts *account.Service) (echoapi.Authenticator, error) {
	if conf.Identity.Provider == "oidc" {
		p, err := identity.NewOIDCProvider(ctx, conf)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return identity.NewAccountAuthenticator(accounts), nil
}
