package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apoiopedagogico/portal/core"
	"github.com/apoiopedagogico/portal/core/account"
	"github.com/apoiopedagogico/portal/core/formation"
	"github.com/apoiopedagogico/portal/core/mindmap"
	"github.com/apoiopedagogico/portal/core/profile"
	"github.com/apoiopedagogico/portal/core/session"
	"github.com/apoiopedagogico/portal/core/trainer"
)

type (
	// Authenticator checks credentials against the identity provider without keeping any signed-in
	// state, since it is shared by every request.
	Authenticator interface {
		Authenticate(ctx context.Context, email, password string) (session.Identity, error)
	}

	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		Auth         Authenticator
		AccountSvc   *account.Service
		Resolver     *session.Resolver
		FormationSvc *formation.Service
		TrainerSvc   *trainer.Service
		ProfileSvc   *profile.Service
		MindMaps     *mindmap.Generator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		tokens   tokenIssuer
		metrics  *metrics
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		tokens:   newTokenIssuer(deps.Conf),
		metrics:  newMetrics(prometheus.NewRegistry()),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(s.metrics.middleware)

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	s.app.GET("/health", health)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	registerPublicAPI(s.app.Group(""), s.deps.FormationSvc, s.metrics)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.tokens.middlewareConfig())

	registerAuthAPI(v1, jwt, s.tokens, s.deps)
	registerTrainerAPI(v1, jwt, s.deps)
	registerFormationAPI(v1, jwt, s.deps)
	registerProfileAPI(v1, jwt, s.deps)
	registerMindMapAPI(v1, jwt, s.deps)
}

// Start listens until the server is shut down. Listener failures are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the owner of the server to shut it down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// IssueToken signs an API token for sess.
func (s *Server) IssueToken(sess session.Session) (string, error) {
	return s.tokens.generate(s.tokens.claims(sess))
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Bem-vindo ao Portal de Apoio Pedagogico!")
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
