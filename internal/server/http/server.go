package http

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const shutdownTimeout = 10 * time.Second

// tokenVerifier is the part of auth.TokenManager the transport needs.
type tokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
	RefreshTTL() time.Duration
}

type HTTPServer struct {
	address      string
	corsOrigins  string
	cookieSecure bool
	users        userService
	tokens       tokenVerifier
	db           Pinger
	metrics      *metrics.Metrics
	logger       logging.Logger
	validate     *validator.Validate
	app          *fiber.App
}

// NewHTTPServer wires routes and middleware. m may be nil, which disables
// /metrics and request metrics.
func NewHTTPServer(cfg *config.Config, l logging.Logger, us userService, tokens tokenVerifier, db Pinger, m *metrics.Metrics) *HTTPServer {
	s := &HTTPServer{
		address:      cfg.EndpointAddrHTTP,
		corsOrigins:  cfg.CORSOrigins,
		cookieSecure: cfg.CookieSecure,
		users:        us,
		tokens:       tokens,
		db:           db,
		metrics:      m,
		logger:       l.With("module", "http_server"),
		validate:     newValidator(),
	}
	s.app = s.newApp()
	return s
}

func (s *HTTPServer) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "gophauth",
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		IdleTimeout:           60 * time.Second,
		ErrorHandler:          newErrorHandler(s.logger),
	})

	app.Use(requestid.New())
	app.Use(s.requestLogger)
	app.Use(recover.New())
	app.Use(cors.New(s.corsConfig()))

	app.Get("/", s.Root)
	app.Get("/health", s.Health)
	if s.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	g := app.Group("/auth")
	g.Post("/signup", s.Signup)
	g.Post("/verify-code", s.VerifyCode)
	g.Post("/resend-code", s.ResendCode)
	g.Post("/login", s.Login)
	g.Post("/refresh", s.Refresh)
	g.Post("/logout", s.Logout)
	g.Post("/forgot-password", s.ForgotPassword)
	g.Post("/reset-password", s.ResetPassword)
	g.Get("/me", s.requireAccessToken, s.Me)

	return app
}

func (s *HTTPServer) corsConfig() cors.Config {
	origins := make([]string, 0)
	for _, o := range strings.Split(s.corsOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	joined := strings.Join(origins, ",")

	// credentials cannot be combined with a wildcard origin
	return cors.Config{
		AllowOrigins:     joined,
		AllowCredentials: joined != "*" && joined != "",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
	}
}

// App returns the underlying fiber application.
func (s *HTTPServer) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errCh <- s.app.Listen(s.address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
