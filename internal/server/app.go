// Package server initializes and runs the auth service: it opens storage,
// applies migrations, starts the notification dispatcher and serves the HTTP
// API and the gRPC health endpoint until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/notifier"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
	hs "github.com/dmitrijs2005/gophauth/internal/server/http"
)

const (
	dbConnectTimeout = 10 * time.Second
	mailSendTimeout  = 15 * time.Second
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	dispatcher  *notifier.Dispatcher
	metrics     *metrics.Metrics
	tokens      *auth.TokenManager
	userService *services.UserService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(c.LogBackend)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN, dbConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	sender, err := newSender(c, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	m := metrics.New()
	d := notifier.NewDispatcher(notifier.DispatcherConfig{
		Workers:     c.NotifierWorkers,
		QueueSize:   c.NotifierQueueSize,
		SendTimeout: mailSendTimeout,
	}, sender, logger, m)

	tokens := auth.NewTokenManager(c)
	us := services.NewUserService(db, rm, tokens, d, logger, m, c)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		dispatcher:  d,
		metrics:     m,
		tokens:      tokens,
		userService: us,
	}, nil
}

// newSender picks SMTP delivery when a mail server is configured and falls
// back to logging otherwise.
func newSender(c *config.Config, logger logging.Logger) (notifier.Sender, error) {
	if c.MailServer == "" {
		logger.Warn(context.Background(), "MAIL_SERVER not set, notifications will only be logged")
		return notifier.NewLogSender(logger), nil
	}
	s, err := notifier.NewSMTPSender(c)
	if err != nil {
		return nil, fmt.Errorf("mail init error: %w", err)
	}
	return s, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := hs.NewHTTPServer(app.config, app.logger, app.userService, app.tokens, app.db, app.metrics)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	// pending notifications are flushed before storage goes away
	app.dispatcher.Close()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
