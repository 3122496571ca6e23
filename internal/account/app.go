// Package account wires and runs the account service: the public HTTP API,
// the internal gRPC session API, the email token sweeper and, optionally,
// the mail relay.
package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/account/config"
	"github.com/dmitrijs2005/reviewhub/internal/account/grpcapi"
	"github.com/dmitrijs2005/reviewhub/internal/account/httpapi"
	"github.com/dmitrijs2005/reviewhub/internal/account/notify"
	"github.com/dmitrijs2005/reviewhub/internal/account/repositories/repomanager"
	"github.com/dmitrijs2005/reviewhub/internal/account/services"
	"github.com/dmitrijs2005/reviewhub/internal/account/sweeper"
	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/dbx"
	"github.com/dmitrijs2005/reviewhub/internal/httpx"
	"github.com/dmitrijs2005/reviewhub/internal/logging"
	"github.com/dmitrijs2005/reviewhub/internal/mq"
	"github.com/dmitrijs2005/reviewhub/internal/timex"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config *config.Config
	logger logging.Logger
	clock  timex.Clock

	db         *sql.DB
	repos      repomanager.RepositoryManager
	tokens     *auth.TokenService
	dispatcher notify.Dispatcher
	amqpConn   *amqp.Connection
	publisher  *mq.Publisher
	redis      *redis.Client

	sessions     *services.SessionService
	roles        *services.RoleService
	verification *services.VerificationService
	avatars      *services.AvatarService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	app := &App{
		config: c,
		logger: logging.New(os.Stdout, c.LogFormat, c.LogLevel).With("service", "account"),
		clock:  timex.SystemClock{},
		repos:  repomanager.NewPostgresRepositoryManager(),
	}

	db, err := dbx.OpenPostgres(ctx, c.DatabaseDSN, dbx.DefaultPool)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	if err := app.repos.RunMigrations(ctx, db); err != nil {
		app.Close()
		return nil, fmt.Errorf("db migrations error: %w", err)
	}

	if err := app.initDispatcher(); err != nil {
		app.Close()
		return nil, err
	}

	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB})
	}

	app.tokens = auth.NewTokenService(auth.TokenConfig{
		SigningKey:     []byte(c.SecretKey),
		AccessTokenTTL: c.AccessTokenTTL,
		Issuer:         c.Issuer,
	}, app.clock)

	opts := services.DefaultOptions()
	opts.RefreshTokenTTL = c.RefreshTokenTTL
	opts.EmailTokenTTL = c.EmailTokenTTL
	opts.MaxOutstandingTokens = c.MaxOutstandingTokens

	app.sessions = services.NewSessionService(db, app.repos, app.tokens, app.clock, opts)
	app.roles = services.NewRoleService(db, app.repos)
	app.verification = services.NewVerificationService(db, app.repos, app.dispatcher, app.clock, opts)
	app.avatars = services.NewAvatarService(db, app.repos, services.StorageConfig{
		User:         c.S3User,
		Password:     c.S3Password,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		URLTTL:       c.AvatarUploadTTL,
	})

	return app, nil
}

// initDispatcher picks the mail transport named by the configuration.
func (app *App) initDispatcher() error {
	switch app.config.Notifier {
	case "", "log":
		app.dispatcher = notify.NewLogDispatcher(app.logger)
	case "smtp":
		d, err := notify.NewSMTPDispatcher(app.smtpConfig())
		if err != nil {
			return err
		}
		app.dispatcher = d
	case "amqp":
		conn, err := amqp.Dial(app.config.AMQPURL)
		if err != nil {
			return fmt.Errorf("amqp dial: %w", err)
		}
		app.amqpConn = conn
		app.publisher = mq.NewPublisher(conn, app.clock)
		app.dispatcher = notify.NewAMQPDispatcher(app.publisher, app.config.MailQueue)
	default:
		return fmt.Errorf("unknown notifier %q", app.config.Notifier)
	}
	return nil
}

func (app *App) smtpConfig() notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:     app.config.SMTPHost,
		Port:     app.config.SMTPPort,
		Username: app.config.SMTPUser,
		Password: app.config.SMTPPassword,
		From:     app.config.SMTPFrom,
	}
}

func (app *App) rateLimiter() *httpx.RateLimiter {
	interval := time.Second
	if app.config.RateLimitPerSec > 0 {
		interval = time.Duration(float64(time.Second) / app.config.RateLimitPerSec)
	}
	cfg := httpx.RateLimitConfig{
		Capacity:       app.config.RateLimitBurst,
		RefillTokens:   1,
		RefillInterval: interval,
		Prefix:         "rl:account",
	}
	// A nil *redis.Client would arrive as a non-nil redis.Scripter.
	if app.redis == nil {
		return httpx.NewRateLimiter(nil, cfg, app.clock, app.logger)
	}
	return httpx.NewRateLimiter(app.redis, cfg, app.clock, app.logger)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	e := httpx.NewEcho(app.logger)
	h := httpapi.NewHandler(app.sessions, app.roles, app.verification, app.avatars, app.config.ConfirmationLink)
	httpapi.Register(e, h, httpx.NewTokenAuthenticator(app.tokens), app.rateLimiter().Middleware())

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := e.Start(app.config.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := grpcapi.NewGRPCServer(app.config.GRPCAddr, app.logger, app.sessions, app.config.InternalSecret)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startRelay(ctx context.Context) {
	d, err := notify.NewSMTPDispatcher(app.smtpConfig())
	if err != nil {
		app.logger.Error(ctx, "mail relay disabled", "error", err)
		return
	}
	c := mq.NewConsumer(app.config.AMQPURL, app.config.MailQueue, notify.RelayHandler(d), app.logger)
	if err := c.Run(ctx); err != nil {
		app.logger.Error(ctx, "mail relay stopped", "error", err)
	}
}

// Run blocks until a signal arrives or a server fails, then waits for all
// components to stop and releases resources.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.Close()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		sweeper.New(app.verification.SweepExpired, app.config.SweepInterval, app.logger).Run(ctx)
	}()

	if app.config.RunRelay {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startRelay(ctx)
		}()
	}

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) Close() {
	if app.publisher != nil {
		_ = app.publisher.Close()
	}
	if app.amqpConn != nil {
		_ = app.amqpConn.Close()
	}
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}
