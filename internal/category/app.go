// Package category wires and runs the catalog service.
package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/account/grpcapi"
	"github.com/dmitrijs2005/reviewhub/internal/auth"
	"github.com/dmitrijs2005/reviewhub/internal/category/config"
	"github.com/dmitrijs2005/reviewhub/internal/category/events"
	"github.com/dmitrijs2005/reviewhub/internal/category/httpapi"
	"github.com/dmitrijs2005/reviewhub/internal/category/repositories/repomanager"
	"github.com/dmitrijs2005/reviewhub/internal/category/services"
	"github.com/dmitrijs2005/reviewhub/internal/dbx"
	"github.com/dmitrijs2005/reviewhub/internal/httpx"
	"github.com/dmitrijs2005/reviewhub/internal/logging"
	"github.com/dmitrijs2005/reviewhub/internal/mq"
	"github.com/dmitrijs2005/reviewhub/internal/timex"
	amqp "github.com/rabbitmq/amqp091-go"
)

type App struct {
	config *config.Config
	logger logging.Logger

	db        *sql.DB
	amqpConn  *amqp.Connection
	publisher *mq.Publisher
	account   *grpcapi.Client

	catalog *services.CategoryService
	authn   httpx.Authenticator
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	app := &App{
		config: c,
		logger: logging.New(os.Stdout, c.LogFormat, c.LogLevel).With("service", "category"),
	}
	clock := timex.SystemClock{}
	repos := repomanager.NewPostgresRepositoryManager()

	db, err := dbx.OpenPostgres(ctx, c.DatabaseDSN, dbx.DefaultPool)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	if err := repos.RunMigrations(ctx, db); err != nil {
		app.Close()
		return nil, fmt.Errorf("db migrations error: %w", err)
	}

	var pub events.Publisher = events.NewLogPublisher(app.logger)
	if c.AMQPURL != "" {
		conn, err := amqp.Dial(c.AMQPURL)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("amqp dial: %w", err)
		}
		app.amqpConn = conn
		app.publisher = mq.NewPublisher(conn, clock)
		pub = events.NewQueuePublisher(app.publisher, c.EventsQueue)
	}

	tokens := auth.NewTokenService(auth.TokenConfig{SigningKey: []byte(c.SecretKey), Issuer: c.Issuer}, clock)
	app.authn = httpx.NewTokenAuthenticator(tokens)
	if c.AccountGRPCAddr != "" {
		client, err := grpcapi.NewClient(c.AccountGRPCAddr, c.InternalSecret)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.account = client
		app.authn = httpapi.NewIntrospectingAuthenticator(app.authn, client, app.logger)
	}

	app.catalog = services.NewCategoryService(db, repos, pub, clock, app.logger)
	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until a signal arrives or the server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.Close()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	e := httpx.NewEcho(app.logger)
	httpapi.Register(e, httpapi.NewHandler(app.catalog), app.authn)

	done := make(chan struct{})
	go func() {
		defer close(done)
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
	<-done
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) Close() {
	if app.account != nil {
		_ = app.account.Close()
	}
	if app.publisher != nil {
		_ = app.publisher.Close()
	}
	if app.amqpConn != nil {
		_ = app.amqpConn.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}
