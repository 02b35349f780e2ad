// Package server wires the wordrush server together and runs its
// listeners: the account API over HTTP, the game API over gRPC and the
// metrics endpoint.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dmitrijs2005/wordrush/internal/dbx"
	"github.com/dmitrijs2005/wordrush/internal/logging"
	"github.com/dmitrijs2005/wordrush/internal/server/auth"
	"github.com/dmitrijs2005/wordrush/internal/server/config"
	"github.com/dmitrijs2005/wordrush/internal/server/metrics"
	"github.com/dmitrijs2005/wordrush/internal/server/notify"
	"github.com/dmitrijs2005/wordrush/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/wordrush/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/wordrush/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/wordrush/internal/server/grpc"
	httpapi "github.com/dmitrijs2005/wordrush/internal/server/http"
)

const (
	connectAttempts = 8
	shutdownTimeout = 5 * time.Second

	sessionAudience    = "session"
	validationAudience = "account-validation"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	closers  []io.Closer
	metrics  *metrics.Metrics
	identity *services.IdentityService
	level    *services.LevelService
	ready    atomic.Bool
}

// NewApp connects to the database, applies migrations and builds the
// services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New("wordrush-server", c.LogLevel)

	db, err := dbx.Open(ctx, repomanager.DriverName, c.DatabaseDSN, connectAttempts)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	app, err := build(ctx, c, logger, db, rm)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {
	app := &App{config: c, logger: logger, db: db, metrics: metrics.New()}

	tokenRepo, err := app.tokenStore(ctx, rm)
	if err != nil {
		return nil, err
	}

	hasher, err := auth.NewArgon2Hasher(auth.Argon2Params{
		Memory:  c.Argon2Memory,
		Time:    c.Argon2Time,
		Threads: c.Argon2Threads,
	})
	if err != nil {
		app.closeClients()
		return nil, err
	}

	sender, err := app.sender()
	if err != nil {
		app.closeClients()
		return nil, err
	}

	composer, err := notify.NewComposer(c.CallbackURLTemplate)
	if err != nil {
		app.closeClients()
		return nil, err
	}

	app.identity, err = services.NewIdentityService(services.IdentityDeps{
		Users:       rm.Users(db),
		Tokens:      tokenRepo,
		Hasher:      hasher,
		Sessions:    auth.NewIssuer(c.AccessTokenSecret, c.TokenIssuer, sessionAudience, c.AccessTokenTTL),
		Validation:  auth.NewIssuer(c.RegistrationTokenSecret, c.TokenIssuer, validationAudience, c.RegistrationTokenTTL),
		Sender:      notify.Observed(sender, app.metrics.Notification),
		Composer:    composer,
		Logger:      logger,
		TokenMaxAge: c.TokenMaxAge,
	})
	if err != nil {
		app.closeClients()
		return nil, err
	}

	app.level = services.NewLevelService(rm.Games(db), rm.Words(db), rm.Users(db), services.LevelConfig{
		EasyWordsToMedium:   c.EasyWordsToMediumLevel,
		MediumWordsToHard:   c.MediumWordsToHardLevel,
		TierHistoryLimit:    c.TierHistoryLimit,
		ProfileHistoryLimit: c.ProfileHistoryLimit,
		WordsPerRound:       c.WordsPerRound,
	})

	return app, nil
}

// tokenStore picks the token backend. Redis entries expire after the token
// max age, or the registration token TTL when no max age is set.
func (app *App) tokenStore(ctx context.Context, rm repomanager.RepositoryManager) (tokens.Repository, error) {
	c := app.config
	if c.TokenStore != config.TokenStoreRedis {
		return rm.Tokens(app.db), nil
	}

	client := redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB})
	ping := dbx.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
	if err := dbx.WaitReady(ctx, ping, connectAttempts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	app.closers = append(app.closers, client)

	ttl := c.TokenMaxAge
	if ttl <= 0 {
		ttl = c.RegistrationTokenTTL
	}
	return tokens.NewRedisRepository(client, ttl), nil
}

func (app *App) sender() (notify.Sender, error) {
	c := app.config
	if c.NotifyDriver == config.NotifyLog {
		return notify.NewLogSender(app.logger), nil
	}
	return notify.NewSMTPSender(notify.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.MailFrom,
	})
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.level, app.identity, app.metrics)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc, name, addr string, h http.Handler) {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	app.logger.Info(ctx, "Starting HTTP server", "server", name, "address", addr)

	select {
	case <-ctx.Done():
		app.logger.Info(ctx, "Stopping HTTP server...", "server", name)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Warn(ctx, "HTTP shutdown", "server", name, "error", err)
		}
		<-errCh
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "HTTP server failed", "server", name, "error", err)
			cancelFunc()
		}
	}
}

// Run serves until ctx is done, a signal arrives or a listener fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	api := httpapi.NewServer(app.identity, app.logger, app.metrics.Middleware)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc, "api", app.config.EndpointAddrHTTP, api.Router())
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc, "metrics", app.config.EndpointAddrMetrics, app.metrics.Handler(app.ready.Load))
	}()

	app.ready.Store(true)
	wg.Wait()
	app.ready.Store(false)

	app.close()
	app.logger.Info(context.Background(), "App stopped")
}

// Identity exposes the account service to operator tooling.
func (app *App) Identity() *services.IdentityService {
	return app.identity
}

// Close releases connections without running the servers.
func (app *App) Close() {
	app.close()
}

func (app *App) closeClients() {
	for _, c := range app.closers {
		_ = c.Close()
	}
	app.closers = nil
}

func (app *App) close() {
	app.closeClients()
	if app.db != nil {
		_ = app.db.Close()
	}
}
