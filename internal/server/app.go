// Package server wires the API process together: configuration, storage,
// the authentication core and the two front doors (HTTP and gRPC). It also
// handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/baleriaa/493/internal/logging"
	"github.com/baleriaa/493/internal/server/auth"
	"github.com/baleriaa/493/internal/server/config"
	"github.com/baleriaa/493/internal/server/metrics"
	"github.com/baleriaa/493/internal/server/ratelimit"
	"github.com/baleriaa/493/internal/server/repositories/repomanager"
	"github.com/baleriaa/493/internal/server/services"
	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/baleriaa/493/internal/server/grpc"
	hs "github.com/baleriaa/493/internal/server/http"
)

// MemoryDSN selects the in-process store instead of PostgreSQL. Data does not
// survive a restart.
const MemoryDSN = "memory"

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	redis     *redis.Client
	metrics   *metrics.Metrics
	tokens    *auth.TokenService
	users     *services.UserService
	resources *services.ResourceService
	limiter   ratelimit.Limiter
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewJSON(os.Stdout, c.LogLevel)
	ctx := context.Background()

	db, repos, err := openStore(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, db, repos)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}
	return app, nil
}

func openStore(ctx context.Context, dsn string) (*sql.DB, repomanager.RepositoryManager, error) {
	if dsn == MemoryDSN {
		return nil, repomanager.NewInMemoryRepositoryManager(), nil
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, repomanager.NewPostgresRepositoryManager(), nil
}

// newApp builds the services on top of an opened store.
func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, repos repomanager.RepositoryManager) (*App, error) {

	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hasher, err := auth.NewHasher(c)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenService(c.SecretKey, c.TokenValidityDuration)
	if err != nil {
		return nil, err
	}

	creds, err := services.NewCredentialStore(db, repos, hasher, c.StoreTimeout)
	if err != nil {
		return nil, err
	}

	var signer services.URLSigner
	if c.S3Bucket != "" {
		signer = services.NewPhotoStorage(c)
	}

	app := &App{
		config:    c,
		logger:    logger,
		db:        db,
		metrics:   metrics.New(),
		tokens:    tokens,
		users:     services.NewUserService(creds, tokens),
		resources: services.NewResourceService(db, repos, signer, c.StoreTimeout, logger),
	}

	if c.RedisAddr != "" {
		client, err := ratelimit.NewClient(ctx, c.RedisAddr)
		if err != nil {
			// throttling is optional, keep serving without it
			logger.Warn(ctx, "redis unavailable, login throttling disabled", "error", err)
		} else {
			app.redis = client
			app.limiter = ratelimit.NewRedisLimiter(client, c.LoginAttemptsPerWindow, c.LoginWindow, "login")
		}
	}

	if c.AdminName != "" {
		created, err := app.users.EnsureAdmin(ctx, c.AdminName, c.AdminEmail, c.AdminPassword)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("bootstrap admin error: %w", err)
		}
		if created {
			logger.Info(ctx, "Bootstrap admin created", "name", c.AdminName)
		}
	}

	return app, nil
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
	s := hs.NewHTTPServer(app.config.EndpointAddrHTTP, hs.Deps{
		Users:     app.users,
		Resources: app.resources,
		Tokens:    app.tokens,
		Limiter:   app.limiter,
		Metrics:   app.metrics,
		Logger:    app.logger,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, gs.Deps{
		Users:   app.users,
		Tokens:  app.tokens,
		Limiter: app.limiter,
		Metrics: app.metrics,
		Logger:  app.logger,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) close() {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}

// Run starts both servers and blocks until ctx is cancelled, a signal
// arrives or one of the servers fails.
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

	app.close()
	app.logger.Info(ctx, "App stopped")
}
