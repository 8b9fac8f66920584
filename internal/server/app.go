// Package server wires the auth API together: it opens the database pool,
// applies migrations, builds the HTTP pipeline and the ops gRPC listener,
// and runs both until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/loginchat/authserver/internal/logging"
	"github.com/loginchat/authserver/internal/server/auth"
	"github.com/loginchat/authserver/internal/server/config"
	"github.com/loginchat/authserver/internal/server/repositories/repomanager"
	"github.com/loginchat/authserver/internal/server/services"

	gs "github.com/loginchat/authserver/internal/server/grpc"
	hs "github.com/loginchat/authserver/internal/server/http"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	httpServer  *hs.HTTPServer
	grpcServer  *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if c.Profile == config.ProfileLocal {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := repomanager.Open(ctx, c.DatabaseDSN, c.DBMaxOpenConns, c.DBMaxIdleConns, c.DBPoolRecycle)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	app := &App{config: c, logger: logger, db: db, repomanager: rm}
	app.httpServer = hs.NewHTTPServer(c.EndpointAddrHTTP, app.buildHandler(), logger, hs.ServerOptions{
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		ShutdownTimeout: c.ShutdownTimeout,
	})
	app.grpcServer = gs.NewHealthServer(c.EndpointAddrGRPC, hs.ServiceName, logger)

	return app, nil
}

func (app *App) buildHandler() http.Handler {
	c := app.config

	issuer := auth.NewTokenIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration, c.CookieCSRFProtect)
	cookies := auth.NewCookieTransport(auth.CookieOptions{
		Secure:        c.CookieSecure,
		SameSite:      auth.ParseSameSite(c.CookieSameSite),
		Domain:        c.CookieDomain,
		CSRFProtect:   c.CookieCSRFProtect,
		AccessMaxAge:  c.AccessTokenValidityDuration,
		RefreshMaxAge: c.RefreshTokenValidityDuration,
	})
	us := services.NewUserService(app.db, app.repomanager, auth.NewPasswordHasher(c.BcryptCost), issuer)

	return hs.NewRouter(
		hs.NewHandlers(us, cookies, app.logger.With("module", "handlers")),
		hs.NewGate(issuer, cookies),
		app.logger.With("module", "http"),
		hs.RouterOptions{
			TrustedHosts:           c.TrustedHosts,
			TrustedHostExceptPaths: c.TrustedHostExceptPaths,
			AllowedOrigins:         c.AllowedOrigins,
		},
	)
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

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "profile", app.config.Profile)

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		_ = app.db.Close()
		return fmt.Errorf("migrations error: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.httpServer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.grpcServer.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	<-ctx.Done()
	app.grpcServer.SetServing(false)

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")

	return nil
}
