// Package server wires the store, services, HTTP API and gRPC health
// endpoint together and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/familyrecipe/internal/logging"
	"github.com/dmitrijs2005/familyrecipe/internal/server/auth"
	"github.com/dmitrijs2005/familyrecipe/internal/server/config"
	"github.com/dmitrijs2005/familyrecipe/internal/server/httpapi"
	"github.com/dmitrijs2005/familyrecipe/internal/server/metrics"
	"github.com/dmitrijs2005/familyrecipe/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/familyrecipe/internal/server/services"

	gs "github.com/dmitrijs2005/familyrecipe/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	metrics *metrics.Metrics
	manager *repomanager.KVRepositoryManager
	http    *httpapi.Server
	grpc    *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	m := metrics.New()

	manager, err := repomanager.Open(c, m.StoreRetry)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	if err := manager.RunMigrations(ctx); err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("store migration error: %w", err)
	}

	keys := services.NewKeyService(manager, c.KeyPassphrase, logger)
	users := services.NewUserService(manager, keys, logger, m)
	recipes := services.NewRecipeService(manager, c, logger)
	authorizer := auth.NewAuthorizer(keys, c.AuthorizedRoutes, c.AuthCacheTTL, logger, m)

	h := httpapi.NewServer(c.HTTPAddr, logger, httpapi.Deps{
		Users:          users,
		Recipes:        recipes,
		Authorizer:     authorizer,
		Keys:           keys,
		Metrics:        m,
		ResourcePrefix: c.ResourcePrefix,
	})
	g := gs.NewGRPCServer(c.GRPCHealthAddr, logger, manager)

	return &App{config: c, logger: logger, metrics: m, manager: manager, http: h, grpc: g}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

type runner interface {
	Run(ctx context.Context) error
}

// start runs one server; a failure stops the whole app.
func (app *App) start(ctx context.Context, cancelFunc context.CancelFunc, name string, r runner) {
	if err := r.Run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
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
		app.start(ctx, cancelFunc, "http", app.http)
	}()
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "grpc", app.grpc)
	}()

	wg.Wait()

	if err := app.manager.Close(); err != nil {
		app.logger.Error(ctx, "store close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
