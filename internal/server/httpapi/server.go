// Package httpapi exposes login, the request authorizer, the recipe routes
// and the public key set over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/dmitrijs2005/familyrecipe/internal/logging"
	"github.com/dmitrijs2005/familyrecipe/internal/server/auth"
	"github.com/dmitrijs2005/familyrecipe/internal/server/metrics"
	"github.com/dmitrijs2005/familyrecipe/internal/server/models"
	"github.com/dmitrijs2005/familyrecipe/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/familyrecipe/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
	corsMaxAge      = 300
)

type UserService interface {
	Login(ctx context.Context, username, password string) (string, error)
	ChangePassword(ctx context.Context, username, newPassword string) error
}

type RecipeService interface {
	List(ctx context.Context, familyID string, limit int, cursor string) (*recipes.Page, error)
	Create(ctx context.Context, id auth.Identity, in services.NewRecipe) (*models.Recipe, error)
	PresignUpload(ctx context.Context, familyID, fileName string) (string, string, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, header, methodArn string) (*auth.AccessDecision, error)
}

type KeySet interface {
	JWKS(ctx context.Context) (jwk.Set, error)
}

// Deps are the services behind the routes. Metrics may be nil.
type Deps struct {
	Users          UserService
	Recipes        RecipeService
	Authorizer     Authorizer
	Keys           KeySet
	Metrics        *metrics.Metrics
	ResourcePrefix string
}

type Server struct {
	address string
	deps    Deps
	logger  logging.Logger
	router  chi.Router
}

func NewServer(address string, l logging.Logger, deps Deps) *Server {
	s := &Server{
		address: address,
		deps:    deps,
		logger:  l.With("module", "http_server"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
		s.observe,
		// preflights are answered here, before any route or auth check
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", common.AuthorizationHeaderName},
			MaxAge:         corsMaxAge,
		}),
	)

	r.Post("/login", s.handleLogin)
	r.Post("/authorize", s.handleAuthorize)
	r.Get("/.well-known/jwks.json", s.handleJWKS)
	r.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/test", s.handleRecipesTest)
			r.Get("/list-recipes", s.handleListRecipes)
			r.Post("/create", s.handleCreateRecipe)
			r.Get("/upload-url", s.handleUploadURL)
		})
		r.Post("/users/change-password", s.handleChangePassword)
	})

	return r
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
