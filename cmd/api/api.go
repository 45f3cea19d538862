package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"worthit/docs" //this is required to generate swagger docs
	"worthit/internal/auth"
	"worthit/internal/consensus"
	"worthit/internal/domain/claim"
	"worthit/internal/domain/suggestion"
	"worthit/internal/events"
	"worthit/internal/mailer"
	"worthit/internal/ratelimiter"
	"worthit/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         store.Storage
	suggestions   suggestion.Store
	claims        claim.Store
	gateway       *suggestion.Gateway
	consensus     consensus.Config
	logger        *zap.SugaredLogger
	mailer        mailer.Client
	authenticator auth.Authenticator
	sink          events.Sink
	ipLimiter     *ratelimiter.FixedWindowRateLimiter
}

type config struct {
	addr        string
	db          dbConfig
	env         string
	apiURL      string
	mail        mailConfig
	frontendURL string
	auth        authConfig
	quota       quotaConfig
	rateLimiter ratelimiter.Config
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret string
	iss    string
	aud    string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

type dbConfig struct {
	addr         string
	maxOpenConns int
	maxIdleConns int
	maxIdleTime  string
}

type quotaConfig struct {
	submissionsPerDay int
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/suggestions", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)

			// Public intake gets the per-IP shield on top of the
			// per-user daily quota inside the gateway.
			r.With(app.SubmissionRateLimit).Post("/dishes", app.submitDishSuggestionHandler)
			r.With(app.SubmissionRateLimit).Post("/restaurants", app.submitRestaurantSuggestionHandler)

			r.Get("/mine", app.listMySuggestionsHandler)
			r.Delete("/{suggestionID}", app.cancelSuggestionHandler)
		})

		r.Route("/restaurants/{restaurantID}", func(r chi.Router) {
			r.Get("/dishes/ranked", app.rankedDishesHandler)

			r.Group(func(r chi.Router) {
				r.Use(app.AuthTokenMiddleware)
				r.Post("/claims", app.submitClaimHandler)
				r.Get("/ownership", app.ownershipStatusHandler)
			})
		})

		r.Route("/claims", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Delete("/{claimID}", app.cancelClaimHandler)
		})

		r.Route("/dishes", func(r chi.Router) {
			r.With(app.AuthTokenMiddleware).Get("/favorites", app.listFavoritesHandler)

			r.Route("/{dishID}", func(r chi.Router) {
				r.Get("/consensus", app.dishConsensusHandler)

				r.Group(func(r chi.Router) {
					r.Use(app.AuthTokenMiddleware)
					r.Post("/votes", app.castVoteHandler)
					r.Post("/favorite", app.addFavoriteHandler)
					r.Delete("/favorite", app.removeFavoriteHandler)
				})
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Use(app.RequireAdmin)

			r.Route("/suggestions", func(r chi.Router) {
				r.Get("/", app.adminListSuggestionsHandler)
				r.Post("/{suggestionID}/approve", app.adminApproveSuggestionHandler)
				r.Post("/{suggestionID}/reject", app.adminRejectSuggestionHandler)
				r.Post("/{suggestionID}/duplicate", app.adminMarkDuplicateHandler)
			})

			r.Route("/claims", func(r chi.Router) {
				r.Get("/", app.adminListClaimsHandler)
				r.Post("/{claimID}/approve", app.adminApproveClaimHandler)
				r.Post("/{claimID}/reject", app.adminRejectClaimHandler)
			})
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
