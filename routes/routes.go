package routes

import (
	"net/http"

	_ "github.com/Dosada05/esports-tournament-engine/docs"
	"github.com/Dosada05/esports-tournament-engine/handlers"
	"github.com/Dosada05/esports-tournament-engine/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	progressionHandler *handlers.ProgressionHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.MetricsHandler != nil {
		router.Handle("/metrics", opts.MetricsHandler)
	}
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	organizerOnly := chi.Chain(
		middleware.Authenticate(opts.JWTSecret),
		middleware.RequireRole(middleware.RoleOrganizer, middleware.RoleAdmin),
	)

	router.Route("/tournaments", func(r chi.Router) {
		r.With(organizerOnly...).Post("/", progressionHandler.SeedTournament)

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", progressionHandler.GetTournament)
			r.Get("/phases/{phaseName}/standings", progressionHandler.PhaseStandings)
			r.With(organizerOnly...).Post("/phases/{phaseName}/advance", progressionHandler.AdvancePhase)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
