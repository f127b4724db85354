package main

import (
	"net/http"

	"github.com/AdamBeresnev/tourney/internal/config"
	"github.com/AdamBeresnev/tourney/internal/middleware"
	"github.com/AdamBeresnev/tourney/internal/realtime"
	"github.com/AdamBeresnev/tourney/internal/service"
	"github.com/AdamBeresnev/tourney/internal/store"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type application struct {
	cfg            *config.Config
	sessionManager *scs.SessionManager
	hub            *realtime.Hub
	logger         *zap.Logger

	userStore   *store.UserStore
	tournaments *service.TournamentService
	matches     *service.MatchService
	users       *service.UserService
}

func newApplication(cfg *config.Config, database *sqlx.DB, hub *realtime.Hub, sessionManager *scs.SessionManager, logger *zap.Logger) *application {
	tournamentStore := store.NewTournamentStore(database)
	userStore := store.NewUserStore(database)

	return &application{
		cfg:            cfg,
		sessionManager: sessionManager,
		hub:            hub,
		logger:         logger,
		userStore:      userStore,
		tournaments:    service.NewTournamentService(database, tournamentStore, userStore, logger),
		matches:        service.NewMatchService(database, tournamentStore, hub, logger),
		users:          service.NewUserService(database, userStore, logger),
	}
}

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(app.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if app.cfg.RateLimitEnabled {
		r.Use(middleware.RateLimit(app.cfg.RateLimitRequests, app.cfg.RateLimitWindow))
	}

	r.Get("/health", app.health)

	// Websocket handshakes bypass the session middleware, which would wrap
	// the ResponseWriter and break hijacking.
	r.Get("/ws/tournaments/{id}", app.tournamentEvents)

	r.Group(func(r chi.Router) {
		r.Use(app.sessionManager.LoadAndSave)

		r.Post("/auth/guest", app.guestLogin)
		r.Get("/auth/{provider}", app.beginAuth)
		r.Get("/auth/{provider}/callback", app.completeAuth)
		r.Post("/logout", app.logout)

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.RequireAuth(app.sessionManager, app.userStore))

			r.Get("/me", app.me)

			r.Get("/tournaments", app.listTournaments)
			r.Post("/tournaments", app.createTournament)
			r.Post("/tournaments/drafts", app.createDraft)
			r.Get("/tournaments/{id}", app.getTournament)
			r.Patch("/tournaments/{id}", app.updateTournament)
			r.Delete("/tournaments/{id}", app.cancelTournament)
			r.Get("/tournaments/{id}/standings", app.getStandings)
			r.Get("/tournaments/{id}/validate", app.validateTournament)
			r.Get("/tournaments/{id}/matches", app.tournamentMatches)
			r.Post("/tournaments/{id}/open", app.openRegistration)
			r.Post("/tournaments/{id}/close", app.closeRegistration)
			r.Post("/tournaments/{id}/start", app.startTournament)
			r.Post("/tournaments/{id}/cancel", app.cancelTournament)
			r.Get("/tournaments/{id}/registrations", app.listRegistrations)
			r.Post("/tournaments/{id}/registrations", app.register)

			r.Get("/registrations/my", paged("Failed to get registrations", app.tournaments.MyRegistrations))
			r.Post("/registrations/{id}/confirm", app.confirmRegistration)
			r.Post("/registrations/{id}/cancel", app.cancelRegistration)

			r.Get("/matches/live", paged("Failed to get matches", app.matches.LiveMatches))
			r.Get("/matches/upcoming", paged("Failed to get matches", app.matches.UpcomingMatches))
			r.Get("/matches/my", paged("Failed to get matches", app.matches.MyMatches))
			r.Get("/matches/{id}", app.getMatch)
			r.Post("/matches/{id}/start", app.startMatch)
			r.Post("/matches/{id}/result", app.submitResult)
			r.Post("/matches/{id}/sets", app.submitSets)
			r.Post("/matches/{id}/forfeit", app.forfeitMatch)
			r.Post("/matches/{id}/cancel", app.cancelMatch)
		})
	})

	return r
}

func (app *application) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		app.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		)
	})
}
