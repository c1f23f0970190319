package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/killrace-tournament/docs"
	"github.com/Dosada05/killrace-tournament/handlers"
	"github.com/Dosada05/killrace-tournament/middleware"
	"github.com/Dosada05/killrace-tournament/services"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers собирает все HTTP-обработчики, которые монтируются на роутер.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Players    *handlers.PlayerHandler
	Teams      *handlers.TeamHandler
	Matches    *handlers.MatchHandler
	Tournament *handlers.TournamentHandler
	Phases     *handlers.PhaseHandler
	WebSocket  *handlers.WebSocketHandler
	Health     *handlers.HealthHandler
}

type Options struct {
	AllowedOrigins []string
	Authenticator  *middleware.Authenticator
	LoginLimiter   *middleware.IPRateLimiter
}

// SetupRoutes: чтение публичное, все изменяющие запросы требуют роли admin.
func SetupRoutes(r chi.Router, h Handlers, opts Options) {
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Health.Healthz)
	r.Get("/ws", h.WebSocket.ServeWs)

	r.Get("/swagger/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(docs.SwaggerJSON)
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	admin := func(r chi.Router) {
		r.Use(opts.Authenticator.Authenticate)
		r.Use(middleware.RequireRole(services.RoleAdmin))
	}

	r.Route("/auth", func(r chi.Router) {
		r.With(opts.LoginLimiter.Middleware, chiMiddleware.Timeout(10*time.Second)).Post("/login", h.Auth.Login)
	})

	r.Route("/players", func(r chi.Router) {
		r.Get("/", h.Players.ListPlayers)
		r.Get("/{playerID}", h.Players.GetPlayer)

		r.Group(func(r chi.Router) {
			admin(r)
			r.Post("/", h.Players.CreatePlayer)
			r.Put("/{playerID}", h.Players.UpdatePlayer)
			r.Delete("/{playerID}", h.Players.DeletePlayer)
		})
	})

	r.Route("/teams", func(r chi.Router) {
		r.Get("/", h.Teams.ListTeams)
		r.Get("/{teamID}", h.Teams.GetTeam)

		r.Group(func(r chi.Router) {
			admin(r)
			r.Post("/", h.Teams.CreateTeam)
			r.Post("/generate", h.Teams.GenerateTeams)
			r.Put("/{teamID}", h.Teams.UpdateTeam)
			r.Put("/{teamID}/logo", h.Teams.UploadLogo)
			r.Delete("/{teamID}", h.Teams.DeleteTeam)
		})
	})

	r.Route("/matches", func(r chi.Router) {
		r.Get("/", h.Matches.ListMatches)
		r.Get("/team-rankings/{group}", h.Matches.TeamRankings)
		r.Get("/qualified-teams", h.Matches.QualifiedTeams)
		r.Get("/semifinals", h.Matches.ListSemifinals)
		r.Get("/finals", h.Matches.GetFinals)
		r.Get("/tournament-stats", h.Tournament.Stats)

		r.Group(func(r chi.Router) {
			admin(r)
			r.Post("/qualifier-result", h.Matches.RecordQualifierResult)
			r.Post("/generate-semifinals", h.Matches.GenerateSemifinals)
			r.Post("/semifinal-result", h.Matches.RecordSemifinalResult)
			r.Post("/generate-finals", h.Matches.GenerateFinals)
			r.Post("/finals-result", h.Matches.RecordFinalsResult)
		})
	})

	r.Route("/tournament", func(r chi.Router) {
		r.Get("/current", h.Tournament.GetCurrent)
		r.Get("/qualifier-rankings", h.Tournament.QualifierRankings)
		r.Get("/final-stats", h.Tournament.Stats)
		r.Get("/phase/current", h.Phases.CurrentPhase)

		r.Group(func(r chi.Router) {
			admin(r)
			r.Post("/", h.Tournament.CreateTournament)
			r.Put("/{tournamentID}", h.Tournament.UpdateTournament)
			r.Post("/check-qualification/{group}", h.Tournament.CheckQualification)
			r.Post("/reset", h.Tournament.Reset)
		})
	})

	r.Route("/phases", func(r chi.Router) {
		r.Get("/", h.Phases.ListPhases)
		r.Get("/current", h.Phases.CurrentPhase)

		r.Group(func(r chi.Router) {
			admin(r)
			r.Post("/", h.Phases.StartPhase)
			r.Put("/{phaseID}", h.Phases.UpdatePhaseStatus)
			r.Delete("/{phaseID}", h.Phases.DeletePhase)
		})
	})
}
