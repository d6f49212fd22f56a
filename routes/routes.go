package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/steamcup/tournament-engine/handlers"
	"github.com/steamcup/tournament-engine/middleware"
)

type Handlers struct {
	Tournament  *handlers.TournamentHandler
	Match       *handlers.MatchHandler
	Progression *handlers.ProgressionHandler
	Schedule    *handlers.ScheduleHandler
	WebSocket   *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, auth *middleware.Authenticator) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Route("/tournaments", func(r chi.Router) {
		// Read-only views are public.
		r.Get("/{tournamentID}", h.Tournament.GetTournamentHandler)
		r.Get("/{tournamentID}/matches", h.Match.ListMatchesHandler)

		// Mutations require an organizer token.
		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.RequireRole("organizer", "admin"))

			r.Post("/{tournamentID}/seeding", h.Tournament.CalculateSeedingHandler)
			r.Put("/{tournamentID}/seeding", h.Tournament.ApplyManualSeedingHandler)
			r.Post("/{tournamentID}/bracket", h.Tournament.GenerateBracketHandler)
			r.Post("/{tournamentID}/round-robin", h.Tournament.GenerateRoundRobinHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", h.Match.GetMatchHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.RequireRole("organizer", "admin", "referee"))

			r.Post("/{matchID}/result", h.Match.RecordResultHandler)
		})
	})

	router.Route("/phases", func(r chi.Router) {
		r.Get("/{phaseID}/progressions", h.Progression.ListProgressionsHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.RequireRole("organizer", "admin"))

			r.Post("/{phaseID}/advance", h.Progression.AdvanceTeamsHandler)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(auth.RequireRole("organizer", "admin"))

		r.Delete("/progressions/{progressionID}", h.Progression.RevokeProgressionHandler)
	})

	router.Route("/events", func(r chi.Router) {
		r.Get("/{eventID}/slots", h.Schedule.ListSlotsHandler)
		r.Get("/{eventID}/conflicts", h.Schedule.ListConflictsHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.RequireRole("organizer", "admin"))

			r.Post("/{eventID}/slots", h.Schedule.AllocateSlotsHandler)
			r.Post("/{eventID}/slots/assign", h.Schedule.AssignSlotsHandler)
			r.Post("/{eventID}/conflicts/detect", h.Schedule.DetectConflictsHandler)
		})
	})

	router.Route("/slots", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Post("/{slotID}/reserve", h.Schedule.ReserveSlotHandler)
		r.Post("/{slotID}/release", h.Schedule.ReleaseSlotHandler)
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(auth.RequireRole("organizer", "admin"))

		r.Post("/conflicts/{conflictID}/resolve", h.Schedule.ResolveConflictHandler)
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeTournament)
	router.Get("/ws/events/{eventID}", h.WebSocket.ServeEvent)

	return router
}
