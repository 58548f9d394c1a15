package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lanhub/partyhub/handlers"
	"github.com/lanhub/partyhub/middleware"
)

// SetupRoutes wires every HTTP endpoint of the service onto the router.
// Read endpoints are public; everything that mutates requires a bearer token.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	tournamentHandler *handlers.TournamentHandler,
	participantHandler *handlers.ParticipantHandler,
	teamHandler *handlers.TeamHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticated := middleware.Authenticate(jwtSecret)

	router.Route("/parties/{partyID}/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListPartyTournamentsHandler)
		r.Get("/stats", tournamentHandler.PartyStatsHandler)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/{tournamentID}", tournamentHandler.GetTournamentHandler)
		r.Get("/{tournamentID}/bracket", tournamentHandler.GetBracketHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Post("/", tournamentHandler.CreateTournamentHandler)
			r.Put("/{tournamentID}", tournamentHandler.UpdateTournamentHandler)
			r.Delete("/{tournamentID}", tournamentHandler.DeleteTournamentHandler)
			r.Put("/{tournamentID}/status", tournamentHandler.ChangeStatusHandler)
			r.Post("/{tournamentID}/image", tournamentHandler.UploadImageHandler)

			r.Post("/{tournamentID}/bracket", tournamentHandler.GenerateBracketHandler)

			r.Post("/{tournamentID}/participants", participantHandler.JoinTournamentHandler)
			r.Post("/{tournamentID}/participants/sweep-tickets", participantHandler.SweepTicketsHandler)

			r.Post("/{tournamentID}/teams", teamHandler.CreateTeamHandler)
		})
	})

	router.Route("/participants", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Delete("/{participantID}", participantHandler.RemoveParticipantHandler)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/{teamID}", teamHandler.GetTeamHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Put("/{teamID}", teamHandler.UpdateTeamHandler)
			r.Delete("/{teamID}", teamHandler.RemoveTeamHandler)
			r.Post("/{teamID}/join", teamHandler.JoinTeamHandler)
			r.Post("/{teamID}/leave", teamHandler.LeaveTeamHandler)
			r.Put("/{teamID}/captain", teamHandler.TransferCaptainHandler)
			r.Post("/{teamID}/image", teamHandler.UploadImageHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.GetMatchHandler)
		r.Get("/{matchID}/comments", matchHandler.ListCommentsHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Put("/{matchID}/score", matchHandler.SetScoreHandler)
			r.Post("/{matchID}/confirm", matchHandler.ConfirmMatchHandler)
			r.Post("/{matchID}/unconfirm", matchHandler.UnconfirmMatchHandler)
			r.Delete("/{matchID}", matchHandler.DeleteMatchHandler)
			r.Post("/{matchID}/comments", matchHandler.AddCommentHandler)
			r.Put("/comments/{commentID}", matchHandler.UpdateCommentHandler)
			r.Delete("/comments/{commentID}", matchHandler.DeleteCommentHandler)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
