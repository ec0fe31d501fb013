package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/courtside-dev/scoreboard-system/handlers"
	"github.com/courtside-dev/scoreboard-system/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	matchHandler *handlers.MatchHandler,
	scoreboardHandler *handlers.ScoreboardHandler,
	eventHandler *handlers.EventHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Public surface: read-only scoreboard and the live stream.
	router.Get("/public/scoreboard/{eventID}", scoreboardHandler.PublicListHandler)
	router.Get("/ws/scoreboard/{eventID}", webSocketHandler.ServeWs)

	router.Route("/events", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(middleware.RequireRole("admin"))
		r.Get("/{eventID}/categories", eventHandler.CategoriesHandler)
	})

	// Admin match surface.
	router.Route("/matches", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(middleware.RequireRole("admin"))

		r.Post("/generate/{eventID}/{categoryID}", matchHandler.GenerateHandler)
		r.Post("/generate-league/{eventID}/{categoryID}", matchHandler.GenerateLeagueHandler)
		r.Post("/", matchHandler.CreateHandler)
		r.Delete("/category/{eventID}", matchHandler.DeleteByCategoryHandler)

		// chi requires one wildcard name per position, so the match-id and
		// event-id routes share {id}.
		r.Put("/{id}/score", matchHandler.UpdateScoreHandler)
		r.Post("/{id}/finalize", matchHandler.FinalizeHandler)
		r.Post("/{id}/export", scoreboardHandler.ExportHandler)
		r.Delete("/{id}", matchHandler.DeleteHandler)
		r.Get("/{id}", matchHandler.ListHandler)
	})
}
