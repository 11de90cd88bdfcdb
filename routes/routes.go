package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/playgrid/arena/handlers"
	"github.com/playgrid/arena/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes регистрирует все маршруты API.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	rateLimiter *middleware.RateLimiter,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tournamentHandler *handlers.TournamentHandler,
	participantHandler *handlers.ParticipantHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(rateLimiter.Limit)

	router.Get("/swagger/*", httpSwagger.Handler())

	// Аутентификация
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/logout", authHandler.Logout)
			r.Get("/session", authHandler.Session)
		})
	})

	// Турниры
	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListHandler)
		r.Get("/feed", tournamentHandler.FeedHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Post("/{tournamentID}/prefetch", tournamentHandler.PrefetchHandler)
		r.Get("/{tournamentID}/participants", participantHandler.ListHandler)
		r.Get("/{tournamentID}/matches", matchHandler.ListByTournamentHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/", tournamentHandler.CreateHandler)
			r.Put("/{tournamentID}", tournamentHandler.UpdateHandler)
			r.Patch("/{tournamentID}", tournamentHandler.UpdateHandler)
			r.Patch("/{tournamentID}/status", tournamentHandler.UpdateStatusHandler)
			r.Post("/{tournamentID}/image", tournamentHandler.UploadImageHandler)
			r.Delete("/{tournamentID}", tournamentHandler.DeleteHandler)
			r.Post("/{tournamentID}/join", participantHandler.JoinHandler)
			r.Delete("/{tournamentID}/leave", participantHandler.LeaveHandler)
			r.Delete("/{tournamentID}/participants/{userID}", participantHandler.RemoveHandler)
		})
	})

	// Матчи
	router.Route("/matches", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Patch("/{matchID}", matchHandler.UpdateHandler)
	})

	// Пользователи
	router.Route("/users", func(r chi.Router) {
		r.Get("/{userID}/profile", userHandler.GetProfileHandler)
		r.Get("/{userID}/tournaments", tournamentHandler.UserTournamentsHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Patch("/{userID}", userHandler.UpdateProfileHandler)
			r.Post("/{userID}/avatar", userHandler.UploadAvatarHandler)
		})
	})

	// Дашборд текущего пользователя
	router.Route("/me", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Get("/tournaments", tournamentHandler.MyTournamentsHandler)
	})

	// WebSocket
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
