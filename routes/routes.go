package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/urjafest/sportsfest-backend/handlers"
	"github.com/urjafest/sportsfest-backend/middleware"
	"github.com/urjafest/sportsfest-backend/models"
)

// SetupRoutes собирает все маршруты приложения на одном роутере.
func SetupRoutes(
	router *chi.Mux,
	allowedOrigins []string,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	sportHandler *handlers.SportHandler,
	registrationHandler *handlers.RegistrationHandler,
	teamHandler *handlers.TeamHandler,
	membershipHandler *handlers.MembershipHandler,
	matchHandler *handlers.MatchHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	dashboardHandler *handlers.DashboardHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	// Документация API
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.json"),
	))
	router.Handle("/docs/*", http.StripPrefix("/docs/", http.FileServer(http.Dir("docs"))))

	// Аутентификация
	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	// Профиль текущего пользователя
	router.Route("/me", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", userHandler.GetProfile)
		r.Patch("/", userHandler.UpdateProfile)
		r.Post("/avatar", userHandler.UploadAvatar)
		r.Get("/registrations", userHandler.ListMyRegistrations)
		r.Get("/teams", userHandler.ListMyTeams)
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/users/{userID}", userHandler.GetUserByID)
	})

	// Виды спорта
	router.Route("/sports", func(r chi.Router) {
		r.Get("/", sportHandler.ListSports)
		r.Get("/{sportID}", sportHandler.GetSportByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{sportID}/register", registrationHandler.Register)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Post("/", sportHandler.CreateSport)
			r.Put("/{sportID}", sportHandler.UpdateSport)
			r.Patch("/{sportID}/status", sportHandler.SetSportStatus)
			r.Post("/{sportID}/icon", sportHandler.UploadIcon)
			r.Delete("/{sportID}", sportHandler.DeleteSport)
			r.Get("/{sportID}/registrations", registrationHandler.ListBySport)
		})
	})

	// Команды
	router.Route("/teams", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", teamHandler.ListMarketplace)
		r.Post("/", teamHandler.CreateTeam)
		r.Get("/{teamID}", teamHandler.GetTeamByID)
		r.Delete("/{teamID}", teamHandler.DeleteTeam)
		r.Post("/{teamID}/lock", teamHandler.LockTeam)
		r.Post("/{teamID}/logo", teamHandler.UploadLogo)

		r.Post("/{teamID}/join", membershipHandler.RequestJoin)
		r.Get("/{teamID}/requests", membershipHandler.ListRequests)
	})

	// Заявки и членства
	router.Route("/memberships", func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/{membershipID}/decide", membershipHandler.Decide)
		r.Delete("/{membershipID}", membershipHandler.RemoveMember)
		r.Delete("/{membershipID}/leave", membershipHandler.Leave)
	})

	// Матчи
	router.Route("/matches", func(r chi.Router) {
		r.Get("/", matchHandler.ListMatches)
		r.Get("/{matchID}", matchHandler.GetMatchByID)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Post("/", matchHandler.CreateMatch)
			r.Patch("/{matchID}/score", matchHandler.UpdateScore)
			r.Patch("/{matchID}/status", matchHandler.UpdateStatus)
			r.Delete("/{matchID}", matchHandler.DeleteMatch)
		})
	})

	// Таблица лидеров
	router.Route("/leaderboard", func(r chi.Router) {
		r.Get("/", leaderboardHandler.List)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Post("/medals", leaderboardHandler.AwardMedal)
		})
	})

	// Админская сводка и экспорт
	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)
		r.Get("/dashboard", dashboardHandler.GetStats)
		r.Get("/export/registrations", dashboardHandler.ExportRegistrations)
	})

	// Live-обновления
	router.Get("/ws/matches/{matchID}", webSocketHandler.ServeMatch)
	router.Get("/ws/leaderboard", webSocketHandler.ServeLeaderboard)
}
