package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/jeonghakhur/tennis-tab-sub000/handlers"
	"github.com/jeonghakhur/tennis-tab-sub000/middleware"
)

// SetupRoutes wires the bracket engine's HTTP surface. Reads are public;
// everything that mutates a bracket is admin or organizer only.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Auth,
	allowedOrigins []string,
	bracketHandler *handlers.BracketHandler,
	groupHandler *handlers.GroupHandler,
	matchHandler *handlers.MatchHandler,
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

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Route("/divisions/{divisionID}", func(r chi.Router) {
		r.Get("/bracket", bracketHandler.GetDivisionBracketHandler)
		r.Get("/seed-preview", bracketHandler.PreviewSeedOrderHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.Authorize(middleware.RoleAdmin, middleware.RoleOrganizer))
			r.Post("/bracket-config", bracketHandler.GetOrCreateConfigHandler)
		})
	})

	router.Route("/bracket-configs/{configID}", func(r chi.Router) {
		r.Get("/matches", matchHandler.ListMatchesHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.Authorize(middleware.RoleAdmin, middleware.RoleOrganizer))

			r.Patch("/", bracketHandler.UpdateOptionsHandler)
			r.Delete("/", bracketHandler.DeleteConfigHandler)

			r.Post("/groups", groupHandler.FormGroupsHandler)
			r.Delete("/groups", groupHandler.DeleteGroupsHandler)
			r.Put("/groups/order", groupHandler.CommitGroupOrderHandler)

			r.Post("/preliminary-matches", groupHandler.GeneratePreliminaryHandler)
			r.Delete("/preliminary-matches", groupHandler.DeletePreliminaryHandler)

			r.Post("/bracket", bracketHandler.GenerateMainBracketHandler)
			r.Delete("/bracket", bracketHandler.DeleteMainBracketHandler)
			r.Post("/rounds", bracketHandler.GenerateNextRoundHandler)
			r.Delete("/rounds/{round}", bracketHandler.DeleteRoundHandler)
		})
	})

	router.Route("/groups/{groupID}", func(r chi.Router) {
		r.Get("/standings", groupHandler.GroupStandingsHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.Authorize(middleware.RoleAdmin, middleware.RoleOrganizer))
			r.Post("/final-ranks", groupHandler.CommitFinalRanksHandler)
		})
	})

	router.Route("/teams/{teamID}", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(auth.Authorize(middleware.RoleAdmin, middleware.RoleOrganizer))
		r.Put("/group", groupHandler.MoveTeamHandler)
	})

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Get("/", matchHandler.GetMatchHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(auth.Authorize(middleware.RoleAdmin, middleware.RoleOrganizer))
			r.Put("/result", matchHandler.RecordResultHandler)
		})
	})

	router.Get("/ws/divisions/{divisionID}", webSocketHandler.ServeWs)
}
