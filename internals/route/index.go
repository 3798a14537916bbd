// file: internals/route/index.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"komunitas_backend/internals/configs"
	"komunitas_backend/internals/constants"
	EventRoutes "komunitas_backend/internals/features/events/events/route"
	"komunitas_backend/internals/middlewares/auth"
	routeDetails "komunitas_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, deps EventRoutes.Deps) {
	startTime = time.Now()

	BaseRoutes(app)

	authJWT := auth.AuthMiddleware(auth.Options{Secret: configs.JWTSecret})

	// ===================== GROUPS =====================
	log.Info().Msg("Setting up PRIVATE (user) group...")
	private := app.Group("/api/u", authJWT)

	log.Info().Msg("Setting up ADMIN group...")
	admin := app.Group("/api/a", authJWT)

	log.Info().Msg("Setting up OWNER group (Auth + administrator)...")
	owner := app.Group("/api/o",
		authJWT,
		auth.OnlyRoles(constants.RoleErrorAdmin("maintenance event"), constants.AdminOnly...),
	)

	// ===================== MOUNT ROUTES =====================
	// satu controller untuk semua group: cache & materializer dipakai bersama
	log.Info().Msg("Mounting Events routes...")
	ctl := EventRoutes.NewEventController(deps)
	routeDetails.EventsUserRoutes(private, ctl)
	routeDetails.EventsAdminRoutes(admin, ctl)
	routeDetails.EventsOwnerRoutes(owner, ctl)
}
