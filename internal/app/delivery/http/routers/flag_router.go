package routers

import (
	"medbridge-service/internal/app/delivery/http/controllers"

	"github.com/go-chi/chi/v5"
)

func attachFlagRoutes(router chi.Router, flagController *controllers.FlagController) {
	router.Get("/{flagKey}", flagController.Get)
	router.Get("/{flagKey}/evaluate", flagController.Evaluate)
	router.Put("/{flagKey}", flagController.Set)
	router.Put("/{flagKey}/overrides/{userID}", flagController.SetUserOverride)
}
