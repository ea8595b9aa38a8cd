package routers

import (
	"medbridge-service/internal/app/delivery/http/controllers"
	"medbridge-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachEhrRoutes(router chi.Router, mw *middlewares.Middlewares, ehrController *controllers.EhrController) {
	router.Use(mw.ActorContext)
	router.Get("/{resourceType}/{resourceID}", ehrController.ReadResource)
	router.Post("/{resourceType}", ehrController.WriteResource)
}
