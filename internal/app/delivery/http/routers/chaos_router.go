package routers

import (
	"medbridge-service/internal/app/delivery/http/controllers"

	"github.com/go-chi/chi/v5"
)

func attachChaosRoutes(router chi.Router, chaosController *controllers.ChaosController) {
	router.Get("/", chaosController.Status)
	router.Post("/latency", chaosController.InjectLatency)
	router.Post("/error-rate", chaosController.InjectErrorRate)
	router.Delete("/", chaosController.Clear)
}
