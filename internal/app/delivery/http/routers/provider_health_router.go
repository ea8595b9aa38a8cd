package routers

import (
	"medbridge-service/internal/app/delivery/http/controllers"

	"github.com/go-chi/chi/v5"
)

func attachProviderHealthRoutes(router chi.Router, providerHealthController *controllers.ProviderHealthController) {
	router.Get("/", providerHealthController.GetAll)
	router.Get("/{providerID}", providerHealthController.GetOne)
}
