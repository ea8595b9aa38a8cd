package routers

import (
	"medbridge-service/internal/app/delivery/http/controllers"

	"github.com/go-chi/chi/v5"
)

func attachAuditRoutes(router chi.Router, auditController *controllers.AuditController) {
	router.Get("/events", auditController.Query)
	router.Get("/disclosures/{subjectID}", auditController.Disclosures)
	router.Post("/verify", auditController.VerifyIntegrity)
	router.Post("/purge", auditController.PurgeExpired)
}
