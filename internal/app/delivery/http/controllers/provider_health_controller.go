package controllers

import (
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/pkg/constvars"
	"medbridge-service/internal/pkg/utils"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProviderHealthController struct {
	Log      *zap.Logger
	Registry contracts.HealthRegistry
}

func NewProviderHealthController(logger *zap.Logger, registry contracts.HealthRegistry) *ProviderHealthController {
	return &ProviderHealthController{
		Log:      logger,
		Registry: registry,
	}
}

func (ctrl *ProviderHealthController) GetAll(w http.ResponseWriter, r *http.Request) {
	statuses := ctrl.Registry.Statuses()
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.GetProviderHealthSuccessMessage, statuses)
}

func (ctrl *ProviderHealthController) GetOne(w http.ResponseWriter, r *http.Request) {
	providerID := chi.URLParam(r, "providerID")
	status := ctrl.Registry.Monitor(providerID).Status()
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.GetProviderHealthSuccessMessage, status)
}
