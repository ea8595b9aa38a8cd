package controllers

import (
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/pkg/constvars"
	"medbridge-service/internal/pkg/dto/requests"
	"medbridge-service/internal/pkg/exceptions"
	"medbridge-service/internal/pkg/utils"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type ChaosController struct {
	Log             *zap.Logger
	ChaosController contracts.ChaosController
}

func NewChaosController(logger *zap.Logger, chaosController contracts.ChaosController) *ChaosController {
	return &ChaosController{
		Log:             logger,
		ChaosController: chaosController,
	}
}

func (ctrl *ChaosController) Status(w http.ResponseWriter, r *http.Request) {
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.ResponseSuccess, map[string]bool{
		"enabled": ctrl.ChaosController.Enabled(),
	})
}

func (ctrl *ChaosController) InjectLatency(w http.ResponseWriter, r *http.Request) {
	var request requests.InjectLatency
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	if err := utils.ValidateStruct(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(err))
		return
	}

	err := ctrl.ChaosController.InjectLatency(
		request.Provider,
		time.Duration(request.MinMillis)*time.Millisecond,
		time.Duration(request.MaxMillis)*time.Millisecond,
		time.Duration(request.DurationSecs)*time.Second,
	)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.InjectLatencySuccessMessage, request)
}

func (ctrl *ChaosController) InjectErrorRate(w http.ResponseWriter, r *http.Request) {
	var request requests.InjectErrorRate
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	if err := utils.ValidateStruct(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(err))
		return
	}

	err := ctrl.ChaosController.InjectErrorRate(
		request.Provider,
		request.Rate,
		time.Duration(request.DurationSecs)*time.Second,
	)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.InjectErrorRateSuccessMessage, request)
}

func (ctrl *ChaosController) Clear(w http.ResponseWriter, r *http.Request) {
	ctrl.ChaosController.ClearAll()
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.ClearChaosSuccessMessage, nil)
}
