package controllers

import (
	"context"
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/app/models"
	"medbridge-service/internal/pkg/constvars"
	"medbridge-service/internal/pkg/dto/requests"
	"medbridge-service/internal/pkg/exceptions"
	"medbridge-service/internal/pkg/utils"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type FlagController struct {
	Log        *zap.Logger
	PolicyGate contracts.PolicyGate
}

func NewFlagController(logger *zap.Logger, policyGate contracts.PolicyGate) *FlagController {
	return &FlagController{
		Log:        logger,
		PolicyGate: policyGate,
	}
}

func flagKeyFromURL(r *http.Request) (string, error) {
	flagKey := chi.URLParam(r, "flagKey")
	if err := utils.ValidateStruct(requests.FlagKeyParam{FlagKey: flagKey}); err != nil {
		return "", exceptions.ErrInputValidation(err)
	}
	return flagKey, nil
}

func (ctrl *FlagController) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	flagKey, err := flagKeyFromURL(r)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	state, err := ctrl.PolicyGate.GetFlag(ctx, flagKey)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.GetFlagSuccessMessage, state)
}

// Evaluate answers "is this capability on for this actor" without
// mutating anything; useful to preview a rollout before flipping it.
func (ctrl *FlagController) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	flagKey, err := flagKeyFromURL(r)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	actorID := r.URL.Query().Get("actor_id")

	enabled, err := ctrl.PolicyGate.IsEnabled(ctx, flagKey, actorID)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.GetFlagSuccessMessage, map[string]interface{}{
		"flag_key": flagKey,
		"actor_id": actorID,
		"enabled":  enabled,
	})
}

func (ctrl *FlagController) Set(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	flagKey, err := flagKeyFromURL(r)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	var request requests.SetFlag
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	if err := utils.ValidateStruct(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(err))
		return
	}

	adminID, _ := ctx.Value(constvars.CONTEXT_ACTOR_ID_KEY).(string)
	state, err := ctrl.PolicyGate.SetFlag(ctx, &models.FlagMutation{
		FlagKey: flagKey,
		AdminID: adminID,
		Enabled: request.Enabled,
		Rollout: request.Rollout,
	})
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.SetFlagSuccessMessage, state)
}

func (ctrl *FlagController) SetUserOverride(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	flagKey, err := flagKeyFromURL(r)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	userID := chi.URLParam(r, "userID")

	var request requests.SetUserOverride
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	if err := utils.ValidateStruct(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(err))
		return
	}

	adminID, _ := ctx.Value(constvars.CONTEXT_ACTOR_ID_KEY).(string)
	state, err := ctrl.PolicyGate.SetUserOverride(ctx, &models.OverrideMutation{
		FlagKey: flagKey,
		AdminID: adminID,
		ActorID: userID,
		Enabled: *request.Enabled,
	})
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.SetUserOverrideSuccessMessage, state)
}
