package controllers

import (
	"errors"
	"medbridge-service/internal/app/config"
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/app/models"
	"medbridge-service/internal/pkg/constvars"
	"medbridge-service/internal/pkg/dto/requests"
	"medbridge-service/internal/pkg/dto/responses"
	"medbridge-service/internal/pkg/exceptions"
	"medbridge-service/internal/pkg/utils"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type EhrController struct {
	Log            *zap.Logger
	EhrAdapter     contracts.EhrAdapter
	InternalConfig *config.InternalConfig
}

func NewEhrController(logger *zap.Logger, ehrAdapter contracts.EhrAdapter, internalConfig *config.InternalConfig) *EhrController {
	return &EhrController{
		Log:            logger,
		EhrAdapter:     ehrAdapter,
		InternalConfig: internalConfig,
	}
}

func (ctrl *EhrController) ReadResource(w http.ResponseWriter, r *http.Request) {
	// The adapter owns the network timeout; the request context carries
	// request id and actor through to the audit trail.
	ctx := r.Context()

	resourceType := chi.URLParam(r, "resourceType")
	resourceID := chi.URLParam(r, "resourceID")
	if resourceType == "" || resourceID == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(errors.New("resource type and id are required")))
		return
	}
	actorID, _ := ctx.Value(constvars.CONTEXT_ACTOR_ID_KEY).(string)

	result, err := ctrl.EhrAdapter.ReadResource(ctx, &models.FhirReadRequest{
		Provider:     ctrl.InternalConfig.EHR.Provider,
		ActorID:      actorID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	})
	if err != nil {
		ctrl.writeFailure(w, result, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.ReadResourceSuccessMessage, toEhrResult(result))
}

func (ctrl *EhrController) WriteResource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resourceType := chi.URLParam(r, "resourceType")
	if resourceType == "" {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(errors.New("resource type is required")))
		return
	}

	var request requests.WriteResource
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	if err := utils.ValidateStruct(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(err))
		return
	}
	actorID, _ := ctx.Value(constvars.CONTEXT_ACTOR_ID_KEY).(string)

	result, err := ctrl.EhrAdapter.WriteResource(ctx, &models.FhirWriteRequest{
		Provider:       ctrl.InternalConfig.EHR.Provider,
		ActorID:        actorID,
		ResourceType:   resourceType,
		ResourceID:     request.ResourceID,
		Body:           request.Body,
		IdempotencyKey: request.IdempotencyKey,
		IfMatch:        request.IfMatch,
	})
	if err != nil {
		ctrl.writeFailure(w, result, err)
		return
	}

	code := constvars.StatusOK
	if request.ResourceID == "" {
		code = constvars.StatusCreated
	}
	utils.BuildSuccessResponse(w, code, constvars.WriteResourceSuccessMessage, toEhrResult(result))
}

// writeFailure surfaces the provider's Retry-After hint before the
// typed error body so callers can back off correctly.
func (ctrl *EhrController) writeFailure(w http.ResponseWriter, result *models.FhirResult, err error) {
	if result != nil && result.RetryAfter > 0 {
		w.Header().Set(constvars.HeaderRetryAfter, strconv.Itoa(int(result.RetryAfter.Seconds())))
	}
	utils.BuildErrorResponse(ctrl.Log, w, err)
}

func toEhrResult(result *models.FhirResult) responses.EhrResult {
	return responses.EhrResult{
		Outcome:        string(result.Outcome),
		ResourceID:     result.ResourceID,
		ETag:           result.ETag,
		StatusCode:     result.StatusCode,
		RetryAfterSecs: int(result.RetryAfter.Seconds()),
		Resource:       result.Body,
	}
}
