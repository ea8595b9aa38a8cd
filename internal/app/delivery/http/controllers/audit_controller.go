package controllers

import (
	"context"
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/app/models"
	"medbridge-service/internal/pkg/constvars"
	"medbridge-service/internal/pkg/dto/requests"
	"medbridge-service/internal/pkg/dto/responses"
	"medbridge-service/internal/pkg/exceptions"
	"medbridge-service/internal/pkg/utils"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type AuditController struct {
	Log          *zap.Logger
	AuditService contracts.AuditService
}

func NewAuditController(logger *zap.Logger, auditService contracts.AuditService) *AuditController {
	return &AuditController{
		Log:          logger,
		AuditService: auditService,
	}
}

func (ctrl *AuditController) Query(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	query, err := buildAuditQuery(r)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	page, err := ctrl.AuditService.Query(ctx, query)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	utils.BuildPagedResponse(w, constvars.StatusOK, constvars.QueryAuditSuccessMessage, toAuditViews(page.Events), page.NextCursor)
}

// Disclosures is the accounting-of-disclosures report for one patient
// subject: every event that released PHI, newest pages via cursor.
func (ctrl *AuditController) Disclosures(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	subjectID := chi.URLParam(r, "subjectID")
	cursor := r.URL.Query().Get(constvars.AppPaginationCursorParam)
	limit := parseLimit(r)

	page, err := ctrl.AuditService.AccountingOfDisclosures(ctx, subjectID, cursor, limit)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	utils.BuildPagedResponse(w, constvars.StatusOK, constvars.GetDisclosuresSuccessMessage, toAuditViews(page.Events), page.NextCursor)
}

func (ctrl *AuditController) VerifyIntegrity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	var request requests.VerifyIntegrity
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	if err := utils.ValidateStruct(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrInputValidation(err))
		return
	}

	intact, err := ctrl.AuditService.VerifyIntegrity(ctx, request.Provider, request.FromSeq, request.ToSeq)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	message := constvars.VerifyIntegritySuccessMessage
	if !intact {
		message = constvars.IntegrityBrokenWarningMessage
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, message, responses.VerifyIntegrityResult{
		Provider: request.Provider,
		FromSeq:  request.FromSeq,
		ToSeq:    request.ToSeq,
		Intact:   intact,
	})
}

func (ctrl *AuditController) PurgeExpired(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	purged, err := ctrl.AuditService.PurgeExpired(ctx)
	if err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.PurgeExpiredSuccessMessage, map[string]int64{"purged": purged})
}

func buildAuditQuery(r *http.Request) (*models.AuditQuery, error) {
	params := r.URL.Query()
	query := &models.AuditQuery{
		TypePrefix: params.Get("type_prefix"),
		Actor:      params.Get("actor"),
		Subject:    params.Get("subject"),
		Provider:   params.Get("provider"),
		Cursor:     params.Get(constvars.AppPaginationCursorParam),
		Limit:      parseLimit(r),
	}
	if raw := params.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, exceptions.ErrInputValidation(err)
		}
		query.From = from
	}
	if raw := params.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, exceptions.ErrInputValidation(err)
		}
		query.To = to
	}
	return query, nil
}

func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get(constvars.AppPaginationLimitParam)
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}

func toAuditViews(events []models.AuditEvent) []responses.AuditEventView {
	views := make([]responses.AuditEventView, 0, len(events))
	for i := range events {
		event := &events[i]
		views = append(views, responses.AuditEventView{
			ID:        event.ID,
			Provider:  event.Provider,
			Seq:       event.Seq,
			Timestamp: event.Timestamp,
			Actor:     event.Actor,
			Type:      event.Type,
			Subject:   utils.RedactSubject(event.Subject),
			Success:   event.Outcome.Success,
			ErrorKind: string(event.Outcome.ErrorKind),
			Context:   event.Context,
			Hash:      event.Hash,
		})
	}
	return views
}
