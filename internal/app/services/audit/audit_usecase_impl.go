package audit

import (
	"context"
	"fmt"
	"medbridge-service/internal/app/config"
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/app/models"
	"medbridge-service/internal/pkg/constvars"
	"medbridge-service/internal/pkg/exceptions"
	"medbridge-service/internal/pkg/utils"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

const maxPageSize = 500

// disclosureTypes are the event types that count as PHI disclosures for
// the accounting-of-disclosures report. Rejected and failed calls never
// released data, so they are excluded.
var disclosureTypes = []string{
	constvars.AuditEventEhrRead,
	constvars.AuditEventEhrWriteSucceeded,
}

type auditUsecase struct {
	AuditRepository contracts.AuditRepository
	Publisher       contracts.AuditPublisher
	Archiver        contracts.AuditArchiver
	Log             *zap.Logger
	InternalConfig  *config.InternalConfig

	// chainsMu guards chains; each chain mutex serializes appends to one
	// provider so seq assignment and prev-hash linkage cannot race.
	chainsMu sync.Mutex
	chains   map[string]*sync.Mutex

	now func() time.Time
}

var (
	auditUsecaseInstance contracts.AuditService
	onceAuditUsecase     sync.Once
)

func NewAuditUsecase(
	auditRepository contracts.AuditRepository,
	publisher contracts.AuditPublisher,
	archiver contracts.AuditArchiver,
	logger *zap.Logger,
	internalConfig *config.InternalConfig,
) contracts.AuditService {
	onceAuditUsecase.Do(func() {
		auditUsecaseInstance = &auditUsecase{
			AuditRepository: auditRepository,
			Publisher:       publisher,
			Archiver:        archiver,
			Log:             logger,
			InternalConfig:  internalConfig,
			chains:          make(map[string]*sync.Mutex),
			now:             time.Now,
		}
	})
	return auditUsecaseInstance
}

func (uc *auditUsecase) chainLock(provider string) *sync.Mutex {
	uc.chainsMu.Lock()
	defer uc.chainsMu.Unlock()
	lock, ok := uc.chains[provider]
	if !ok {
		lock = &sync.Mutex{}
		uc.chains[provider] = lock
	}
	return lock
}

func (uc *auditUsecase) Append(ctx context.Context, event *models.AuditEvent) (string, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	if event.Provider == "" || event.Actor == "" || event.Type == "" {
		return "", exceptions.ErrAuditEventIncomplete(
			fmt.Errorf("provider=%q actor=%q type=%q", event.Provider, event.Actor, event.Type),
		)
	}

	if event.ID == "" {
		event.ID = utils.GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = uc.now().UTC()
	}

	lock := uc.chainLock(event.Provider)
	lock.Lock()

	last, err := uc.AuditRepository.LastEvent(ctx, event.Provider)
	if err != nil {
		lock.Unlock()
		uc.Log.Error("auditUsecase.Append error loading chain head",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingProviderKey, event.Provider),
			zap.Error(err),
		)
		return "", err
	}

	if last == nil {
		event.Seq = 1
		event.PrevHash = genesisHash
	} else {
		event.Seq = last.Seq + 1
		event.PrevHash = last.Hash
	}

	event.Hash, err = computeHash(event.PrevHash, event)
	if err != nil {
		lock.Unlock()
		return "", exceptions.ErrAuditAppend(err)
	}

	if err := uc.AuditRepository.AppendEvent(ctx, event); err != nil {
		lock.Unlock()
		uc.Log.Error("auditUsecase.Append error persisting event",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingProviderKey, event.Provider),
			zap.String(constvars.LoggingEventTypeKey, event.Type),
			zap.Error(err),
		)
		return "", err
	}
	lock.Unlock()

	// The compliance stream is export only, so a broker outage must not
	// fail the append that already committed.
	if uc.Publisher != nil {
		if err := uc.Publisher.Publish(ctx, event); err != nil {
			uc.Log.Warn("auditUsecase.Append compliance stream publish failed",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingEventIDKey, event.ID),
				zap.Error(err),
			)
		}
	}

	return event.ID, nil
}

func (uc *auditUsecase) Query(ctx context.Context, query *models.AuditQuery) (*models.AuditPage, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	limit := query.Limit
	if limit <= 0 {
		limit = uc.InternalConfig.Audit.DefaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	// Fetch one extra row to learn whether another page exists.
	fetch := *query
	fetch.Limit = limit + 1

	events, err := uc.AuditRepository.ListEvents(ctx, &fetch)
	if err != nil {
		uc.Log.Error("auditUsecase.Query error listing events",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	page := &models.AuditPage{Events: events}
	if len(events) > limit {
		page.Events = events[:limit]
		page.NextCursor = encodeCursor(&page.Events[limit-1])
	}
	return page, nil
}

func (uc *auditUsecase) AccountingOfDisclosures(ctx context.Context, subjectID, cursor string, limit int) (*models.AuditPage, error) {
	return uc.Query(ctx, &models.AuditQuery{
		Subject: subjectID,
		Types:   disclosureTypes,
		Cursor:  cursor,
		Limit:   limit,
	})
}

func (uc *auditUsecase) VerifyIntegrity(ctx context.Context, provider string, fromSeq, toSeq int64) (bool, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	if fromSeq <= 0 {
		fromSeq = 1
	}
	if toSeq <= 0 {
		last, err := uc.AuditRepository.LastEvent(ctx, provider)
		if err != nil {
			return false, err
		}
		if last == nil {
			return true, nil
		}
		toSeq = last.Seq
	}
	if toSeq < fromSeq {
		return false, exceptions.ErrInputValidation(fmt.Errorf("to_seq %d precedes from_seq %d", toSeq, fromSeq))
	}

	prevHash := genesisHash
	if fromSeq > 1 {
		prev, err := uc.AuditRepository.EventBySeq(ctx, provider, fromSeq-1)
		if err != nil {
			return false, err
		}
		if prev == nil {
			uc.Log.Warn("auditUsecase.VerifyIntegrity predecessor missing",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingProviderKey, provider),
				zap.Int64("seq", fromSeq-1),
			)
			return false, nil
		}
		prevHash = prev.Hash
	}

	events, err := uc.AuditRepository.ListBySeqRange(ctx, provider, fromSeq, toSeq)
	if err != nil {
		return false, err
	}

	expectedSeq := fromSeq
	for i := range events {
		event := &events[i]
		if event.Seq != expectedSeq || event.PrevHash != prevHash {
			uc.logChainBreak(requestID, provider, event)
			return false, nil
		}
		recomputed, err := computeHash(event.PrevHash, event)
		if err != nil {
			return false, exceptions.ErrAuditQuery(err)
		}
		if recomputed != event.Hash {
			uc.logChainBreak(requestID, provider, event)
			return false, nil
		}
		prevHash = event.Hash
		expectedSeq++
	}

	if expectedSeq != toSeq+1 {
		uc.Log.Warn("auditUsecase.VerifyIntegrity chain truncated",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingProviderKey, provider),
			zap.Int64("expected_seq", expectedSeq),
			zap.Int64("to_seq", toSeq),
		)
		return false, nil
	}
	return true, nil
}

func (uc *auditUsecase) logChainBreak(requestID, provider string, event *models.AuditEvent) {
	uc.Log.Warn("auditUsecase.VerifyIntegrity chain break detected",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingProviderKey, provider),
		zap.Int64("seq", event.Seq),
		zap.String(constvars.LoggingEventIDKey, event.ID),
	)
}

// PurgeExpired archives and removes events past the retention horizon,
// then appends an audit.purged event on the platform chain. Deletion
// only happens after the batch's archive upload succeeded.
func (uc *auditUsecase) PurgeExpired(ctx context.Context) (int64, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	cutoff := uc.now().UTC().AddDate(-uc.InternalConfig.Audit.RetentionYears, 0, 0)
	batchSize := uc.InternalConfig.Audit.PurgeBatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}

	var total int64
	var lastObject string
	for {
		events, err := uc.AuditRepository.ListOlderThan(ctx, cutoff, batchSize)
		if err != nil {
			return total, err
		}
		if len(events) == 0 {
			break
		}

		batchName := fmt.Sprintf("%s%s", uc.InternalConfig.Audit.ArchivePrefix, utils.GenerateEventID())
		objectKey, err := uc.Archiver.ArchiveBatch(ctx, batchName, events)
		if err != nil {
			uc.Log.Error("auditUsecase.PurgeExpired archive failed, aborting purge",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.Error(err),
			)
			return total, err
		}
		lastObject = objectKey

		ids := make([]string, 0, len(events))
		for i := range events {
			ids = append(ids, events[i].ID)
		}
		deleted, err := uc.AuditRepository.DeleteByIDs(ctx, ids)
		if err != nil {
			return total, err
		}
		total += deleted

		if len(events) < batchSize {
			break
		}
	}

	if total > 0 {
		_, err := uc.Append(ctx, &models.AuditEvent{
			Provider: constvars.AuditChainPlatform,
			Actor:    constvars.ActorSystem,
			Type:     constvars.AuditEventAuditPurged,
			Outcome:  models.AuditOutcome{Success: true},
			Context: map[string]string{
				constvars.AuditContextPurgedCount:   strconv.FormatInt(total, 10),
				constvars.AuditContextArchiveObject: lastObject,
			},
		})
		if err != nil {
			return total, err
		}
		uc.Log.Info("auditUsecase.PurgeExpired completed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Int64("purged", total),
			zap.String(constvars.LoggingObjectKey, lastObject),
		)
	}
	return total, nil
}
