package contracts

import (
	"context"
	"medbridge-service/internal/app/models"
	"time"
)

// AuditService is the append-only, tamper-evident ledger of every
// PHI-relevant action. Append failures must propagate to the caller:
// an unaudited PHI access is itself a compliance violation.
type AuditService interface {
	Append(ctx context.Context, event *models.AuditEvent) (string, error)
	Query(ctx context.Context, query *models.AuditQuery) (*models.AuditPage, error)
	AccountingOfDisclosures(ctx context.Context, subjectID, cursor string, limit int) (*models.AuditPage, error)
	VerifyIntegrity(ctx context.Context, provider string, fromSeq, toSeq int64) (bool, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

// AuditRepository is the persistence boundary underneath AuditService.
type AuditRepository interface {
	AppendEvent(ctx context.Context, event *models.AuditEvent) error
	LastEvent(ctx context.Context, provider string) (*models.AuditEvent, error)
	EventBySeq(ctx context.Context, provider string, seq int64) (*models.AuditEvent, error)
	ListEvents(ctx context.Context, query *models.AuditQuery) ([]models.AuditEvent, error)
	ListBySeqRange(ctx context.Context, provider string, fromSeq, toSeq int64) ([]models.AuditEvent, error)
	ListOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.AuditEvent, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// AuditPublisher fans appended events out to the compliance stream.
// Publishing is export-only; failures never fail the originating append.
type AuditPublisher interface {
	Publish(ctx context.Context, event *models.AuditEvent) error
}

// AuditArchiver exports a purge batch to cold storage before deletion.
type AuditArchiver interface {
	ArchiveBatch(ctx context.Context, batchName string, events []models.AuditEvent) (string, error)
}
