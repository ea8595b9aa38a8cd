package archive

import (
	"bytes"
	"context"
	"fmt"
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/app/models"
	"medbridge-service/internal/pkg/constvars"
	"medbridge-service/internal/pkg/exceptions"
	"time"

	"github.com/goccy/go-json"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Service writes batches of expired audit events to object storage as
// newline-delimited JSON before they are removed from the hot store.
type Service struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

func NewService(client *minio.Client, bucket string, log *zap.Logger) contracts.AuditArchiver {
	return &Service{client: client, bucket: bucket, log: log}
}

// ArchiveBatch uploads the batch under audit/<date>/<batchName>.ndjson
// and returns the object key.
func (s *Service) ArchiveBatch(ctx context.Context, batchName string, events []models.AuditEvent) (string, error) {
	if len(events) == 0 {
		return "", exceptions.ErrAuditArchive(fmt.Errorf("empty archive batch %s", batchName))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range events {
		if err := enc.Encode(&events[i]); err != nil {
			return "", exceptions.ErrAuditArchive(err)
		}
	}

	objectKey := fmt.Sprintf("audit/%s/%s.ndjson", time.Now().UTC().Format("2006-01-02"), batchName)

	_, err := s.client.PutObject(ctx, s.bucket, objectKey, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: constvars.MIMEApplicationJSON,
	})
	if err != nil {
		return "", exceptions.ErrAuditArchive(err)
	}

	s.log.Info("archive.ArchiveBatch uploaded audit batch",
		zap.String(constvars.LoggingObjectKey, objectKey),
		zap.Int(constvars.LoggingCountKey, len(events)),
	)
	return objectKey, nil
}
