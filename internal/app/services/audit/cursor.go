package audit

import (
	"encoding/base64"
	"fmt"
	"medbridge-service/internal/app/models"
	"medbridge-service/internal/pkg/exceptions"
	"strings"
	"time"
)

// encodeCursor builds the opaque pagination token for the page ending
// at event: base64("<rfc3339nano>|<id>").
func encodeCursor(event *models.AuditEvent) string {
	raw := event.Timestamp.UTC().Format(time.RFC3339Nano) + "|" + event.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", exceptions.ErrAuditBadCursor(err)
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", exceptions.ErrAuditBadCursor(fmt.Errorf("malformed cursor %q", cursor))
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", exceptions.ErrAuditBadCursor(err)
	}
	return ts, parts[1], nil
}
