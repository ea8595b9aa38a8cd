package responses

import "time"

// AuditEventView is the exported shape of an audit event. Subject is
// always the redacted pseudonym, never the raw identifier.
type AuditEventView struct {
	ID        string            `json:"id"`
	Provider  string            `json:"provider"`
	Seq       int64             `json:"seq"`
	Timestamp time.Time         `json:"timestamp"`
	Actor     string            `json:"actor"`
	Type      string            `json:"type"`
	Subject   string            `json:"subject,omitempty"`
	Success   bool              `json:"success"`
	ErrorKind string            `json:"error_kind,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
	Hash      string            `json:"hash"`
}

type VerifyIntegrityResult struct {
	Provider string `json:"provider"`
	FromSeq  int64  `json:"from_seq"`
	ToSeq    int64  `json:"to_seq"`
	Intact   bool   `json:"intact"`
}
