package models

import "time"

// AuditOutcome records whether the audited action succeeded and, when it
// did not, which taxonomy kind it failed with.
type AuditOutcome struct {
	Success   bool        `json:"success" bson:"success"`
	ErrorKind OutcomeKind `json:"error_kind,omitempty" bson:"errorKind,omitempty"`
}

// AuditEvent is one immutable entry in the per-provider hash chain.
// Events are created once and never edited; the retention purge is the
// only deletion path. Subject may carry PHI and must be redacted in any
// exported view.
type AuditEvent struct {
	ID        string            `json:"id" bson:"_id"`
	Provider  string            `json:"provider" bson:"provider"`
	Seq       int64             `json:"seq" bson:"seq"`
	Timestamp time.Time         `json:"timestamp" bson:"timestamp"`
	Actor     string            `json:"actor" bson:"actor"`
	Type      string            `json:"type" bson:"type"`
	Subject   string            `json:"subject,omitempty" bson:"subject,omitempty"`
	Outcome   AuditOutcome      `json:"outcome" bson:"outcome"`
	Context   map[string]string `json:"context,omitempty" bson:"context,omitempty"`
	PrevHash  string            `json:"prev_hash" bson:"prevHash"`
	Hash      string            `json:"hash" bson:"hash"`
}

// AuditQuery filters the event stream. All fields are optional; a zero
// query matches everything. Cursor is the opaque pagination token from a
// previous page.
type AuditQuery struct {
	TypePrefix string
	Types      []string
	Actor      string
	Subject    string
	Provider   string
	From       time.Time
	To         time.Time
	Cursor     string
	Limit      int
}

// AuditPage is one lazily-fetched slice of the event stream ordered by
// timestamp ascending. NextCursor is empty on the final page.
type AuditPage struct {
	Events     []AuditEvent `json:"events"`
	NextCursor string       `json:"next_cursor,omitempty"`
}
