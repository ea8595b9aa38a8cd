package responses

import "github.com/goccy/go-json"

type EhrResult struct {
	Outcome        string          `json:"outcome"`
	ResourceID     string          `json:"resource_id,omitempty"`
	ETag           string          `json:"etag,omitempty"`
	StatusCode     int             `json:"status_code,omitempty"`
	RetryAfterSecs int             `json:"retry_after_seconds,omitempty"`
	Resource       json.RawMessage `json:"resource,omitempty"`
}
