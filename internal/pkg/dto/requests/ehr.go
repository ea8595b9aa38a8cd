package requests

import "github.com/goccy/go-json"

type WriteResource struct {
	ResourceID     string          `json:"resource_id,omitempty"`
	Body           json.RawMessage `json:"body" validate:"required"`
	IdempotencyKey string          `json:"idempotency_key" validate:"required"`
	IfMatch        string          `json:"if_match,omitempty"`
}
