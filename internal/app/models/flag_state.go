package models

// FlagState is the stored value of one feature flag. Evaluation order is
// global kill switch, then per-user override, then ratio bucket.
type FlagState struct {
	Key       string          `json:"key"`
	Enabled   bool            `json:"enabled"`
	Rollout   *float64        `json:"rollout,omitempty"`
	Overrides map[string]bool `json:"overrides,omitempty"`
}

// FlagMutation describes an audited administrative change to a flag.
type FlagMutation struct {
	FlagKey string
	AdminID string
	Enabled *bool
	Rollout *float64
}

// OverrideMutation describes an audited per-user override change.
type OverrideMutation struct {
	FlagKey string
	AdminID string
	ActorID string
	Enabled bool
}
