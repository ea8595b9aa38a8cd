package requests

type SetFlag struct {
	Enabled *bool    `json:"enabled" validate:"required"`
	Rollout *float64 `json:"rollout,omitempty" validate:"omitempty,gte=0,lte=1"`
}

type SetUserOverride struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// FlagKeyParam validates the {flagKey} path segment.
type FlagKeyParam struct {
	FlagKey string `validate:"required,flag_key"`
}
