package requests

type InjectLatency struct {
	Provider     string `json:"provider" validate:"required"`
	MinMillis    int    `json:"min_ms" validate:"gte=0"`
	MaxMillis    int    `json:"max_ms" validate:"required,gtefield=MinMillis"`
	DurationSecs int    `json:"duration_seconds" validate:"required,gt=0,lte=3600"`
}

type InjectErrorRate struct {
	Provider     string  `json:"provider" validate:"required"`
	Rate         float64 `json:"rate" validate:"required,gt=0,lte=1"`
	DurationSecs int     `json:"duration_seconds" validate:"required,gt=0,lte=3600"`
}
