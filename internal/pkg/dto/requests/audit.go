package requests

type VerifyIntegrity struct {
	Provider string `json:"provider" validate:"required"`
	FromSeq  int64  `json:"from_seq" validate:"gte=0"`
	ToSeq    int64  `json:"to_seq" validate:"required,gtefield=FromSeq"`
}
