package fhir_dto

import "time"

type Meta struct {
	VersionId   string    `json:"versionId,omitempty"`
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
	Source      string    `json:"source,omitempty"`
}

type Issue struct {
	Severity    string `json:"severity,omitempty"`
	Code        string `json:"code,omitempty"`
	Diagnostics string `json:"diagnostics,omitempty"`
}

// OperationOutcome is the FHIR error envelope providers return on
// non-2xx responses.
type OperationOutcome struct {
	ResourceType string  `json:"resourceType,omitempty"`
	Issue        []Issue `json:"issue,omitempty"`
}

// FirstDiagnostics extracts the first issue's diagnostics text, if any.
func (o *OperationOutcome) FirstDiagnostics() string {
	if o == nil || len(o.Issue) == 0 {
		return ""
	}
	return o.Issue[0].Diagnostics
}
