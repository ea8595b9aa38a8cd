package constvars

const (
	ResourcePatient            = "Patient"
	ResourceObservation        = "Observation"
	ResourceCondition          = "Condition"
	ResourceMedicationRequest  = "MedicationRequest"
	ResourceServiceRequest     = "ServiceRequest"
	ResourceDocumentReference  = "DocumentReference"
	ResourceEncounter          = "Encounter"
	ResourceAllergyIntolerance = "AllergyIntolerance"
	ResourceDiagnosticReport   = "DiagnosticReport"
)

const (
	ProviderEpic = "epic"
)

const (
	OAuthGrantClientCredentials = "client_credentials"
	OAuthClientAssertionType    = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
)
