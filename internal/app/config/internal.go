package config

import "time"

type InternalConfig struct {
	App     App
	EHR     AppEHR
	Breaker AppBreaker
	Audit   AppAudit
}

type App struct {
	Env                      string
	Port                     string
	Version                  string
	Address                  string
	EndpointPrefix           string
	MaxRequests              int
	ShutdownTimeoutInSeconds int
	SuperadminAPIKeyHash     string
}

type AppEHR struct {
	Provider               string
	BaseUrl                string
	TokenUrl               string
	ClientID               string
	PrivateKeyPEM          string
	JWTAlg                 string
	Scope                  string
	RequestTimeout         time.Duration
	WriteFlagKey           string
	WriteThrottleWindowSec int
	WriteThrottleMax       int
}

type AppBreaker struct {
	FailureRateThreshold float64
	MinimumSamples       int
	WindowSize           int
	OpenDuration         time.Duration
	HalfOpenTrials       int
}

type AppAudit struct {
	RetentionYears   int
	DefaultPageSize  int
	PurgeBatchSize   int
	ArchivePrefix    string
	PurgeCronSpec    string
	SnapshotCronSpec string
}
