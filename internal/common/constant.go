// Package common contains shared constants and sentinel errors used across
// dryerwatch components.
package common

// Durable storage keys. They mirror the keys the browser dashboard used, so a
// migrated data file keeps its meaning.
const (
	KeyAuthToken     = "authToken"
	KeyAuthUser      = "authUser"
	KeyBackupHistory = "emergencyBackupHistory"
	KeyErrorQueue    = "errorQueue"
)

// CredentialKeys are cleared together on logout. The history and error queue
// keys are diagnostic and survive sessions.
var CredentialKeys = []string{KeyAuthToken, KeyAuthUser}

const (
	// AuthorizationHeaderName carries the bearer token on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// ErrorReportHeaderName marks telemetry deliveries so the backend can
	// route them away from regular request logs.
	ErrorReportHeaderName = "X-Error-Report"

	// RedactedMarker replaces sensitive values before storage or transmission.
	RedactedMarker = "[REDACTED]"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)
