package models

// DatabaseHealth is the database section of a health report.
type DatabaseHealth struct {
	Connected bool   `json:"connected"`
	Status    string `json:"status,omitempty"`
	Latency   *int64 `json:"latency,omitempty"`
}

// MQTTHealth is the broker section of a health report.
type MQTTHealth struct {
	Connected bool   `json:"connected"`
	Status    string `json:"status,omitempty"`
	Broker    string `json:"broker,omitempty"`
	Topic     string `json:"topic,omitempty"`
}

// HealthReport is returned by /health and /health/ready.
type HealthReport struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp,omitempty"`
	Uptime    float64         `json:"uptime,omitempty"`
	Database  *DatabaseHealth `json:"database,omitempty"`
	MQTT      *MQTTHealth     `json:"mqtt,omitempty"`
}
