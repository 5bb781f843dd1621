package models

import (
	"github.com/shopspring/decimal"
)

// Reading is a single temperature sample.
type Reading struct {
	Timestamp   string          `json:"timestamp"`
	Temperature decimal.Decimal `json:"temperature"`
	Status      string          `json:"status,omitempty"`
}

// AggregateRecord is a per-time-slot temperature summary.
type AggregateRecord struct {
	Date        string          `json:"date"`
	TimeSlot    string          `json:"timeSlot"`
	MeanTemp    decimal.Decimal `json:"meanTemp"`
	MinTemp     decimal.Decimal `json:"minTemp"`
	MaxTemp     decimal.Decimal `json:"maxTemp"`
	SampleCount int             `json:"sampleCount"`
	IsExported  bool            `json:"isExported"`
}

// SystemStats is the free-form statistics object of /sensor/stats.
type SystemStats map[string]any

// BackupFile describes one server-side backup.
type BackupFile struct {
	Date     string `json:"date"`
	Filename string `json:"filename"`
	Size     int64  `json:"size,omitempty"`
	Type     string `json:"type,omitempty"`
	Created  string `json:"created,omitempty"`
}
