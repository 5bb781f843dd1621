package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/dryerwatch/internal/flagx"
	"github.com/dmitrijs2005/dryerwatch/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals are
// timex.Duration so they can be written as "30s" or as integer nanoseconds.
// Absent fields keep the value Config already has.
type JsonConfig struct {
	APIURL       *string `json:"api_url"`
	DatabasePath *string `json:"database_path"`
	Environment  *string `json:"environment"`
	LogLevel     *string `json:"log_level"`
	LogFormat    *string `json:"log_format"`

	HealthCheckInterval *timex.Duration `json:"health_check_interval"`
	HealthRetryAttempts *uint64         `json:"health_retry_attempts"`
	HealthRetryDelay    *timex.Duration `json:"health_retry_delay"`

	TokenCheckInterval    *timex.Duration `json:"token_check_interval"`
	TokenWarningThreshold *timex.Duration `json:"token_warning_threshold"`

	ErrorQueueSize    *int    `json:"error_queue_size"`
	BackupHistorySize *int    `json:"backup_history_size"`
	ExportDir         *string `json:"export_dir"`

	S3 *struct {
		Bucket   string `json:"bucket"`
		Region   string `json:"region"`
		Endpoint string `json:"endpoint"`
		Prefix   string `json:"prefix"`
	} `json:"s3"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c/-config (or $DRYERWATCH_CONFIG). It does nothing when no file is given
// and panics on read or decode errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setIf(&cfg.APIURL, jc.APIURL)
	setIf(&cfg.DatabasePath, jc.DatabasePath)
	setIf(&cfg.Environment, jc.Environment)
	setIf(&cfg.LogLevel, jc.LogLevel)
	setIf(&cfg.LogFormat, jc.LogFormat)
	setIf(&cfg.HealthRetryAttempts, jc.HealthRetryAttempts)
	setIf(&cfg.ErrorQueueSize, jc.ErrorQueueSize)
	setIf(&cfg.BackupHistorySize, jc.BackupHistorySize)
	setIf(&cfg.ExportDir, jc.ExportDir)

	setDuration(&cfg.HealthCheckInterval, jc.HealthCheckInterval)
	setDuration(&cfg.HealthRetryDelay, jc.HealthRetryDelay)
	setDuration(&cfg.TokenCheckInterval, jc.TokenCheckInterval)
	setDuration(&cfg.TokenWarningThreshold, jc.TokenWarningThreshold)

	if jc.S3 != nil {
		cfg.S3Bucket = jc.S3.Bucket
		cfg.S3Region = jc.S3.Region
		cfg.S3Endpoint = jc.S3.Endpoint
		cfg.S3Prefix = jc.S3.Prefix
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
