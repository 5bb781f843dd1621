package config

import (
	"time"

	"github.com/dmitrijs2005/dryerwatch/internal/client/api"
	"github.com/dmitrijs2005/dryerwatch/internal/client/backup"
	"github.com/dmitrijs2005/dryerwatch/internal/client/health"
	"github.com/dmitrijs2005/dryerwatch/internal/client/tokenwatch"
	"github.com/dmitrijs2005/dryerwatch/internal/common"
)

// Config holds runtime settings for the dryerwatch CLI.
//
// Durations are time.Duration values. The S3 fields are optional; backups
// stay local when S3Bucket is empty.
type Config struct {
	APIURL       string
	DatabasePath string
	Environment  string
	LogLevel     string
	LogFormat    string

	HealthCheckInterval time.Duration
	HealthRetryAttempts uint64
	HealthRetryDelay    time.Duration

	TokenCheckInterval    time.Duration
	TokenWarningThreshold time.Duration

	ErrorQueueSize    int
	BackupHistorySize int
	ExportDir         string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3Prefix    string
	S3AccessKey string
	S3SecretKey string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	hc := health.DefaultConfig()
	tc := tokenwatch.DefaultConfig()

	c.APIURL = api.DefaultBaseURL
	c.DatabasePath = "dryerwatch.db"
	c.Environment = common.EnvProduction
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.HealthCheckInterval = hc.Interval
	c.HealthRetryAttempts = hc.RetryAttempts
	c.HealthRetryDelay = hc.RetryDelay
	c.TokenCheckInterval = tc.BaseInterval
	c.TokenWarningThreshold = tc.WarningThreshold
	c.ErrorQueueSize = 100
	c.BackupHistorySize = backup.DefaultHistorySize
	c.ExportDir = "exports"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, a JSON file (if present) and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Development reports whether the client runs in the development
// environment.
func (c *Config) Development() bool {
	return c.Environment == common.EnvDevelopment
}

// HealthConfig converts the health settings for health.NewPoller.
func (c *Config) HealthConfig() health.Config {
	hc := health.DefaultConfig()
	hc.Interval = c.HealthCheckInterval
	hc.RetryAttempts = c.HealthRetryAttempts
	hc.RetryDelay = c.HealthRetryDelay
	return hc
}

// TokenConfig converts the token settings for tokenwatch.New.
func (c *Config) TokenConfig() tokenwatch.Config {
	tc := tokenwatch.DefaultConfig()
	tc.BaseInterval = c.TokenCheckInterval
	tc.WarningThreshold = c.TokenWarningThreshold
	return tc
}

// S3Config returns the upload settings and whether uploads are enabled.
func (c *Config) S3Config() (backup.S3Config, bool) {
	return backup.S3Config{
		Bucket:    c.S3Bucket,
		Region:    c.S3Region,
		Endpoint:  c.S3Endpoint,
		Prefix:    c.S3Prefix,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
	}, c.S3Bucket != ""
}
