// Package config loads runtime configuration for the dryerwatch CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: DRYERWATCH_API_URL, DRYERWATCH_ENV and the S3 keys
//     DRYERWATCH_S3_ACCESS_KEY / DRYERWATCH_S3_SECRET_KEY.
//  3. Optional JSON file selected with -c/-config or $DRYERWATCH_CONFIG.
//  4. Command-line flags, which override everything above.
//
// Supported flags
//
//	-a string   base URL of the dashboard API
//	-i int      health check interval (seconds)
//	-d string   path of the local database
//	-l string   log level
//	-o string   directory for exports and backups
//
// # JSON schema
//
// Intervals use timex.Duration, so they may be strings like "30s" or integer
// nanoseconds. Every field is optional:
//
//	{
//	  "api_url": "http://dryer.local:5000/api",
//	  "database_path": "dryerwatch.db",
//	  "environment": "production",
//	  "log_level": "info",
//	  "log_format": "json",
//	  "health_check_interval": "30s",
//	  "health_retry_attempts": 3,
//	  "health_retry_delay": "5s",
//	  "token_check_interval": "5m",
//	  "token_warning_threshold": "10m",
//	  "error_queue_size": 100,
//	  "backup_history_size": 50,
//	  "export_dir": "exports",
//	  "s3": {"bucket": "dryer-backups", "region": "eu-central-1"}
//	}
//
// S3 credentials are read from the environment only.
package config
