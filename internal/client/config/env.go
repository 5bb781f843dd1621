package config

import "os"

// Environment variables read by parseEnv.
const (
	EnvAPIURL      = "DRYERWATCH_API_URL"
	EnvEnvironment = "DRYERWATCH_ENV"
	EnvS3AccessKey = "DRYERWATCH_S3_ACCESS_KEY"
	EnvS3SecretKey = "DRYERWATCH_S3_SECRET_KEY"
)

// parseEnv overlays Config with the environment. Unset or empty variables
// leave the current value alone.
func parseEnv(cfg *Config) {
	for name, dst := range map[string]*string{
		EnvAPIURL:      &cfg.APIURL,
		EnvEnvironment: &cfg.Environment,
		EnvS3AccessKey: &cfg.S3AccessKey,
		EnvS3SecretKey: &cfg.S3SecretKey,
	} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
}
