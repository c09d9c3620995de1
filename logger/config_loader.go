package logger

import (
	"flag"
	"os"
	"strings"
)

const defaultAppName = "salesforce-files-exporter"

var (
	logLevelFlag   *string
	logFormatFlag  *string
	webhookURLFlag *string
	appNameFlag    *string
	envFlag        *string
)

// RegisterFlags defines the logger flags on fs. Call it before fs.Parse.
func RegisterFlags(fs *flag.FlagSet) {
	logLevelFlag = fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormatFlag = fs.String("log-format", "", "Log format (json, text)")
	webhookURLFlag = fs.String("log-webhook-url", "", "Webhook URL receiving buffered logs at exit")
	appNameFlag = fs.String("app-name", "", "Application name attached to webhook logs")
	envFlag = fs.String("env", "", "Environment (development, staging, production)")
}

// LoadConfig loads logger config from flags and environment variables.
// Flags take precedence over environment variables.
// The caller must parse the flags registered by RegisterFlags before calling this function.
func LoadConfig() (*Config, error) {
	levelStr := flagValue(logLevelFlag)
	formatStr := flagValue(logFormatFlag)
	webhookURL := flagValue(webhookURLFlag)
	appName := flagValue(appNameFlag)
	envName := flagValue(envFlag)

	// Fall back to environment variables if flags not set
	if levelStr == "" {
		levelStr = getEnv("LOG_LEVEL", "info")
	}
	if formatStr == "" {
		formatStr = getEnv("LOG_FORMAT", string(FormatJSON))
	}
	if webhookURL == "" {
		webhookURL = os.Getenv("LOG_WEBHOOK_URL")
	}
	if appName == "" {
		appName = getEnv("APP_NAME", defaultAppName)
	}
	if envName == "" {
		envName = getEnv("ENV", "development")
	}

	return &Config{
		Level:       ParseLevel(strings.ToLower(levelStr)),
		Format:      ParseFormat(strings.ToLower(formatStr)),
		WebhookURL:  webhookURL,
		AppName:     appName,
		Environment: envName,
		Output:      nil, // Set by caller if needed
	}, nil
}

func flagValue(f *string) string {
	if f == nil {
		return ""
	}
	return *f
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// EnvVar describes an environment variable for usage output.
type EnvVar struct {
	Name        string
	Description string
}

// GetEnvVarsHelp lists the environment variables read by LoadConfig.
func GetEnvVarsHelp() []EnvVar {
	return []EnvVar{
		{"LOG_LEVEL", "Log level (debug, info, warn, error)"},
		{"LOG_FORMAT", "Log format (json, text)"},
		{"LOG_WEBHOOK_URL", "Webhook URL for logging"},
		{"APP_NAME", "Application name"},
		{"ENV", "Environment (development, staging, production)"},
	}
}
