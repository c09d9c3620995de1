// Package config assembles the exporter configuration from defaults, an optional
// YAML file, environment variables and command-line overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultLoginURL        = "https://login.salesforce.com"
	DefaultAPIVersion      = "59.0"
	DefaultBaseDir         = "export_results"
	DefaultBatchSize       = 10
	DefaultLoginTimeout    = 30 * time.Second
	DefaultDownloadTimeout = 5 * time.Minute
)

// DefaultQuery selects the latest version of every file linked to work orders of
// the accounts under ParentAccountID that started within [StartDate, EndDate).
const DefaultQuery = `
  SELECT
    ContentDocument.LatestPublishedVersionId,
    ContentDocument.Title,
    ContentDocument.FileType,
    ContentDocument.FileExtension
  FROM ContentDocumentLink
  WHERE LinkedEntityId IN (
    SELECT Id
    FROM WorkOrder
    WHERE Account.ParentId = '{{.ParentAccountID}}'
      AND StartDate > {{.StartDate}}
      AND StartDate < {{.EndDate}}
  )
  AND ContentDocument.FileType = '{{.FileType}}'
`

// Config defines configuration for the exporter CLI.
type Config struct {
	LoginURL        string
	Username        string
	Password        string
	APIVersion      string
	BaseDir         string
	BatchSize       int
	LoginTimeout    time.Duration
	DownloadTimeout time.Duration
	Query           string // text/template source, rendered with QueryParams
	QueryParams     QueryParams
	ArchiveURL      string // Optional bucket URL receiving a copy of each export
	ArchivePrefix   string // Key prefix inside the archive bucket
}

// QueryParams are the values substituted into the query template.
type QueryParams struct {
	ParentAccountID string `yaml:"parent_account_id"`
	StartDate       string `yaml:"start_date"` // SOQL datetime literal, e.g. 2025-07-01T00:00:00.000+02:00
	EndDate         string `yaml:"end_date"`
	FileType        string `yaml:"file_type"`
}

// Default returns a Config with the defaults of the original export job.
func Default() Config {
	return Config{
		LoginURL:        DefaultLoginURL,
		APIVersion:      DefaultAPIVersion,
		BaseDir:         DefaultBaseDir,
		BatchSize:       DefaultBatchSize,
		LoginTimeout:    DefaultLoginTimeout,
		DownloadTimeout: DefaultDownloadTimeout,
		Query:           DefaultQuery,
		QueryParams: QueryParams{
			ParentAccountID: "001Tt00000KNgLdIAL",
			StartDate:       "2025-07-01T00:00:00.000+02:00",
			EndDate:         "2025-08-01T00:00:00.000+02:00",
			FileType:        "PDF",
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	LoginURL        string      `yaml:"login_url"`
	Username        string      `yaml:"username"`
	Password        string      `yaml:"password"`
	APIVersion      string      `yaml:"api_version"`
	BaseDir         string      `yaml:"base_dir"`
	BatchSize       int         `yaml:"batch_size"`
	LoginTimeout    string      `yaml:"login_timeout"`
	DownloadTimeout string      `yaml:"download_timeout"`
	Query           string      `yaml:"query"`
	QueryParams     QueryParams `yaml:"query_params"`
	ArchiveURL      string      `yaml:"archive_url"`
	ArchivePrefix   string      `yaml:"archive_prefix"`
}

// Load returns the defaults overlaid with the YAML file at path (if path is not empty)
// and then with environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()
	override := Config{
		LoginURL:      yc.LoginURL,
		Username:      yc.Username,
		Password:      yc.Password,
		APIVersion:    yc.APIVersion,
		BaseDir:       yc.BaseDir,
		BatchSize:     yc.BatchSize,
		Query:         yc.Query,
		QueryParams:   yc.QueryParams,
		ArchiveURL:    yc.ArchiveURL,
		ArchivePrefix: yc.ArchivePrefix,
	}
	if yc.LoginTimeout != "" {
		if override.LoginTimeout, err = time.ParseDuration(yc.LoginTimeout); err != nil {
			return Config{}, fmt.Errorf("parse login_timeout: %w", err)
		}
	}
	if yc.DownloadTimeout != "" {
		if override.DownloadTimeout, err = time.ParseDuration(yc.DownloadTimeout); err != nil {
			return Config{}, fmt.Errorf("parse download_timeout: %w", err)
		}
	}
	return cfg.Merge(override), nil
}

// LoadFromEnv loads configuration from environment variables.
func (c *Config) LoadFromEnv() error {
	strVars := []struct {
		name string
		dst  *string
	}{
		{"SF_LOGIN_URL", &c.LoginURL},
		{"SF_USERNAME", &c.Username},
		{"SF_PASSWORD", &c.Password},
		{"SF_API_VERSION", &c.APIVersion},
		{"EXPORT_BASE_DIR", &c.BaseDir},
		{"SF_QUERY", &c.Query},
		{"SF_PARENT_ACCOUNT_ID", &c.QueryParams.ParentAccountID},
		{"SF_START_DATE", &c.QueryParams.StartDate},
		{"SF_END_DATE", &c.QueryParams.EndDate},
		{"SF_FILE_TYPE", &c.QueryParams.FileType},
		{"EXPORT_ARCHIVE_URL", &c.ArchiveURL},
		{"EXPORT_ARCHIVE_PREFIX", &c.ArchivePrefix},
	}
	for _, v := range strVars {
		if s := os.Getenv(v.name); s != "" {
			*v.dst = s
		}
	}

	if v := os.Getenv("EXPORT_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse EXPORT_BATCH_SIZE: %w", err)
		}
		c.BatchSize = n
	}
	if v := os.Getenv("SF_LOGIN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SF_LOGIN_TIMEOUT: %w", err)
		}
		c.LoginTimeout = d
	}
	if v := os.Getenv("EXPORT_DOWNLOAD_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse EXPORT_DOWNLOAD_TIMEOUT: %w", err)
		}
		c.DownloadTimeout = d
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.LoginURL != "" {
		c.LoginURL = override.LoginURL
	}
	if override.Username != "" {
		c.Username = override.Username
	}
	if override.Password != "" {
		c.Password = override.Password
	}
	if override.APIVersion != "" {
		c.APIVersion = override.APIVersion
	}
	if override.BaseDir != "" {
		c.BaseDir = override.BaseDir
	}
	if override.BatchSize != 0 {
		c.BatchSize = override.BatchSize
	}
	if override.LoginTimeout != 0 {
		c.LoginTimeout = override.LoginTimeout
	}
	if override.DownloadTimeout != 0 {
		c.DownloadTimeout = override.DownloadTimeout
	}
	if override.Query != "" {
		c.Query = override.Query
	}
	if override.QueryParams.ParentAccountID != "" {
		c.QueryParams.ParentAccountID = override.QueryParams.ParentAccountID
	}
	if override.QueryParams.StartDate != "" {
		c.QueryParams.StartDate = override.QueryParams.StartDate
	}
	if override.QueryParams.EndDate != "" {
		c.QueryParams.EndDate = override.QueryParams.EndDate
	}
	if override.QueryParams.FileType != "" {
		c.QueryParams.FileType = override.QueryParams.FileType
	}
	if override.ArchiveURL != "" {
		c.ArchiveURL = override.ArchiveURL
	}
	if override.ArchivePrefix != "" {
		c.ArchivePrefix = override.ArchivePrefix
	}
	return c
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Username == "" {
		errs = append(errs, errors.New("config: username is required (SF_USERNAME or -user)"))
	}
	if c.Password == "" {
		errs = append(errs, errors.New("config: password is required (SF_PASSWORD or -pass)"))
	}
	if c.LoginURL == "" {
		errs = append(errs, errors.New("config: login URL is required"))
	}
	if c.BaseDir == "" {
		errs = append(errs, errors.New("config: base directory is required"))
	}
	if c.LoginTimeout < 0 || c.DownloadTimeout < 0 {
		errs = append(errs, errors.New("config: timeouts must not be negative"))
	}
	if _, err := c.RenderQuery(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RenderQuery expands the query template with QueryParams and collapses all
// whitespace runs to single spaces. Quoted string parameters are escaped.
func (c *Config) RenderQuery() (string, error) {
	for _, d := range []struct{ name, value string }{
		{"start_date", c.QueryParams.StartDate},
		{"end_date", c.QueryParams.EndDate},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.Parse(time.RFC3339, d.value); err != nil {
			return "", fmt.Errorf("config: %s is not a datetime literal: %w", d.name, err)
		}
	}

	tmpl, err := template.New("query").Option("missingkey=error").Parse(c.Query)
	if err != nil {
		return "", fmt.Errorf("config: parse query template: %w", err)
	}
	params := QueryParams{
		ParentAccountID: escapeSOQL(c.QueryParams.ParentAccountID),
		StartDate:       c.QueryParams.StartDate,
		EndDate:         c.QueryParams.EndDate,
		FileType:        escapeSOQL(c.QueryParams.FileType),
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("config: render query template: %w", err)
	}
	query := strings.Join(strings.Fields(buf.String()), " ")
	if query == "" {
		return "", errors.New("config: query is empty")
	}
	return query, nil
}

// escapeSOQL escapes a value for use inside a single-quoted SOQL string literal.
func escapeSOQL(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
