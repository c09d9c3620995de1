package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable LoadFromEnv reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"SF_LOGIN_URL", "SF_USERNAME", "SF_PASSWORD", "SF_API_VERSION", "EXPORT_BASE_DIR",
		"EXPORT_BATCH_SIZE", "SF_QUERY", "SF_PARENT_ACCOUNT_ID", "SF_START_DATE", "SF_END_DATE",
		"SF_FILE_TYPE", "SF_LOGIN_TIMEOUT", "EXPORT_DOWNLOAD_TIMEOUT", "EXPORT_ARCHIVE_URL", "EXPORT_ARCHIVE_PREFIX",
	} {
		t.Setenv(name, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "https://login.salesforce.com", cfg.LoginURL)
	assert.Equal(t, "59.0", cfg.APIVersion)
	assert.Equal(t, "export_results", cfg.BaseDir)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.LoginTimeout)
	assert.Equal(t, 5*time.Minute, cfg.DownloadTimeout)
	assert.Error(t, cfg.Validate(), "credentials have no default")
}

func TestRenderQuery_Default(t *testing.T) {
	cfg := Default()
	got, err := cfg.RenderQuery()
	require.NoError(t, err)

	want := "SELECT ContentDocument.LatestPublishedVersionId, ContentDocument.Title, ContentDocument.FileType, " +
		"ContentDocument.FileExtension FROM ContentDocumentLink WHERE LinkedEntityId IN ( SELECT Id FROM WorkOrder " +
		"WHERE Account.ParentId = '001Tt00000KNgLdIAL' AND StartDate > 2025-07-01T00:00:00.000+02:00 " +
		"AND StartDate < 2025-08-01T00:00:00.000+02:00 ) AND ContentDocument.FileType = 'PDF'"
	assert.Equal(t, want, got)
}

func TestRenderQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		params  QueryParams
		want    string
		wantErr bool
	}{
		{
			name:  "plain query without parameters",
			query: "SELECT Id\n\tFROM ContentDocumentLink   ",
			want:  "SELECT Id FROM ContentDocumentLink",
		},
		{
			name:   "quotes are escaped",
			query:  "WHERE Title = '{{.FileType}}'",
			params: QueryParams{FileType: `O'Brien\`},
			want:   `WHERE Title = 'O\'Brien\\'`,
		},
		{
			name:    "invalid date literal",
			query:   DefaultQuery,
			params:  QueryParams{StartDate: "2025-07-01; DELETE"},
			wantErr: true,
		},
		{
			name:    "unknown template field",
			query:   "WHERE Id = '{{.Nope}}'",
			wantErr: true,
		},
		{
			name:    "broken template",
			query:   "{{.FileType",
			wantErr: true,
		},
		{
			name:    "blank query",
			query:   "   ",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Query: tt.query, QueryParams: tt.params}
			got, err := cfg.RenderQuery()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
login_url: https://test.salesforce.com
username: ops@example.com
password: secret
api_version: "60.0"
base_dir: /var/exports
batch_size: 4
login_timeout: 10s
download_timeout: 2m
query_params:
  parent_account_id: 001ABC
  file_type: PNG
archive_url: s3://exports-bucket?region=eu-central-1
archive_prefix: salesforce
`
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, "https://test.salesforce.com", cfg.LoginURL)
	assert.Equal(t, "ops@example.com", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "60.0", cfg.APIVersion)
	assert.Equal(t, "/var/exports", cfg.BaseDir)
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, 10*time.Second, cfg.LoginTimeout)
	assert.Equal(t, 2*time.Minute, cfg.DownloadTimeout)
	assert.Equal(t, "001ABC", cfg.QueryParams.ParentAccountID)
	assert.Equal(t, "PNG", cfg.QueryParams.FileType)
	assert.Equal(t, "s3://exports-bucket?region=eu-central-1", cfg.ArchiveURL)
	assert.Equal(t, "salesforce", cfg.ArchivePrefix)
	// Unset keys keep their defaults.
	assert.Equal(t, DefaultQuery, cfg.Query)
	assert.Equal(t, "2025-07-01T00:00:00.000+02:00", cfg.QueryParams.StartDate)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	assert.Error(t, err)

	dir := t.TempDir()
	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("invalid: [yaml: content"), 0644))
	_, err = LoadFromFile(invalid)
	assert.Error(t, err)

	badDuration := filepath.Join(dir, "duration.yaml")
	require.NoError(t, os.WriteFile(badDuration, []byte("login_timeout: soon\n"), 0644))
	_, err = LoadFromFile(badDuration)
	assert.ErrorContains(t, err, "login_timeout")
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SF_USERNAME", "env-user")
	t.Setenv("SF_PASSWORD", "env-pass")
	t.Setenv("EXPORT_BATCH_SIZE", "25")
	t.Setenv("SF_LOGIN_TIMEOUT", "45s")
	t.Setenv("SF_FILE_TYPE", "DOCX")

	cfg := Default()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "env-user", cfg.Username)
	assert.Equal(t, "env-pass", cfg.Password)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, 45*time.Second, cfg.LoginTimeout)
	assert.Equal(t, "DOCX", cfg.QueryParams.FileType)
	assert.Equal(t, DefaultBaseDir, cfg.BaseDir)

	t.Setenv("EXPORT_BATCH_SIZE", "many")
	assert.Error(t, cfg.LoadFromEnv())
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("username: file-user\nbase_dir: from-file\nbatch_size: 3\n"), 0644))
	t.Setenv("EXPORT_BASE_DIR", "from-env")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "file-user", cfg.Username)
	assert.Equal(t, "from-env", cfg.BaseDir, "environment overrides the file")
	assert.Equal(t, 3, cfg.BatchSize)

	cfg = cfg.Merge(Config{BaseDir: "from-flag"})
	assert.Equal(t, "from-flag", cfg.BaseDir, "flags override the environment")
	assert.Equal(t, 3, cfg.BatchSize, "zero overrides are ignored")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Username = "u"
	cfg.Password = "p"
	require.NoError(t, cfg.Validate())

	missing := cfg
	missing.Password = ""
	assert.ErrorContains(t, missing.Validate(), "password is required")

	negative := cfg
	negative.LoginTimeout = -time.Second
	assert.Error(t, negative.Validate())

	badQuery := cfg
	badQuery.Query = "{{"
	assert.Error(t, badQuery.Validate())
}
