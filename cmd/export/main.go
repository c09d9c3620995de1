package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/isseis/go-salesforce-files-exporter/config"
	archive "github.com/isseis/go-salesforce-files-exporter/export_archive"
	"github.com/isseis/go-salesforce-files-exporter/logger"
	sfapi "github.com/isseis/go-salesforce-files-exporter/salesforce_api"
	sfexp "github.com/isseis/go-salesforce-files-exporter/salesforce_files_exporter"
)

const Version = "0.1.0"

const (
	exitOK    = 0
	exitFatal = 1

	logoutTimeout = 10 * time.Second
)

var rule = strings.Repeat("=", 50)

func init() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on environment variables")
	}
}

// cliFlags holds the command-line values that override the configuration.
type cliFlags struct {
	user       string
	pass       string
	loginURL   string
	apiVersion string
	output     string
	query      string
	configPath string
	archiveURL string
	batchSize  int
}

// newFlagSet defines the exporter and logger flags.
func newFlagSet(name string, output io.Writer) (*flag.FlagSet, *cliFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	f := &cliFlags{}
	fs.StringVar(&f.user, "user", "", "Salesforce username")
	fs.StringVar(&f.pass, "pass", "", "Salesforce password (with security token appended if required)")
	fs.StringVar(&f.loginURL, "login-url", "", "Salesforce login URL (default "+config.DefaultLoginURL+")")
	fs.StringVar(&f.apiVersion, "api-version", "", "Salesforce API version (default "+config.DefaultAPIVersion+")")
	fs.StringVar(&f.output, "output", "", "Base directory for export directories (default "+config.DefaultBaseDir+")")
	fs.IntVar(&f.batchSize, "batch-size", 0, "Number of files downloaded concurrently (default 10)")
	fs.StringVar(&f.query, "query", "", "SOQL query template selecting ContentDocumentLink rows")
	fs.StringVar(&f.configPath, "config", "", "Path to a YAML configuration file")
	fs.StringVar(&f.archiveURL, "archive-url", "", "Bucket URL receiving a copy of the export (file://, s3://, gs://)")
	logger.RegisterFlags(fs)
	fs.Usage = func() { printUsage(fs) }
	return fs, f
}

// overrides converts the flags into a Config whose zero fields are ignored by Merge.
func (f *cliFlags) overrides() config.Config {
	return config.Config{
		Username:   f.user,
		Password:   f.pass,
		LoginURL:   f.loginURL,
		APIVersion: f.apiVersion,
		BaseDir:    f.output,
		BatchSize:  f.batchSize,
		Query:      f.query,
		ArchiveURL: f.archiveURL,
	}
}

// printUsage prints the complete usage information including flags and environment variables
func printUsage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintf(out, "Usage of %s:\n", fs.Name())
	fs.PrintDefaults()

	fmt.Fprintln(out, "\nLogger environment variables:")
	for _, v := range logger.GetEnvVarsHelp() {
		fmt.Fprintf(out, "  %-24s %s\n", v.Name, v.Description)
	}

	exporterEnvVars := []logger.EnvVar{
		{Name: "SF_USERNAME", Description: "Salesforce username"},
		{Name: "SF_PASSWORD", Description: "Salesforce password"},
		{Name: "SF_LOGIN_URL", Description: "Salesforce login URL"},
		{Name: "SF_API_VERSION", Description: "Salesforce API version"},
		{Name: "SF_LOGIN_TIMEOUT", Description: "Login timeout (e.g. 30s)"},
		{Name: "SF_QUERY", Description: "SOQL query template"},
		{Name: "SF_PARENT_ACCOUNT_ID", Description: "Query parameter ParentAccountID"},
		{Name: "SF_START_DATE", Description: "Query parameter StartDate"},
		{Name: "SF_END_DATE", Description: "Query parameter EndDate"},
		{Name: "SF_FILE_TYPE", Description: "Query parameter FileType"},
		{Name: "EXPORT_BASE_DIR", Description: "Base directory for export directories"},
		{Name: "EXPORT_BATCH_SIZE", Description: "Number of files downloaded concurrently"},
		{Name: "EXPORT_DOWNLOAD_TIMEOUT", Description: "Timeout for a single download (e.g. 5m)"},
		{Name: "EXPORT_ARCHIVE_URL", Description: "Bucket URL receiving a copy of the export"},
		{Name: "EXPORT_ARCHIVE_PREFIX", Description: "Key prefix inside the archive bucket"},
	}
	fmt.Fprintln(out, "\nExporter environment variables:")
	for _, v := range exporterEnvVars {
		fmt.Fprintf(out, "  %-24s %s\n", v.Name, v.Description)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one export and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs, flags := newFlagSet("export", stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitFatal
	}

	logCfg, err := logger.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Error loading logger config: %v\n\n", err)
		fs.Usage()
		return exitFatal
	}
	logCfg.Output = stdout
	log := logger.NewHybridLogger(*logCfg)
	defer func() {
		if err := log.FlushWebhook(); err != nil {
			fmt.Fprintf(stderr, "Failed to flush webhook logs: %v\n", err)
		}
	}()

	fmt.Fprintln(stdout, rule)
	fmt.Fprintln(stdout, "Salesforce Files Export Tool")
	fmt.Fprintln(stdout, rule)

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading configuration: %v\n", err)
		return exitFatal
	}
	cfg = cfg.Merge(flags.overrides())
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: invalid configuration\n%v\n", err)
		fmt.Fprintln(stderr, "Set SF_USERNAME and SF_PASSWORD in your environment or .env file, or pass -user and -pass")
		return exitFatal
	}
	query, err := cfg.RenderQuery()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFatal
	}
	baseDir, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to resolve absolute path of base directory: %v\n", err)
		return exitFatal
	}

	log.Info("Salesforce Files Exporter started", "version", Version, "login_url", cfg.LoginURL, "api_version", cfg.APIVersion)
	fmt.Fprintln(stdout, "\nConnecting to Salesforce...")
	exporter, err := sfexp.NewExporter(ctx,
		sfexp.Credentials{
			Username:     cfg.Username,
			Password:     cfg.Password,
			LoginURL:     cfg.LoginURL,
			APIVersion:   cfg.APIVersion,
			LoginTimeout: cfg.LoginTimeout,
		},
		baseDir,
		sfexp.WithBatchSize(cfg.BatchSize),
		sfexp.WithDownloadTimeout(cfg.DownloadTimeout),
		sfexp.WithLogger(sfexp.NewLoggerAdapter(log)),
	)
	if err != nil {
		log.Error("Failed to connect to Salesforce", "error", err)
		if errors.Is(err, sfapi.ErrLoginTimeout) {
			fmt.Fprintf(stderr, "Salesforce connection timed out: %v\n", err)
		} else {
			fmt.Fprintf(stderr, "Salesforce connection failed: %v\n", err)
		}
		return exitFatal
	}
	defer func() {
		logoutCtx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
		defer cancel()
		_ = exporter.Close(logoutCtx)
	}()

	printConnection(stdout, exporter)
	fmt.Fprintf(stdout, "\nExecuting query...\nQuery: %s\n", query)

	result, err := exporter.Export(ctx, query)
	if err != nil {
		log.Error("Export failed", "run_id", exporter.RunID(), "error", err)
		fmt.Fprintf(stderr, "\nExport failed: %v\n", err)
		return exitFatal
	}
	printSummary(stdout, result)

	if cfg.ArchiveURL != "" {
		archiveExport(ctx, stdout, stderr, log, cfg, result.ExportDir)
	}
	return exitOK
}

// archiveExport copies the export directory to the configured bucket.
// A failed upload is reported but leaves the local export, and the exit code, untouched.
func archiveExport(ctx context.Context, stdout, stderr io.Writer, log logger.Logger, cfg config.Config, exportDir string) {
	fmt.Fprintf(stdout, "\nArchiving export to %s...\n", cfg.ArchiveURL)
	sum, err := archive.UploadURL(ctx, cfg.ArchiveURL, exportDir, cfg.ArchivePrefix)
	if err != nil {
		log.Error("Failed to archive export", "archive_url", cfg.ArchiveURL, "export_dir", exportDir, "error", err)
		fmt.Fprintf(stderr, "Archive failed: %v\n", err)
		return
	}
	log.Info("Export archived", "archive_url", cfg.ArchiveURL, "objects", sum.Objects, "bytes", sum.Bytes)
	fmt.Fprintf(stdout, "Archived %d objects (%d bytes) under %s\n", sum.Objects, sum.Bytes, archive.ObjectPrefix(cfg.ArchivePrefix, exportDir))
}

// printConnection prints the authenticated user and organization.
func printConnection(w io.Writer, e *sfexp.Exporter) {
	info, ok := e.UserInfo()
	if !ok {
		return
	}
	fmt.Fprintln(w, "Salesforce connection successful")
	fmt.Fprintf(w, "  User ID: %s\n", info.UserID)
	fmt.Fprintf(w, "  Organization ID: %s\n", info.OrganizationID)
	if version, ok := e.APIVersion(); ok {
		fmt.Fprintf(w, "  API version: %s\n", version)
	}
	fmt.Fprintf(w, "  Batch size: %d\n", e.BatchSize())
}

// printSummary prints the final report of a completed run, itemizing failures.
func printSummary(w io.Writer, result sfexp.ExportResult) {
	if result.Total == 0 {
		fmt.Fprintln(w, "\nNo records found matching the query.")
	}
	fmt.Fprintln(w, "\n"+rule)
	fmt.Fprintln(w, "Export Complete!")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Successfully downloaded: %d\n", result.Success)
	fmt.Fprintf(w, "Failed: %d\n", result.Failed)
	fmt.Fprintf(w, "Total: %d\n", result.Total)
	fmt.Fprintf(w, "Duration: %.2fs\n", result.Duration.Seconds())
	fmt.Fprintf(w, "Export location: %s\n", result.ExportDir)
	if len(result.Errors) > 0 {
		fmt.Fprintln(w, "\nFailed files:")
		for _, fe := range result.Errors {
			fmt.Fprintf(w, "  - %s (%s) [%s]: %v\n", fe.Record.Title, fe.Record.VersionID, fe.Kind(), fe.Err)
		}
	}
	fmt.Fprintln(w, rule)
}
