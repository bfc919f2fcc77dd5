package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/seoprobe/internal/model"
)

// DBFileName is the name of the history database inside the data directory.
const DBFileName = "seoprobe.db"

// timestampLayout is how audit times are stored. The fixed width keeps
// lexical and chronological order identical.
const timestampLayout = "2006-01-02 15:04:05.000000"

// ErrNotEnoughHistory is returned by CompareLatest when fewer than two
// reports exist for a URL.
var ErrNotEnoughHistory = errors.New("at least two saved audits are required to compare")

// AuditDB provides SQLite-based storage for audit reports.
// The audit engine itself is stateless; history is an opt-in CLI feature.
type AuditDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures AuditDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an AuditDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*AuditDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run an audit with --save first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	adb := &AuditDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := adb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return adb, nil
}

// Close closes the database connection.
func (adb *AuditDB) Close() error {
	return adb.db.Close()
}

// Path returns the database file path.
func (adb *AuditDB) Path() string {
	return adb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (adb *AuditDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		audit_id TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		status INTEGER,
		noindex INTEGER NOT NULL DEFAULT 0,
		in_sitemap INTEGER NOT NULL DEFAULT 0,
		timed_out INTEGER NOT NULL DEFAULT 0,
		conflict_count INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_url ON audit_reports(url);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON audit_reports(timestamp);
	`

	_, err := adb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveAuditReport stores a complete audit report as JSON together with the
// summary columns used for listing history. Saving the same report twice
// replaces the earlier row.
func (adb *AuditDB) SaveAuditReport(ctx context.Context, report *model.AuditReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO audit_reports (audit_id, url, timestamp, status, noindex, in_sitemap, timed_out, conflict_count, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(audit_id) DO UPDATE SET
		status = excluded.status,
		noindex = excluded.noindex,
		in_sitemap = excluded.in_sitemap,
		timed_out = excluded.timed_out,
		conflict_count = excluded.conflict_count,
		report_json = excluded.report_json
	`

	_, err = adb.db.ExecContext(ctx, query,
		report.ID,
		report.URL,
		report.AuditedAt.UTC().Format(timestampLayout),
		report.Status,
		report.Noindex,
		report.Sitemap.Found,
		report.TimedOut,
		len(report.Conflicts),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save audit report: %w", err)
	}

	return nil
}

// GetLatestAuditReport retrieves the most recent report for url.
// It returns nil, nil when none exists.
func (adb *AuditDB) GetLatestAuditReport(ctx context.Context, url string) (*model.AuditReport, error) {
	reports, err := adb.latestReports(ctx, url, 1)
	if err != nil || len(reports) == 0 {
		return nil, err
	}
	return reports[0], nil
}

// GetAuditReportByID retrieves a report by its database ID.
// It returns nil, nil when none exists.
func (adb *AuditDB) GetAuditReportByID(ctx context.Context, id int64) (*model.AuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE id = ?
	`

	var reportJSON string
	err := adb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit report: %w", err)
	}

	return decodeReport(reportJSON)
}

// ListAuditedURLs returns every URL with at least one saved report.
func (adb *AuditDB) ListAuditedURLs(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT url FROM audit_reports
	ORDER BY url
	`

	rows, err := adb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list URLs: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan URL: %w", err)
		}
		urls = append(urls, u)
	}

	return urls, rows.Err()
}

// AuditReportMetadata summarizes a saved report without loading it.
type AuditReportMetadata struct {
	// ID is the database row ID, usable with GetAuditReportByID.
	ID int64 `json:"id"`

	// AuditID is the report's own ID.
	AuditID string `json:"auditId"`

	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Noindex   bool      `json:"noindex"`
	InSitemap bool      `json:"inSitemap"`
	TimedOut  bool      `json:"timedOut"`

	// ConflictCount is the number of conflicts in the report.
	ConflictCount int `json:"conflictCount"`
}

// GetAuditHistory lists report metadata for url, newest first.
func (adb *AuditDB) GetAuditHistory(ctx context.Context, url string) ([]AuditReportMetadata, error) {
	query := `
	SELECT id, audit_id, url, timestamp, status, noindex, in_sitemap, timed_out, conflict_count
	FROM audit_reports
	WHERE url = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := adb.db.QueryContext(ctx, query, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer rows.Close()

	var results []AuditReportMetadata
	for rows.Next() {
		var meta AuditReportMetadata
		var timestamp string
		var status sql.NullInt64

		if err := rows.Scan(
			&meta.ID,
			&meta.AuditID,
			&meta.URL,
			&timestamp,
			&status,
			&meta.Noindex,
			&meta.InSitemap,
			&meta.TimedOut,
			&meta.ConflictCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		meta.Status = int(status.Int64)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// CompareLatest diffs the conflicts of the two most recent reports for url.
// It returns ErrNotEnoughHistory when fewer than two reports exist.
func (adb *AuditDB) CompareLatest(ctx context.Context, url string) (*ConflictDiff, error) {
	reports, err := adb.latestReports(ctx, url, 2)
	if err != nil {
		return nil, err
	}
	if len(reports) < 2 {
		return nil, ErrNotEnoughHistory
	}
	diff := DiffConflicts(reports[1], reports[0])
	return &diff, nil
}

// latestReports loads up to limit reports for url, newest first. Malformed
// rows are skipped.
func (adb *AuditDB) latestReports(ctx context.Context, url string, limit int) ([]*model.AuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE url = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`

	rows, err := adb.db.QueryContext(ctx, query, url, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit reports: %w", err)
	}
	defer rows.Close()

	var reports []*model.AuditReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		report, err := decodeReport(reportJSON)
		if err != nil {
			continue
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

func decodeReport(reportJSON string) (*model.AuditReport, error) {
	var report model.AuditReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	time.RFC3339Nano,
}

// parseTimestamp tries each known format and returns the zero time when
// none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
