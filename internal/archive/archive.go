// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive keeps finished gap reports in a local SQLite database so
// earlier analyses can be listed and searched without re-running them.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-intel/pkg/types"
)

const (
	dbFile       = "archive.db"
	defaultLimit = 20

	// dateLayout is fixed width so stored dates sort lexically.
	dateLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrNotFound is returned by Get for an unknown report id.
var ErrNotFound = errors.New("report not found")

// Store manages the archive database.
type Store struct {
	db  *sql.DB
	dir string
}

// Entry summarises one archived report.
type Entry struct {
	ID           string    `json:"id" yaml:"id"`
	PaperID      string    `json:"paper_id" yaml:"paper_id"`
	PaperTitle   string    `json:"paper_title" yaml:"paper_title"`
	AnalysisDate time.Time `json:"analysis_date" yaml:"analysis_date"`
	GapCount     int       `json:"gap_count" yaml:"gap_count"`
	RelatedCount int       `json:"related_count" yaml:"related_count"`
}

// GapHit is one archived gap matched by Search.
type GapHit struct {
	ReportID   string  `json:"report_id" yaml:"report_id"`
	PaperID    string  `json:"paper_id" yaml:"paper_id"`
	PaperTitle string  `json:"paper_title" yaml:"paper_title"`
	Title      string  `json:"title" yaml:"title"`
	Category   string  `json:"category" yaml:"category"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Validated  bool    `json:"validated" yaml:"validated"`
	Covered    bool    `json:"covered" yaml:"covered"`
}

// SearchOptions filters Search. Empty fields are ignored.
type SearchOptions struct {
	// Text matches gap titles and descriptions by substring.
	Text    string
	PaperID string
	// OpenOnly drops gaps that validation found covered.
	OpenOnly bool
	Limit    int
}

// Open opens or creates dir/archive.db and its schema.
func Open(cfg types.ArchiveConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "archive"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, dbFile)
}

func (s *Store) createSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			id            TEXT PRIMARY KEY,
			paper_id      TEXT NOT NULL,
			paper_title   TEXT NOT NULL,
			analysis_date TEXT NOT NULL,
			related_count INTEGER NOT NULL DEFAULT 0,
			report        TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS gaps (
			id          TEXT NOT NULL,
			report_id   TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL DEFAULT '',
			confidence  REAL NOT NULL DEFAULT 0,
			validated   INTEGER NOT NULL DEFAULT 0,
			covered     INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (report_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_paper ON reports(paper_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_date ON reports(analysis_date)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save stores a report and its gaps in one transaction and returns the
// new report id.
func (s *Store) Save(ctx context.Context, report types.GapReport) (string, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}

	date := report.AnalysisDate
	if date.IsZero() {
		date = time.Now()
	}
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (id, paper_id, paper_title, analysis_date, related_count, report)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, report.BasePaper.ID, report.BasePaper.Title,
		date.UTC().Format(dateLayout), report.TotalRelatedPapers, string(data),
	)
	if err != nil {
		return "", fmt.Errorf("inserting report: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO gaps (id, report_id, title, description, category, confidence, validated, covered)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(report_id, id) DO UPDATE SET
			title=excluded.title, description=excluded.description,
			category=excluded.category, confidence=excluded.confidence,
			validated=excluded.validated, covered=excluded.covered`)
	if err != nil {
		return "", fmt.Errorf("preparing gap insert: %w", err)
	}
	defer stmt.Close()

	for i, g := range report.Gaps {
		gapID := g.ID
		if gapID == "" {
			gapID = fmt.Sprintf("gap-%d", i+1)
		}
		if _, err := stmt.ExecContext(ctx,
			gapID, id, g.Title, g.Description, g.Category, g.Confidence,
			boolInt(g.IsValidated), boolInt(g.Covered()),
		); err != nil {
			return "", fmt.Errorf("inserting gap %s: %w", gapID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing report: %w", err)
	}
	return id, nil
}

// List returns report summaries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.paper_id, r.paper_title, r.analysis_date, r.related_count,
			(SELECT COUNT(*) FROM gaps g WHERE g.report_id = r.id)
		FROM reports r
		ORDER BY r.analysis_date DESC, r.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			date string
		)
		if err := rows.Scan(&e.ID, &e.PaperID, &e.PaperTitle, &date, &e.RelatedCount, &e.GapCount); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.AnalysisDate, _ = time.Parse(dateLayout, date)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Search returns archived gaps matching opts, highest confidence first.
func (s *Store) Search(ctx context.Context, opts SearchOptions) ([]GapHit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var qb strings.Builder
	var args []any
	qb.WriteString(`
		SELECT g.report_id, r.paper_id, r.paper_title, g.title, g.category,
			g.confidence, g.validated, g.covered
		FROM gaps g
		JOIN reports r ON r.id = g.report_id
		WHERE 1=1`)

	if text := strings.TrimSpace(opts.Text); text != "" {
		pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
		qb.WriteString(` AND (lower(g.title) LIKE ? ESCAPE '\' OR lower(g.description) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if opts.PaperID != "" {
		qb.WriteString(` AND r.paper_id = ?`)
		args = append(args, opts.PaperID)
	}
	if opts.OpenOnly {
		qb.WriteString(` AND g.covered = 0`)
	}

	qb.WriteString(` ORDER BY g.confidence DESC, r.analysis_date DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("searching gaps: %w", err)
	}
	defer rows.Close()

	var hits []GapHit
	for rows.Next() {
		var (
			h                  GapHit
			validated, covered int
		)
		if err := rows.Scan(&h.ReportID, &h.PaperID, &h.PaperTitle, &h.Title, &h.Category,
			&h.Confidence, &validated, &covered); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		h.Validated = validated != 0
		h.Covered = covered != 0
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Get loads the full report stored under id.
func (s *Store) Get(ctx context.Context, id string) (types.GapReport, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM reports WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.GapReport{}, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return types.GapReport{}, fmt.Errorf("looking up report: %w", err)
	}

	var report types.GapReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return types.GapReport{}, fmt.Errorf("decoding report %s: %w", id, err)
	}
	return report, nil
}

// Delete removes a report and its gaps.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// ExportYAML writes every archived report to w, newest first.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	rows, err := s.db.QueryContext(ctx, `SELECT report FROM reports ORDER BY analysis_date DESC, rowid DESC`)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	defer rows.Close()

	var reports []types.GapReport
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		var r types.GapReport
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return fmt.Errorf("decoding report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(reports); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
