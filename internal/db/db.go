package db

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS analyses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL,
    method TEXT NOT NULL,
    sample_gz BLOB NOT NULL,
    sample_size INTEGER NOT NULL,
    mean REAL NOT NULL,
    std_err REAL NOT NULL,
    parameter REAL NOT NULL,
    lower_bound REAL,
    upper_bound REAL,
    critical REAL,
    statistic REAL,
    p_value REAL,
    result_text TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_kind ON analyses(kind);
CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS analyses (
    id BIGSERIAL PRIMARY KEY,
    kind TEXT NOT NULL,
    method TEXT NOT NULL,
    sample_gz BYTEA NOT NULL,
    sample_size BIGINT NOT NULL,
    mean DOUBLE PRECISION NOT NULL,
    std_err DOUBLE PRECISION NOT NULL,
    parameter DOUBLE PRECISION NOT NULL,
    lower_bound DOUBLE PRECISION,
    upper_bound DOUBLE PRECISION,
    critical DOUBLE PRECISION,
    statistic DOUBLE PRECISION,
    p_value DOUBLE PRECISION,
    result_text TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_kind ON analyses(kind);
CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);
`

type DB struct {
	*sql.DB
	path     string
	postgres bool
}

func (db *DB) Path() string {
	return db.path
}

// IsPostgres reports whether the store is backed by PostgreSQL.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects to a PostgreSQL DSN or opens (creating if needed) a SQLite
// file, then ensures the schema exists.
func Open(dsn string) (*DB, error) {
	if IsPostgres(dsn) {
		return open("postgres", dsn, dsn, postgresSchema, true)
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	full := dsn
	if strings.Contains(dsn, "?") {
		full += "&_pragma=foreign_keys(1)"
	} else {
		full += "?_pragma=foreign_keys(1)"
	}
	return open("sqlite", full, dsn, sqliteSchema, false)
}

func open(driver, dsn, path, schema string, postgres bool) (*DB, error) {
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &DB{DB: sqlDB, path: path, postgres: postgres}, nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (db *DB) rebind(query string) string {
	if !db.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Analysis is one stored interval or test run.
type Analysis struct {
	ID         int64
	Kind       string
	Method     string
	Sample     string
	SampleSize int64
	Mean       float64
	StdErr     float64
	Parameter  float64  // Confidence level for intervals, null value for tests
	Lower      *float64 // nil for tests
	Upper      *float64 // nil for tests
	Critical   *float64 // nil for tests
	Statistic  *float64 // nil for intervals
	PValue     *float64 // nil for intervals
	ResultText string
	CreatedAt  string
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func pointer(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func (db *DB) InsertAnalysis(a *Analysis) (int64, error) {
	compressed, err := gzipCompress([]byte(a.Sample))
	if err != nil {
		return 0, fmt.Errorf("compress sample: %w", err)
	}

	var id int64
	err = db.QueryRow(db.rebind(`
		INSERT INTO analyses (kind, method, sample_gz, sample_size, mean, std_err, parameter,
		                      lower_bound, upper_bound, critical, statistic, p_value, result_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		a.Kind, a.Method, compressed, a.SampleSize, a.Mean, a.StdErr, a.Parameter,
		nullable(a.Lower), nullable(a.Upper), nullable(a.Critical),
		nullable(a.Statistic), nullable(a.PValue), a.ResultText, a.CreatedAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

const analysisColumns = `id, kind, method, sample_gz, sample_size, mean, std_err, parameter,
	lower_bound, upper_bound, critical, statistic, p_value, result_text, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAnalysis(row scanner) (*Analysis, error) {
	var a Analysis
	var sampleGz []byte
	var lower, upper, critical, statistic, pValue sql.NullFloat64
	if err := row.Scan(&a.ID, &a.Kind, &a.Method, &sampleGz, &a.SampleSize, &a.Mean, &a.StdErr, &a.Parameter,
		&lower, &upper, &critical, &statistic, &pValue, &a.ResultText, &a.CreatedAt); err != nil {
		return nil, err
	}

	raw, err := gzipDecompress(sampleGz)
	if err != nil {
		return nil, fmt.Errorf("decompress sample for analysis %d: %w", a.ID, err)
	}
	a.Sample = string(raw)
	a.Lower = pointer(lower)
	a.Upper = pointer(upper)
	a.Critical = pointer(critical)
	a.Statistic = pointer(statistic)
	a.PValue = pointer(pValue)
	return &a, nil
}

func (db *DB) GetAnalysis(id int64) (*Analysis, error) {
	row := db.QueryRow(db.rebind(`SELECT `+analysisColumns+` FROM analyses WHERE id = ?`), id)
	return scanAnalysis(row)
}

func (db *DB) GetLatestAnalysis() (*Analysis, error) {
	row := db.QueryRow(`SELECT ` + analysisColumns + ` FROM analyses ORDER BY created_at DESC, id DESC LIMIT 1`)
	return scanAnalysis(row)
}

func (db *DB) ListAnalyses(limit int, kind string, since string) ([]Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM analyses WHERE 1=1`
	args := []interface{}{}

	if kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}
	if since != "" {
		query += " AND created_at >= ?"
		args = append(args, since)
	}

	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(db.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *a)
	}
	return analyses, rows.Err()
}

func (db *DB) CountAnalyses(kind string) (int, error) {
	var count int
	if kind == "" {
		err := db.QueryRow(`SELECT COUNT(*) FROM analyses`).Scan(&count)
		return count, err
	}
	err := db.QueryRow(db.rebind(`SELECT COUNT(*) FROM analyses WHERE kind = ?`), kind).Scan(&count)
	return count, err
}

// RecentAnalysisIDs returns the newest ids first.
func (db *DB) RecentAnalysisIDs(limit int) ([]int64, error) {
	rows, err := db.Query(db.rebind(`SELECT id FROM analyses ORDER BY created_at DESC, id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (db *DB) DeleteAnalysis(id int64) error {
	res, err := db.Exec(db.rebind(`DELETE FROM analyses WHERE id = ?`), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (db *DB) DeleteAnalysesBefore(date string) (int64, error) {
	res, err := db.Exec(db.rebind(`DELETE FROM analyses WHERE created_at < ?`), date)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
