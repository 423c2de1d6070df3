package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/leapstack-labs/churnlab/internal/eval"
	"github.com/leapstack-labs/churnlab/internal/pipeline"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store instance. A nil logger
// discards output.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database. Use ":memory:" for an
// in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite has a single writer, and an in-memory database exists per
	// connection; one pooled connection serves both cases.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func generateID() string {
	return uuid.New().String()
}

// CreateRun records a new pipeline run.
func (s *SQLiteStore) CreateRun(dataset, kind string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:        generateID(),
		Dataset:   dataset,
		Kind:      kind,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("kind", kind))

	_, err := s.db.Exec(
		`INSERT INTO runs (id, dataset, kind, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Dataset, run.Kind, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// CompleteRun marks a run as finished with the given status.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	result, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		status, now, errorPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := s.db.QueryRow(
		`SELECT id, dataset, kind, status, started_at, completed_at, error FROM runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.Dataset, &run.Kind, &run.Status, &run.StartedAt, &completedAt, &errMsg)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return run, nil
}

// ListRuns retrieves the most recent runs up to the given limit.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, dataset, kind, status, started_at, completed_at, error
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var completedAt sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(&run.ID, &run.Dataset, &run.Kind, &run.Status, &run.StartedAt, &completedAt, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		if errMsg.Valid {
			run.Error = errMsg.String
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveMetrics stores a comparison table for a run. NaN estimates are
// stored as NULL and read back as NaN.
func (s *SQLiteStore) SaveMetrics(runID string, table eval.MetricsTable) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, row := range table {
		estimate := sql.NullFloat64{Float64: row.Estimate, Valid: !math.IsNaN(row.Estimate)}
		if _, err := tx.Exec(
			`INSERT INTO metrics (run_id, position, variant, metric, estimate) VALUES (?, ?, ?, ?, ?)`,
			runID, i, row.Variant, row.Metric, estimate,
		); err != nil {
			return fmt.Errorf("failed to save metric row: %w", err)
		}
	}
	return tx.Commit()
}

// MetricsForRun retrieves a run's comparison table in stored order.
func (s *SQLiteStore) MetricsForRun(runID string) (eval.MetricsTable, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT variant, metric, estimate FROM metrics WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var table eval.MetricsTable
	for rows.Next() {
		var row eval.MetricRow
		var estimate sql.NullFloat64
		if err := rows.Scan(&row.Variant, &row.Metric, &estimate); err != nil {
			return nil, fmt.Errorf("failed to scan metric row: %w", err)
		}
		if estimate.Valid {
			row.Estimate = estimate.Float64
		} else {
			row.Estimate = math.NaN()
		}
		table = append(table, row)
	}
	return table, rows.Err()
}

// SaveTrials stores sweep trials for a run in their sorted order.
func (s *SQLiteStore) SaveTrials(runID string, trials []pipeline.Trial) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for rank, t := range trials {
		hidden, err := json.Marshal(t.Hidden)
		if err != nil {
			return fmt.Errorf("failed to encode hidden widths: %w", err)
		}
		dropout, err := json.Marshal(t.Dropout)
		if err != nil {
			return fmt.Errorf("failed to encode dropout rates: %w", err)
		}

		score := sql.NullFloat64{Float64: t.Score, Valid: !math.IsNaN(t.Score)}
		var errorPtr *string
		if t.Err != "" {
			errorPtr = &t.Err
		}

		if _, err := tx.Exec(
			`INSERT INTO trials (run_id, rank, trial_index, hidden, dropout, score, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, rank, t.Index, string(hidden), string(dropout), score, errorPtr,
		); err != nil {
			return fmt.Errorf("failed to save trial: %w", err)
		}
	}
	return tx.Commit()
}

// TrialsForRun retrieves a run's sweep trials in stored (sorted) order.
func (s *SQLiteStore) TrialsForRun(runID string) ([]pipeline.Trial, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT trial_index, hidden, dropout, score, error FROM trials WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trials: %w", err)
	}
	defer rows.Close()

	var trials []pipeline.Trial
	for rows.Next() {
		var t pipeline.Trial
		var hidden, dropout string
		var score sql.NullFloat64
		var errMsg sql.NullString
		if err := rows.Scan(&t.Index, &hidden, &dropout, &score, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan trial: %w", err)
		}
		if err := json.Unmarshal([]byte(hidden), &t.Hidden); err != nil {
			return nil, fmt.Errorf("failed to decode hidden widths: %w", err)
		}
		if err := json.Unmarshal([]byte(dropout), &t.Dropout); err != nil {
			return nil, fmt.Errorf("failed to decode dropout rates: %w", err)
		}
		if score.Valid {
			t.Score = score.Float64
		} else {
			t.Score = math.NaN()
		}
		if errMsg.Valid {
			t.Err = errMsg.String
		}
		trials = append(trials, t)
	}
	return trials, rows.Err()
}
