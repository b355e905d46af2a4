package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pavelanni/formgrader/internal/model"

	_ "modernc.org/sqlite"
)

// Store records scoring runs in a SQLite database.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_file TEXT NOT NULL,
		output_file TEXT NOT NULL DEFAULT '',
		questions INTEGER NOT NULL,
		respondents INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		row_index INTEGER NOT NULL,
		name TEXT NOT NULL,
		final_score REAL NOT NULL,
		grade REAL NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordRun stores a run and its per-respondent results in one transaction.
func (s *Store) RecordRun(run model.ScoreRun) (int64, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (source_file, output_file, questions, respondents, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.SourceFile, run.OutputFile, run.Questions, run.Respondents, run.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO results (run_id, row_index, name, final_score, grade) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, r := range run.Results {
		if _, err := stmt.Exec(id, r.Row, r.Name, r.FinalScore, r.Grade); err != nil {
			return 0, fmt.Errorf("insert result for %s: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListRuns returns the most recent runs first, with their mean grade.
// A limit of 0 or less returns all runs.
func (s *Store) ListRuns(limit int) ([]model.RunSummary, error) {
	query := `SELECT r.id, r.source_file, r.output_file, r.questions, r.respondents, r.created_at,
		COALESCE(AVG(res.grade), 0)
		FROM runs r LEFT JOIN results res ON res.run_id = r.id
		GROUP BY r.id
		ORDER BY r.id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.RunSummary
	for rows.Next() {
		var r model.RunSummary
		if err := rows.Scan(&r.ID, &r.SourceFile, &r.OutputFile, &r.Questions, &r.Respondents,
			&r.CreatedAt, &r.MeanGrade); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun returns a run with its results in row order.
func (s *Store) GetRun(id int64) (model.ScoreRun, error) {
	var run model.ScoreRun
	err := s.db.QueryRow(
		`SELECT id, source_file, output_file, questions, respondents, created_at FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.SourceFile, &run.OutputFile, &run.Questions, &run.Respondents, &run.CreatedAt)
	if err != nil {
		return run, err
	}

	rows, err := s.db.Query(
		`SELECT row_index, name, final_score, grade FROM results WHERE run_id = ? ORDER BY row_index`, id,
	)
	if err != nil {
		return run, err
	}
	defer rows.Close()
	for rows.Next() {
		var r model.RespondentResult
		if err := rows.Scan(&r.Row, &r.Name, &r.FinalScore, &r.Grade); err != nil {
			return run, err
		}
		run.Results = append(run.Results, r)
	}
	return run, rows.Err()
}
