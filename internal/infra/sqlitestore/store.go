// Package sqlitestore archives answered questions in a SQLite database so
// past interviews can be browsed.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"interview-assistant/internal/domain"
)

type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		candidate TEXT NOT NULL,
		role TEXT NOT NULL,
		question TEXT NOT NULL,
		audio_path TEXT NOT NULL,
		transcript TEXT NOT NULL,
		score REAL NOT NULL,
		commentary TEXT NOT NULL,
		answered_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_answers_candidate ON answers(candidate);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Append archives one answer. Failures wrap domain.ErrLogWrite like the CSV
// log, since the archive is a configured result sink.
func (s *Store) Append(ctx context.Context, r domain.AnswerRecord) error {
	query := `
	INSERT INTO answers (candidate, role, question, audio_path, transcript, score, commentary, answered_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		r.Candidate, r.Role, r.Question, r.AudioPath,
		r.Transcript, r.Score, r.Commentary, r.Timestamp.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("%w: archive insert: %v", domain.ErrLogWrite, err)
	}
	return nil
}

// Recent returns up to limit answers, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.AnswerRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT candidate, role, question, audio_path, transcript, score, commentary, answered_at
	FROM answers ORDER BY id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var records []domain.AnswerRecord
	for rows.Next() {
		var r domain.AnswerRecord
		var answeredAt int64
		if err := rows.Scan(
			&r.Candidate, &r.Role, &r.Question, &r.AudioPath,
			&r.Transcript, &r.Score, &r.Commentary, &answeredAt,
		); err != nil {
			return nil, fmt.Errorf("scan answer row: %w", err)
		}
		r.Timestamp = time.UnixMilli(answeredAt).UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return records, nil
}
