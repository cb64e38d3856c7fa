package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reminder/internal/logger"
	"reminder/internal/models"
)

// sqlStore общий для SQLite и PostgreSQL, таблица tasks переписывается
// целиком в одной транзакции.
type sqlStore struct {
	db      *sql.DB
	backend string
	// placeholder возвращает плейсхолдер n-го аргумента (с 1)
	placeholder func(n int) string
}

const createTasksTable = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	title TEXT NOT NULL,
	deadline TEXT,
	description TEXT,
	completed BOOLEAN NOT NULL DEFAULT FALSE
)`

func (s *sqlStore) init(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", s.backend, err)
	}
	if _, err := s.db.ExecContext(ctx, createTasksTable); err != nil {
		return fmt.Errorf("create table tasks: %w", err)
	}
	return nil
}

func (s *sqlStore) Load(ctx context.Context) ([]models.Task, error) {
	defer observe(s.backend, "load", time.Now())

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, deadline, description, completed FROM tasks ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var (
			id          string
			task        models.Task
			deadline    sql.NullString
			description sql.NullString
		)
		if err := rows.Scan(&id, &task.Title, &deadline, &description, &task.Completed); err != nil {
			return nil, err
		}
		task, err = decodeRow(id, task, deadline, description)
		if err != nil {
			corruptLoads.WithLabelValues(s.backend).Inc()
			logger.Warn(ctx, "task table holds a malformed row, starting empty", "backend", s.backend, "err", err)
			return []models.Task{}, nil
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func decodeRow(id string, task models.Task, deadline, description sql.NullString) (models.Task, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return task, fmt.Errorf("bad task id %q: %w", id, err)
	}
	task.ID = parsed
	if deadline.Valid {
		d, err := models.ParseDate(deadline.String)
		if err != nil {
			return task, err
		}
		task.Deadline = &d
	}
	if description.Valid {
		desc := description.String
		task.Description = &desc
	}
	return task, nil
}

func (s *sqlStore) Save(ctx context.Context, tasks []models.Task) error {
	defer observe(s.backend, "save", time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return err
	}

	query := fmt.Sprintf(
		`INSERT INTO tasks (id, position, title, deadline, description, completed) VALUES (%s, %s, %s, %s, %s, %s)`,
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4), s.placeholder(5), s.placeholder(6))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, t := range tasks {
		var deadline, description sql.NullString
		if t.Deadline != nil {
			deadline = sql.NullString{String: t.Deadline.String(), Valid: true}
		}
		if t.Description != nil {
			description = sql.NullString{String: *t.Description, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, t.ID.String(), i, t.Title, deadline, description, t.Completed); err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
