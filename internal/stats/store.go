package stats

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"go_todo/internal/todo"
)

type Summary struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
}

// Store 汇总某个 owner 可见的 todo；owner 为空时统计全部
type Store interface {
	Summary(ctx context.Context, owner string) (Summary, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Summary(ctx context.Context, owner string) (Summary, error) {
	var ownerID sql.NullInt64
	if owner != "" {
		id, err := strconv.ParseInt(owner, 10, 64)
		if err != nil {
			return Summary{}, nil
		}
		ownerID = sql.NullInt64{Int64: id, Valid: true}
	}

	var summary Summary
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) AS completed
		FROM todos
		WHERE $1::bigint IS NULL OR owner_id = $1
	`, ownerID)
	if err := row.Scan(&summary.Total, &summary.Completed); err != nil {
		return Summary{}, fmt.Errorf("summarize todos: %w", err)
	}
	return summary, nil
}

// ListStore 基于任意 todo.Store 逐条计数，用于内存与文件存储
type ListStore struct {
	todos todo.Store
}

func NewListStore(todos todo.Store) *ListStore {
	return &ListStore{todos: todos}
}

func (s *ListStore) Summary(ctx context.Context, owner string) (Summary, error) {
	items, err := s.todos.List(ctx, owner)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize todos: %w", err)
	}

	summary := Summary{Total: int64(len(items))}
	for _, t := range items {
		if t.Completed {
			summary.Completed++
		}
	}
	return summary, nil
}
