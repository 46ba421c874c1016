package todo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const todoColumns = `id, title, description, completed, owner_id, created_at, updated_at`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	// 数据访问层封装
	return &PostgresStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (Todo, error) {
	var (
		todo  Todo
		id    int64
		owner sql.NullInt64
	)
	if err := row.Scan(&id, &todo.Title, &todo.Description, &todo.Completed, &owner, &todo.CreatedAt, &todo.UpdatedAt); err != nil {
		return Todo{}, err
	}
	todo.ID = formatSerial(id)
	todo.OwnerID = ownerString(owner)
	todo.CreatedAt = todo.CreatedAt.UTC()
	todo.UpdatedAt = todo.UpdatedAt.UTC()
	return todo, nil
}

func (s *PostgresStore) Create(ctx context.Context, owner string, input CreateInput) (Todo, error) {
	input, err := normalizeCreate(input)
	if err != nil {
		return Todo{}, err
	}
	ownerID, ok := nullableOwner(owner)
	if !ok {
		return Todo{}, fmt.Errorf("create todo: invalid owner %q", owner)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO todos (title, description, owner_id)
		VALUES ($1, $2, $3)
		RETURNING `+todoColumns, input.Title, input.Description, ownerID)
	todo, err := scanTodo(row)
	if err != nil {
		return Todo{}, fmt.Errorf("create todo: %w", err)
	}
	return todo, nil
}

func (s *PostgresStore) List(ctx context.Context, owner string) ([]Todo, error) {
	// 按插入顺序查询
	ownerID, ok := nullableOwner(owner)
	if !ok {
		return []Todo{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+todoColumns+`
		FROM todos
		WHERE $1::bigint IS NULL OR owner_id = $1
		ORDER BY id ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := []Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("list todos: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

func (s *PostgresStore) Get(ctx context.Context, owner, id string) (Todo, error) {
	todoID, ok := parseSerial(id)
	if !ok {
		return Todo{}, ErrNotFound
	}
	ownerID, ok := nullableOwner(owner)
	if !ok {
		return Todo{}, ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+todoColumns+`
		FROM todos
		WHERE id = $1 AND ($2::bigint IS NULL OR owner_id = $2)
	`, todoID, ownerID)
	todo, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Todo{}, ErrNotFound
		}
		return Todo{}, fmt.Errorf("get todo %s: %w", id, err)
	}
	return todo, nil
}

func (s *PostgresStore) Update(ctx context.Context, owner, id string, input UpdateInput) (Todo, error) {
	// 更新 todo（部分字段）；updated_at 严格递增
	input, err := normalizeUpdate(input)
	if err != nil {
		return Todo{}, err
	}
	todoID, ok := parseSerial(id)
	if !ok {
		return Todo{}, ErrNotFound
	}
	ownerID, ok := nullableOwner(owner)
	if !ok {
		return Todo{}, ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE todos
		SET title = COALESCE($1, title),
			description = COALESCE($2, description),
			completed = COALESCE($3, completed),
			updated_at = GREATEST(NOW(), updated_at + INTERVAL '1 microsecond')
		WHERE id = $4 AND ($5::bigint IS NULL OR owner_id = $5)
		RETURNING `+todoColumns,
		nullableString(input.Title), nullableString(input.Description), nullableBool(input.Completed), todoID, ownerID)
	todo, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Todo{}, ErrNotFound
		}
		return Todo{}, fmt.Errorf("update todo %s: %w", id, err)
	}
	return todo, nil
}

func (s *PostgresStore) Delete(ctx context.Context, owner, id string) error {
	todoID, ok := parseSerial(id)
	if !ok {
		return ErrNotFound
	}
	ownerID, ok := nullableOwner(owner)
	if !ok {
		return ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM todos
		WHERE id = $1 AND ($2::bigint IS NULL OR owner_id = $2)
	`, todoID, ownerID)
	if err != nil {
		return fmt.Errorf("delete todo %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete todo %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
