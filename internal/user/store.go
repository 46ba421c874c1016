package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrEmailExists = errors.New("email already registered")
	ErrNotFound    = errors.New("user not found")
)

const uniqueViolationCode = "23505"

// Store is the identity store. Users are created at registration and only
// read afterwards.
type Store interface {
	Create(ctx context.Context, email, passwordHash string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
}

type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]User
	byID    map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byEmail: make(map[string]User),
		byID:    make(map[string]string),
	}
}

func (s *MemoryStore) Create(ctx context.Context, email, passwordHash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return User{}, ErrEmailExists
	}
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.byEmail[email] = user
	s.byID[user.ID] = email
	return user, nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email, ok := s.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return s.byEmail[email], nil
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func scanUser(row *sql.Row) (User, error) {
	var (
		user User
		id   int64
	)
	if err := row.Scan(&id, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.ID = strconv.FormatInt(id, 10)
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

func (s *PostgresStore) Create(ctx context.Context, email, passwordHash string) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, email, password_hash, created_at
	`, email, passwordHash)
	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailExists
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`, email)
	user, err := scanUser(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, err
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (User, error) {
	userID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return User{}, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE id = $1
	`, userID)
	user, err := scanUser(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return false
}
