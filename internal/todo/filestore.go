package todo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const lockRetryInterval = 50 * time.Millisecond

// FileStore persists todos as a single JSON document. Every operation reads
// the file under an exclusive flock, so several processes may share one file.
type FileStore struct {
	path  string
	lock  *flock.Flock
	mu    sync.Mutex
	clock clock
}

type fileData struct {
	Todos     []fileTodo `json:"todos"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// fileTodo 与 Todo 相同，但保留 owner_id 以便落盘
type fileTodo struct {
	Todo
	OwnerID string `json:"owner_id,omitempty"`
}

func NewFileStore(path string) *FileStore {
	return newFileStore(path, time.Now)
}

func newFileStore(path string, now func() time.Time) *FileStore {
	return &FileStore{
		path:  path,
		lock:  flock.New(path + ".lock"),
		clock: clock{now: now},
	}
}

func (s *FileStore) Create(ctx context.Context, owner string, input CreateInput) (Todo, error) {
	input, err := normalizeCreate(input)
	if err != nil {
		return Todo{}, err
	}

	var created Todo
	err = s.mutate(ctx, func(data *fileData) error {
		now := s.clock.fresh()
		created = Todo{
			ID:          uuid.NewString(),
			Title:       input.Title,
			Description: input.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
			OwnerID:     owner,
		}
		data.Todos = append(data.Todos, toFile(created))
		return nil
	})
	if err != nil {
		return Todo{}, err
	}
	return created, nil
}

func (s *FileStore) List(ctx context.Context, owner string) ([]Todo, error) {
	data, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	todos := make([]Todo, 0, len(data.Todos))
	for _, ft := range data.Todos {
		t := fromFile(ft)
		if visible(t, owner) {
			todos = append(todos, t)
		}
	}
	return todos, nil
}

func (s *FileStore) Get(ctx context.Context, owner, id string) (Todo, error) {
	data, err := s.read(ctx)
	if err != nil {
		return Todo{}, err
	}

	i, ok := find(&data, owner, id)
	if !ok {
		return Todo{}, ErrNotFound
	}
	return fromFile(data.Todos[i]), nil
}

func (s *FileStore) Update(ctx context.Context, owner, id string, input UpdateInput) (Todo, error) {
	input, err := normalizeUpdate(input)
	if err != nil {
		return Todo{}, err
	}

	var updated Todo
	err = s.mutate(ctx, func(data *fileData) error {
		i, ok := find(data, owner, id)
		if !ok {
			return ErrNotFound
		}
		current := fromFile(data.Todos[i])
		updated = input.apply(current, s.clock.next(current.UpdatedAt))
		data.Todos[i] = toFile(updated)
		return nil
	})
	if err != nil {
		return Todo{}, err
	}
	return updated, nil
}

func (s *FileStore) Delete(ctx context.Context, owner, id string) error {
	return s.mutate(ctx, func(data *fileData) error {
		i, ok := find(data, owner, id)
		if !ok {
			return ErrNotFound
		}
		data.Todos = append(data.Todos[:i], data.Todos[i+1:]...)
		return nil
	})
}

func (s *FileStore) read(ctx context.Context) (fileData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return fileData{}, err
	}
	defer unlock()

	return s.load()
}

// mutate 在文件锁内完成 读取-修改-写回；fn 返回错误时不写盘
func (s *FileStore) mutate(ctx context.Context, fn func(*fileData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(&data); err != nil {
		return err
	}
	data.UpdatedAt = s.clock.fresh()
	return s.save(data)
}

func (s *FileStore) acquire(ctx context.Context) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	locked, err := s.lock.TryLockContext(lockCtx, lockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquire file lock: %w", err)
	}
	if !locked {
		return nil, errors.New("could not acquire file lock")
	}
	return func() { _ = s.lock.Unlock() }, nil
}

func (s *FileStore) load() (fileData, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return fileData{}, nil
	}
	if err != nil {
		return fileData{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return fileData{}, nil
	}

	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fileData{}, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return data, nil
}

func (s *FileStore) save(data fileData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return os.Rename(tmp.Name(), s.path)
}

func find(data *fileData, owner, id string) (int, bool) {
	for i, ft := range data.Todos {
		if ft.ID == id && visible(fromFile(ft), owner) {
			return i, true
		}
	}
	return 0, false
}

func toFile(t Todo) fileTodo {
	return fileTodo{Todo: t, OwnerID: t.OwnerID}
}

func fromFile(ft fileTodo) Todo {
	t := ft.Todo
	t.OwnerID = ft.OwnerID
	return t
}
