package todo

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("todo not found")
	ErrTitleRequired = errors.New("title is required")
)

// Store is the entity store behind the todo handlers. An empty owner means
// the store is used without authentication and no ownership scoping applies;
// otherwise every call only sees records created with the same owner.
type Store interface {
	Create(ctx context.Context, owner string, input CreateInput) (Todo, error)
	List(ctx context.Context, owner string) ([]Todo, error)
	Get(ctx context.Context, owner, id string) (Todo, error)
	Update(ctx context.Context, owner, id string, input UpdateInput) (Todo, error)
	Delete(ctx context.Context, owner, id string) error
}

func normalizeCreate(input CreateInput) (CreateInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return CreateInput{}, ErrTitleRequired
	}
	return input, nil
}

func normalizeUpdate(input UpdateInput) (UpdateInput, error) {
	if input.Title != nil {
		trimmed := strings.TrimSpace(*input.Title)
		if trimmed == "" {
			return UpdateInput{}, ErrTitleRequired
		}
		input.Title = &trimmed
	}
	return input, nil
}

func visible(t Todo, owner string) bool {
	return owner == "" || t.OwnerID == owner
}

// clock 保证同一条记录的 updated_at 单调递增，即使两次调用落在同一时钟刻度内
type clock struct {
	now func() time.Time
}

func (c clock) next(prev time.Time) time.Time {
	now := c.fresh()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func (c clock) fresh() time.Time {
	// 截断到微秒，与 Postgres TIMESTAMPTZ 精度一致
	return c.now().UTC().Truncate(time.Microsecond)
}
