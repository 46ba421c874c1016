package todo

import "time"

type Todo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	OwnerID     string    `json:"-"`
}

type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateInput 的每个字段为 nil 表示请求中未提供，保持原值不变
type UpdateInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

func (in UpdateInput) empty() bool {
	return in.Title == nil && in.Description == nil && in.Completed == nil
}

// apply 在副本上逐字段应用部分更新
func (in UpdateInput) apply(t Todo, now time.Time) Todo {
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	t.UpdatedAt = now
	return t
}
