package store

import (
	"context"
	"errors"

	"postboard/internal/model"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("post not found")
)

// SortField names the post field a sorted List orders by.
type SortField string

const (
	SortNone    SortField = ""
	SortTitle   SortField = "title"
	SortContent SortField = "content"
)

// Direction is the order of a sorted List.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ListOptions controls List. The zero value lists in insertion order.
type ListOptions struct {
	Sort      SortField
	Direction Direction
}

// SearchOptions holds the substring filters for Search. Empty means unset.
type SearchOptions struct {
	Title   string
	Content string
}

type Store interface {
	List(ctx context.Context, opts ListOptions) ([]model.Post, error)
	Get(ctx context.Context, id int64) (*model.Post, error)
	Create(ctx context.Context, title, content string) (*model.Post, error)
	Update(ctx context.Context, id int64, patch model.PostPatch) (*model.Post, error)
	Delete(ctx context.Context, id int64) (*model.Post, error)
	Search(ctx context.Context, opts SearchOptions) ([]model.Post, error)
}
