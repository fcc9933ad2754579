package events

import (
	"context"
	"time"

	"postboard/internal/model"

	"github.com/google/uuid"
)

type Type string

const (
	PostCreated Type = "post.created"
	PostUpdated Type = "post.updated"
	PostDeleted Type = "post.deleted"
)

// Event records one successful mutation. For deletes Post is the removed record.
type Event struct {
	ID   uuid.UUID  `json:"id"`
	Type Type       `json:"type"`
	Post model.Post `json:"post"`
	At   time.Time  `json:"at"`
}

func NewEvent(t Type, post model.Post) Event {
	return Event{
		ID:   uuid.New(),
		Type: t,
		Post: post,
		At:   time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Source hands out events one at a time, blocking until one is available.
type Source interface {
	Pop(ctx context.Context) (Event, error)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
