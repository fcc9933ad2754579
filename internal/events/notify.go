package events

import (
	"context"

	"postboard/internal/model"
	"postboard/internal/store"

	"go.uber.org/zap"
)

// NotifyingStore wraps a store and publishes an event after every successful
// mutation. Publish failures are logged; the mutation has already happened.
type NotifyingStore struct {
	store.Store
	pub    Publisher
	logger *zap.Logger
}

var _ store.Store = (*NotifyingStore)(nil)

func NewNotifyingStore(inner store.Store, pub Publisher, logger *zap.Logger) *NotifyingStore {
	return &NotifyingStore{Store: inner, pub: pub, logger: logger}
}

func (s *NotifyingStore) Create(ctx context.Context, title, content string) (*model.Post, error) {
	p, err := s.Store.Create(ctx, title, content)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, PostCreated, *p)
	return p, nil
}

func (s *NotifyingStore) Update(ctx context.Context, id int64, patch model.PostPatch) (*model.Post, error) {
	p, err := s.Store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, PostUpdated, *p)
	return p, nil
}

func (s *NotifyingStore) Delete(ctx context.Context, id int64) (*model.Post, error) {
	p, err := s.Store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, PostDeleted, *p)
	return p, nil
}

func (s *NotifyingStore) publish(ctx context.Context, t Type, p model.Post) {
	ev := NewEvent(t, p)
	// The request may be cancelled right after the response is written.
	if err := s.pub.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("type", string(t)),
			zap.Int64("post_id", p.ID),
			zap.Error(err))
	}
}
