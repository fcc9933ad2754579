package worker

import (
	"context"
	"errors"
	"time"

	"postboard/internal/events"

	"go.uber.org/zap"
)

// Handler processes a single feed event.
type Handler func(ctx context.Context, ev events.Event) error

type Worker struct {
	source  events.Source
	handle  Handler
	logger  *zap.Logger
	backoff time.Duration
}

// NewWorker builds a worker that logs every event it receives.
func NewWorker(source events.Source, logger *zap.Logger) *Worker {
	return &Worker{
		source:  source,
		handle:  LogHandler(logger),
		logger:  logger,
		backoff: time.Second,
	}
}

// WithHandler replaces the default logging handler.
func (w *Worker) WithHandler(h Handler) *Worker {
	w.handle = h
	return w
}

// Start runs the consume loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Worker started. Waiting for events...")

	for {
		ev, err := w.source.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("Worker shutting down")
				return
			}
			if errors.Is(err, events.ErrMalformed) {
				w.logger.Warn("Skipping malformed event", zap.Error(err))
				continue
			}
			w.logger.Error("Feed error", zap.Error(err))
			select {
			case <-ctx.Done():
				w.logger.Info("Worker shutting down")
				return
			case <-time.After(w.backoff):
			}
			continue
		}

		w.process(ctx, ev)
	}
}

func (w *Worker) process(ctx context.Context, ev events.Event) {
	logger := w.logger.With(zap.String("event_id", ev.ID.String()))
	if err := w.handle(ctx, ev); err != nil {
		logger.Error("Handler failed", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}

// LogHandler writes each event to logger.
func LogHandler(logger *zap.Logger) Handler {
	return func(_ context.Context, ev events.Event) error {
		logger.Info("Post event",
			zap.String("event_id", ev.ID.String()),
			zap.String("type", string(ev.Type)),
			zap.Int64("post_id", ev.Post.ID),
			zap.String("title", ev.Post.Title),
			zap.Time("at", ev.At))
		return nil
	}
}
