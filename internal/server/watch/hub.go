// Package watch delivers live task snapshots. Task repositories fire a
// pg_notify on every mutation with the owner's user id as payload; the hub
// listens on a dedicated connection, reloads that owner's collection, and
// hands the fresh snapshot to every subscriber of that user.
package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskvault/internal/logging"
	"github.com/dmitrijs2005/taskvault/internal/models"
	"github.com/dmitrijs2005/taskvault/internal/server/repositories/tasks"
	"github.com/jackc/pgx/v5"
	"github.com/sethvargo/go-retry"
)

// Test seam for the dedicated listen connection.
var pgxConnect = pgx.Connect

// LoadFunc loads the full task collection of one user.
type LoadFunc func(ctx context.Context, userID string) ([]models.Task, error)

type subscriber struct {
	ch chan []models.Task
}

// Hub fans task-change notifications out to snapshot subscribers.
type Hub struct {
	dsn    string
	load   LoadFunc
	logger logging.Logger

	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

func NewHub(dsn string, load LoadFunc, logger logging.Logger) *Hub {
	return &Hub{
		dsn:    dsn,
		load:   load,
		logger: logger,
		subs:   make(map[string]map[*subscriber]struct{}),
	}
}

// Run listens for task-change notifications until ctx is cancelled. The
// listen connection is separate from the pool; when it drops, Run reconnects
// with exponential backoff.
func (h *Hub) Run(ctx context.Context) error {
	for {
		err := h.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		h.logger.Warn(ctx, "listen connection lost, reconnecting", "error", err)
	}
}

func (h *Hub) listen(ctx context.Context) error {
	var conn *pgx.Conn
	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		conn, err = pgxConnect(ctx, h.dsn)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error connecting listener: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "listen "+tasks.NotifyChannel); err != nil {
		return fmt.Errorf("error issuing listen: %w", err)
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		h.notify(ctx, n.Payload)
	}
}

// notify reloads the user's collection and broadcasts it. A failed reload is
// logged and skipped; the next mutation triggers another attempt.
func (h *Hub) notify(ctx context.Context, userID string) {
	h.mu.Lock()
	n := len(h.subs[userID])
	h.mu.Unlock()
	if n == 0 {
		return
	}

	snapshot, err := h.load(ctx, userID)
	if err != nil {
		h.logger.Error(ctx, "snapshot reload failed", "userID", userID, "error", err)
		return
	}
	h.broadcast(userID, snapshot)
}

// broadcast delivers latest-wins: a subscriber that has not consumed the
// previous snapshot gets it replaced rather than queued behind it.
func (h *Hub) broadcast(userID string, snapshot []models.Task) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[userID] {
		select {
		case sub.ch <- snapshot:
		default:
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- snapshot
		}
	}
}

// Subscribe registers for the user's snapshots. The current collection is
// delivered immediately; cancel must be called to release the subscription.
func (h *Hub) Subscribe(ctx context.Context, userID string) (<-chan []models.Task, func(), error) {
	snapshot, err := h.load(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	sub := &subscriber{ch: make(chan []models.Task, 1)}
	sub.ch <- snapshot

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[userID]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(h.subs, userID)
			}
		}
	}
	return sub.ch, cancel, nil
}
