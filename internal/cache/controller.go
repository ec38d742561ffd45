// Package cache memoizes the board pipeline behind a TTL with
// stale-while-revalidate semantics and a scheduled long-interval refresh.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"workshopboard/internal/board"
)

// Source is the contract the controller needs from a data source. Any
// failure is treated identically: keep serving the previous entry and
// report the failure upward.
type Source interface {
	FetchOrders(ctx context.Context) ([]board.Record, error)
}

// Entry is one cached fetch+compute result. Entries are replaced wholesale
// on a successful refresh and never mutated in place.
type Entry struct {
	ID        uuid.UUID
	Board     *board.Board
	FetchedAt time.Time
}

// Result is what a read returns: the current entry plus staleness metadata
// for the renderer's "data may be stale / last updated at" indicator.
type Result struct {
	Entry *Entry
	// Stale is set when the entry had outlived the TTL at read time. A
	// coalesced background refresh is already underway.
	Stale bool
	// Warning carries the most recent refresh failure, nil while healthy.
	Warning error
}

// Controller owns the single cache slot for the process lifetime. At most
// one fetch+compute is in flight at a time; concurrent triggers coalesce
// onto the outstanding one.
type Controller struct {
	source   Source
	composer *board.Composer
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	group singleflight.Group
	cron  *cron.Cron

	mu          sync.RWMutex
	entry       *Entry
	lastErr     error
	lastAttempt time.Time
}

func NewController(source Source, composer *board.Composer, ttl, refreshInterval time.Duration, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		source:   source,
		composer: composer,
		ttl:      ttl,
		interval: refreshInterval,
		now:      time.Now,
		logger:   logger,
	}
}

// Board serves the current entry. An empty slot blocks on the first fetch
// (coalesced across concurrent callers); a fresh entry is returned as-is; a
// stale entry is returned immediately while a background refresh runs.
// The returned error is non-nil only when there is nothing at all to serve.
func (c *Controller) Board(ctx context.Context) (Result, error) {
	c.mu.RLock()
	entry, lastErr := c.entry, c.lastErr
	c.mu.RUnlock()

	if entry == nil {
		err := c.refresh(ctx)
		c.mu.RLock()
		entry, lastErr = c.entry, c.lastErr
		c.mu.RUnlock()
		// The slot may have been populated by another caller's refresh
		// even if ours failed; only an empty slot is unservable.
		if entry == nil {
			return Result{}, err
		}
	}

	if c.now().Sub(entry.FetchedAt) >= c.ttl {
		// Stale reads never block: revalidate behind the read.
		go func() {
			if err := c.refresh(context.Background()); err != nil {
				c.logger.Warn("background refresh failed, serving stale board", "error", err)
			}
		}()
		return Result{Entry: entry, Stale: true, Warning: lastErr}, nil
	}
	return Result{Entry: entry, Warning: lastErr}, nil
}

// Refresh forces a fetch+compute regardless of entry age, coalescing with
// any refresh already in flight. On failure the previous entry stays put.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.refresh(ctx)
}

// refresh is the single-writer path. singleflight guarantees at most one
// fetch+compute in flight; the slot is only touched on success, so an
// abandoned fetch leaves the existing entry intact.
func (c *Controller) refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		started := c.now()
		records, err := c.source.FetchOrders(ctx)
		if err != nil {
			c.mu.Lock()
			c.lastErr = err
			c.lastAttempt = c.now()
			c.mu.Unlock()
			return nil, err
		}

		b := c.composer.Compose(records, c.now())
		entry := &Entry{ID: uuid.New(), Board: b, FetchedAt: c.now()}

		c.mu.Lock()
		c.entry = entry
		c.lastErr = nil
		c.lastAttempt = entry.FetchedAt
		c.mu.Unlock()

		c.logger.Info("board refreshed",
			"snapshot", entry.ID,
			"records", len(records),
			"eligible", b.Counts.Active,
			"skipped", b.SkippedRecords,
			"took", c.now().Sub(started))
		return nil, nil
	})
	return err
}

// Start launches the scheduled long-interval refresh. It exists to bound
// worst-case staleness when no reads occur for a long time; reads already
// revalidate themselves.
func (c *Controller) Start() {
	c.cron = cron.New()
	c.cron.Schedule(cron.Every(c.interval), cron.FuncJob(func() {
		if err := c.refresh(context.Background()); err != nil {
			c.logger.Warn("scheduled refresh failed", "error", err)
		}
	}))
	c.cron.Start()
}

// Stop halts the scheduled refresh and waits for a running one to return.
func (c *Controller) Stop() {
	if c.cron != nil {
		<-c.cron.Stop().Done()
	}
}

// LastAttempt reports when the controller last tried to refresh, zero
// before the first attempt.
func (c *Controller) LastAttempt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastAttempt
}
