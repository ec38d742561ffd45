package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshopboard/internal/board"
	"workshopboard/internal/errs"
)

// fakeSource counts fetches and can be made to fail or block.
type fakeSource struct {
	calls   atomic.Int32
	mu      sync.Mutex
	err     error
	records []board.Record
	// gate, when set, blocks FetchOrders until closed.
	gate chan struct{}
}

func (s *fakeSource) FetchOrders(ctx context.Context) ([]board.Record, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func (s *fakeSource) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func someRecords() []board.Record {
	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return []board.Record{{
		Reference:          "SO-1",
		DistributionBranch: "Locksmiths",
		Stage:              "Processing",
		CreatedDate:        &created,
	}}
}

func newTestController(src Source, ttl time.Duration) *Controller {
	composer := board.NewComposer(board.Options{
		WorkshopBranch:    "Locksmiths",
		DueSoonWindowDays: 7,
		TVSectionCap:      6,
		DisplayedStages:   []board.Stage{board.StageNew, board.StageProcessing},
		Location:          time.UTC,
	})
	return NewController(src, composer, ttl, 12*time.Hour, nil)
}

func TestBoard_EmptySlotFetchesOnce(t *testing.T) {
	src := &fakeSource{records: someRecords()}
	c := newTestController(src, time.Minute)

	res, err := c.Board(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res.Entry)
	assert.False(t, res.Stale)
	assert.NoError(t, res.Warning)
	assert.Equal(t, 1, res.Entry.Board.Counts.Active)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.False(t, c.LastAttempt().IsZero())
}

func TestBoard_ConcurrentEmptyReadsCoalesce(t *testing.T) {
	src := &fakeSource{records: someRecords(), gate: make(chan struct{})}
	c := newTestController(src, time.Minute)

	const readers = 25
	var wg sync.WaitGroup
	results := make([]*Entry, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.Board(context.Background())
			require.NoError(t, err)
			results[i] = res.Entry
		}(i)
	}

	// Let the readers pile up on the in-flight fetch, then release it.
	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load(), "exactly one upstream fetch")
	for _, e := range results {
		require.NotNil(t, e)
		assert.Equal(t, results[0].ID, e.ID, "all readers observe the same entry")
	}
}

func TestBoard_FreshEntryServesWithoutFetch(t *testing.T) {
	src := &fakeSource{records: someRecords()}
	c := newTestController(src, time.Minute)

	_, err := c.Board(context.Background())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		res, err := c.Board(context.Background())
		require.NoError(t, err)
		assert.False(t, res.Stale)
	}
	assert.Equal(t, int32(1), src.calls.Load(), "no fetch while populated")
}

func TestBoard_StaleReadServesOldEntryAndRevalidates(t *testing.T) {
	src := &fakeSource{records: someRecords()}
	c := newTestController(src, time.Minute)

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	now := base
	var nowMu sync.Mutex
	c.now = func() time.Time {
		nowMu.Lock()
		defer nowMu.Unlock()
		return now
	}

	res1, err := c.Board(context.Background())
	require.NoError(t, err)
	firstID := res1.Entry.ID

	// Age the entry past the TTL.
	nowMu.Lock()
	now = base.Add(2 * time.Minute)
	nowMu.Unlock()

	res2, err := c.Board(context.Background())
	require.NoError(t, err)
	assert.True(t, res2.Stale)
	assert.Equal(t, firstID, res2.Entry.ID, "stale read returns the previous entry immediately")

	// The background refresh eventually replaces the entry.
	assert.Eventually(t, func() bool {
		res, err := c.Board(context.Background())
		return err == nil && res.Entry.ID != firstID
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, src.calls.Load(), int32(2))
}

func TestBoard_ConcurrentStaleReadsCoalesce(t *testing.T) {
	src := &fakeSource{records: someRecords()}
	c := newTestController(src, time.Minute)

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	now := base
	var nowMu sync.Mutex
	c.now = func() time.Time {
		nowMu.Lock()
		defer nowMu.Unlock()
		return now
	}

	_, err := c.Board(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), src.calls.Load())

	nowMu.Lock()
	now = base.Add(2 * time.Minute)
	nowMu.Unlock()

	// Hold the revalidation fetch open while many stale reads arrive.
	src.gate = make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.Board(context.Background())
			require.NoError(t, err)
			assert.True(t, res.Stale)
		}()
	}
	wg.Wait()

	// All stale reads returned; give their refresh goroutines time to
	// coalesce onto the one held-open flight, then release it.
	assert.Eventually(t, func() bool {
		return src.calls.Load() == 2
	}, time.Second, 5*time.Millisecond, "revalidation flight started")
	time.Sleep(50 * time.Millisecond)
	close(src.gate)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), src.calls.Load(), "one coalesced revalidation fetch")
}

func TestBoard_FailOpenOnRefreshFailure(t *testing.T) {
	src := &fakeSource{records: someRecords()}
	c := newTestController(src, time.Minute)

	res1, err := c.Board(context.Background())
	require.NoError(t, err)
	firstID := res1.Entry.ID

	src.setErr(errs.ErrSourceUnavailable)
	err = c.Refresh(context.Background())
	require.Error(t, err)

	res2, err := c.Board(context.Background())
	require.NoError(t, err, "read still succeeds after failed refresh")
	assert.Equal(t, firstID, res2.Entry.ID, "previous entry unchanged")
	assert.ErrorIs(t, res2.Warning, errs.ErrSourceUnavailable, "warning flag set")

	// A later successful refresh clears the warning.
	src.setErr(nil)
	require.NoError(t, c.Refresh(context.Background()))
	res3, err := c.Board(context.Background())
	require.NoError(t, err)
	assert.NoError(t, res3.Warning)
	assert.NotEqual(t, firstID, res3.Entry.ID)
}

func TestBoard_FirstFetchFailureIsAnError(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	c := newTestController(src, time.Minute)

	res, err := c.Board(context.Background())
	require.Error(t, err)
	assert.Nil(t, res.Entry, "nothing to serve distinguishes unable-to-load from empty board")
}

func TestRefresh_ForcesFetchRegardlessOfAge(t *testing.T) {
	src := &fakeSource{records: someRecords()}
	c := newTestController(src, time.Hour)

	_, err := c.Board(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, int32(2), src.calls.Load())
}
