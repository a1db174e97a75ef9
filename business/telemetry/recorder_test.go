package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"myEventReco/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store down")

type fakeRepo struct {
	mu        sync.Mutex
	rows      []domain.TelemetryEvent
	insertErr error
	queryErr  error
}

func (f *fakeRepo) InsertTelemetry(ctx context.Context, ev *domain.TelemetryEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	ev.ID = uint64(len(f.rows) + 1)
	f.rows = append(f.rows, *ev)
	return nil
}

func (f *fakeRepo) QueryRecentClick(ctx context.Context, itemID uint64, subject string) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return time.Time{}, false, f.queryErr
	}
	var last time.Time
	found := false
	for _, r := range f.rows {
		if r.EventName == domain.EventNameClick && r.ItemID == itemID && r.SubjectID == subject {
			if !found || r.CreatedAt.After(last) {
				last = r.CreatedAt
				found = true
			}
		}
	}
	return last, found, nil
}

func (f *fakeRepo) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.EventName == name {
			n++
		}
	}
	return n
}

type fakeWindow struct {
	claimed map[uint64]bool
	err     error
}

func (w *fakeWindow) Claim(ctx context.Context, itemID uint64, subject string, window time.Duration) (bool, error) {
	if w.err != nil {
		return false, w.err
	}
	if w.claimed[itemID] {
		return false, nil
	}
	w.claimed[itemID] = true
	return true, nil
}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock {
	return &clock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func TestRecordClick_DedupWindow(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{}
	c := newClock()
	rec := NewRecorder(repo, WithClock(c.now))

	in := ClickInput{ItemID: 42, Subject: "u:7", Experiment: "reco_algo", Variant: "A"}

	res, err := rec.RecordClick(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, domain.ClickResult{Stored: true}, res)

	c.advance(time.Second)
	res, err = rec.RecordClick(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, domain.ClickResult{Duplicate: true}, res)

	c.advance(10 * time.Second)
	res, err = rec.RecordClick(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, domain.ClickResult{Stored: true}, res)

	assert.Equal(t, 2, repo.count(domain.EventNameClick))
}

func TestRecordClick_WindowIsPerItemAndSubject(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{}
	rec := NewRecorder(repo, WithClock(newClock().now))

	for _, in := range []ClickInput{
		{ItemID: 1, Subject: "u:1"},
		{ItemID: 2, Subject: "u:1"},
		{ItemID: 1, Subject: "s:abc"},
	} {
		res, err := rec.RecordClick(ctx, in)
		require.NoError(t, err)
		assert.True(t, res.Stored)
	}
	assert.Equal(t, 3, repo.count(domain.EventNameClick))
}

func TestRecordClick_CustomWindow(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{}
	c := newClock()
	rec := NewRecorder(repo, WithClock(c.now), WithDedupWindow(2*time.Second))

	in := ClickInput{ItemID: 9, Subject: "u:1"}
	_, err := rec.RecordClick(ctx, in)
	require.NoError(t, err)

	c.advance(3 * time.Second)
	res, err := rec.RecordClick(ctx, in)
	require.NoError(t, err)
	assert.True(t, res.Stored)
}

func TestRecordClick_Validation(t *testing.T) {
	rec := NewRecorder(&fakeRepo{})

	_, err := rec.RecordClick(context.Background(), ClickInput{Subject: "u:1"})
	assert.ErrorIs(t, err, ErrInvalidClick)

	_, err = rec.RecordClick(context.Background(), ClickInput{ItemID: 1})
	assert.ErrorIs(t, err, ErrInvalidClick)
}

func TestRecordClick_InsertFailureDegrades(t *testing.T) {
	repo := &fakeRepo{insertErr: errStoreDown}
	rec := NewRecorder(repo)

	res, err := rec.RecordClick(context.Background(), ClickInput{ItemID: 1, Subject: "u:1"})
	require.NoError(t, err)
	assert.False(t, res.Stored)
	assert.False(t, res.Duplicate)
}

func TestRecordClick_LookupFailurePropagates(t *testing.T) {
	repo := &fakeRepo{queryErr: errStoreDown}
	rec := NewRecorder(repo)

	_, err := rec.RecordClick(context.Background(), ClickInput{ItemID: 1, Subject: "u:1"})
	assert.ErrorIs(t, err, errStoreDown)
}

func TestRecordClick_ClickWindow(t *testing.T) {
	ctx := context.Background()

	t.Run("claimed window short-circuits", func(t *testing.T) {
		repo := &fakeRepo{}
		w := &fakeWindow{claimed: map[uint64]bool{5: true}}
		rec := NewRecorder(repo, WithClickWindow(w))

		res, err := rec.RecordClick(ctx, ClickInput{ItemID: 5, Subject: "u:1"})
		require.NoError(t, err)
		assert.True(t, res.Duplicate)
		assert.Zero(t, repo.count(domain.EventNameClick))
	})

	t.Run("window error falls back to store", func(t *testing.T) {
		repo := &fakeRepo{}
		w := &fakeWindow{err: errStoreDown}
		rec := NewRecorder(repo, WithClickWindow(w))

		res, err := rec.RecordClick(ctx, ClickInput{ItemID: 5, Subject: "u:1"})
		require.NoError(t, err)
		assert.True(t, res.Stored)
	})
}

func TestRecordEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("value defaults to one", func(t *testing.T) {
		repo := &fakeRepo{}
		rec := NewRecorder(repo)

		require.NoError(t, rec.RecordEvent(ctx, EventInput{Subject: "u:1", EventName: "click", Experiment: "Reco Algo!"}))
		require.Len(t, repo.rows, 1)
		assert.Equal(t, 1.0, repo.rows[0].Value)
		assert.Equal(t, "recoalgo", repo.rows[0].ExperimentKey)
	})

	t.Run("explicit value kept", func(t *testing.T) {
		repo := &fakeRepo{}
		rec := NewRecorder(repo)

		v := 0.0
		require.NoError(t, rec.RecordEvent(ctx, EventInput{Subject: "u:1", EventName: "custom", Value: &v}))
		assert.Equal(t, 0.0, repo.rows[0].Value)
	})

	t.Run("unknown name stored as custom", func(t *testing.T) {
		repo := &fakeRepo{}
		rec := NewRecorder(repo)

		require.NoError(t, rec.RecordEvent(ctx, EventInput{Subject: "u:1", EventName: "Favorite"}))
		assert.Equal(t, domain.EventNameCustom, repo.rows[0].EventName)
		assert.Equal(t, "favorite", repo.rows[0].Meta["name"])
	})

	t.Run("no suppression", func(t *testing.T) {
		repo := &fakeRepo{}
		rec := NewRecorder(repo)

		for i := 0; i < 3; i++ {
			require.NoError(t, rec.RecordEvent(ctx, EventInput{Subject: "u:1", EventName: "exposure", Experiment: "x", Variant: "A"}))
		}
		assert.Equal(t, 3, repo.count(domain.EventNameExposure))
	})

	t.Run("insert failure swallowed", func(t *testing.T) {
		rec := NewRecorder(&fakeRepo{insertErr: errStoreDown})
		assert.NoError(t, rec.RecordEvent(ctx, EventInput{Subject: "u:1", EventName: "click"}))
	})

	t.Run("validation", func(t *testing.T) {
		rec := NewRecorder(&fakeRepo{})
		assert.ErrorIs(t, rec.RecordEvent(ctx, EventInput{EventName: "click"}), ErrInvalidEvent)
		assert.ErrorIs(t, rec.RecordEvent(ctx, EventInput{Subject: "u:1", EventName: "  "}), ErrInvalidEvent)
	})
}

func TestRecordExposure_ReportsFailure(t *testing.T) {
	rec := NewRecorder(&fakeRepo{insertErr: errStoreDown})
	err := rec.RecordExposure(context.Background(), "reco_algo", "A", "u:1")
	assert.ErrorIs(t, err, errStoreDown)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	// 3-byte rune cut in the middle is dropped
	assert.Equal(t, "a", truncate("aあ", 2))
}
