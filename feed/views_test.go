package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pitchside/content"
)

func openPager() *Pager {
	return New(func(context.Context, int) ([]content.Post, error) { return posts(1, 2), nil }, 2)
}

func TestViewsAddGetRemove(t *testing.T) {
	v := NewViews(time.Minute)
	p := openPager()
	id := v.Add(p)

	got, ok := v.Get(id)
	require.True(t, ok)
	assert.Same(t, p, got)
	assert.Equal(t, 1, v.Len())

	v.Remove(id)
	_, ok = v.Get(id)
	assert.False(t, ok)
	assert.True(t, p.Closed())
}

func TestViewsSweep(t *testing.T) {
	v := NewViews(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return now }

	stale := openPager()
	fresh := openPager()
	settled := New(nil, 2, WithInitialPage(nil))
	staleID := v.Add(stale)
	now = now.Add(50 * time.Second)
	freshID := v.Add(fresh)
	v.Add(settled)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 2, v.Sweep())

	_, ok := v.Get(staleID)
	assert.False(t, ok)
	assert.True(t, stale.Closed())
	assert.True(t, settled.Closed())
	_, ok = v.Get(freshID)
	assert.True(t, ok)
	assert.False(t, fresh.Closed())
}

func TestViewsStartSweeper(t *testing.T) {
	v := NewViews(time.Minute)
	stop, err := v.StartSweeper("@every 1h", nil)
	require.NoError(t, err)
	stop()

	_, err = v.StartSweeper("not a schedule", nil)
	assert.Error(t, err)
}
