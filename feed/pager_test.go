package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/eringen/pitchside/content"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func posts(from, n int) []content.Post {
	out := make([]content.Post, n)
	for i := range out {
		out[i] = content.Post{ID: fmt.Sprintf("id%d", from+i)}
	}
	return out
}

// server returns pages of the given sizes, numbered from 1, with ids
// continuing across pages.
type server struct {
	mu     sync.Mutex
	sizes  []int
	calls  []int
	failOn map[int]error
}

func (s *server) fetch(_ context.Context, page int) ([]content.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, page)
	if err := s.failOn[page]; err != nil {
		delete(s.failOn, page)
		return nil, err
	}
	if page < 1 || page > len(s.sizes) {
		return nil, nil
	}
	from := 1
	for _, n := range s.sizes[:page-1] {
		from += n
	}
	return posts(from, s.sizes[page-1]), nil
}

func ids(ps []content.Post) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestPagerHasMoreSequence(t *testing.T) {
	srv := &server{sizes: []int{3, 3, 2}}
	p := New(srv.fetch, 3)
	ctx := context.Background()

	var hasMore []bool
	for i := 0; i < 3; i++ {
		ok, err := p.RequestNextPage(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		hasMore = append(hasMore, p.HasMore())
	}

	assert.Equal(t, []bool{true, true, false}, hasMore)
	assert.Len(t, p.Merged(), 8)
	assert.Equal(t, Settled, p.State())
}

func TestPagerStopsAfterShortPage(t *testing.T) {
	const n = 4
	srv := &server{sizes: []int{n, n, n, 1}}
	p := New(srv.fetch, n)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := p.RequestNextPage(ctx)
		require.NoError(t, err)
		if i < 3 {
			assert.True(t, p.HasMore(), "after page %d", i+1)
		}
	}
	assert.False(t, p.HasMore())

	ok, err := p.RequestNextPage(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []int{1, 2, 3, 4}, srv.calls, "no fifth fetch")
}

func TestPagerMergesInFetchOrder(t *testing.T) {
	srv := &server{sizes: []int{2, 2, 0}}
	p := New(srv.fetch, 2)
	ctx := context.Background()

	for p.HasMore() {
		_, err := p.RequestNextPage(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"id1", "id2", "id3", "id4"}, ids(p.Merged()))
}

func TestPagerDropsDuplicateIDs(t *testing.T) {
	pages := map[int][]content.Post{
		1: {{ID: "a"}, {ID: "b"}},
		2: {{ID: "b"}, {ID: "c"}},
		3: {{ID: "d"}},
	}
	p := New(func(_ context.Context, page int) ([]content.Post, error) {
		return pages[page], nil
	}, 2)
	ctx := context.Background()
	for p.HasMore() {
		_, err := p.RequestNextPage(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(p.Merged()))
}

func TestPagerAdded(t *testing.T) {
	pages := map[int][]content.Post{
		4: {{ID: "a"}, {ID: "b"}},
		5: {{ID: "b"}, {ID: "c"}},
	}
	p := New(func(_ context.Context, page int) ([]content.Post, error) {
		return pages[page], nil
	}, 2, WithFirstPage(4))
	ctx := context.Background()

	assert.Nil(t, p.Added(4))
	for _, page := range []int{4, 5} {
		ok, err := p.RequestPage(ctx, page)
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, []string{"a", "b"}, ids(p.Added(4)))
	assert.Equal(t, []string{"c"}, ids(p.Added(5)), "ids from earlier pages are not repeated")
	assert.Nil(t, p.Added(3))
	assert.Nil(t, p.Added(6))
}

func TestPagerDropsTriggerWhileFetching(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	p := New(func(_ context.Context, page int) ([]content.Post, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(entered)
		<-release
		return posts(1, 2), nil
	}, 2)

	type result struct {
		ok  bool
		err error
	}
	done := make(chan result)
	go func() {
		ok, err := p.RequestNextPage(context.Background())
		done <- result{ok, err}
	}()

	<-entered
	assert.Equal(t, Fetching, p.State())
	assert.True(t, p.Snapshot().Fetching)
	ok, err := p.RequestNextPage(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "second trigger while fetching is dropped")

	close(release)
	r := <-done
	require.NoError(t, r.err)
	assert.True(t, r.ok)

	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
	assert.Equal(t, 1, p.Snapshot().Pages)
	assert.Len(t, p.Merged(), 2)
}

func TestPagerFailureIsRetryable(t *testing.T) {
	boom := errors.New("cms unavailable")
	srv := &server{sizes: []int{2, 2, 1}, failOn: map[int]error{2: boom}}
	p := New(srv.fetch, 2)
	ctx := context.Background()

	_, err := p.RequestNextPage(ctx)
	require.NoError(t, err)

	ok, err := p.RequestNextPage(ctx)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
	snap := p.Snapshot()
	assert.ErrorIs(t, snap.Err, boom)
	assert.False(t, snap.Fetching)
	assert.True(t, snap.HasMore)
	assert.Equal(t, 2, snap.NextPage, "cursor not advanced on failure")
	assert.Equal(t, Idle, p.State())

	ok, err = p.RequestNextPage(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, p.Snapshot().Err)
	assert.Equal(t, []int{1, 2, 2}, srv.calls)
	assert.Equal(t, []string{"id1", "id2", "id3", "id4"}, ids(p.Merged()))
}

func TestPagerInitialPage(t *testing.T) {
	srv := &server{sizes: []int{2, 2, 1}}
	first, err := srv.fetch(context.Background(), 1)
	require.NoError(t, err)
	srv.calls = nil

	p := New(srv.fetch, 2, WithInitialPage(first))
	assert.Equal(t, 2, p.Snapshot().NextPage)
	assert.Len(t, p.Merged(), 2)

	_, err = p.RequestNextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2}, srv.calls)
}

func TestPagerEmptyInitialPageSettles(t *testing.T) {
	srv := &server{}
	p := New(srv.fetch, 3, WithInitialPage(nil))

	assert.False(t, p.HasMore())
	assert.Empty(t, p.Merged())
	ok, err := p.RequestNextPage(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, srv.calls)
}

func TestPagerFirstPage(t *testing.T) {
	var got []int
	p := New(func(_ context.Context, page int) ([]content.Post, error) {
		got = append(got, page)
		return posts(page, 1), nil
	}, 1, WithFirstPage(0))

	for i := 0; i < 2; i++ {
		_, err := p.RequestNextPage(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, []int{0, 1}, got)
}

func TestPagerCloseDiscardsInFlightResult(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	p := New(func(context.Context, int) ([]content.Post, error) {
		close(entered)
		<-release
		return posts(1, 3), nil
	}, 3)

	done := make(chan error)
	go func() {
		_, err := p.RequestNextPage(context.Background())
		done <- err
	}()
	<-entered
	p.Close()
	close(release)

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Empty(t, p.Merged())
	assert.True(t, p.Closed())

	ok, err := p.RequestNextPage(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPagerRequestPageIgnoresStaleTrigger(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := &server{sizes: []int{2, 2, 2, 1}}
	p := New(func(ctx context.Context, page int) ([]content.Post, error) {
		if page == 2 {
			entered <- struct{}{}
			<-release
		}
		return srv.fetch(ctx, page)
	}, 2, WithInitialPage(posts(1, 2)))
	ctx := context.Background()

	done := make(chan bool)
	go func() {
		ok, err := p.RequestPage(ctx, 2)
		assert.NoError(t, err)
		done <- ok
	}()
	<-entered

	ok, err := p.RequestPage(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok, "same page while fetching")

	close(release)
	require.True(t, <-done)

	// a trigger for page 2 that arrives after page 2 landed must not
	// fetch page 3 in its place
	ok, err = p.RequestPage(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []int{2}, srv.calls)
	assert.Equal(t, 3, p.Snapshot().NextPage)

	ok, err = p.RequestPage(ctx, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"id1", "id2", "id3", "id4", "id5", "id6"}, ids(p.Merged()))

	ok, err = p.RequestPage(ctx, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPagerRecoversFromPanickingFetch(t *testing.T) {
	srv := &server{sizes: []int{2, 1}}
	panicked := false
	p := New(func(ctx context.Context, page int) ([]content.Post, error) {
		if !panicked {
			panicked = true
			panic("cms client bug")
		}
		return srv.fetch(ctx, page)
	}, 2)
	ctx := context.Background()

	assert.Panics(t, func() { _, _ = p.RequestNextPage(ctx) })
	assert.Equal(t, Idle, p.State())
	assert.Equal(t, 1, p.Snapshot().NextPage)

	ok, err := p.RequestNextPage(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int{1}, srv.calls)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "fetching", Fetching.String())
	assert.Equal(t, "settled", Settled.String())
	assert.Equal(t, "unknown", State(9).String())
}
