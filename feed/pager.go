// Package feed pages through a post list one page at a time and merges the
// pages into a single growing list.
//
// A Pager is a small state machine. RequestNextPage may be called from any
// trigger (a viewport sensor, a button, a timer); while a fetch is in flight
// further triggers are dropped, and once a short page arrives the pager is
// settled and never fetches again.
package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/eringen/pitchside/content"
)

// State is the pager's position in its lifecycle.
type State int

const (
	Idle State = iota
	Fetching
	Settled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Settled:
		return "settled"
	}
	return "unknown"
}

// PageFunc fetches one page of posts. Pages are numbered from the pager's
// first page upward.
type PageFunc func(ctx context.Context, page int) ([]content.Post, error)

// Pager is the fetch state of one post list. It is safe for concurrent use.
type Pager struct {
	fetch    PageFunc
	pageSize int

	mu     sync.Mutex
	pages  [][]content.Post
	next   int
	state  State
	err    error
	closed bool
}

// Option configures a Pager.
type Option func(*Pager)

// WithInitialPage seeds the pager with an already fetched first page, so the
// first trigger fetches the page after it. An empty seed settles the pager.
func WithInitialPage(posts []content.Post) Option {
	return func(p *Pager) {
		p.apply(posts)
	}
}

// WithFirstPage sets the page number of the first fetch (default 1). It is
// ignored after WithInitialPage.
func WithFirstPage(page int) Option {
	return func(p *Pager) {
		if len(p.pages) == 0 && p.state == Idle {
			p.next = page
		}
	}
}

// New creates an idle pager. pageSize is the server's page size: a page with
// fewer posts is the last one.
func New(fetch PageFunc, pageSize int, opts ...Option) *Pager {
	if pageSize <= 0 {
		pageSize = content.DefaultPageSize
	}
	p := &Pager{
		fetch:    fetch,
		pageSize: pageSize,
		next:     1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// apply appends a fetched page and advances the cursor. Caller holds mu
// (or owns p exclusively during construction).
func (p *Pager) apply(posts []content.Post) {
	p.pages = append(p.pages, posts)
	p.next++
	p.err = nil
	if len(posts) < p.pageSize {
		p.state = Settled
	} else {
		p.state = Idle
	}
}

// ErrClosed is returned by Pager methods after Close.
var ErrClosed = errors.New("feed: pager closed")

// RequestNextPage fetches the next page unless a fetch is already in flight
// or the list is exhausted, in which case it returns false without doing
// anything. A failed fetch leaves the cursor where it was so a later trigger
// retries the same page. After Close it returns ErrClosed, and a result
// arriving after Close is discarded.
func (p *Pager) RequestNextPage(ctx context.Context) (bool, error) {
	return p.request(ctx, 0)
}

// RequestPage is RequestNextPage for a trigger that names its page: it
// fetches only when page is the next page, checked in the same critical
// section that starts the fetch. A stale trigger returns false.
func (p *Pager) RequestPage(ctx context.Context, page int) (bool, error) {
	if page < 1 {
		return false, nil
	}
	return p.request(ctx, page)
}

// request starts a fetch of p.next. want > 0 pins the page.
func (p *Pager) request(ctx context.Context, want int) (bool, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false, ErrClosed
	}
	if p.state != Idle || (want > 0 && want != p.next) {
		p.mu.Unlock()
		return false, nil
	}
	p.state = Fetching
	page := p.next
	p.mu.Unlock()

	returned := false
	defer func() {
		if returned {
			return
		}
		// fetch panicked: leave the pager retryable
		p.mu.Lock()
		if p.state == Fetching {
			p.state = Idle
		}
		p.mu.Unlock()
	}()
	posts, err := p.fetch(ctx, page)
	returned = true

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false, ErrClosed
	}
	if err != nil {
		p.state = Idle
		p.err = err
		return false, err
	}
	p.apply(posts)
	return true, nil
}

// Close detaches the pager from its view. In-flight results are dropped.
func (p *Pager) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

// Closed reports whether Close was called.
func (p *Pager) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// State returns the current state.
func (p *Pager) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// HasMore reports whether another page may exist.
func (p *Pager) HasMore() bool {
	return p.State() != Settled
}

// Merged returns every fetched post in fetch order. A post id seen on an
// earlier page is not repeated.
func (p *Pager) Merged() []content.Post {
	p.mu.Lock()
	defer p.mu.Unlock()
	return merge(p.pages)
}

// Added returns the posts that page contributed to the merged list, that is
// its posts minus ids seen on earlier pages. It is nil until page is fetched.
func (p *Pager) Added(page int) []content.Post {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := page - (p.next - len(p.pages))
	if i < 0 || i >= len(p.pages) {
		return nil
	}
	return merge(p.pages[:i+1])[len(merge(p.pages[:i])):]
}

func merge(pages [][]content.Post) []content.Post {
	var n int
	for _, pg := range pages {
		n += len(pg)
	}
	out := make([]content.Post, 0, n)
	seen := make(map[string]struct{}, n)
	for _, pg := range pages {
		for _, post := range pg {
			if _, dup := seen[post.ID]; dup {
				continue
			}
			seen[post.ID] = struct{}{}
			out = append(out, post)
		}
	}
	return out
}

// Snapshot is a consistent view of a pager for presentation.
type Snapshot struct {
	Posts    []content.Post
	Pages    int
	NextPage int
	HasMore  bool
	Fetching bool
	Err      error
}

// Snapshot returns the merged list and flags under one lock.
func (p *Pager) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Posts:    merge(p.pages),
		Pages:    len(p.pages),
		NextPage: p.next,
		HasMore:  p.state != Settled,
		Fetching: p.state == Fetching,
		Err:      p.err,
	}
}
