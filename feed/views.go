package feed

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Views keeps the pagers of rendered feed views so that load-more requests
// from a browser reach the pager created for the page they came from. A view
// that has not been touched for the idle timeout is closed and dropped.
type Views struct {
	mu    sync.Mutex
	views map[string]*view
	idle  time.Duration
	now   func() time.Time
}

type view struct {
	pager    *Pager
	lastSeen time.Time
}

// NewViews creates an empty registry whose views expire after idle.
func NewViews(idle time.Duration) *Views {
	return &Views{
		views: make(map[string]*view),
		idle:  idle,
		now:   time.Now,
	}
}

// Add registers p and returns its view id.
func (v *Views) Add(p *Pager) string {
	id := uuid.NewString()
	v.mu.Lock()
	v.views[id] = &view{pager: p, lastSeen: v.now()}
	v.mu.Unlock()
	return id
}

// Get returns the pager for id and marks the view as used.
func (v *Views) Get(id string) (*Pager, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	vw, ok := v.views[id]
	if !ok {
		return nil, false
	}
	vw.lastSeen = v.now()
	return vw.pager, true
}

// Remove closes and drops the view.
func (v *Views) Remove(id string) {
	v.mu.Lock()
	vw, ok := v.views[id]
	delete(v.views, id)
	v.mu.Unlock()
	if ok {
		vw.pager.Close()
	}
}

// Len returns the number of live views.
func (v *Views) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.views)
}

// Sweep closes and drops views idle for longer than the timeout, and views
// whose pager has settled. It returns the number removed.
func (v *Views) Sweep() int {
	cutoff := v.now().Add(-v.idle)
	var stale []*Pager

	v.mu.Lock()
	for id, vw := range v.views {
		if vw.lastSeen.Before(cutoff) || vw.pager.State() == Settled {
			stale = append(stale, vw.pager)
			delete(v.views, id)
		}
	}
	v.mu.Unlock()

	for _, p := range stale {
		p.Close()
	}
	return len(stale)
}

// StartSweeper runs Sweep on the given cron schedule (e.g. "@every 1m") and
// returns a function that stops it.
func (v *Views) StartSweeper(spec string, onSweep func(removed int)) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		n := v.Sweep()
		if onSweep != nil {
			onSweep(n)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}
