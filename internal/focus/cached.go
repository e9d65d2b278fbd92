package focus

import (
	"context"
	"sync"
	"time"
)

// CachedProvider wraps a provider with a bounded-TTL cache for the
// expensive queries, so repeated injections do not re-spawn detection
// subprocesses on every call.
type CachedProvider struct {
	inner Provider
	ttl   time.Duration
	now   func() time.Time

	mu          sync.Mutex
	status      Status
	statusAt    time.Time
	statusValid bool
	app         App
	appErr      error
	appAt       time.Time
	appValid    bool
}

// NewCachedProvider wraps inner with a TTL cache.
func NewCachedProvider(inner Provider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 200 * time.Millisecond
	}
	return &CachedProvider{inner: inner, ttl: ttl, now: time.Now}
}

// Status returns the cached focus status when fresh.
func (c *CachedProvider) Status(ctx context.Context) (Status, error) {
	c.mu.Lock()
	if c.statusValid && c.now().Sub(c.statusAt) < c.ttl {
		status := c.status
		c.mu.Unlock()
		return status, nil
	}
	c.mu.Unlock()

	status, err := c.inner.Status(ctx)
	if err != nil {
		return status, err
	}

	c.mu.Lock()
	c.status = status
	c.statusAt = c.now()
	c.statusValid = true
	c.mu.Unlock()
	return status, nil
}

// ActiveApp returns the cached application when fresh. Detection
// failures are cached too, so a broken detector cannot burn the focus
// budget on every call.
func (c *CachedProvider) ActiveApp(ctx context.Context) (App, error) {
	c.mu.Lock()
	if c.appValid && c.now().Sub(c.appAt) < c.ttl {
		app, err := c.app, c.appErr
		c.mu.Unlock()
		return app, err
	}
	c.mu.Unlock()

	app, err := c.inner.ActiveApp(ctx)

	c.mu.Lock()
	c.app = app
	c.appErr = err
	c.appAt = c.now()
	c.appValid = true
	c.mu.Unlock()
	return app, err
}

// TextChanges passes through; event subscriptions are not cached.
func (c *CachedProvider) TextChanges(ctx context.Context) (<-chan ChangeEvent, func(), error) {
	return c.inner.TextChanges(ctx)
}

// Invalidate drops the cached values, forcing fresh queries.
func (c *CachedProvider) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusValid = false
	c.appValid = false
}

// setNow overrides the clock for tests.
func (c *CachedProvider) setNow(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
