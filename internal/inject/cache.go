package inject

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Mode biases ranking between paste-shaped and keystroke-shaped methods.
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModePaste Mode = "paste"
	ModeType  Mode = "type"
)

// AppMethodKey is the composite key for per-application method history.
type AppMethodKey struct {
	App    string
	Method Method
}

// SuccessRecord tracks outcomes for one app+method pair.
type SuccessRecord struct {
	SuccessCount uint32
	FailCount    uint32
	LastSuccess  time.Time
	LastFailure  time.Time
}

// Rate returns the observed success rate, or the optimistic prior for
// pairs with no history yet.
func (r *SuccessRecord) Rate() float64 {
	total := r.SuccessCount + r.FailCount
	if total == 0 {
		return defaultSuccessRate
	}
	return float64(r.SuccessCount) / float64(total)
}

func (r *SuccessRecord) lastActivity() time.Time {
	if r.LastSuccess.After(r.LastFailure) {
		return r.LastSuccess
	}
	return r.LastFailure
}

// CooldownRecord is a time-boxed suppression of one app+method pair.
// Cooldowns are scoped strictly per application: a cooldown for (A, M)
// never suppresses (B, M).
type CooldownRecord struct {
	Until               time.Time
	ConsecutiveFailures uint32
	LastFailure         time.Time
}

const defaultSuccessRate = 0.5

// CacheOptions configures cooldown and aging behavior.
type CacheOptions struct {
	// CooldownInitial is the first suppression duration once the failure
	// threshold is reached.
	CooldownInitial time.Duration
	// BackoffFactor multiplies the cooldown per consecutive failure.
	BackoffFactor float64
	// CooldownMax caps the computed cooldown.
	CooldownMax time.Duration
	// FailureThreshold is how many consecutive failures trigger a
	// cooldown. Fatal failures bypass the threshold.
	FailureThreshold uint32
	// FailureGrace bounds how far apart failures may be and still count
	// as consecutive.
	FailureGrace time.Duration
	// TTL is the inactivity window after which records are swept.
	TTL time.Duration
	// Mode biases ranking toward paste- or keystroke-shaped methods.
	Mode Mode
}

func (o CacheOptions) withDefaults() CacheOptions {
	if o.CooldownInitial <= 0 {
		o.CooldownInitial = 200 * time.Millisecond
	}
	if o.BackoffFactor < 1 {
		o.BackoffFactor = 2.0
	}
	if o.CooldownMax <= 0 {
		o.CooldownMax = 30 * time.Second
	}
	if o.FailureThreshold == 0 {
		o.FailureThreshold = 3
	}
	if o.FailureGrace <= 0 {
		o.FailureGrace = 2 * time.Minute
	}
	if o.TTL <= 0 {
		o.TTL = time.Hour
	}
	if o.Mode == "" {
		o.Mode = ModeAuto
	}
	return o
}

// MethodCache holds per-application success and cooldown history and
// memoizes the resulting method ranking. All tables live behind one lock
// so rank/record/invalidate form a single atomic critical section; every
// acquisition releases via defer, so a panicking caller cannot wedge the
// tables.
type MethodCache struct {
	mu        sync.Mutex
	base      []Method
	basePos   map[Method]int
	opts      CacheOptions
	success   map[AppMethodKey]*SuccessRecord
	cooldowns map[AppMethodKey]*CooldownRecord
	orders    map[string][]Method
	now       func() time.Time
}

// NewMethodCache builds a cache over the availability-filtered base order.
func NewMethodCache(base []Method, opts CacheOptions) *MethodCache {
	pos := make(map[Method]int, len(base))
	for i, m := range base {
		pos[m] = i
	}
	return &MethodCache{
		base:      append([]Method(nil), base...),
		basePos:   pos,
		opts:      opts.withDefaults(),
		success:   make(map[AppMethodKey]*SuccessRecord),
		cooldowns: make(map[AppMethodKey]*CooldownRecord),
		orders:    make(map[string][]Method),
		now:       time.Now,
	}
}

// Rank returns the method order for app: the base order stably re-sorted
// by descending success rate, with methods currently in cooldown for this
// application demoted to the end (never removed). The result is memoized
// until the next outcome for app changes it.
func (c *MethodCache) Rank(app string) []Method {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.orders[app]; ok {
		return append([]Method(nil), cached...)
	}

	order := c.computeOrderLocked(app, c.now())
	c.orders[app] = order
	return append([]Method(nil), order...)
}

func (c *MethodCache) computeOrderLocked(app string, now time.Time) []Method {
	order := append([]Method(nil), c.base...)

	rate := func(m Method) float64 {
		if rec, ok := c.success[AppMethodKey{App: app, Method: m}]; ok {
			return rec.Rate()
		}
		return defaultSuccessRate
	}
	modeRank := func(m Method) int {
		switch c.opts.Mode {
		case ModePaste:
			if m.PasteShaped() {
				return 0
			}
			return 1
		case ModeType:
			if m.PasteShaped() {
				return 1
			}
			return 0
		default:
			return 0
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		mi, mj := order[i], order[j]
		if a, b := modeRank(mi), modeRank(mj); a != b {
			return a < b
		}
		if a, b := rate(mi), rate(mj); a != b {
			return a > b
		}
		return c.basePos[mi] < c.basePos[mj]
	})

	// Demote cooled methods to the tail, preserving relative order on
	// both sides. A later method may also be exhausted, so nothing is
	// ever removed.
	active := order[:0:len(order)]
	var cooled []Method
	for _, m := range order {
		if c.inCooldownLocked(app, m, now) {
			cooled = append(cooled, m)
		} else {
			active = append(active, m)
		}
	}
	return append(active, cooled...)
}

// InCooldown reports whether (app, m) is currently suppressed.
func (c *MethodCache) InCooldown(app string, m Method) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inCooldownLocked(app, m, c.now())
}

func (c *MethodCache) inCooldownLocked(app string, m Method, now time.Time) bool {
	rec, ok := c.cooldowns[AppMethodKey{App: app, Method: m}]
	return ok && now.Before(rec.Until)
}

// RecordOutcome updates the success and cooldown tables for one attempt
// and eagerly invalidates the memoized order for app inside the same
// critical section, so no stale order can be observed afterwards.
// Returns the cooldown deadline if the failure tripped one.
func (c *MethodCache) RecordOutcome(app string, m Method, success bool, fatal bool) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	key := AppMethodKey{App: app, Method: m}

	rec, ok := c.success[key]
	if !ok {
		rec = &SuccessRecord{}
		c.success[key] = rec
	}

	var until time.Time
	var cooled bool
	if success {
		rec.SuccessCount++
		rec.LastSuccess = now
		delete(c.cooldowns, key)
	} else {
		rec.FailCount++
		rec.LastFailure = now
		until, cooled = c.extendCooldownLocked(key, now, fatal)
	}

	delete(c.orders, app)
	return until, cooled
}

func (c *MethodCache) extendCooldownLocked(key AppMethodKey, now time.Time, fatal bool) (time.Time, bool) {
	cd, ok := c.cooldowns[key]
	if !ok {
		cd = &CooldownRecord{}
		c.cooldowns[key] = cd
	}

	// Failures outside the grace window start a fresh consecutive run.
	if !cd.LastFailure.IsZero() && now.Sub(cd.LastFailure) > c.opts.FailureGrace {
		cd.ConsecutiveFailures = 0
	}
	cd.ConsecutiveFailures++
	cd.LastFailure = now

	if !fatal && cd.ConsecutiveFailures < c.opts.FailureThreshold {
		return time.Time{}, false
	}

	exponent := float64(cd.ConsecutiveFailures - 1)
	scale := math.Pow(c.opts.BackoffFactor, exponent)
	d := time.Duration(float64(c.opts.CooldownInitial) * scale)
	if d > c.opts.CooldownMax || d <= 0 {
		d = c.opts.CooldownMax
	}
	cd.Until = now.Add(d)
	return cd.Until, true
}

// Invalidate drops the memoized order for app.
func (c *MethodCache) Invalidate(app string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.orders, app)
}

// Sweep purges records inactive longer than the TTL and expired
// cooldowns, bounding table growth over a long-running session.
func (c *MethodCache) Sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	touched := make(map[string]struct{})
	for key, rec := range c.success {
		last := rec.lastActivity()
		if !last.IsZero() && now.Sub(last) > c.opts.TTL {
			delete(c.success, key)
			touched[key.App] = struct{}{}
		}
	}
	for key, cd := range c.cooldowns {
		if !now.Before(cd.Until) && now.Sub(cd.LastFailure) > c.opts.TTL {
			delete(c.cooldowns, key)
			touched[key.App] = struct{}{}
		}
	}
	for app := range touched {
		delete(c.orders, app)
	}
}

// Len reports table sizes for the status surface and bounded-memory tests.
func (c *MethodCache) Len() (successes, cooldowns int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.success), len(c.cooldowns)
}

// Lookup returns a copy of the success record for (app, m), if any.
func (c *MethodCache) Lookup(app string, m Method) (SuccessRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.success[AppMethodKey{App: app, Method: m}]
	if !ok {
		return SuccessRecord{}, false
	}
	return *rec, true
}

// Cooldown returns a copy of the cooldown record for (app, m), if any.
func (c *MethodCache) Cooldown(app string, m Method) (CooldownRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.cooldowns[AppMethodKey{App: app, Method: m}]
	if !ok {
		return CooldownRecord{}, false
	}
	return *rec, true
}

// setNow overrides the clock for tests.
func (c *MethodCache) setNow(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
