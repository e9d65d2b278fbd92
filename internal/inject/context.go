package inject

import (
	"time"

	"scrivo/internal/focus"
	"scrivo/internal/telemetry"
)

// Context is the ephemeral per-call value produced by the prepare phase
// and consumed by the attempt loop. It lives for exactly one Inject call.
type Context struct {
	Focus          focus.Status
	App            focus.App
	PastePreferred bool
	Order          []Method
	Deadline       time.Time

	started time.Time
	records []telemetry.Record
}

// Remaining returns the unspent portion of the total latency budget.
func (c *Context) Remaining(now time.Time) time.Duration {
	return c.Deadline.Sub(now)
}

// record appends one attempt record to the per-call telemetry batch.
// The batch is flushed once when the call returns.
func (c *Context) record(r telemetry.Record) {
	c.records = append(c.records, r)
}
