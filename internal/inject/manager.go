package inject

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"scrivo/internal/clipboard"
	"scrivo/internal/focus"
	"scrivo/internal/telemetry"
)

// Options is the manager's tuning surface, consumed from config.
type Options struct {
	// FocusTimeout bounds each FocusProvider query.
	FocusTimeout time.Duration
	// AttemptTimeout bounds one injector attempt.
	AttemptTimeout time.Duration
	// ConfirmTimeout bounds the event-based confirmation window.
	ConfirmTimeout time.Duration
	// TotalBudget bounds one whole Inject call across all fallbacks.
	TotalBudget time.Duration
	// RestoreDelay is how long a successful unconfirmed clipboard attempt
	// waits before restoring, so the target can still read the seeded
	// clipboard.
	RestoreDelay time.Duration
	// RestoreTimeout bounds the restore itself, which runs detached from
	// the (possibly expired) call context.
	RestoreTimeout time.Duration
	// InjectOnUnknownFocus allows attempts when focus state is unknown.
	InjectOnUnknownFocus bool
	// Allowlist, when non-empty, restricts injection to matching app ids.
	Allowlist []string
	// Denylist blocks injection into matching app ids.
	Denylist []string
	// Redact adds a non-reversible text fingerprint to telemetry.
	Redact bool
	// Mode biases ranking between paste- and keystroke-shaped methods.
	Mode Mode
	// SweepInterval is how often the history tables are garbage-collected.
	SweepInterval time.Duration
	// Cache configures cooldown/backoff/TTL behavior.
	Cache CacheOptions
}

func (o Options) withDefaults() Options {
	if o.FocusTimeout <= 0 {
		o.FocusTimeout = 75 * time.Millisecond
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = 50 * time.Millisecond
	}
	if o.ConfirmTimeout <= 0 {
		o.ConfirmTimeout = 75 * time.Millisecond
	}
	if o.TotalBudget <= 0 {
		o.TotalBudget = 800 * time.Millisecond
	}
	if o.RestoreDelay <= 0 {
		o.RestoreDelay = 150 * time.Millisecond
	}
	if o.RestoreTimeout <= 0 {
		o.RestoreTimeout = 500 * time.Millisecond
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = 5 * time.Minute
	}
	if o.Mode == "" {
		o.Mode = ModeAuto
	}
	o.Cache.Mode = o.Mode
	return o
}

// Manager orchestrates injection: it ranks candidate methods per
// application, walks the fallback chain inside the latency budget,
// confirms success through focus events, and feeds outcomes back into
// the method cache. One call owns the manager at a time; concurrent
// callers queue on an internal permit.
type Manager struct {
	opts     Options
	registry *Registry
	cache    *MethodCache
	provider focus.Provider
	guardian *clipboard.Guardian
	sink     telemetry.Sink
	logger   *slog.Logger

	permit    chan struct{}
	paused    atomic.Bool
	lastSweep atomic.Int64
}

// NewManager wires a strategy manager. guardian may be nil when no
// clipboard-based method is registered.
func NewManager(
	opts Options,
	registry *Registry,
	provider focus.Provider,
	guardian *clipboard.Guardian,
	sink telemetry.Sink,
	logger *slog.Logger,
) *Manager {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := &Manager{
		opts:     opts,
		registry: registry,
		cache:    NewMethodCache(registry.Order(), opts.Cache),
		provider: provider,
		guardian: guardian,
		sink:     sink,
		logger:   logger,
		permit:   make(chan struct{}, 1),
	}
	m.lastSweep.Store(time.Now().UnixNano())
	return m
}

// Cache exposes the method cache for the status surface.
func (m *Manager) Cache() *MethodCache { return m.cache }

// Pause suppresses injection until Resume.
func (m *Manager) Pause() { m.paused.Store(true) }

// Resume lifts a pause.
func (m *Manager) Resume() { m.paused.Store(false) }

// Paused reports the pause flag.
func (m *Manager) Paused() bool { return m.paused.Load() }

// Prewarm runs capability/session setup on every injector that supports
// it, hiding that latency from the first real injection.
func (m *Manager) Prewarm(ctx context.Context) {
	for _, method := range m.registry.Order() {
		inj, ok := m.registry.Injector(method)
		if !ok {
			continue
		}
		warmer, ok := inj.(Warmer)
		if !ok {
			continue
		}
		wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := warmer.Warm(wctx)
		cancel()
		if err != nil {
			m.logger.Warn("prewarm failed", "method", method.String(), "error", err.Error())
			continue
		}
		m.logger.Debug("prewarm ok", "method", method.String())
	}

	// Touch the focus provider once so app-id caches are hot.
	wctx, cancel := context.WithTimeout(ctx, m.opts.FocusTimeout)
	defer cancel()
	if _, err := m.provider.ActiveApp(wctx); err != nil {
		m.logger.Debug("prewarm app detection failed", "error", err.Error())
	}
}

// Inject delivers text into the focused application and reports the
// method that landed it. Empty text is a no-op success. The call is
// bounded by the total latency budget; on exhaustion or when every
// method fails it returns a structured *Error carrying the
// attempted-method trail.
func (m *Manager) Inject(ctx context.Context, text string) (Method, error) {
	if text == "" {
		return NoOp, nil
	}
	if m.paused.Load() {
		return NoOp, &Error{Kind: KindPaused, Remediation: "resume injection with `scrivo resume`"}
	}

	// Single-permit entry: concurrent callers queue rather than
	// interleave, which would race the per-call cache updates.
	select {
	case m.permit <- struct{}{}:
	case <-ctx.Done():
		return NoOp, &Error{Kind: KindTimeout, Remediation: "injection queue wait cancelled; retry"}
	}
	defer func() { <-m.permit }()

	m.maybeSweep()

	ic, ierr := m.prepareContext(ctx, time.Now())
	// The batch is appended to during the attempt loop; the flush must
	// read ic.records at return time, not capture the nil slice now.
	defer func() { telemetry.Flush(m.logger, m.sink, ic.records) }()
	if ierr != nil {
		return NoOp, ierr
	}

	return m.attemptLoop(ctx, ic, text)
}

// prepareContext is the second phase: resolve focus state and the
// foreground application under bounded queries, enforce the
// deny/allowlist, and compute the ranked method order.
func (m *Manager) prepareContext(ctx context.Context, start time.Time) (*Context, *Error) {
	ic := &Context{
		started:        start,
		Deadline:       start.Add(m.opts.TotalBudget),
		PastePreferred: m.opts.Mode == ModePaste,
	}

	ic.Focus = m.boundedStatus(ctx)
	ic.App = m.boundedActiveApp(ctx)

	switch ic.Focus {
	case focus.StatusNonEditable:
		return ic, &Error{
			Kind:        KindNoEditableFocus,
			App:         ic.App.BucketID(),
			Remediation: "focus a text field before dictating",
		}
	case focus.StatusUnknown:
		if !m.opts.InjectOnUnknownFocus {
			return ic, &Error{
				Kind:        KindNoEditableFocus,
				App:         ic.App.BucketID(),
				Remediation: "focus state unknown; enable the accessibility bus or set injection.inject_on_unknown_focus",
			}
		}
	}

	if ic.App.Resolved {
		if matchesAny(m.opts.Denylist, ic.App.ID) {
			return ic, &Error{
				Kind:        KindDenylisted,
				App:         ic.App.ID,
				Remediation: fmt.Sprintf("application %q is denylisted; remove it from injection.denylist to allow injection", ic.App.ID),
			}
		}
		if len(m.opts.Allowlist) > 0 && !matchesAny(m.opts.Allowlist, ic.App.ID) {
			return ic, &Error{
				Kind:        KindDenylisted,
				App:         ic.App.ID,
				Remediation: fmt.Sprintf("application %q is not on injection.allowlist", ic.App.ID),
			}
		}
	}

	ic.Order = m.cache.Rank(ic.App.BucketID())
	return ic, nil
}

// attemptLoop is the third phase: walk the ranked methods while budget
// remains, recording one telemetry record per attempt.
func (m *Manager) attemptLoop(ctx context.Context, ic *Context, text string) (Method, error) {
	bucket := ic.App.BucketID()
	prefix := confirmPrefix(text)
	var failures []AttemptFailure
	budgetExhausted := false

	for _, method := range ic.Order {
		now := time.Now()
		if ic.Remaining(now) <= 0 || ctx.Err() != nil {
			budgetExhausted = true
			break
		}
		// Rank demotes cooled methods rather than removing them; a
		// still-active cooldown means skip, an expired one means the
		// method gets its retry.
		if m.cache.InCooldown(bucket, method) {
			continue
		}
		inj, ok := m.registry.Injector(method)
		if !ok {
			continue
		}

		res := m.attemptOnce(ctx, inj, method, text, prefix, ic)
		ic.record(m.attemptRecord(ic, method, res, text))

		until, cooled := m.cache.RecordOutcome(bucket, method, res.ok, res.class == ClassFatal)
		if res.ok {
			m.logger.Info("injection ok",
				"method", method.String(),
				"app_id", bucket,
				"confirmed", res.confirmed,
				"stage_ms", res.duration.Milliseconds(),
			)
			return method, nil
		}

		failures = append(failures, AttemptFailure{
			Method:      method,
			Class:       res.class,
			Reason:      res.reason,
			Remediation: res.remediation,
			Duration:    res.duration,
		})
		logArgs := []any{
			"method", method.String(),
			"app_id", bucket,
			"class", res.class.String(),
			"reason", res.reason,
		}
		if cooled {
			logArgs = append(logArgs, "cooldown_until", until.Format(time.RFC3339Nano))
		}
		m.logger.Warn("injection attempt failed", logArgs...)
	}

	kind := KindAllMethodsFailed
	if budgetExhausted {
		kind = KindBudgetExhausted
	}
	return NoOp, &Error{
		Kind:        kind,
		App:         bucket,
		Attempts:    failures,
		Remediation: remediationFor(failures, m.registry.Remediations()),
	}
}

// attemptResult is the outcome of one method attempt.
type attemptResult struct {
	ok           bool
	confirmed    bool
	class        FailureClass
	reason       string
	remediation  string
	timedOut     bool
	clipSeeded   bool
	clipRestored bool
	duration     time.Duration
}

// attemptOnce runs a single fast-fail stage: optional clipboard seeding
// under a guard, the injector attempt under its own timeout, and the
// event-based confirmation window. The guard is released on every exit
// path, including panics; a late injector result is discarded.
func (m *Manager) attemptOnce(
	ctx context.Context,
	inj Injector,
	method Method,
	text string,
	prefix string,
	ic *Context,
) (res attemptResult) {
	started := time.Now()
	defer func() { res.duration = time.Since(started) }()

	stageCtx, cancelStage := context.WithDeadline(ctx, ic.Deadline)
	defer cancelStage()

	events, unsubscribe, subErr := m.provider.TextChanges(stageCtx)
	haveStream := subErr == nil

	var guard *clipboard.Guard
	defer func() {
		if r := recover(); r != nil {
			res = attemptResult{
				class:      ClassTransient,
				reason:     fmt.Sprintf("panic during attempt: %v", r),
				clipSeeded: guard != nil,
			}
		}
		if guard != nil {
			// Restore runs detached from the call context so an expired
			// budget can never leave injected text in the clipboard.
			rctx, cancel := context.WithTimeout(context.Background(), m.opts.RestoreTimeout)
			if err := guard.Release(rctx); err != nil {
				m.logger.Error("clipboard restore failed", "method", method.String(), "error", err.Error())
			}
			cancel()
			res.clipRestored = guard.Restored()
		}
		if unsubscribe != nil {
			unsubscribe()
		}
	}()

	if method.ClipboardBased() {
		if m.guardian == nil {
			return attemptResult{class: ClassFatal, reason: "no clipboard backend available"}
		}
		g, err := m.guardian.Acquire(stageCtx, text)
		if err != nil {
			return attemptResult{class: ClassTransient, reason: fmt.Sprintf("seed clipboard: %v", err)}
		}
		guard = g
		res.clipSeeded = true
	}

	attemptCtx, cancelAttempt := context.WithTimeout(stageCtx, m.opts.AttemptTimeout)
	defer cancelAttempt()

	done := make(chan *AttemptError, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Transientf("injector panic: %v", r)
			}
		}()
		done <- inj.Attempt(attemptCtx, text, ic)
	}()

	var aerr *AttemptError
	select {
	case aerr = <-done:
	case <-attemptCtx.Done():
		res.class = ClassTransient
		res.reason = "attempt timed out"
		res.timedOut = true
		return res
	}
	if aerr != nil {
		res.class = aerr.Class
		res.reason = aerr.Error()
		res.remediation = aerr.Remediation
		return res
	}

	if haveStream {
		confirmed, timedOut := m.awaitConfirmation(stageCtx, events, prefix, ic)
		if !confirmed {
			res.class = ClassTransient
			res.reason = "no text-changed event within confirmation window"
			res.timedOut = timedOut
			return res
		}
		res.confirmed = true
		res.ok = true
		return res
	}

	// No event source: the injector's own result stands. Clipboard-based
	// methods get a short grace before restore so the target can still
	// read the seeded clipboard.
	if guard != nil {
		m.waitBounded(stageCtx, minDuration(m.opts.RestoreDelay, ic.Remaining(time.Now())))
	}
	res.ok = true
	return res
}

// awaitConfirmation waits for an insertion event matching the injected
// text's prefix. Absence of a matching event within the window is a
// failure, not a success.
func (m *Manager) awaitConfirmation(
	ctx context.Context,
	events <-chan focus.ChangeEvent,
	prefix string,
	ic *Context,
) (confirmed bool, timedOut bool) {
	window := minDuration(m.opts.ConfirmTimeout, ic.Remaining(time.Now()))
	if window <= 0 {
		return false, true
	}
	timer := time.NewTimer(window)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return false, false
			}
			if matchesPrefix(ev.Text, prefix) {
				return true, false
			}
		case <-timer.C:
			return false, true
		case <-ctx.Done():
			return false, true
		}
	}
}

// attemptRecord shapes one telemetry record for the per-call batch.
func (m *Manager) attemptRecord(ic *Context, method Method, res attemptResult, text string) telemetry.Record {
	result := telemetry.ResultError
	switch {
	case res.ok:
		result = telemetry.ResultOK
	case res.timedOut:
		result = telemetry.ResultTimeout
	}

	rec := telemetry.Record{
		TS:      time.Now(),
		AppID:   ic.App.BucketID(),
		Method:  method.String(),
		StageMS: res.duration.Milliseconds(),
		Confirm: telemetry.Confirm{TextChanged: res.confirmed},
		Clipboard: telemetry.Clipboard{
			Seeded:   res.clipSeeded,
			Restored: res.clipRestored,
		},
		Result:  result,
		TotalMS: time.Since(ic.started).Milliseconds(),
		TextLen: len(text),
	}
	if m.opts.Redact {
		rec.TextFP = telemetry.Fingerprint(text)
	}
	return rec
}

// boundedStatus queries focus state under the focus timeout; a hung or
// failing provider degrades to StatusUnknown instead of failing the call.
func (m *Manager) boundedStatus(ctx context.Context) focus.Status {
	fctx, cancel := context.WithTimeout(ctx, m.opts.FocusTimeout)
	defer cancel()

	type outcome struct {
		status focus.Status
		err    error
	}
	ch := make(chan outcome, 1)
	go func() {
		st, err := m.provider.Status(fctx)
		ch <- outcome{st, err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			m.logger.Debug("focus status query failed", "error", out.err.Error())
			return focus.StatusUnknown
		}
		return out.status
	case <-fctx.Done():
		m.logger.Debug("focus status query timed out")
		return focus.StatusUnknown
	}
}

// boundedActiveApp resolves the foreground app under the focus timeout.
// A detection error is logged as such and yields an unresolved app; it is
// never folded into a placeholder id.
func (m *Manager) boundedActiveApp(ctx context.Context) focus.App {
	fctx, cancel := context.WithTimeout(ctx, m.opts.FocusTimeout)
	defer cancel()

	type outcome struct {
		app focus.App
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		app, err := m.provider.ActiveApp(fctx)
		ch <- outcome{app, err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			m.logger.Warn("app detection failed", "error", out.err.Error())
			return focus.App{}
		}
		return out.app
	case <-fctx.Done():
		m.logger.Debug("app detection timed out")
		return focus.App{}
	}
}

func (m *Manager) maybeSweep() {
	now := time.Now()
	last := time.Unix(0, m.lastSweep.Load())
	if now.Sub(last) < m.opts.SweepInterval {
		return
	}
	if m.lastSweep.CompareAndSwap(last.UnixNano(), now.UnixNano()) {
		m.cache.Sweep(now)
	}
}

func (m *Manager) waitBounded(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// confirmPrefix extracts the short prefix used for event matching: the
// whole text up to three runes, three runes for short inputs, four for
// longer ones, so partial redraw events do not false-positive.
func confirmPrefix(text string) string {
	runes := []rune(text)
	switch {
	case len(runes) <= 3:
		return string(runes)
	case len(runes) <= 6:
		return string(runes[:3])
	default:
		return string(runes[:4])
	}
}

// matchesPrefix accepts an event that starts with the expected prefix or
// is itself an early fragment of it (per-keystroke insertions).
func matchesPrefix(eventText, prefix string) bool {
	if eventText == "" || prefix == "" {
		return false
	}
	return strings.HasPrefix(eventText, prefix) || strings.HasPrefix(prefix, eventText)
}

func matchesAny(patterns []string, appID string) bool {
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.EqualFold(p, appID) || strings.Contains(strings.ToLower(appID), strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
