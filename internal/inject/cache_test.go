package inject

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testBase = []Method{AtspiInsert, AtspiPaste, ClipboardPasteFallback, VirtualKeyboard}

func newTestCache(t *testing.T, opts CacheOptions) (*MethodCache, *time.Time) {
	t.Helper()
	cache := NewMethodCache(testBase, opts)
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	cache.setNow(func() time.Time { return now })
	return cache, &now
}

func TestRankDefaultsToBaseOrder(t *testing.T) {
	cache, _ := newTestCache(t, CacheOptions{})
	require.Equal(t, testBase, cache.Rank("kate"))
}

func TestRankPromotesHigherSuccessRate(t *testing.T) {
	cache, _ := newTestCache(t, CacheOptions{})

	// atspi_insert keeps failing for this app, virtual_keyboard keeps
	// working; one failure is under the threshold so no cooldown yet.
	cache.RecordOutcome("kate", AtspiInsert, false, false)
	cache.RecordOutcome("kate", VirtualKeyboard, true, false)

	order := cache.Rank("kate")
	require.Equal(t, VirtualKeyboard, order[0])
	require.Equal(t, AtspiInsert, order[len(order)-1])
}

func TestRankIsMemoizedUntilNextOutcome(t *testing.T) {
	cache, _ := newTestCache(t, CacheOptions{})

	first := cache.Rank("kate")
	second := cache.Rank("kate")
	require.Equal(t, first, second)

	cache.RecordOutcome("kate", AtspiInsert, false, false)
	third := cache.Rank("kate")
	require.NotEqual(t, first, third)
}

func TestCooldownRequiresConsecutiveFailures(t *testing.T) {
	cache, _ := newTestCache(t, CacheOptions{FailureThreshold: 3})

	_, cooled := cache.RecordOutcome("kate", AtspiInsert, false, false)
	require.False(t, cooled)
	_, cooled = cache.RecordOutcome("kate", AtspiInsert, false, false)
	require.False(t, cooled)
	_, cooled = cache.RecordOutcome("kate", AtspiInsert, false, false)
	require.True(t, cooled)
	require.True(t, cache.InCooldown("kate", AtspiInsert))
}

func TestFatalFailureTripsCooldownImmediately(t *testing.T) {
	cache, _ := newTestCache(t, CacheOptions{FailureThreshold: 3})

	_, cooled := cache.RecordOutcome("kate", AtspiInsert, false, true)
	require.True(t, cooled)
	require.True(t, cache.InCooldown("kate", AtspiInsert))
}

func TestCooldownIsScopedPerApplication(t *testing.T) {
	cache, _ := newTestCache(t, CacheOptions{})

	for range 3 {
		cache.RecordOutcome("kate", AtspiInsert, false, false)
	}
	require.True(t, cache.InCooldown("kate", AtspiInsert))
	require.False(t, cache.InCooldown("firefox", AtspiInsert))
	require.Equal(t, AtspiInsert, cache.Rank("firefox")[0])
}

func TestBackoffGrowsExponentiallyAndCaps(t *testing.T) {
	cache, now := newTestCache(t, CacheOptions{
		CooldownInitial:  200 * time.Millisecond,
		BackoffFactor:    2.0,
		CooldownMax:      time.Second,
		FailureThreshold: 1,
	})

	until, cooled := cache.RecordOutcome("kate", AtspiInsert, false, false)
	require.True(t, cooled)
	require.Equal(t, now.Add(200*time.Millisecond), until)

	until, _ = cache.RecordOutcome("kate", AtspiInsert, false, false)
	require.Equal(t, now.Add(400*time.Millisecond), until)

	until, _ = cache.RecordOutcome("kate", AtspiInsert, false, false)
	require.Equal(t, now.Add(800*time.Millisecond), until)

	// Fourth consecutive failure would be 1600ms; the cap bounds it.
	until, _ = cache.RecordOutcome("kate", AtspiInsert, false, false)
	require.Equal(t, now.Add(time.Second), until)
}

func TestGraceWindowResetsConsecutiveRun(t *testing.T) {
	cache, now := newTestCache(t, CacheOptions{
		FailureThreshold: 2,
		FailureGrace:     time.Minute,
	})

	_, cooled := cache.RecordOutcome("kate", AtspiInsert, false, false)
	require.False(t, cooled)

	// A failure far outside the grace window starts a fresh run.
	*now = now.Add(5 * time.Minute)
	_, cooled = cache.RecordOutcome("kate", AtspiInsert, false, false)
	require.False(t, cooled)

	*now = now.Add(time.Second)
	_, cooled = cache.RecordOutcome("kate", AtspiInsert, false, false)
	require.True(t, cooled)
}

func TestSuccessClearsCooldown(t *testing.T) {
	cache, _ := newTestCache(t, CacheOptions{FailureThreshold: 1})

	cache.RecordOutcome("kate", AtspiInsert, false, false)
	require.True(t, cache.InCooldown("kate", AtspiInsert))

	cache.RecordOutcome("kate", AtspiInsert, true, false)
	require.False(t, cache.InCooldown("kate", AtspiInsert))

	rec, ok := cache.Lookup("kate", AtspiInsert)
	require.True(t, ok)
	require.Equal(t, uint32(1), rec.SuccessCount)
	require.Equal(t, uint32(1), rec.FailCount)
}

func TestCooledMethodIsDemotedNotRemoved(t *testing.T) {
	cache, _ := newTestCache(t, CacheOptions{FailureThreshold: 1})

	cache.RecordOutcome("kate", AtspiInsert, false, false)

	order := cache.Rank("kate")
	require.Len(t, order, len(testBase))
	require.Equal(t, AtspiInsert, order[len(order)-1])
}

func TestExpiredCooldownRestoresEligibility(t *testing.T) {
	cache, now := newTestCache(t, CacheOptions{
		CooldownInitial:  100 * time.Millisecond,
		FailureThreshold: 1,
	})

	cache.RecordOutcome("kate", AtspiInsert, false, false)
	require.True(t, cache.InCooldown("kate", AtspiInsert))

	*now = now.Add(200 * time.Millisecond)
	require.False(t, cache.InCooldown("kate", AtspiInsert))
}

func TestEditorTurnsHostileMidSession(t *testing.T) {
	// An app where the preferred method worked for a while and then
	// starts failing: after the threshold it must rank behind methods
	// that still work, with an active cooldown.
	cache, _ := newTestCache(t, CacheOptions{FailureThreshold: 3})

	for range 3 {
		cache.RecordOutcome("kate", AtspiInsert, true, false)
	}
	require.Equal(t, AtspiInsert, cache.Rank("kate")[0])

	for range 3 {
		cache.RecordOutcome("kate", AtspiInsert, false, false)
	}
	cache.RecordOutcome("kate", ClipboardPasteFallback, true, false)

	order := cache.Rank("kate")
	require.Equal(t, ClipboardPasteFallback, order[0])
	require.Equal(t, AtspiInsert, order[len(order)-1])

	cd, ok := cache.Cooldown("kate", AtspiInsert)
	require.True(t, ok)
	require.Equal(t, uint32(3), cd.ConsecutiveFailures)
}

func TestModeBiasOrdersPasteShapedFirst(t *testing.T) {
	cache, _ := newTestCache(t, CacheOptions{Mode: ModePaste})

	order := cache.Rank("kate")
	require.Equal(t, AtspiPaste, order[0])
	require.Equal(t, ClipboardPasteFallback, order[1])

	typeCache, _ := newTestCache(t, CacheOptions{Mode: ModeType})
	typeOrder := typeCache.Rank("kate")
	require.Equal(t, AtspiInsert, typeOrder[0])
	require.Equal(t, VirtualKeyboard, typeOrder[1])
}

func TestSweepPurgesStaleRecordsAndBoundsMemory(t *testing.T) {
	cache, now := newTestCache(t, CacheOptions{
		TTL:              time.Hour,
		FailureThreshold: 1,
		CooldownInitial:  50 * time.Millisecond,
	})

	for i := range 100 {
		app := fmt.Sprintf("app-%d", i)
		cache.RecordOutcome(app, AtspiInsert, false, false)
		cache.RecordOutcome(app, VirtualKeyboard, true, false)
	}
	successes, cooldowns := cache.Len()
	require.Equal(t, 200, successes)
	require.Equal(t, 100, cooldowns)

	cache.Sweep(now.Add(2 * time.Hour))
	successes, cooldowns = cache.Len()
	require.Zero(t, successes)
	require.Zero(t, cooldowns)
}

func TestSweepKeepsFreshRecords(t *testing.T) {
	cache, now := newTestCache(t, CacheOptions{TTL: time.Hour})

	cache.RecordOutcome("kate", AtspiInsert, true, false)
	cache.Sweep(now.Add(30 * time.Minute))

	_, ok := cache.Lookup("kate", AtspiInsert)
	require.True(t, ok)
}

func TestSuccessRecordRateDefaultsForUnseenPairs(t *testing.T) {
	rec := SuccessRecord{}
	require.Equal(t, defaultSuccessRate, rec.Rate())

	rec = SuccessRecord{SuccessCount: 3, FailCount: 1}
	require.Equal(t, 0.75, rec.Rate())
}
