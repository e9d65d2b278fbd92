package focus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	status      Status
	statusErr   error
	app         App
	appErr      error
	statusCalls int
	appCalls    int
}

func (p *countingProvider) Status(context.Context) (Status, error) {
	p.statusCalls++
	return p.status, p.statusErr
}

func (p *countingProvider) ActiveApp(context.Context) (App, error) {
	p.appCalls++
	return p.app, p.appErr
}

func (p *countingProvider) TextChanges(context.Context) (<-chan ChangeEvent, func(), error) {
	return nil, nil, ErrNoEventStream
}

func TestCachedProviderServesFreshValuesFromCache(t *testing.T) {
	inner := &countingProvider{status: StatusEditable, app: App{ID: "kate", Resolved: true}}
	cached := NewCachedProvider(inner, 200*time.Millisecond)

	now := time.Now()
	cached.setNow(func() time.Time { return now })

	for range 3 {
		status, err := cached.Status(t.Context())
		require.NoError(t, err)
		require.Equal(t, StatusEditable, status)

		app, err := cached.ActiveApp(t.Context())
		require.NoError(t, err)
		require.Equal(t, "kate", app.ID)
	}

	require.Equal(t, 1, inner.statusCalls)
	require.Equal(t, 1, inner.appCalls)
}

func TestCachedProviderExpiresAfterTTL(t *testing.T) {
	inner := &countingProvider{status: StatusEditable}
	cached := NewCachedProvider(inner, 200*time.Millisecond)

	now := time.Now()
	cached.setNow(func() time.Time { return now })

	_, err := cached.Status(t.Context())
	require.NoError(t, err)

	now = now.Add(201 * time.Millisecond)
	_, err = cached.Status(t.Context())
	require.NoError(t, err)

	require.Equal(t, 2, inner.statusCalls)
}

func TestCachedProviderCachesAppDetectionFailures(t *testing.T) {
	inner := &countingProvider{appErr: errors.New("hyprctl missing")}
	cached := NewCachedProvider(inner, 200*time.Millisecond)

	now := time.Now()
	cached.setNow(func() time.Time { return now })

	for range 3 {
		_, err := cached.ActiveApp(t.Context())
		require.Error(t, err)
	}
	require.Equal(t, 1, inner.appCalls)
}

func TestCachedProviderDoesNotCacheStatusErrors(t *testing.T) {
	inner := &countingProvider{statusErr: errors.New("bus down")}
	cached := NewCachedProvider(inner, 200*time.Millisecond)

	for range 2 {
		_, err := cached.Status(t.Context())
		require.Error(t, err)
	}
	require.Equal(t, 2, inner.statusCalls)
}

func TestCachedProviderInvalidateForcesRefresh(t *testing.T) {
	inner := &countingProvider{status: StatusEditable, app: App{ID: "kate", Resolved: true}}
	cached := NewCachedProvider(inner, time.Hour)

	_, err := cached.Status(t.Context())
	require.NoError(t, err)
	_, err = cached.ActiveApp(t.Context())
	require.NoError(t, err)

	cached.Invalidate()

	_, err = cached.Status(t.Context())
	require.NoError(t, err)
	_, err = cached.ActiveApp(t.Context())
	require.NoError(t, err)

	require.Equal(t, 2, inner.statusCalls)
	require.Equal(t, 2, inner.appCalls)
}

func TestAppBucketID(t *testing.T) {
	require.Equal(t, "kate", App{ID: "kate", Resolved: true}.BucketID())
	require.Equal(t, UnresolvedAppID, App{ID: "kate"}.BucketID())
	require.Equal(t, UnresolvedAppID, App{Resolved: true}.BucketID())
	require.Equal(t, UnresolvedAppID, App{}.BucketID())
}
