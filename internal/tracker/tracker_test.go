package tracker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"agency-cms/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testLogger() (logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.NewZapLoggerFrom(zap.New(core)), logs
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, ErrStoreUnavailable
}

func (brokenStore) Set(context.Context, string, string, time.Duration) error {
	return ErrStoreUnavailable
}

// readOnlyStore reads fine but cannot persist
type readOnlyStore struct{}

func (readOnlyStore) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (readOnlyStore) Set(context.Context, string, string, time.Duration) error {
	return ErrStoreUnavailable
}

func TestMemoryStore_TTL(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", "1", time.Hour))
	require.NoError(t, store.Set(ctx, "b", "2", 0))

	v, found, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "1", v)

	now = now.Add(time.Hour)
	_, found, _ = store.Get(ctx, "a")
	assert.False(t, found)
	_, found, _ = store.Get(ctx, "b")
	assert.True(t, found)
}

func TestIdentityResolver_StableWithinStore(t *testing.T) {
	log, _ := testLogger()
	store := NewMemoryStore()

	first := NewIdentityResolver(store, "visitor_id", 2*365*24*time.Hour, log).Resolve(context.Background())
	second := NewIdentityResolver(store, "visitor_id", 2*365*24*time.Hour, log).Resolve(context.Background())

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)

	stored, found, err := store.Get(context.Background(), "visitor_id")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, first, stored)
}

func TestIdentityResolver_StoreUnavailable(t *testing.T) {
	for name, store := range map[string]KVStore{"unreadable": brokenStore{}, "read only": readOnlyStore{}} {
		t.Run(name, func(t *testing.T) {
			log, logs := testLogger()
			r := NewIdentityResolver(store, "visitor_id", time.Hour, log)

			a := r.Resolve(context.Background())
			b := r.Resolve(context.Background())
			assert.NotEmpty(t, a)
			assert.NotEmpty(t, b)
			assert.NotEqual(t, a, b)
			assert.Equal(t, 2, logs.FilterLevelExact(zapcore.WarnLevel).Len())
		})
	}
}

func TestCollector_FailingSourceYieldsEmptyMap(t *testing.T) {
	log, logs := testLogger()
	failing := SourceFunc(func(context.Context) (map[string]string, error) {
		return nil, errors.New("access denied")
	})
	c := NewCollector(
		MapSource{"session": "abc", "theme": "dark"},
		failing,
		MapSource{"cart": "[1,2]"},
		log,
	)

	snap := c.Collect(context.Background())
	assert.Equal(t, map[string]string{"session": "abc", "theme": "dark"}, snap.Cookies)
	assert.NotNil(t, snap.LocalStorage)
	assert.Empty(t, snap.LocalStorage)
	assert.Equal(t, map[string]string{"cart": "[1,2]"}, snap.SessionStorage)
	assert.Equal(t, 1, logs.FilterMessageSnippet("localStorage").Len())
}

func TestCollector_NilSources(t *testing.T) {
	log, _ := testLogger()
	snap := NewCollector(nil, nil, nil, log).Collect(context.Background())
	assert.NotNil(t, snap.Cookies)
	assert.NotNil(t, snap.LocalStorage)
	assert.NotNil(t, snap.SessionStorage)
}

func TestFileSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"cookies": {"lang": "en"},
		"localStorage": {"token": "  spaced value  "}
	}`), 0o600))

	log, _ := testLogger()
	fs := NewFileSnapshot(path)
	snap := NewCollector(fs.Cookies(), fs.LocalStorage(), fs.SessionStorage(), log).Collect(context.Background())
	assert.Equal(t, map[string]string{"lang": "en"}, snap.Cookies)
	assert.Equal(t, "  spaced value  ", snap.LocalStorage["token"])
	assert.Empty(t, snap.SessionStorage)

	missing := NewFileSnapshot(filepath.Join(t.TempDir(), "missing.json"))
	_, err := missing.Cookies().Entries(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

type recordingSender struct {
	mu      sync.Mutex
	ids     []string
	reports []Report
	fail    bool
	calls   atomic.Int32
}

func (s *recordingSender) Send(_ context.Context, visitorID string, report Report) error {
	s.calls.Add(1)
	if s.fail {
		return errors.New("network unreachable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, visitorID)
	s.reports = append(s.reports, report)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

func TestReporter_FiresImmediatelyThenOnInterval(t *testing.T) {
	log, _ := testLogger()
	store := NewMemoryStore()
	sender := &recordingSender{}
	r := NewReporter(
		NewCollector(MapSource{"a": "1"}, MapSource{}, MapSource{}, log),
		NewIdentityResolver(store, "visitor_id", time.Hour, log),
		sender,
		log,
		WithInterval(20*time.Millisecond),
	)

	r.Start(context.Background())
	require.Eventually(t, func() bool { return sender.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	r.Stop()
	r.Wait()

	stopped := sender.count()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, stopped, sender.count())

	sender.mu.Lock()
	defer sender.mu.Unlock()
	for _, id := range sender.ids {
		assert.Equal(t, sender.ids[0], id)
	}
	assert.Equal(t, map[string]string{"a": "1"}, sender.reports[0].StorageData.Cookies)
}

func TestReporter_ReadsIdentifierEachTick(t *testing.T) {
	log, _ := testLogger()
	store := NewMemoryStore()
	sender := &recordingSender{}
	r := NewReporter(
		NewCollector(nil, nil, nil, log),
		NewIdentityResolver(store, "visitor_id", time.Hour, log),
		sender,
		log,
		WithInterval(20*time.Millisecond),
	)

	r.Start(context.Background())
	require.Eventually(t, func() bool { return sender.count() >= 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, store.Set(context.Background(), "visitor_id", "replaced", time.Hour))
	require.Eventually(t, func() bool {
		sender.mu.Lock()
		defer sender.mu.Unlock()
		return sender.ids[len(sender.ids)-1] == "replaced"
	}, 2*time.Second, 5*time.Millisecond)
	r.Stop()
	r.Wait()
}

func TestReporter_FailuresDoNotStopSchedule(t *testing.T) {
	log, logs := testLogger()
	sender := &recordingSender{fail: true}
	r := NewReporter(
		NewCollector(nil, nil, nil, log),
		NewIdentityResolver(NewMemoryStore(), "visitor_id", time.Hour, log),
		sender,
		log,
		WithInterval(10*time.Millisecond),
	)

	r.Start(context.Background())
	require.Eventually(t, func() bool { return sender.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	r.Stop()
	r.Wait()

	assert.GreaterOrEqual(t, logs.FilterMessageSnippet("Storage report failed").Len(), 3)
}

func TestReporter_FirstReportIsImmediate(t *testing.T) {
	log, _ := testLogger()
	sender := &recordingSender{}
	r := NewReporter(
		NewCollector(nil, nil, nil, log),
		NewIdentityResolver(NewMemoryStore(), "visitor_id", time.Hour, log),
		sender,
		log,
		WithInterval(time.Hour),
	)

	r.Start(context.Background())
	defer r.Stop()
	require.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestReporter_StartStopIdempotent(t *testing.T) {
	log, _ := testLogger()
	sender := &recordingSender{}
	r := NewReporter(
		NewCollector(nil, nil, nil, log),
		NewIdentityResolver(NewMemoryStore(), "visitor_id", time.Hour, log),
		sender,
		log,
		WithInterval(time.Hour),
	)

	r.Stop()
	r.Start(context.Background())
	r.Start(context.Background())
	r.Stop()
	r.Stop()
	r.Wait()
	assert.Equal(t, 1, sender.count())
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{Endpoint: "http://localhost/api/track/storage", Interval: time.Second, CookieName: "visitor_id"}
	assert.NoError(t, cfg.Validate())

	cfg.Interval = 0
	assert.Error(t, cfg.Validate())
}
