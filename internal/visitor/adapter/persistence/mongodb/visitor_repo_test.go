package mongodb_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	apperrors "agency-cms/internal/shared/errors"
	visitormongo "agency-cms/internal/visitor/adapter/persistence/mongodb"
	"agency-cms/internal/visitor/domain/model"
	"agency-cms/internal/visitor/domain/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func newTestRepo(t *testing.T) *visitormongo.MongoVisitorRepository {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(time.Second))
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("MongoDB not available: %v", err)
	}

	db := client.Database("agency_cms_visitor_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	repo, err := visitormongo.NewMongoVisitorRepository(context.Background(), db)
	require.NoError(t, err)
	return repo
}

func snapshot(cookies map[string]string) model.StorageSnapshot {
	return model.StorageSnapshot{Cookies: cookies, LocalStorage: map[string]string{}, SessionStorage: map[string]string{}}
}

func TestUpsert_CreateThenReplaceSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	first := time.Now().UTC().Truncate(time.Millisecond)

	created, err := repo.Upsert(ctx, model.Report{
		VisitorID: "v-1",
		Snapshot:  snapshot(map[string]string{"a": "1", "b": "2"}),
		Metadata:  model.Metadata{Referrer: "https://google.com", Device: &model.DeviceInfo{Type: "desktop"}},
		At:        first,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.VisitCount)
	assert.Equal(t, model.StatusNew, created.Status)
	assert.True(t, created.FirstVisit.Equal(created.LastVisit))
	assert.Equal(t, "https://google.com", created.Referrer)
	assert.NotNil(t, created.PagesVisited)

	second := first.Add(time.Second)
	updated, err := repo.Upsert(ctx, model.Report{
		VisitorID: "v-1",
		Snapshot:  snapshot(map[string]string{"c": "3"}),
		Metadata:  model.Metadata{Referrer: "https://ignored.example"},
		At:        second,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.VisitCount)
	assert.Equal(t, map[string]string{"c": "3"}, updated.RawStorageData.Cookies)
	assert.True(t, updated.LastVisit.After(updated.FirstVisit))
	assert.True(t, updated.FirstVisit.Equal(first))
	assert.Equal(t, "https://google.com", updated.Referrer)
}

func TestUpsert_ConcurrentReportsCountExactly(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const reports = 25
	var wg sync.WaitGroup
	for i := 0; i < reports; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Upsert(ctx, model.Report{VisitorID: "busy", Snapshot: snapshot(nil), At: time.Now().UTC()})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	record, err := repo.GetByVisitorID(ctx, "busy")
	require.NoError(t, err)
	assert.Equal(t, int64(reports), record.VisitCount)
}

func TestAppendPageVisit_AndContactAndStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	rec, err := repo.AppendPageVisit(ctx, "v-2", model.PageVisit{Path: "/services", Title: "Services", VisitedAt: now, TimeSpent: 12}, model.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.VisitCount)
	require.Len(t, rec.PagesVisited, 1)

	rec, err = repo.AppendPageVisit(ctx, "v-2", model.PageVisit{Path: "/contact", VisitedAt: now.Add(time.Second)}, model.Metadata{})
	require.NoError(t, err)
	require.Len(t, rec.PagesVisited, 2)
	assert.Equal(t, "/contact", rec.PagesVisited[1].Path)

	rec, err = repo.SetContactInfo(ctx, "v-2", model.ContactInfo{Name: "Ada", Email: "ada@example.com"}, now)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", rec.ContactInfo.Email)

	rec, err = repo.UpdateStatus(ctx, "v-2", model.StatusContacted, now)
	require.NoError(t, err)
	assert.Equal(t, model.StatusContacted, rec.Status)

	_, err = repo.UpdateStatus(ctx, "nobody", model.StatusContacted, now)
	assert.ErrorIs(t, err, apperrors.ErrVisitorNotFound)
}

func TestListStatsDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i, id := range []string{"a", "b", "c"} {
		_, err := repo.Upsert(ctx, model.Report{VisitorID: id, Snapshot: snapshot(nil), At: now.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}
	_, err := repo.UpdateStatus(ctx, "b", model.StatusConverted, now)
	require.NoError(t, err)
	_, err = repo.SetContactInfo(ctx, "c", model.ContactInfo{Email: "c@example.com"}, now)
	require.NoError(t, err)

	items, total, err := repo.List(ctx, repository.ListQuery{SortBy: "lastVisit", SortDesc: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[0].VisitorID)

	items, total, err = repo.List(ctx, repository.ListQuery{Status: model.StatusConverted})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "b", items[0].VisitorID)

	items, _, err = repo.List(ctx, repository.ListQuery{Search: "C@EXAMPLE"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	stats, err := repo.Stats(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.ByStatus[model.StatusNew])
	assert.Equal(t, int64(1), stats.ByStatus[model.StatusConverted])
	assert.Equal(t, int64(0), stats.ByStatus[model.StatusRejected])
	assert.Equal(t, int64(1), stats.Identified)
	assert.Equal(t, int64(3), stats.ActiveLast24)

	require.NoError(t, repo.Delete(ctx, "a"))
	assert.ErrorIs(t, repo.Delete(ctx, "a"), apperrors.ErrVisitorNotFound)
}
