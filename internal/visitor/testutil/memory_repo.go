// Package testutil provides an in-memory VisitorRepository with the same
// per-record atomicity as the MongoDB implementation.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "agency-cms/internal/shared/errors"
	"agency-cms/internal/visitor/domain/model"
	"agency-cms/internal/visitor/domain/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryVisitorRepository keeps records in a map guarded by a mutex
type MemoryVisitorRepository struct {
	mu      sync.Mutex
	records map[string]*model.VisitorRecord
	// Err, when set, is returned by every call
	Err error
}

func NewMemoryVisitorRepository() *MemoryVisitorRepository {
	return &MemoryVisitorRepository{records: map[string]*model.VisitorRecord{}}
}

func cloneMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func clone(r *model.VisitorRecord) *model.VisitorRecord {
	out := *r
	out.PagesVisited = append([]model.PageVisit{}, r.PagesVisited...)
	out.RawStorageData = model.StorageSnapshot{
		Cookies:        cloneMap(r.RawStorageData.Cookies),
		LocalStorage:   cloneMap(r.RawStorageData.LocalStorage),
		SessionStorage: cloneMap(r.RawStorageData.SessionStorage),
	}
	if r.ContactInfo != nil {
		ci := *r.ContactInfo
		out.ContactInfo = &ci
	}
	return &out
}

func (m *MemoryVisitorRepository) create(visitorID string, meta model.Metadata, at time.Time) *model.VisitorRecord {
	rec := &model.VisitorRecord{
		ID:             primitive.NewObjectID(),
		VisitorID:      visitorID,
		FirstVisit:     at,
		LastVisit:      at,
		PagesVisited:   []model.PageVisit{},
		Device:         meta.Device,
		Referrer:       meta.Referrer,
		RawStorageData: model.StorageSnapshot{}.Normalize(),
		Status:         model.StatusNew,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
	if !meta.Location.IsZero() {
		rec.Location = meta.Location
	}
	m.records[visitorID] = rec
	return rec
}

func (m *MemoryVisitorRepository) Upsert(ctx context.Context, report model.Report) (*model.VisitorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	rec, ok := m.records[report.VisitorID]
	if !ok {
		rec = m.create(report.VisitorID, report.Metadata, report.At)
	}
	snap := report.Snapshot.Normalize()
	rec.RawStorageData = model.StorageSnapshot{
		Cookies:        cloneMap(snap.Cookies),
		LocalStorage:   cloneMap(snap.LocalStorage),
		SessionStorage: cloneMap(snap.SessionStorage),
	}
	rec.LastVisit = report.At
	rec.UpdatedAt = report.At
	rec.VisitCount++
	if report.ClientTimestamp != nil {
		ts := *report.ClientTimestamp
		rec.LastReportedAt = &ts
	}
	return clone(rec), nil
}

func (m *MemoryVisitorRepository) AppendPageVisit(ctx context.Context, visitorID string, visit model.PageVisit, meta model.Metadata) (*model.VisitorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	rec, ok := m.records[visitorID]
	if !ok {
		rec = m.create(visitorID, meta, visit.VisitedAt)
	}
	rec.PagesVisited = append(rec.PagesVisited, visit)
	rec.LastVisit = visit.VisitedAt
	rec.UpdatedAt = visit.VisitedAt
	return clone(rec), nil
}

func (m *MemoryVisitorRepository) mutate(visitorID string, fn func(*model.VisitorRecord)) (*model.VisitorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	rec, ok := m.records[visitorID]
	if !ok {
		return nil, apperrors.ErrVisitorNotFound
	}
	fn(rec)
	return clone(rec), nil
}

func (m *MemoryVisitorRepository) SetContactInfo(ctx context.Context, visitorID string, info model.ContactInfo, at time.Time) (*model.VisitorRecord, error) {
	return m.mutate(visitorID, func(r *model.VisitorRecord) {
		r.ContactInfo = &info
		r.UpdatedAt = at
	})
}

func (m *MemoryVisitorRepository) UpdateStatus(ctx context.Context, visitorID string, status model.Status, at time.Time) (*model.VisitorRecord, error) {
	return m.mutate(visitorID, func(r *model.VisitorRecord) {
		r.Status = status
		r.UpdatedAt = at
	})
}

func (m *MemoryVisitorRepository) GetByVisitorID(ctx context.Context, visitorID string) (*model.VisitorRecord, error) {
	return m.mutate(visitorID, func(*model.VisitorRecord) {})
}

func matches(r *model.VisitorRecord, q repository.ListQuery) bool {
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.Search == "" {
		return true
	}
	needle := strings.ToLower(q.Search)
	hay := []string{r.VisitorID}
	if r.ContactInfo != nil {
		hay = append(hay, r.ContactInfo.Name, r.ContactInfo.Email)
	}
	for _, h := range hay {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

func less(a, b *model.VisitorRecord, field string) bool {
	switch field {
	case "firstVisit":
		return a.FirstVisit.Before(b.FirstVisit)
	case "visitCount":
		return a.VisitCount < b.VisitCount
	case "createdAt":
		return a.CreatedAt.Before(b.CreatedAt)
	case "status":
		return a.Status < b.Status
	default:
		return a.LastVisit.Before(b.LastVisit)
	}
}

func (m *MemoryVisitorRepository) List(ctx context.Context, q repository.ListQuery) ([]model.VisitorRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}

	var all []*model.VisitorRecord
	for _, r := range m.records {
		if matches(r, q) {
			all = append(all, r)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if q.SortDesc {
			return less(all[j], all[i], q.SortBy)
		}
		return less(all[i], all[j], q.SortBy)
	})

	total := int64(len(all))
	start := q.Skip
	if start > total {
		start = total
	}
	end := total
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}

	out := make([]model.VisitorRecord, 0, end-start)
	for _, r := range all[start:end] {
		out = append(out, *clone(r))
	}
	return out, total, nil
}

func (m *MemoryVisitorRepository) Delete(ctx context.Context, visitorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.records[visitorID]; !ok {
		return apperrors.ErrVisitorNotFound
	}
	delete(m.records, visitorID)
	return nil
}

func (m *MemoryVisitorRepository) Stats(ctx context.Context, since time.Time) (*model.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	stats := &model.Stats{ByStatus: map[model.Status]int64{}}
	for _, s := range model.Statuses {
		stats.ByStatus[s] = 0
	}
	for _, r := range m.records {
		stats.Total++
		stats.ByStatus[r.Status]++
		if r.ContactInfo != nil && r.ContactInfo.Email != "" {
			stats.Identified++
		}
		if !r.LastVisit.Before(since) {
			stats.ActiveLast24++
		}
	}
	return stats, nil
}

var _ repository.VisitorRepository = (*MemoryVisitorRepository)(nil)
