// Package testutil provides an in-memory ContentRepository and cache. Documents
// are stored as BSON so filters and sorts see the same field names as MongoDB.
package testutil

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"agency-cms/internal/content/domain/model"
	"agency-cms/internal/content/domain/repository"
	apperrors "agency-cms/internal/shared/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryContentRepository implements repository.ContentRepository in memory
type MemoryContentRepository[T model.Document] struct {
	mu      sync.Mutex
	desc    model.Descriptor
	docs    map[string]bson.M
	nextSeq int
	// Err, when set, is returned by every call
	Err error
}

func NewMemoryContentRepository[T model.Document](desc model.Descriptor) *MemoryContentRepository[T] {
	return &MemoryContentRepository[T]{desc: desc, docs: map[string]bson.M{}}
}

func toM(doc interface{}) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m bson.M
	return m, bson.Unmarshal(raw, &m)
}

func fromM[T model.Document](m bson.M) (T, error) {
	var out T
	raw, err := bson.Marshal(m)
	if err != nil {
		return out, err
	}
	return out, bson.Unmarshal(raw, &out)
}

func (r *MemoryContentRepository[T]) Descriptor() model.Descriptor { return r.desc }

func (r *MemoryContentRepository[T]) notFound() error {
	return apperrors.NewNotFoundError(r.desc.Resource).WithCause(apperrors.ErrDocumentNotFound)
}

func contains(arr interface{}, v string) bool {
	a, ok := arr.(bson.A)
	if !ok {
		return false
	}
	for _, item := range a {
		if item == v {
			return true
		}
	}
	return false
}

func (r *MemoryContentRepository[T]) matches(m bson.M, q repository.ListQuery) bool {
	if q.Active != nil && m["isActive"] != *q.Active {
		return false
	}
	if q.Category != "" && r.desc.HasCategory && m["category"] != q.Category {
		return false
	}
	if q.Featured != nil && r.desc.HasFeatured && m["isFeatured"] != *q.Featured {
		return false
	}
	if q.Published != nil && r.desc.PublishedField != "" && m[r.desc.PublishedField] != *q.Published {
		return false
	}
	if q.Tag != "" && r.desc.TagsField != "" && !contains(m[r.desc.TagsField], q.Tag) {
		return false
	}
	if q.Search != "" {
		title, _ := m[r.desc.TitleField].(string)
		if !regexp.MustCompile("(?i)" + regexp.QuoteMeta(q.Search)).MatchString(title) {
			return false
		}
	}
	return true
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case primitive.DateTime:
		return float64(n), true
	}
	return 0, false
}

func compare(a, b interface{}) int {
	if an, ok := number(a); ok {
		bn, _ := number(b)
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	}
	if as, ok := a.(string); ok {
		bs, _ := b.(string)
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		}
		return 0
	}
	if a == nil && b != nil {
		return -1
	}
	if a != nil && b == nil {
		return 1
	}
	return 0
}

func (r *MemoryContentRepository[T]) List(ctx context.Context, q repository.ListQuery) ([]T, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, 0, r.Err
	}

	var all []bson.M
	for _, m := range r.docs {
		if r.matches(m, q) {
			all = append(all, m)
		}
	}

	field := r.desc.OrderField
	for _, s := range r.desc.SortFields {
		if s == q.SortBy {
			field = s
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		c := compare(all[i][field], all[j][field])
		if q.SortDesc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		if c = compare(all[i]["createdAt"], all[j]["createdAt"]); c != 0 {
			return c > 0
		}
		return compare(all[i]["_id"], all[j]["_id"]) < 0
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

	out := make([]T, 0, end-start)
	for _, m := range all[start:end] {
		doc, err := fromM[T](m)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, doc)
	}
	return out, total, nil
}

func (r *MemoryContentRepository[T]) find(pred func(bson.M) bool) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	if r.Err != nil {
		return zero, r.Err
	}
	for _, m := range r.docs {
		if pred(m) {
			return fromM[T](m)
		}
	}
	return zero, r.notFound()
}

func (r *MemoryContentRepository[T]) GetByID(ctx context.Context, id string) (T, error) {
	return r.find(func(m bson.M) bool { return m["_id"] == id })
}

func (r *MemoryContentRepository[T]) GetBySlug(ctx context.Context, slug string) (T, error) {
	return r.find(func(m bson.M) bool { return m["slug"] == slug })
}

func (r *MemoryContentRepository[T]) SlugExists(ctx context.Context, slug string, excludeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	for id, m := range r.docs {
		if id != excludeID && m["slug"] == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryContentRepository[T]) NextSequence(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	next := r.nextSeq
	for _, m := range r.docs {
		if seq, ok := number(m["sequence"]); ok && int(seq) >= next {
			next = int(seq) + 1
		}
	}
	r.nextSeq = next + 1
	return next, nil
}

func (r *MemoryContentRepository[T]) Create(ctx context.Context, doc T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	m, err := toM(doc)
	if err != nil {
		return err
	}
	id := doc.GetBase().ID
	if _, exists := r.docs[id]; exists {
		return fmt.Errorf("duplicate id %s", id)
	}
	r.docs[id] = m
	return nil
}

func (r *MemoryContentRepository[T]) Update(ctx context.Context, doc T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	id := doc.GetBase().ID
	old, ok := r.docs[id]
	if !ok {
		return apperrors.NewNotFoundError(r.desc.Resource)
	}
	m, err := toM(doc)
	if err != nil {
		return err
	}
	m["createdAt"] = old["createdAt"]
	r.docs[id] = m
	return nil
}

func (r *MemoryContentRepository[T]) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	m, ok := r.docs[id]
	if !ok {
		return apperrors.NewNotFoundError(r.desc.Resource)
	}
	m["isActive"] = active
	m["updatedAt"] = primitive.NewDateTimeFromTime(at)
	return nil
}

func (r *MemoryContentRepository[T]) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.docs[id]; !ok {
		return apperrors.NewNotFoundError(r.desc.Resource)
	}
	delete(r.docs, id)
	return nil
}

func (r *MemoryContentRepository[T]) SetOrder(ctx context.Context, ids []string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, id := range ids {
		if _, ok := r.docs[id]; !ok {
			return r.notFound()
		}
	}
	for i, id := range ids {
		m := r.docs[id]
		m[r.desc.OrderField] = int32(i)
		m["updatedAt"] = primitive.NewDateTimeFromTime(at)
	}
	return nil
}

// MemoryCache is a map-backed repository.Cache that counts hits
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gens    map[string]int64
	Hits    int
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string][]byte{}, gens: map[string]int64{}}
}

func (c *MemoryCache) Get(ctx context.Context, collection, key string) ([]byte, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[collection+"|"+key]
	if ok {
		c.Hits++
	}
	return v, c.gens[collection], ok
}

// Set ignores writes made against an invalidated generation
func (c *MemoryCache) Set(ctx context.Context, collection string, gen int64, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen < 0 || gen != c.gens[collection] {
		return
	}
	c.entries[collection+"|"+key] = value
}

func (c *MemoryCache) Invalidate(ctx context.Context, collection string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[collection]++
	for k := range c.entries {
		if strings.HasPrefix(k, collection+"|") {
			delete(c.entries, k)
		}
	}
}

var (
	_ repository.ContentRepository[*model.Service] = (*MemoryContentRepository[*model.Service])(nil)
	_ repository.Cache                             = (*MemoryCache)(nil)
)
