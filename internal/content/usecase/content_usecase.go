package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"agency-cms/internal/content/domain/model"
	"agency-cms/internal/content/domain/repository"
	apperrors "agency-cms/internal/shared/errors"
	"agency-cms/internal/shared/eventbus"
	"agency-cms/internal/shared/logger"
	"agency-cms/internal/shared/slug"
	"agency-cms/internal/shared/validation"
	"agency-cms/internal/shared/web"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContentUsecaseInterface defines query and admin mutation use cases for one
// content type
type ContentUsecaseInterface[T model.Document] interface {
	Descriptor() model.Descriptor
	List(ctx context.Context, req ListRequest) (*ListResponse[T], error)
	Get(ctx context.Context, id string, includeInactive bool) (T, error)
	GetBySlug(ctx context.Context, slug string, includeInactive bool) (T, error)
	Create(ctx context.Context, doc T) (T, error)
	Update(ctx context.Context, id string, apply func(T) error) (T, error)
	Delete(ctx context.Context, id string, hard bool) error
	Reorder(ctx context.Context, ids []string) error
}

// ListRequest carries the list filters. Public requests only ever see active
// and, where the entity has a draft state, published documents;
// IncludeInactive is set for authenticated admins.
type ListRequest struct {
	IncludeInactive bool
	Active          *bool
	Category        string
	Featured        *bool
	Tag             string
	Search          string
	SortBy          string
	SortDesc        bool
	Page            web.Page
}

func (r ListRequest) cacheKey() string {
	b := func(p *bool) string {
		if p == nil {
			return "-"
		}
		return fmt.Sprint(*p)
	}
	return fmt.Sprintf("list:c=%s:f=%s:t=%s:q=%s:s=%s:d=%t:p=%d:l=%d",
		r.Category, b(r.Featured), r.Tag, strings.ToLower(r.Search), r.SortBy, r.SortDesc, r.Page.Page, r.Page.Limit)
}

// ListResponse is a page of documents
type ListResponse[T model.Document] struct {
	Items      []T            `json:"items"`
	Pagination web.Pagination `json:"pagination"`
}

// ContentUsecase implements ContentUsecaseInterface
type ContentUsecase[T model.Document] struct {
	repo   repository.ContentRepository[T]
	cache  repository.Cache
	bus    eventbus.EventBusInterface
	desc   model.Descriptor
	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

// Option customizes a ContentUsecase
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces the ObjectID hex generator
func WithIDGenerator(gen func() string) Option {
	return func(o *options) { o.newID = gen }
}

// NewContentUsecase creates a usecase. cache and bus may be nil.
func NewContentUsecase[T model.Document](repo repository.ContentRepository[T], cache repository.Cache, bus eventbus.EventBusInterface, log logger.Logger, opts ...Option) *ContentUsecase[T] {
	o := options{
		now:   time.Now,
		newID: func() string { return primitive.NewObjectID().Hex() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	desc := repo.Descriptor()
	return &ContentUsecase[T]{
		repo:   repo,
		cache:  cache,
		bus:    bus,
		desc:   desc,
		logger: log.WithComponent("content").WithFields(map[string]interface{}{"collection": desc.Name}),
		now:    o.now,
		newID:  o.newID,
	}
}

func (uc *ContentUsecase[T]) Descriptor() model.Descriptor {
	return uc.desc
}

func (uc *ContentUsecase[T]) clock() time.Time {
	return uc.now().UTC().Truncate(time.Millisecond)
}

// changed drops cached queries and notifies subscribers
func (uc *ContentUsecase[T]) changed(ctx context.Context, action, id string) {
	if uc.cache != nil {
		uc.cache.Invalidate(ctx, uc.desc.Name)
	}
	if uc.bus != nil {
		uc.bus.PublishAndForget(ctx, eventbus.NewBasicEvent(eventbus.EventTypeContentChanged, map[string]string{
			"collection": uc.desc.Name,
			"action":     action,
			"id":         id,
		}, "content"))
	}
}

// List returns one page of documents. Public queries are served from the
// cache when one is configured.
func (uc *ContentUsecase[T]) List(ctx context.Context, req ListRequest) (*ListResponse[T], error) {
	req.Page = web.ClampPage(req.Page.Page, req.Page.Limit)
	req.Search = strings.TrimSpace(req.Search)

	query := repository.ListQuery{
		Active:   req.Active,
		Category: req.Category,
		Featured: req.Featured,
		Tag:      req.Tag,
		Search:   req.Search,
		SortBy:   req.SortBy,
		SortDesc: req.SortDesc,
		Skip:     req.Page.Skip(),
		Limit:    int64(req.Page.Limit),
	}

	public := !req.IncludeInactive
	// generation seen before querying, so a concurrent invalidation is not
	// overwritten by this result
	gen := int64(-1)
	if public {
		yes := true
		query.Active = &yes
		if uc.desc.PublishedField != "" {
			query.Published = &yes
		}
		cached, g, hit := uc.cachedList(ctx, req)
		if hit {
			return cached, nil
		}
		gen = g
	}

	items, total, err := uc.repo.List(ctx, query)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}

	resp := &ListResponse[T]{Items: items, Pagination: web.NewPagination(total, req.Page)}
	if public && uc.cache != nil {
		if raw, err := json.Marshal(resp); err == nil {
			uc.cache.Set(ctx, uc.desc.Name, gen, req.cacheKey(), raw)
		}
	}
	return resp, nil
}

func (uc *ContentUsecase[T]) cachedList(ctx context.Context, req ListRequest) (*ListResponse[T], int64, bool) {
	if uc.cache == nil {
		return nil, -1, false
	}
	raw, gen, ok := uc.cache.Get(ctx, uc.desc.Name, req.cacheKey())
	if !ok {
		return nil, gen, false
	}
	var resp ListResponse[T]
	if err := json.Unmarshal(raw, &resp); err != nil {
		uc.logger.Warnf("Discarding unreadable cache entry: %v", err)
		return nil, gen, false
	}
	return &resp, gen, true
}

func (uc *ContentUsecase[T]) visible(doc T, err error, includeInactive bool) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if includeInactive {
		return doc, nil
	}
	if !doc.GetBase().IsActive {
		return zero, apperrors.NewNotFoundError(uc.desc.Resource)
	}
	if p, ok := any(doc).(model.Publishable); ok && !p.Published() {
		return zero, apperrors.NewNotFoundError(uc.desc.Resource)
	}
	return doc, nil
}

// Get returns a document by id; inactive and unpublished documents are hidden
// from the public
func (uc *ContentUsecase[T]) Get(ctx context.Context, id string, includeInactive bool) (T, error) {
	doc, err := uc.repo.GetByID(ctx, id)
	return uc.visible(doc, err, includeInactive)
}

// GetBySlug returns a document by slug
func (uc *ContentUsecase[T]) GetBySlug(ctx context.Context, s string, includeInactive bool) (T, error) {
	if !uc.desc.HasSlug {
		var zero T
		return zero, apperrors.NewNotFoundError(uc.desc.Resource)
	}
	doc, err := uc.repo.GetBySlug(ctx, s)
	return uc.visible(doc, err, includeInactive)
}

// prepare derives the slug, validates the payload and rejects duplicate slugs
func (uc *ContentUsecase[T]) prepare(ctx context.Context, doc T, id string) error {
	if s, ok := any(doc).(model.Sluggable); ok {
		if strings.TrimSpace(s.GetSlug()) == "" {
			s.SetSlug(slug.Make(s.SlugSource()))
		} else {
			s.SetSlug(strings.TrimSpace(s.GetSlug()))
		}
	}

	if err := validation.Struct(doc); err != nil {
		return err
	}

	if s, ok := any(doc).(model.Sluggable); ok {
		if s.GetSlug() == "" {
			return apperrors.NewValidationError("slug could not be derived from the title")
		}
		exists, err := uc.repo.SlugExists(ctx, s.GetSlug(), id)
		if err != nil {
			return err
		}
		if exists {
			return apperrors.NewConflictError(fmt.Sprintf("%s with slug %q already exists", uc.desc.Resource, s.GetSlug())).
				WithCause(apperrors.ErrDuplicateSlug)
		}
	}
	return nil
}

// Create stores a new document. Services take the next sequence of their
// collection.
func (uc *ContentUsecase[T]) Create(ctx context.Context, doc T) (T, error) {
	var zero T
	if err := uc.prepare(ctx, doc, ""); err != nil {
		return zero, err
	}

	if seq, ok := any(doc).(model.Sequenced); ok && uc.desc.Sequenced {
		next, err := uc.repo.NextSequence(ctx)
		if err != nil {
			return zero, err
		}
		seq.SetSequence(next)
	}

	now := uc.clock()
	if p, ok := any(doc).(model.Publishable); ok && p.Published() {
		p.StampPublished(now)
	}
	base := doc.GetBase()
	base.ID = uc.newID()
	base.CreatedAt = now
	base.UpdatedAt = now

	if err := uc.repo.Create(ctx, doc); err != nil {
		return zero, err
	}

	uc.logger.WithContext(ctx).Infof("Created %s %s", uc.desc.Resource, base.ID)
	uc.changed(ctx, "created", base.ID)
	return doc, nil
}

// Update loads the document, lets apply overwrite fields from the request and
// stores the result. id and createdAt cannot be changed.
func (uc *ContentUsecase[T]) Update(ctx context.Context, id string, apply func(T) error) (T, error) {
	var zero T
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return zero, err
	}
	createdAt := doc.GetBase().CreatedAt

	if err := apply(doc); err != nil {
		return zero, err
	}

	base := doc.GetBase()
	base.ID = id
	base.CreatedAt = createdAt
	base.UpdatedAt = uc.clock()
	if p, ok := any(doc).(model.Publishable); ok && p.Published() {
		p.StampPublished(base.UpdatedAt)
	}

	if err := uc.prepare(ctx, doc, id); err != nil {
		return zero, err
	}
	if err := uc.repo.Update(ctx, doc); err != nil {
		return zero, err
	}

	uc.changed(ctx, "updated", id)
	return doc, nil
}

// Delete deactivates the document, or removes it when hard is set
func (uc *ContentUsecase[T]) Delete(ctx context.Context, id string, hard bool) error {
	var err error
	if hard {
		err = uc.repo.Delete(ctx, id)
	} else {
		err = uc.repo.SetActive(ctx, id, false, uc.clock())
	}
	if err != nil {
		return err
	}

	uc.logger.WithContext(ctx).Infof("Deleted %s %s (hard=%t)", uc.desc.Resource, id, hard)
	uc.changed(ctx, "deleted", id)
	return nil
}

// Reorder assigns the order field by position in ids
func (uc *ContentUsecase[T]) Reorder(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return apperrors.NewValidationError("ids is required")
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			return apperrors.NewValidationError("ids must be unique and non-empty")
		}
		seen[id] = true
	}

	if err := uc.repo.SetOrder(ctx, ids, uc.clock()); err != nil {
		return err
	}
	uc.changed(ctx, "reordered", "")
	return nil
}

// Section is the type-erased view of a content usecase used to assemble page
// payloads
type Section interface {
	Descriptor() model.Descriptor
	ListActive(ctx context.Context, limit int, featuredOnly bool) (interface{}, error)
}

// ListActive returns up to limit active documents in display order
func (uc *ContentUsecase[T]) ListActive(ctx context.Context, limit int, featuredOnly bool) (interface{}, error) {
	req := ListRequest{Page: web.Page{Page: 1, Limit: limit}}
	if featuredOnly && uc.desc.HasFeatured {
		featured := true
		req.Featured = &featured
	}
	resp, err := uc.List(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}
