package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"agency-cms/internal/content/domain/model"
	"agency-cms/internal/content/domain/repository"
	"agency-cms/internal/content/testutil"
	"agency-cms/internal/content/usecase"
	apperrors "agency-cms/internal/shared/errors"
	"agency-cms/internal/shared/eventbus"
	"agency-cms/internal/shared/web"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ServiceUsecaseTestSuite struct {
	suite.Suite
	repo  *testutil.MemoryContentRepository[*model.Service]
	cache *testutil.MemoryCache
	uc    *usecase.ContentUsecase[*model.Service]
	now   time.Time
	ctx   context.Context
}

func (suite *ServiceUsecaseTestSuite) SetupTest() {
	suite.repo = testutil.NewMemoryContentRepository[*model.Service](model.ServiceDescriptor)
	suite.cache = testutil.NewMemoryCache()
	suite.now = time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	suite.ctx = context.Background()
	suite.uc = usecase.NewContentUsecase[*model.Service](suite.repo, suite.cache, nil, eventbus.NoopLogger(),
		usecase.WithClock(func() time.Time { return suite.now }))
}

func (suite *ServiceUsecaseTestSuite) create(title string) *model.Service {
	svc, err := suite.uc.Create(suite.ctx, &model.Service{
		Base:        model.Base{IsActive: true},
		Title:       title,
		Description: "What we do",
	})
	require.NoError(suite.T(), err)
	suite.now = suite.now.Add(time.Second)
	return svc
}

func (suite *ServiceUsecaseTestSuite) TestCreate_DerivesSlugAndSequence() {
	first := suite.create("My New Service!!")
	assert.Equal(suite.T(), "my-new-service", first.Slug)
	assert.Equal(suite.T(), 0, first.Sequence)
	assert.NotEmpty(suite.T(), first.ID)
	assert.Equal(suite.T(), first.CreatedAt, first.UpdatedAt)

	second := suite.create("Web Design")
	assert.Equal(suite.T(), 1, second.Sequence)

	got, err := suite.uc.GetBySlug(suite.ctx, "my-new-service", false)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), first.ID, got.ID)
	assert.Equal(suite.T(), first.Title, got.Title)
	assert.Equal(suite.T(), first.Description, got.Description)
	assert.Equal(suite.T(), first.Sequence, got.Sequence)
	assert.True(suite.T(), first.CreatedAt.Equal(got.CreatedAt))
}

func (suite *ServiceUsecaseTestSuite) TestCreate_Validation() {
	_, err := suite.uc.Create(suite.ctx, &model.Service{Description: "no title"})
	require.Error(suite.T(), err)
	assert.True(suite.T(), apperrors.IsValidation(err))
	assert.Equal(suite.T(), "title is required", err.Error())

	_, err = suite.uc.Create(suite.ctx, &model.Service{Title: "!!!", Description: "x"})
	assert.True(suite.T(), apperrors.IsValidation(err))

	_, err = suite.uc.Create(suite.ctx, &model.Service{Title: "Ok", Slug: "Not A Slug", Description: "x"})
	assert.True(suite.T(), apperrors.IsValidation(err))
}

func (suite *ServiceUsecaseTestSuite) TestCreate_DuplicateSlugIsConflict() {
	suite.create("SEO Audit")
	_, err := suite.uc.Create(suite.ctx, &model.Service{Title: "seo audit", Description: "again"})
	require.Error(suite.T(), err)
	assert.True(suite.T(), apperrors.IsConflict(err))
	assert.Equal(suite.T(), 400, apperrors.HTTPStatus(err))
}

func (suite *ServiceUsecaseTestSuite) TestGet_NotFoundAndInactive() {
	_, err := suite.uc.Get(suite.ctx, "nonexistent", false)
	assert.True(suite.T(), apperrors.IsNotFound(err))

	svc := suite.create("Hidden")
	require.NoError(suite.T(), suite.uc.Delete(suite.ctx, svc.ID, false))

	_, err = suite.uc.Get(suite.ctx, svc.ID, false)
	assert.True(suite.T(), apperrors.IsNotFound(err))

	got, err := suite.uc.Get(suite.ctx, svc.ID, true)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), got.IsActive)

	require.NoError(suite.T(), suite.uc.Delete(suite.ctx, svc.ID, true))
	_, err = suite.uc.Get(suite.ctx, svc.ID, true)
	assert.True(suite.T(), apperrors.IsNotFound(err))
}

func (suite *ServiceUsecaseTestSuite) TestUpdate() {
	svc := suite.create("Branding")
	suite.create("Hosting")

	updated, err := suite.uc.Update(suite.ctx, svc.ID, func(s *model.Service) error {
		s.Title = "Brand Identity"
		s.Slug = ""
		s.ID = "tampered"
		return nil
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), svc.ID, updated.ID)
	assert.Equal(suite.T(), "brand-identity", updated.Slug)
	assert.Equal(suite.T(), 0, updated.Sequence)
	assert.True(suite.T(), updated.UpdatedAt.After(updated.CreatedAt))

	_, err = suite.uc.Update(suite.ctx, svc.ID, func(s *model.Service) error {
		s.Slug = "hosting"
		return nil
	})
	assert.True(suite.T(), apperrors.IsConflict(err))

	_, err = suite.uc.Update(suite.ctx, "missing", func(*model.Service) error { return nil })
	assert.True(suite.T(), apperrors.IsNotFound(err))
}

func (suite *ServiceUsecaseTestSuite) TestList_PublicHidesInactiveAndUsesCache() {
	a := suite.create("Alpha")
	suite.create("Beta")
	require.NoError(suite.T(), suite.uc.Delete(suite.ctx, a.ID, false))

	resp, err := suite.uc.List(suite.ctx, usecase.ListRequest{})
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 1, resp.Pagination.Total)
	assert.Equal(suite.T(), "Beta", resp.Items[0].Title)

	_, err = suite.uc.List(suite.ctx, usecase.ListRequest{})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, suite.cache.Hits)

	all, err := suite.uc.List(suite.ctx, usecase.ListRequest{IncludeInactive: true})
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 2, all.Pagination.Total)
	assert.Equal(suite.T(), web.DefaultPageLimit, all.Pagination.Limit)

	// a mutation invalidates cached lists
	suite.create("Gamma")
	resp, err = suite.uc.List(suite.ctx, usecase.ListRequest{})
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 2, resp.Pagination.Total)
	assert.Equal(suite.T(), 1, suite.cache.Hits)
}

func (suite *ServiceUsecaseTestSuite) TestList_SearchSortPaginate() {
	for _, title := range []string{"App Development", "Web Apps", "Consulting"} {
		suite.create(title)
	}

	resp, err := suite.uc.List(suite.ctx, usecase.ListRequest{Search: "app"})
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 2, resp.Pagination.Total)

	resp, err = suite.uc.List(suite.ctx, usecase.ListRequest{SortBy: "sequence", SortDesc: true, Page: web.Page{Page: 1, Limit: 2}})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, resp.Pagination.Pages)
	require.Len(suite.T(), resp.Items, 2)
	assert.Equal(suite.T(), "Consulting", resp.Items[0].Title)
}

func (suite *ServiceUsecaseTestSuite) TestReorder() {
	a := suite.create("A")
	b := suite.create("B")
	c := suite.create("C")

	require.NoError(suite.T(), suite.uc.Reorder(suite.ctx, []string{c.ID, a.ID, b.ID}))
	resp, err := suite.uc.List(suite.ctx, usecase.ListRequest{})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"C", "A", "B"}, []string{resp.Items[0].Title, resp.Items[1].Title, resp.Items[2].Title})

	assert.True(suite.T(), apperrors.IsValidation(suite.uc.Reorder(suite.ctx, nil)))
	assert.True(suite.T(), apperrors.IsValidation(suite.uc.Reorder(suite.ctx, []string{a.ID, a.ID})))
	assert.True(suite.T(), apperrors.IsNotFound(suite.uc.Reorder(suite.ctx, []string{"zzz"})))
}

func TestServiceUsecaseTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceUsecaseTestSuite))
}

func TestContentUsecase_FiltersAndEvents(t *testing.T) {
	ctx := context.Background()
	bus := eventbus.NewEventBus(eventbus.NoopLogger())
	events := make(chan eventbus.Event, 4)
	bus.Subscribe(eventbus.EventTypeContentChanged, func(ctx context.Context, e eventbus.Event) error {
		events <- e
		return nil
	})

	repo := testutil.NewMemoryContentRepository[*model.Product](model.ProductDescriptor)
	uc := usecase.NewContentUsecase[*model.Product](repo, nil, bus, eventbus.NoopLogger())

	for _, p := range []*model.Product{
		{Base: model.Base{IsActive: true}, Name: "Starter Site", Description: "d", Price: 499, Category: "web", IsFeatured: true},
		{Base: model.Base{IsActive: true}, Name: "Store Kit", Description: "d", Price: 1299, Category: "ecommerce"},
		{Base: model.Base{IsActive: true}, Name: "Landing Page", Description: "d", Price: 199, Category: "web"},
	} {
		_, err := uc.Create(ctx, p)
		require.NoError(t, err)
	}

	select {
	case e := <-events:
		assert.Equal(t, "products", e.Data().(map[string]string)["collection"])
	case <-time.After(time.Second):
		t.Fatal("content.changed not published")
	}

	resp, err := uc.List(ctx, usecase.ListRequest{Category: "web"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.Pagination.Total)

	featured := true
	resp, err = uc.List(ctx, usecase.ListRequest{Featured: &featured})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "starter-site", resp.Items[0].Slug)

	resp, err = uc.List(ctx, usecase.ListRequest{SortBy: "price"})
	require.NoError(t, err)
	assert.Equal(t, "Landing Page", resp.Items[0].Name)

	_, err = uc.Create(ctx, &model.Product{Name: "Bad", Description: "d", Price: -1})
	assert.True(t, apperrors.IsValidation(err))
}

func TestContentUsecase_ReorderWithUnknownIDChangesNothing(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemoryContentRepository[*model.TeamMember](model.TeamDescriptor)
	cache := testutil.NewMemoryCache()
	uc := usecase.NewContentUsecase[*model.TeamMember](repo, cache, nil, eventbus.NoopLogger())

	a, err := uc.Create(ctx, &model.TeamMember{Base: model.Base{IsActive: true, Order: 7}, Name: "Ana", Position: "Designer"})
	require.NoError(t, err)
	b, err := uc.Create(ctx, &model.TeamMember{Base: model.Base{IsActive: true, Order: 8}, Name: "Ben", Position: "Developer"})
	require.NoError(t, err)

	before, err := uc.List(ctx, usecase.ListRequest{})
	require.NoError(t, err)
	require.Len(t, before.Items, 2)

	err = uc.Reorder(ctx, []string{b.ID, "missing", a.ID})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "team member not found")

	gotA, err := uc.Get(ctx, a.ID, true)
	require.NoError(t, err)
	gotB, err := uc.Get(ctx, b.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 7, gotA.Order)
	assert.Equal(t, 8, gotB.Order)

	// a successful reorder replaces the cached public list
	require.NoError(t, uc.Reorder(ctx, []string{b.ID, a.ID}))
	after, err := uc.List(ctx, usecase.ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ben", "Ana"}, []string{after.Items[0].Name, after.Items[1].Name})
}

// invalidatingRepo runs onList once, after the wrapped List has read its
// result, to stand in for a write that lands while a public query is in flight
type invalidatingRepo struct {
	*testutil.MemoryContentRepository[*model.Service]
	onList func()
}

func (r *invalidatingRepo) List(ctx context.Context, q repository.ListQuery) ([]*model.Service, int64, error) {
	items, total, err := r.MemoryContentRepository.List(ctx, q)
	if f := r.onList; f != nil {
		r.onList = nil
		f()
	}
	return items, total, err
}

func TestContentUsecase_WriteDuringPublicListIsNotMaskedByCache(t *testing.T) {
	ctx := context.Background()
	repo := &invalidatingRepo{MemoryContentRepository: testutil.NewMemoryContentRepository[*model.Service](model.ServiceDescriptor)}
	cache := testutil.NewMemoryCache()
	uc := usecase.NewContentUsecase[*model.Service](repo, cache, nil, eventbus.NoopLogger())

	_, err := uc.Create(ctx, &model.Service{Base: model.Base{IsActive: true}, Title: "Alpha", Description: "d"})
	require.NoError(t, err)

	repo.onList = func() {
		_, err := uc.Create(ctx, &model.Service{Base: model.Base{IsActive: true}, Title: "Beta", Description: "d"})
		require.NoError(t, err)
	}
	first, err := uc.List(ctx, usecase.ListRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.Pagination.Total)

	second, err := uc.List(ctx, usecase.ListRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, second.Pagination.Total)
	assert.Equal(t, 0, cache.Hits)

	// the fresh result is cached normally
	_, err = uc.List(ctx, usecase.ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Hits)
}

func TestContentUsecase_ConcurrentCreatesGetDistinctSequences(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemoryContentRepository[*model.Service](model.ServiceDescriptor)
	uc := usecase.NewContentUsecase[*model.Service](repo, nil, nil, eventbus.NoopLogger())

	const n = 20
	seqs := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc, err := uc.Create(ctx, &model.Service{Base: model.Base{IsActive: true}, Title: fmt.Sprintf("Service %d", i), Description: "d"})
			if assert.NoError(t, err) {
				seqs <- svc.Sequence
			}
		}(i)
	}
	wg.Wait()
	close(seqs)

	seen := map[int]bool{}
	for seq := range seqs {
		assert.False(t, seen[seq], "sequence %d handed out twice", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, n)
	for i := 0; i < n; i++ {
		assert.True(t, seen[i], "sequence %d missing", i)
	}
}

func TestContentUsecase_DraftPostsAreHiddenFromThePublic(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMemoryContentRepository[*model.BlogPost](model.BlogDescriptor)
	uc := usecase.NewContentUsecase[*model.BlogPost](repo, testutil.NewMemoryCache(), nil, eventbus.NoopLogger(),
		usecase.WithClock(func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }))

	live, err := uc.Create(ctx, &model.BlogPost{Base: model.Base{IsActive: true}, Title: "Launch notes", Content: "...", IsPublished: true})
	require.NoError(t, err)
	require.NotNil(t, live.PublishedAt)
	assert.True(t, live.PublishedAt.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))

	draft, err := uc.Create(ctx, &model.BlogPost{Base: model.Base{IsActive: true}, Title: "Work in progress", Content: "..."})
	require.NoError(t, err)
	assert.Nil(t, draft.PublishedAt)

	resp, err := uc.List(ctx, usecase.ListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "launch-notes", resp.Items[0].Slug)

	items, err := uc.ListActive(ctx, 10, false)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = uc.Get(ctx, draft.ID, false)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = uc.GetBySlug(ctx, "work-in-progress", false)
	assert.True(t, apperrors.IsNotFound(err))

	got, err := uc.GetBySlug(ctx, "work-in-progress", true)
	require.NoError(t, err)
	assert.False(t, got.IsPublished)
	all, err := uc.List(ctx, usecase.ListRequest{IncludeInactive: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Pagination.Total)

	// publishing makes it public and invalidates the cached list
	_, err = uc.Update(ctx, draft.ID, func(p *model.BlogPost) error {
		p.IsPublished = true
		return nil
	})
	require.NoError(t, err)
	resp, err = uc.List(ctx, usecase.ListRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.Pagination.Total)
}
