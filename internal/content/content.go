package content

import (
	"context"
	"fmt"
	"time"

	"agency-cms/internal/content/adapter/cache"
	contenthttp "agency-cms/internal/content/adapter/http"
	"agency-cms/internal/content/adapter/persistence/mongodb"
	"agency-cms/internal/content/domain/model"
	"agency-cms/internal/content/domain/repository"
	"agency-cms/internal/content/usecase"
	"agency-cms/internal/shared/eventbus"
	"agency-cms/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type routeRegistrar interface {
	RegisterRoutes(router fiber.Router, guard contenthttp.Guard)
}

// ContentModule serves every content entity under /api/<name>
type ContentModule struct {
	cache    repository.Cache
	bus      eventbus.EventBusInterface
	logger   logger.Logger
	handlers []routeRegistrar
	sections map[string]usecase.Section
}

// NewModule creates an empty module; entity types are added with Register.
// cache and bus may be nil.
func NewModule(c repository.Cache, bus eventbus.EventBusInterface, log logger.Logger) *ContentModule {
	return &ContentModule{
		cache:    c,
		bus:      bus,
		logger:   log,
		sections: map[string]usecase.Section{},
	}
}

// Register adds one entity type backed by repo
func Register[T model.Document](m *ContentModule, repo repository.ContentRepository[T], newDoc func() T) *usecase.ContentUsecase[T] {
	uc := usecase.NewContentUsecase[T](repo, m.cache, m.bus, m.logger)
	m.handlers = append(m.handlers, contenthttp.NewContentHandler[T](uc, newDoc))
	m.sections[repo.Descriptor().Name] = uc
	return uc
}

func registerMongo[T model.Document](ctx context.Context, m *ContentModule, db *mongo.Database, desc model.Descriptor, newDoc func() T) error {
	repo, err := mongodb.NewMongoContentRepository[T](ctx, db, desc)
	if err != nil {
		return fmt.Errorf("failed to create %s repository: %w", desc.Name, err)
	}
	Register[T](m, repo, newDoc)
	return nil
}

// NewContentModule wires all content types on MongoDB. redisClient may be nil,
// in which case public lists are not cached.
func NewContentModule(ctx context.Context, db *mongo.Database, redisClient *redis.Client, cacheTTL time.Duration, bus eventbus.EventBusInterface, log logger.Logger) (*ContentModule, error) {
	var c repository.Cache = cache.NoopCache{}
	if redisClient != nil {
		c = cache.NewRedisCache(redisClient, cacheTTL, log)
	}
	m := NewModule(c, bus, log)

	steps := []func() error{
		func() error {
			return registerMongo(ctx, m, db, model.ServiceDescriptor, func() *model.Service { return &model.Service{} })
		},
		func() error {
			return registerMongo(ctx, m, db, model.ProductDescriptor, func() *model.Product { return &model.Product{} })
		},
		func() error {
			return registerMongo(ctx, m, db, model.PortfolioDescriptor, func() *model.PortfolioItem { return &model.PortfolioItem{} })
		},
		func() error {
			return registerMongo(ctx, m, db, model.BlogDescriptor, func() *model.BlogPost { return &model.BlogPost{} })
		},
		func() error {
			return registerMongo(ctx, m, db, model.TeamDescriptor, func() *model.TeamMember { return &model.TeamMember{} })
		},
		func() error {
			return registerMongo(ctx, m, db, model.AchievementDescriptor, func() *model.Achievement { return &model.Achievement{} })
		},
		func() error {
			return registerMongo(ctx, m, db, model.ValueDescriptor, func() *model.Value { return &model.Value{} })
		},
		func() error {
			return registerMongo(ctx, m, db, model.TestimonialDescriptor, func() *model.Testimonial { return &model.Testimonial{} })
		},
		func() error {
			return registerMongo(ctx, m, db, model.GalleryDescriptor, func() *model.GalleryImage { return &model.GalleryImage{} })
		},
		func() error {
			return registerMongo(ctx, m, db, model.ExperienceDescriptor, func() *model.Experience { return &model.Experience{} })
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RegisterRoutes mounts every entity's routes on router
func (m *ContentModule) RegisterRoutes(router fiber.Router, guard contenthttp.Guard) {
	for _, h := range m.handlers {
		h.RegisterRoutes(router, guard)
	}
}

// Sections returns the type-erased usecases keyed by collection name
func (m *ContentModule) Sections() map[string]usecase.Section {
	return m.sections
}
