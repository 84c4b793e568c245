package di

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"agency-cms/internal/auth"
	authconfig "agency-cms/internal/auth/config"
	"agency-cms/internal/content"
	"agency-cms/internal/shared/config"
	"agency-cms/internal/shared/eventbus"
	"agency-cms/internal/shared/logger"
	"agency-cms/internal/site"
	"agency-cms/internal/visitor"
	visitorconfig "agency-cms/internal/visitor/config"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container owns the shared connections and the modules built on them.
// Modules are initialized in dependency order: auth, visitor, content, site.
type Container struct {
	mu sync.RWMutex

	Config *config.Config
	Logger logger.Logger
	Bus    *eventbus.EventBus

	MongoClient *mongo.Client
	MongoDB     *mongo.Database
	Redis       *redis.Client

	AuthModule    *auth.AuthModule
	VisitorModule *visitor.VisitorModule
	ContentModule *content.ContentModule
	SiteModule    *site.SiteModule

	visitorCookie string
}

// NewContainer creates an empty container
func NewContainer(cfg *config.Config, log logger.Logger) *Container {
	return &Container{
		Config: cfg,
		Logger: log,
		Bus:    eventbus.NewEventBus(log.WithComponent("eventbus")),
	}
}

// Connect opens MongoDB and, when configured, Redis. A Redis that cannot be
// reached is logged and left out so content is served uncached.
func (c *Container) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	client, err := config.ConnectMongo(ctx, &c.Config.Mongo)
	if err != nil {
		return err
	}
	c.MongoClient = client
	c.MongoDB = client.Database(c.Config.Mongo.DatabaseName)
	c.Logger.Infof("Connected to MongoDB database %s", c.Config.Mongo.DatabaseName)

	if !c.Config.Redis.Enabled() {
		c.Logger.Info("REDIS_HOST not set, content cache disabled")
		return nil
	}
	rdb := config.NewRedisClient(&c.Config.Redis)
	if err := rdb.Ping(ctx).Err(); err != nil {
		c.Logger.Warnf("Redis at %s unavailable, content cache disabled: %v", c.Config.Redis.GetAddr(), err)
		_ = rdb.Close()
		return nil
	}
	c.Redis = rdb
	c.Logger.Infof("Connected to Redis at %s", c.Config.Redis.GetAddr())
	return nil
}

// InitializeAuth builds the admin authentication module
func (c *Container) InitializeAuth(ctx context.Context, cfg *authconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.MongoDB == nil {
		return errors.New("MongoDB must be connected before the auth module")
	}

	m, err := auth.NewAuthModule(ctx, c.MongoDB, cfg, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create auth module: %w", err)
	}
	c.AuthModule = m
	return nil
}

// InitializeVisitor builds the visitor tracking module
func (c *Container) InitializeVisitor(ctx context.Context, cfg *visitorconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.MongoDB == nil {
		return errors.New("MongoDB must be connected before the visitor module")
	}

	m, err := visitor.NewVisitorModule(ctx, c.MongoDB, c.Bus, cfg, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create visitor module: %w", err)
	}
	c.VisitorModule = m
	c.visitorCookie = cfg.CookieName
	return nil
}

// InitializeContent builds the content module for every entity type
func (c *Container) InitializeContent(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.MongoDB == nil {
		return errors.New("MongoDB must be connected before the content module")
	}

	m, err := content.NewContentModule(ctx, c.MongoDB, c.Redis, c.Config.Redis.ContentCacheTTL, c.Bus, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create content module: %w", err)
	}
	c.ContentModule = m
	return nil
}

// InitializeSite builds page assembly and the contact form on top of the
// content and visitor modules
func (c *Container) InitializeSite(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ContentModule == nil || c.VisitorModule == nil {
		return errors.New("content and visitor modules must be initialized before the site module")
	}

	m, err := site.NewSiteModule(ctx, c.MongoDB, c.ContentModule.Sections(), c.VisitorModule.GetUsecase(), c.visitorCookie, c.Bus, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create site module: %w", err)
	}
	c.SiteModule = m
	return nil
}

// RegisterRoutes mounts every module on the /api router
func (c *Container) RegisterRoutes(router fiber.Router) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.AuthModule == nil {
		return errors.New("auth module must be initialized before registering routes")
	}

	guard := c.AuthModule.GetMiddleware()
	c.AuthModule.RegisterRoutes(router)
	if c.VisitorModule != nil {
		c.VisitorModule.RegisterRoutes(router, guard)
	}
	if c.SiteModule != nil {
		c.SiteModule.RegisterRoutes(router, guard)
	}
	if c.ContentModule != nil {
		c.ContentModule.RegisterRoutes(router, guard)
	}
	return nil
}

// HealthCheck pings MongoDB and Redis when they are in use
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.MongoClient != nil {
		if err := c.MongoClient.Ping(ctx, nil); err != nil {
			return fmt.Errorf("MongoDB health check failed: %w", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("Redis health check failed: %w", err)
		}
	}
	return nil
}

// Close releases the connections in reverse order of creation
func (c *Container) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
		c.Redis = nil
	}
	if c.MongoClient != nil {
		if err := c.MongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect MongoDB: %w", err))
		}
		c.MongoClient, c.MongoDB = nil, nil
	}
	return errors.Join(errs...)
}
