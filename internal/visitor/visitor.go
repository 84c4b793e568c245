package visitor

import (
	"context"
	"fmt"

	authhttp "agency-cms/internal/auth/adapter/http"
	"agency-cms/internal/shared/eventbus"
	"agency-cms/internal/shared/logger"
	visitorhttp "agency-cms/internal/visitor/adapter/http"
	"agency-cms/internal/visitor/adapter/persistence/mongodb"
	"agency-cms/internal/visitor/config"
	"agency-cms/internal/visitor/domain/repository"
	"agency-cms/internal/visitor/usecase"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// VisitorModule bundles visitor tracking and lead management
type VisitorModule struct {
	repository repository.VisitorRepository
	usecase    usecase.VisitorUsecaseInterface
	tracking   *visitorhttp.TrackingHandler
	admin      *visitorhttp.AdminHandler
	feed       *visitorhttp.FeedHandler
}

// NewVisitorModule creates the module backed by MongoDB
func NewVisitorModule(ctx context.Context, db *mongo.Database, bus eventbus.EventBusInterface, cfg *config.Config, log logger.Logger) (*VisitorModule, error) {
	repo, err := mongodb.NewMongoVisitorRepository(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create visitor repository: %w", err)
	}
	return NewVisitorModuleWithRepository(repo, bus, cfg, log)
}

// NewVisitorModuleWithRepository assembles the module on top of any repository
func NewVisitorModuleWithRepository(repo repository.VisitorRepository, bus eventbus.EventBusInterface, cfg *config.Config, log logger.Logger) (*VisitorModule, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	uc, err := usecase.NewVisitorUsecase(repo, bus, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create visitor usecase: %w", err)
	}

	m := &VisitorModule{
		repository: repo,
		usecase:    uc,
		tracking:   visitorhttp.NewTrackingHandler(uc, cfg.CookieName, log),
		admin:      visitorhttp.NewAdminHandler(uc),
	}
	if bus != nil {
		m.feed = visitorhttp.NewFeedHandler(bus, log, cfg.FeedBufferSize, cfg.FeedPingPeriod)
	}
	return m, nil
}

// RegisterRoutes mounts /track publicly and /admin/visitors behind admin auth
func (m *VisitorModule) RegisterRoutes(router fiber.Router, auth *authhttp.AuthMiddleware) {
	m.tracking.RegisterRoutes(router.Group("/track"))

	admin := router.Group("/admin/visitors", auth.Protect())
	if m.feed != nil {
		m.feed.RegisterRoutes(admin)
	}
	m.admin.RegisterRoutes(admin)
}

// GetUsecase returns the visitor usecase, used by the contact form to identify leads
func (m *VisitorModule) GetUsecase() usecase.VisitorUsecaseInterface {
	return m.usecase
}
