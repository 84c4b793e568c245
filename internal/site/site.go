package site

import (
	"context"
	"fmt"

	contentusecase "agency-cms/internal/content/usecase"
	"agency-cms/internal/shared/eventbus"
	"agency-cms/internal/shared/logger"
	sitehttp "agency-cms/internal/site/adapter/http"
	"agency-cms/internal/site/adapter/persistence/mongodb"
	"agency-cms/internal/site/domain/repository"
	"agency-cms/internal/site/usecase"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// SiteModule serves assembled page payloads and the contact inbox
type SiteModule struct {
	usecase *usecase.SiteUsecase
	handler *sitehttp.SiteHandler
}

// NewSiteModule creates the module backed by MongoDB. visitors may be nil,
// in which case contact submissions are not linked to visitor records.
func NewSiteModule(ctx context.Context, db *mongo.Database, sections map[string]contentusecase.Section, visitors usecase.VisitorIdentifier, cookieName string, bus eventbus.EventBusInterface, log logger.Logger) (*SiteModule, error) {
	repo, err := mongodb.NewMongoContactRepository(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact repository: %w", err)
	}
	return NewSiteModuleWithRepository(repo, sections, visitors, cookieName, bus, log), nil
}

// NewSiteModuleWithRepository assembles the module on top of any repository
func NewSiteModuleWithRepository(repo repository.ContactRepository, sections map[string]contentusecase.Section, visitors usecase.VisitorIdentifier, cookieName string, bus eventbus.EventBusInterface, log logger.Logger) *SiteModule {
	uc := usecase.NewSiteUsecase(sections, repo, visitors, bus, log)
	return &SiteModule{usecase: uc, handler: sitehttp.NewSiteHandler(uc, cookieName)}
}

// RegisterRoutes mounts /pages, /contact and /admin/contacts
func (m *SiteModule) RegisterRoutes(router fiber.Router, guard sitehttp.Guard) {
	m.handler.RegisterRoutes(router, guard)
}

// GetUsecase returns the site usecase
func (m *SiteModule) GetUsecase() usecase.SiteUsecaseInterface {
	return m.usecase
}
