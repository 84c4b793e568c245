package usecase

import (
	"context"
	"reflect"
	"strings"
	"time"

	contentusecase "agency-cms/internal/content/usecase"
	apperrors "agency-cms/internal/shared/errors"
	"agency-cms/internal/shared/eventbus"
	"agency-cms/internal/shared/logger"
	"agency-cms/internal/shared/utils"
	"agency-cms/internal/shared/validation"
	"agency-cms/internal/shared/web"
	"agency-cms/internal/site/domain/model"
	"agency-cms/internal/site/domain/repository"
	visitormodel "agency-cms/internal/visitor/domain/model"
)

// VisitorIdentifier attaches contact details to a tracked visitor
type VisitorIdentifier interface {
	Identify(ctx context.Context, visitorID string, info visitormodel.ContactInfo) (*visitormodel.VisitorRecord, error)
}

// SiteUsecaseInterface defines the public page and contact form use cases
type SiteUsecaseInterface interface {
	Page(ctx context.Context, page string) (map[string]interface{}, error)
	SubmitContact(ctx context.Context, req ContactRequest) (*model.ContactMessage, error)
	ListContacts(ctx context.Context, isRead *bool, page web.Page) (*ContactListResponse, error)
	MarkRead(ctx context.Context, id string, read bool) (*model.ContactMessage, error)
	DeleteContact(ctx context.Context, id string) error
}

// ContactRequest is the contact form payload
type ContactRequest struct {
	Name      string `json:"name" validate:"required,max=200,no_xss"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"max=50"`
	Subject   string `json:"subject" validate:"max=200,no_xss"`
	Message   string `json:"message" validate:"required,max=5000,no_xss"`
	VisitorID string `json:"-"`
}

// ContactListResponse is a page of contact messages
type ContactListResponse struct {
	Items      []model.ContactMessage `json:"items"`
	Pagination web.Pagination         `json:"pagination"`
}

// SiteUsecase implements SiteUsecaseInterface
type SiteUsecase struct {
	sections map[string]contentusecase.Section
	contacts repository.ContactRepository
	visitors VisitorIdentifier
	bus      eventbus.EventBusInterface
	logger   logger.Logger
	now      func() time.Time
}

// NewSiteUsecase creates a new site usecase. visitors and bus may be nil.
func NewSiteUsecase(sections map[string]contentusecase.Section, contacts repository.ContactRepository, visitors VisitorIdentifier, bus eventbus.EventBusInterface, log logger.Logger) *SiteUsecase {
	return &SiteUsecase{
		sections: sections,
		contacts: contacts,
		visitors: visitors,
		bus:      bus,
		logger:   log.WithComponent("site"),
		now:      time.Now,
	}
}

// Page assembles the active content a public page needs
func (uc *SiteUsecase) Page(ctx context.Context, page string) (map[string]interface{}, error) {
	layout, ok := model.Pages[strings.ToLower(page)]
	if !ok {
		return nil, apperrors.NewNotFoundError("page")
	}

	payload := map[string]interface{}{"page": strings.ToLower(page)}
	for _, s := range layout {
		section, ok := uc.sections[s.Collection]
		if !ok {
			continue
		}
		items, err := section.ListActive(ctx, s.Limit, s.FeaturedOnly)
		if err != nil {
			return nil, err
		}
		if s.Single {
			payload[s.Collection] = first(items)
			continue
		}
		payload[s.Collection] = items
	}
	return payload, nil
}

// first returns the first element of the typed slice held in items, or nil
func first(items interface{}) interface{} {
	v := reflect.ValueOf(items)
	if v.Kind() != reflect.Slice || v.Len() == 0 {
		return nil
	}
	return v.Index(0).Interface()
}

// SubmitContact stores a contact message and, when the sender carries a
// visitor cookie, records their contact details on the visitor. Failing to
// identify the visitor never fails the submission.
func (uc *SiteUsecase) SubmitContact(ctx context.Context, req ContactRequest) (*model.ContactMessage, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	msg := &model.ContactMessage{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     strings.TrimSpace(req.Phone),
		Subject:   strings.TrimSpace(req.Subject),
		Message:   req.Message,
		VisitorID: req.VisitorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.contacts.Create(ctx, msg); err != nil {
		return nil, apperrors.WrapError(err, "failed to store contact message")
	}

	if req.VisitorID != "" && uc.visitors != nil {
		vctx := utils.WithVisitorID(ctx, req.VisitorID)
		info := visitormodel.ContactInfo{Name: msg.Name, Email: msg.Email, Phone: msg.Phone}
		if _, err := uc.visitors.Identify(vctx, req.VisitorID, info); err != nil {
			uc.logger.WithContext(vctx).Warnf("Could not attach contact to visitor: %v", err)
		}
	}

	if uc.bus != nil {
		uc.bus.PublishAndForget(ctx, eventbus.NewBasicEvent(eventbus.EventTypeContactReceived, msg, "site"))
	}
	uc.logger.WithContext(ctx).Infof("Contact message %s received", msg.ID.Hex())
	return msg, nil
}

// ListContacts returns contact messages, newest first
func (uc *SiteUsecase) ListContacts(ctx context.Context, isRead *bool, page web.Page) (*ContactListResponse, error) {
	page = web.ClampPage(page.Page, page.Limit)
	items, total, err := uc.contacts.List(ctx, repository.ContactQuery{IsRead: isRead, Skip: page.Skip(), Limit: int64(page.Limit)})
	if err != nil {
		return nil, err
	}
	return &ContactListResponse{Items: items, Pagination: web.NewPagination(total, page)}, nil
}

// MarkRead flags a message as read or unread
func (uc *SiteUsecase) MarkRead(ctx context.Context, id string, read bool) (*model.ContactMessage, error) {
	return uc.contacts.SetRead(ctx, id, read, uc.now().UTC())
}

// DeleteContact removes a message
func (uc *SiteUsecase) DeleteContact(ctx context.Context, id string) error {
	return uc.contacts.Delete(ctx, id)
}
