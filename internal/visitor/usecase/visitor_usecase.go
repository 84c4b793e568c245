package usecase

import (
	"context"
	"strings"
	"time"

	apperrors "agency-cms/internal/shared/errors"
	"agency-cms/internal/shared/eventbus"
	"agency-cms/internal/shared/logger"
	"agency-cms/internal/shared/utils"
	"agency-cms/internal/shared/validation"
	"agency-cms/internal/shared/web"
	"agency-cms/internal/visitor/config"
	"agency-cms/internal/visitor/domain/model"
	"agency-cms/internal/visitor/domain/repository"

	"github.com/google/uuid"
)

const eventSource = "visitor"

// VisitorUsecaseInterface defines the visitor tracking and lead management use cases
type VisitorUsecaseInterface interface {
	Report(ctx context.Context, req ReportRequest) (*model.VisitorRecord, error)
	RecordPageView(ctx context.Context, req PageViewRequest) (*model.VisitorRecord, error)
	Identify(ctx context.Context, visitorID string, info model.ContactInfo) (*model.VisitorRecord, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	Get(ctx context.Context, visitorID string) (*model.VisitorRecord, error)
	UpdateStatus(ctx context.Context, visitorID string, status string) (*model.VisitorRecord, error)
	Delete(ctx context.Context, visitorID string) error
	Stats(ctx context.Context) (*model.Stats, error)
}

// ReportRequest is one storage snapshot sent by a browser or the tracker agent
type ReportRequest struct {
	VisitorID   string                `json:"visitorId"`
	Timestamp   *time.Time            `json:"timestamp"`
	StorageData model.StorageSnapshot `json:"storageData"`
	Metadata    model.Metadata        `json:"-"`
}

// PageViewRequest records a single page visit
type PageViewRequest struct {
	VisitorID string         `json:"visitorId"`
	Path      string         `json:"path" validate:"required,max=2048"`
	Title     string         `json:"title" validate:"max=512"`
	TimeSpent int            `json:"timeSpent" validate:"gte=0"`
	Metadata  model.Metadata `json:"-"`
}

// ListRequest filters the admin visitor list
type ListRequest struct {
	Status   string
	Search   string
	Segment  string
	SortBy   string
	SortDesc bool
	Page     web.Page
}

// ListResponse is a page of visitor records
type ListResponse struct {
	Items      []model.VisitorRecord `json:"items"`
	Pagination web.Pagination        `json:"pagination"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,visitor_status"`
}

type identifyRequest struct {
	Name  string `json:"name" validate:"max=200,no_xss"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"max=50"`
}

// VisitorUsecase implements VisitorUsecaseInterface
type VisitorUsecase struct {
	repo     repository.VisitorRepository
	segments *SegmentEngine
	bus      eventbus.EventBusInterface
	config   *config.Config
	logger   logger.Logger
	now      func() time.Time
	newID    func() string
}

// Option customizes a VisitorUsecase
type Option func(*VisitorUsecase)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(uc *VisitorUsecase) { uc.now = now }
}

// WithIDGenerator replaces the uuid generator used for visitors without an id
func WithIDGenerator(gen func() string) Option {
	return func(uc *VisitorUsecase) { uc.newID = gen }
}

// NewVisitorUsecase creates a new visitor usecase. bus may be nil.
func NewVisitorUsecase(repo repository.VisitorRepository, bus eventbus.EventBusInterface, cfg *config.Config, log logger.Logger, opts ...Option) (*VisitorUsecase, error) {
	segments, err := NewSegmentEngine()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	uc := &VisitorUsecase{
		repo:     repo,
		segments: segments,
		bus:      bus,
		config:   cfg,
		logger:   log.WithComponent("visitor"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc, nil
}

func (uc *VisitorUsecase) clock() time.Time {
	return uc.now().UTC()
}

func (uc *VisitorUsecase) checkID(visitorID string) error {
	if len(visitorID) > uc.config.MaxIDLength {
		return apperrors.NewValidationError("visitorId is too long")
	}
	if strings.ContainsAny(visitorID, " \t\r\n;,") {
		return apperrors.NewValidationError("visitorId contains invalid characters")
	}
	return nil
}

// resolveID returns the visitor id to use, minting one when none was supplied
func (uc *VisitorUsecase) resolveID(visitorID string) (string, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return uc.newID(), nil
	}
	if err := uc.checkID(visitorID); err != nil {
		return "", err
	}
	return visitorID, nil
}

func (uc *VisitorUsecase) publish(ctx context.Context, eventType string, record *model.VisitorRecord) {
	if uc.bus == nil {
		return
	}
	if err := uc.bus.Publish(ctx, eventbus.NewBasicEvent(eventType, record, eventSource)); err != nil {
		uc.logger.WithContext(ctx).Warnf("Event %s handler failed: %v", eventType, err)
	}
}

// Report stores a snapshot for the visitor: the record is created on first
// sight, otherwise lastVisit and rawStorageData are replaced and visitCount
// is incremented in one atomic update.
func (uc *VisitorUsecase) Report(ctx context.Context, req ReportRequest) (*model.VisitorRecord, error) {
	visitorID, err := uc.resolveID(req.VisitorID)
	if err != nil {
		return nil, err
	}
	ctx = utils.WithVisitorID(ctx, visitorID)

	record, err := uc.repo.Upsert(ctx, model.Report{
		VisitorID:       visitorID,
		Snapshot:        req.StorageData.Normalize(),
		ClientTimestamp: req.Timestamp,
		Metadata:        req.Metadata,
		At:              uc.clock(),
	})
	if err != nil {
		uc.logger.WithContext(ctx).Errorf("Failed to store storage report: %v", err)
		return nil, apperrors.WrapError(err, "failed to store storage report")
	}

	uc.logger.WithContext(ctx).Debugf("Storage report stored, visit %d", record.VisitCount)
	uc.publish(ctx, eventbus.EventTypeVisitorReported, record)
	return record, nil
}

// RecordPageView appends one entry to the visitor's page log
func (uc *VisitorUsecase) RecordPageView(ctx context.Context, req PageViewRequest) (*model.VisitorRecord, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	visitorID, err := uc.resolveID(req.VisitorID)
	if err != nil {
		return nil, err
	}
	ctx = utils.WithVisitorID(ctx, visitorID)

	visit := model.PageVisit{
		Path:      req.Path,
		Title:     req.Title,
		VisitedAt: uc.clock(),
		TimeSpent: req.TimeSpent,
	}
	record, err := uc.repo.AppendPageVisit(ctx, visitorID, visit, req.Metadata)
	if err != nil {
		uc.logger.WithContext(ctx).Errorf("Failed to record page view: %v", err)
		return nil, apperrors.WrapError(err, "failed to record page view")
	}

	uc.publish(ctx, eventbus.EventTypeVisitorPageView, record)
	return record, nil
}

// Identify attaches contact details to an existing visitor
func (uc *VisitorUsecase) Identify(ctx context.Context, visitorID string, info model.ContactInfo) (*model.VisitorRecord, error) {
	if err := uc.checkID(visitorID); err != nil {
		return nil, err
	}
	info.Email = strings.ToLower(strings.TrimSpace(info.Email))
	info.Name = strings.TrimSpace(info.Name)
	info.Phone = strings.TrimSpace(info.Phone)
	if err := validation.Struct(identifyRequest(info)); err != nil {
		return nil, err
	}

	record, err := uc.repo.SetContactInfo(ctx, visitorID, info, uc.clock())
	if err != nil {
		return nil, err
	}

	uc.logger.WithContext(utils.WithVisitorID(ctx, visitorID)).Info("Visitor identified")
	uc.publish(ctx, eventbus.EventTypeVisitorContacted, record)
	return record, nil
}

// List returns one page of visitors. With a segment expression the newest
// SegmentScanLimit matching records are evaluated and paginated in memory.
func (uc *VisitorUsecase) List(ctx context.Context, req ListRequest) (*ListResponse, error) {
	page := web.ClampPage(req.Page.Page, req.Page.Limit)

	query := repository.ListQuery{
		Search:   strings.TrimSpace(req.Search),
		SortBy:   req.SortBy,
		SortDesc: req.SortDesc,
	}
	if req.Status != "" {
		if err := validation.Struct(statusRequest{Status: req.Status}); err != nil {
			return nil, err
		}
		query.Status = model.Status(req.Status)
	}

	if strings.TrimSpace(req.Segment) == "" {
		query.Skip = page.Skip()
		query.Limit = int64(page.Limit)
		items, total, err := uc.repo.List(ctx, query)
		if err != nil {
			return nil, err
		}
		return &ListResponse{Items: items, Pagination: web.NewPagination(total, page)}, nil
	}

	segment, err := uc.segments.Compile(req.Segment, uc.clock())
	if err != nil {
		return nil, err
	}

	query.Limit = uc.config.SegmentScanLimit
	candidates, _, err := uc.repo.List(ctx, query)
	if err != nil {
		return nil, err
	}

	matched := make([]model.VisitorRecord, 0)
	for i := range candidates {
		if segment.Match(&candidates[i]) {
			matched = append(matched, candidates[i])
		}
	}

	total := int64(len(matched))
	start := page.Skip()
	if start > total {
		start = total
	}
	end := start + int64(page.Limit)
	if end > total {
		end = total
	}
	return &ListResponse{Items: matched[start:end], Pagination: web.NewPagination(total, page)}, nil
}

// Get returns a single visitor record
func (uc *VisitorUsecase) Get(ctx context.Context, visitorID string) (*model.VisitorRecord, error) {
	return uc.repo.GetByVisitorID(ctx, visitorID)
}

// UpdateStatus moves a visitor to another lead state. This is the only way the
// status changes.
func (uc *VisitorUsecase) UpdateStatus(ctx context.Context, visitorID string, status string) (*model.VisitorRecord, error) {
	if err := validation.Struct(statusRequest{Status: status}); err != nil {
		return nil, err
	}

	record, err := uc.repo.UpdateStatus(ctx, visitorID, model.Status(status), uc.clock())
	if err != nil {
		return nil, err
	}

	if adminID, err := utils.GetAdminIDFromContext(ctx); err == nil {
		uc.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"admin":  adminID,
			"status": status,
		}).Info("Visitor status changed")
	}
	return record, nil
}

// Delete removes a visitor record
func (uc *VisitorUsecase) Delete(ctx context.Context, visitorID string) error {
	return uc.repo.Delete(ctx, visitorID)
}

// Stats summarizes all visitors; "active" uses the configured window
func (uc *VisitorUsecase) Stats(ctx context.Context) (*model.Stats, error) {
	return uc.repo.Stats(ctx, uc.clock().Add(-uc.config.ActiveWindow))
}
