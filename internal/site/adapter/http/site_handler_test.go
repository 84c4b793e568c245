package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "agency-cms/internal/shared/errors"
	"agency-cms/internal/shared/utils"
	"agency-cms/internal/shared/web"
	sitehttp "agency-cms/internal/site/adapter/http"
	"agency-cms/internal/site/domain/model"
	"agency-cms/internal/site/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockSiteUsecase struct {
	mock.Mock
}

func (m *mockSiteUsecase) Page(ctx context.Context, page string) (map[string]interface{}, error) {
	args := m.Called(ctx, page)
	payload, _ := args.Get(0).(map[string]interface{})
	return payload, args.Error(1)
}

func (m *mockSiteUsecase) SubmitContact(ctx context.Context, req usecase.ContactRequest) (*model.ContactMessage, error) {
	args := m.Called(ctx, req)
	msg, _ := args.Get(0).(*model.ContactMessage)
	return msg, args.Error(1)
}

func (m *mockSiteUsecase) ListContacts(ctx context.Context, isRead *bool, page web.Page) (*usecase.ContactListResponse, error) {
	args := m.Called(ctx, isRead, page)
	resp, _ := args.Get(0).(*usecase.ContactListResponse)
	return resp, args.Error(1)
}

func (m *mockSiteUsecase) MarkRead(ctx context.Context, id string, read bool) (*model.ContactMessage, error) {
	args := m.Called(ctx, id, read)
	msg, _ := args.Get(0).(*model.ContactMessage)
	return msg, args.Error(1)
}

func (m *mockSiteUsecase) DeleteContact(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type tokenGuard struct{}

func (tokenGuard) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) != "Bearer admin" {
			return apperrors.NewAuthenticationError("Authentication required")
		}
		c.SetUserContext(utils.WithAdminID(c.UserContext(), "admin-1"))
		return c.Next()
	}
}

type SiteHTTPTestSuite struct {
	suite.Suite
	uc  *mockSiteUsecase
	app *fiber.App
}

func (s *SiteHTTPTestSuite) SetupTest() {
	s.uc = new(mockSiteUsecase)
	s.app = fiber.New(fiber.Config{ErrorHandler: web.NewErrorHandler(nil)})
	sitehttp.NewSiteHandler(s.uc, "visitor_id").RegisterRoutes(s.app.Group("/api"), tokenGuard{})
}

func TestSiteHTTPSuite(t *testing.T) {
	suite.Run(t, new(SiteHTTPTestSuite))
}

func (s *SiteHTTPTestSuite) do(req *http.Request) (int, []byte) {
	resp, err := s.app.Test(req)
	s.Require().NoError(err)
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, raw
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (s *SiteHTTPTestSuite) TestGetPage() {
	s.uc.On("Page", mock.Anything, "home").Return(map[string]interface{}{"page": "home", "services": []string{"web"}}, nil)
	s.uc.On("Page", mock.Anything, "pricing").Return(nil, apperrors.NewNotFoundError("page"))

	status, raw := s.do(jsonRequest("GET", "/api/pages/home", nil))
	s.Equal(fiber.StatusOK, status)
	s.JSONEq(`{"page":"home","services":["web"]}`, string(raw))

	status, raw = s.do(jsonRequest("GET", "/api/pages/pricing", nil))
	s.Equal(fiber.StatusNotFound, status)
	var body web.ErrorResponse
	s.Require().NoError(json.Unmarshal(raw, &body))
	s.Equal("page not found", body.Message)
}

func (s *SiteHTTPTestSuite) TestSubmitContact_LinksVisitorCookie() {
	id := primitive.NewObjectID()
	s.uc.On("SubmitContact", mock.Anything, usecase.ContactRequest{
		Name: "Ada", Email: "ada@example.com", Message: "hello", VisitorID: "visitor-1",
	}).Return(&model.ContactMessage{ID: id}, nil)

	req := jsonRequest("POST", "/api/contact", map[string]string{
		"name": "Ada", "email": "ada@example.com", "message": "hello", "visitorId": "ignored",
	})
	req.AddCookie(&http.Cookie{Name: "visitor_id", Value: "visitor-1"})
	status, raw := s.do(req)
	s.Equal(fiber.StatusCreated, status, string(raw))
	s.Contains(string(raw), id.Hex())
	s.uc.AssertExpectations(s.T())
}

func (s *SiteHTTPTestSuite) TestSubmitContact_Errors() {
	req := httptest.NewRequest("POST", "/api/contact", bytes.NewReader([]byte("{broken")))
	req.Header.Set("Content-Type", "application/json")
	status, raw := s.do(req)
	s.Equal(fiber.StatusBadRequest, status)
	s.Contains(string(raw), "Invalid request body")

	s.uc.On("SubmitContact", mock.Anything, mock.Anything).Return(nil, apperrors.NewValidationError("email must be a valid email address"))
	status, _ = s.do(jsonRequest("POST", "/api/contact", map[string]string{"name": "Ada", "email": "nope", "message": "x"}))
	s.Equal(fiber.StatusBadRequest, status)
}

func (s *SiteHTTPTestSuite) TestAdminRoutesRequireAuth() {
	status, _ := s.do(jsonRequest("GET", "/api/admin/contacts", nil))
	s.Equal(fiber.StatusUnauthorized, status)
	s.uc.AssertNotCalled(s.T(), "ListContacts", mock.Anything, mock.Anything, mock.Anything)
}

func (s *SiteHTTPTestSuite) TestListContacts() {
	s.uc.On("ListContacts", mock.Anything, mock.MatchedBy(func(b *bool) bool { return b != nil && !*b }), web.Page{Page: 2, Limit: 5}).
		Return(&usecase.ContactListResponse{Items: []model.ContactMessage{{Name: "Ada"}}, Pagination: web.Pagination{Total: 6, Page: 2, Limit: 5, Pages: 2}}, nil)

	req := jsonRequest("GET", "/api/admin/contacts?read=false&page=2&limit=5", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer admin")
	status, raw := s.do(req)
	s.Equal(fiber.StatusOK, status)

	var resp usecase.ContactListResponse
	s.Require().NoError(json.Unmarshal(raw, &resp))
	s.Len(resp.Items, 1)
	s.Equal(int64(6), resp.Pagination.Total)
}

func (s *SiteHTTPTestSuite) TestMarkRead() {
	s.uc.On("MarkRead", mock.Anything, "abc", true).Return(&model.ContactMessage{IsRead: true}, nil).Once()
	s.uc.On("MarkRead", mock.Anything, "abc", false).Return(&model.ContactMessage{IsRead: false}, nil).Once()

	req := jsonRequest("PUT", "/api/admin/contacts/abc/read", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer admin")
	status, _ := s.do(req)
	s.Equal(fiber.StatusOK, status)

	req = jsonRequest("PUT", "/api/admin/contacts/abc/read", map[string]bool{"read": false})
	req.Header.Set(fiber.HeaderAuthorization, "Bearer admin")
	status, raw := s.do(req)
	s.Equal(fiber.StatusOK, status)
	s.Contains(string(raw), `"isRead":false`)
	s.uc.AssertExpectations(s.T())
}

func (s *SiteHTTPTestSuite) TestDeleteContact() {
	s.uc.On("DeleteContact", mock.Anything, "gone").Return(apperrors.NewNotFoundError("contact message"))

	req := jsonRequest("DELETE", "/api/admin/contacts/gone", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer admin")
	status, raw := s.do(req)
	s.Equal(fiber.StatusNotFound, status)
	s.Contains(string(raw), "contact message not found")
}
