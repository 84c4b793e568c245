package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authhttp "agency-cms/internal/auth/adapter/http"
	"agency-cms/internal/auth/domain/model"
	"agency-cms/internal/auth/domain/repository"
	"agency-cms/internal/auth/usecase"
	apperrors "agency-cms/internal/shared/errors"
	"agency-cms/internal/shared/web"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type AuthHTTPTestSuite struct {
	suite.Suite
	app         *fiber.App
	mockUsecase *mockAuthUsecase
}

func (suite *AuthHTTPTestSuite) SetupTest() {
	suite.mockUsecase = &mockAuthUsecase{}
	suite.app = fiber.New(fiber.Config{ErrorHandler: web.NewErrorHandler(nil)})

	handler := authhttp.NewAuthHTTPHandler(suite.mockUsecase, authhttp.CookieSettings{
		Name:     "test_cookie",
		Path:     "/",
		MaxAge:   3600,
		HTTPOnly: true,
		SameSite: "Lax",
	})
	middleware := authhttp.NewAuthMiddleware(suite.mockUsecase, "test_cookie")
	handler.SetupAuthRoutesWithMiddleware(suite.app.Group("/api/auth"), middleware, nil)
}

func (suite *AuthHTTPTestSuite) TearDownTest() {
	suite.mockUsecase.AssertExpectations(suite.T())
}

func (suite *AuthHTTPTestSuite) postJSON(path string, body interface{}) *http.Response {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "suite-agent")
	resp, err := suite.app.Test(req)
	require.NoError(suite.T(), err)
	return resp
}

func (suite *AuthHTTPTestSuite) TestLogin_Success() {
	admin := &model.Admin{ID: "admin-1", Email: "admin@agency.test", IsActive: true}
	suite.mockUsecase.On("Login", mock.Anything, usecase.LoginRequest{
		Email: "admin@agency.test", Password: "password123", UserAgent: "suite-agent",
	}).Return(&usecase.LoginResponse{Admin: admin, AccessToken: "jwt-token", ExpiresAt: time.Now().Add(time.Hour)}, nil)

	resp := suite.postJSON("/api/auth/login", map[string]string{"email": "admin@agency.test", "password": "password123"})
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	var body usecase.LoginResponse
	require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(suite.T(), "jwt-token", body.AccessToken)
	assert.Equal(suite.T(), "admin-1", body.Admin.ID)

	cookies := resp.Cookies()
	require.Len(suite.T(), cookies, 1)
	assert.Equal(suite.T(), "test_cookie", cookies[0].Name)
	assert.Equal(suite.T(), "jwt-token", cookies[0].Value)
	assert.True(suite.T(), cookies[0].HttpOnly)
}

func (suite *AuthHTTPTestSuite) TestLogin_InvalidCredentials() {
	suite.mockUsecase.On("Login", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewAuthenticationError("Invalid email or password"))

	resp := suite.postJSON("/api/auth/login", map[string]string{"email": "admin@agency.test", "password": "nope"})
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)

	var body web.ErrorResponse
	require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(suite.T(), "Invalid email or password", body.Message)
	assert.Empty(suite.T(), resp.Cookies())
}

func (suite *AuthHTTPTestSuite) TestLogin_MalformedBody() {
	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := suite.app.Test(req)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusBadRequest, resp.StatusCode)
}

func (suite *AuthHTTPTestSuite) TestMe_RequiresToken() {
	resp, err := suite.app.Test(httptest.NewRequest("GET", "/api/auth/me", nil))
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (suite *AuthHTTPTestSuite) TestMe_ReturnsAdmin() {
	suite.mockUsecase.On("ValidateToken", mock.Anything, "tok").Return(&repository.Claims{AdminID: "admin-1", Email: "admin@agency.test"}, nil)
	suite.mockUsecase.On("GetAdminByID", mock.Anything, "admin-1").Return(&model.Admin{ID: "admin-1", Email: "admin@agency.test"}, nil)

	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer tok")
	resp, err := suite.app.Test(req)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	var admin model.Admin
	require.NoError(suite.T(), json.NewDecoder(resp.Body).Decode(&admin))
	assert.Equal(suite.T(), "admin@agency.test", admin.Email)
}

func (suite *AuthHTTPTestSuite) TestLogout_ClearsCookie() {
	suite.mockUsecase.On("ValidateToken", mock.Anything, "tok").Return(&repository.Claims{AdminID: "admin-1"}, nil)
	suite.mockUsecase.On("Logout", mock.Anything, "tok").Return(nil)

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "test_cookie", Value: "tok"})
	resp, err := suite.app.Test(req)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), http.StatusOK, resp.StatusCode)

	cookies := resp.Cookies()
	require.Len(suite.T(), cookies, 1)
	assert.Equal(suite.T(), "", cookies[0].Value)
	assert.True(suite.T(), cookies[0].Expires.Before(time.Now()))
}

func TestAuthHTTPTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHTTPTestSuite))
}
