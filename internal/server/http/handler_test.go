package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validRegister = map[string]string{"name": "Alice", "email": "alice@example.com", "password": "secret1"}
var validLogin = map[string]string{"email": "alice@example.com", "password": "secret1"}

func TestRegisterUser_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"duplicate", common.ErrorAlreadyExists, http.StatusBadRequest, `{"msg":"User already exists"}`},
		{"wrapped duplicate", fmt.Errorf("tx: %w", common.ErrorAlreadyExists), http.StatusBadRequest, `{"msg":"User already exists"}`},
		{"store failure", errors.New("db down"), http.StatusInternalServerError, "Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeServer(t, &fakeUserService{registerErr: tt.err})

			rec := doJSON(t, s.Handler(), http.MethodPost, "/api/users", validRegister, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, tt.wantBody, rec.Body.String())
				assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
			} else {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestLogin_ServiceErrors(t *testing.T) {
	s := newFakeServer(t, &fakeUserService{loginErr: errors.New("db down")})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/api/auth", validLogin, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server error", rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestGetCurrentUser_ServiceError(t *testing.T) {
	us := &fakeUserService{profileErr: errors.New("db down")}
	s := newFakeServer(t, us)

	tok, err := auth.GenerateToken("u-1", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/auth", nil, map[string]string{"x-auth-token": tok})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server Error", rec.Body.String())
	assert.Equal(t, "u-1", us.lastProfileID)
}

func TestGetCurrentUser_ProfileShape(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	us := &fakeUserService{profile: &models.User{
		ID: "u-1", Name: "Alice", Email: "alice@example.com", PasswordHash: "$2a$10$hash", CreatedAt: created,
	}}
	s := newFakeServer(t, us)

	tok, err := auth.GenerateToken("u-1", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	rec := doJSON(t, s.Handler(), http.MethodGet, "/api/auth", nil, map[string]string{"x-auth-token": tok})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"id":"u-1","name":"Alice","email":"alice@example.com","created_at":"2025-01-02T03:04:05Z"}`,
		rec.Body.String())
}

func TestGetCurrentUser_WithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newFakeServer(t, &fakeUserService{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/auth", nil)

	s.GetCurrentUser(c)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAccessTokenMiddleware_SetsContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := newFakeServer(t, &fakeUserService{})

	tok, err := auth.GenerateToken("u-42", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("x-auth-token", tok)

	s.accessTokenMiddleware()(c)

	require.False(t, c.IsAborted())
	id, ok := UserIDFromContext(c.Request.Context())
	assert.True(t, ok)
	assert.Equal(t, "u-42", id)
	assert.Equal(t, "u-42", c.GetString(string(UserIDKey)))
}

func TestUserIDFromContext_Missing(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = UserIDFromContext(context.WithValue(context.Background(), UserIDKey, ""))
	assert.False(t, ok)
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"x-auth-token", map[string]string{"x-auth-token": "abc"}, "abc"},
		{"bearer", map[string]string{"Authorization": "Bearer xyz"}, "xyz"},
		{"x-auth-token wins", map[string]string{"x-auth-token": "abc", "Authorization": "Bearer xyz"}, "abc"},
		{"basic ignored", map[string]string{"Authorization": "Basic xyz"}, ""},
		{"none", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, tokenFromRequest(r))
		})
	}
}

func TestMetrics_CountOutcomes(t *testing.T) {
	us := &fakeUserService{registerToken: "t", loginErr: common.ErrorInvalidCredentials}
	s := newFakeServer(t, us)
	h := s.Handler()

	doJSON(t, h, http.MethodPost, "/api/users", validRegister, nil)
	doJSON(t, h, http.MethodPost, "/api/users", map[string]string{}, nil)
	doJSON(t, h, http.MethodPost, "/api/auth", validLogin, nil)

	body := doJSON(t, h, http.MethodGet, "/metrics", nil, nil).Body.String()
	assert.Contains(t, body, `authkeeper_registrations_total{result="success"} 1`)
	assert.Contains(t, body, `authkeeper_registrations_total{result="invalid_input"} 1`)
	assert.Contains(t, body, `authkeeper_logins_total{result="invalid_credentials"} 1`)
	assert.Contains(t, body, `route="/api/users"`)
}

func TestRequestID(t *testing.T) {
	s := newFakeServer(t, &fakeUserService{})
	h := s.Handler()

	rec := doJSON(t, h, http.MethodGet, "/ping", nil, nil)
	assert.Len(t, rec.Header().Get("X-Request-ID"), 16)

	rec = doJSON(t, h, http.MethodGet, "/ping", nil, map[string]string{"X-Request-ID": "given-id"})
	assert.Equal(t, "given-id", rec.Header().Get("X-Request-ID"))
}

func TestCORS_Preflight(t *testing.T) {
	s := newFakeServer(t, &fakeUserService{})

	req := httptest.NewRequest(http.MethodOptions, "/api/auth", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "x-auth-token")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Auth-Token")
}

func TestCORS_UnknownOrigin(t *testing.T) {
	s := newFakeServer(t, &fakeUserService{})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRecovery(t *testing.T) {
	s := newFakeServer(t, &fakeUserService{})
	s.engine.GET("/boom", func(*gin.Context) { panic("boom") })

	rec := doJSON(t, s.Handler(), http.MethodGet, "/boom", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server Error", rec.Body.String())
}

func TestObserveRequest_UnmatchedRoute(t *testing.T) {
	s := newFakeServer(t, &fakeUserService{})
	h := s.Handler()

	rec := doJSON(t, h, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := doJSON(t, h, http.MethodGet, "/metrics", nil, nil).Body.String()
	assert.Contains(t, body, `route="unmatched",status="404"`)
}
