package http

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// newSQLiteServer wires the real service and an in-memory SQLite store.
func newSQLiteServer(t *testing.T) (*HTTPServer, *sql.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db, err := dbx.Open(ctx, dbx.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm, err := repomanager.NewRepositoryManager(dbx.DriverSQLite)
	require.NoError(t, err)
	require.NoError(t, rm.RunMigrations(ctx, db))

	cfg := &config.Config{SecretKey: testSecret, TokenValidityDuration: 10000 * time.Second}
	us := services.NewUserService(db, rm, cfg)

	return NewHTTPServer("127.0.0.1:0", logging.NopLogger{}, us, testSecret, metrics.New(), nil), db
}

type fakeUserService struct {
	registerToken string
	registerErr   error
	loginToken    string
	loginErr      error
	profile       *models.User
	profileErr    error

	lastProfileID string
}

func (f *fakeUserService) Register(ctx context.Context, name, email, password string) (string, error) {
	return f.registerToken, f.registerErr
}

func (f *fakeUserService) Login(ctx context.Context, email, password string) (string, error) {
	return f.loginToken, f.loginErr
}

func (f *fakeUserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	f.lastProfileID = userID
	return f.profile, f.profileErr
}

func newFakeServer(t *testing.T, us UserService) *HTTPServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewHTTPServer("127.0.0.1:0", logging.NopLogger{}, us, testSecret, metrics.New(), []string{"http://localhost:3000"})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}
