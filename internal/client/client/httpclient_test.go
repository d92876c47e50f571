package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	token  string
	body   map[string]string
}

func newTestAPI(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*HTTPClient, *[]recorded) {
	t.Helper()
	var calls []recorded

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, token: r.Header.Get("x-auth-token")}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		calls = append(calls, rec)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return NewHTTPClient(srv.URL+"/", time.Second), &calls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRegister_StoresToken(t *testing.T) {
	c, calls := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": "tok-1"})
	})

	require.NoError(t, c.Register(context.Background(), "Alice", "alice@example.com", "secret1"))
	assert.Equal(t, "tok-1", c.Token())

	require.Len(t, *calls, 1)
	got := (*calls)[0]
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/users", got.path)
	assert.Equal(t, map[string]string{"name": "Alice", "email": "alice@example.com", "password": "secret1"}, got.body)
}

func TestLogin_ThenCurrentUserSendsToken(t *testing.T) {
	c, calls := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/auth":
			writeJSON(w, http.StatusOK, map[string]string{"token": "tok-2"})
		case r.Method == http.MethodGet && r.URL.Path == "/api/auth":
			writeJSON(w, http.StatusOK, map[string]string{
				"id": "u-1", "name": "Alice", "email": "alice@example.com", "created_at": "2025-01-02T03:04:05Z",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()
	require.NoError(t, c.Login(ctx, "alice@example.com", "secret1"))

	p, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Profile{
		ID: "u-1", Name: "Alice", Email: "alice@example.com",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}, p)

	require.Len(t, *calls, 2)
	assert.Equal(t, map[string]string{"email": "alice@example.com", "password": "secret1"}, (*calls)[0].body)
	assert.Empty(t, (*calls)[0].token)
	assert.Equal(t, "tok-2", (*calls)[1].token)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	c, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid Credentials"})
	})

	err := c.Login(context.Background(), "alice@example.com", "nope")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid Credentials", apiErr.Error())
	assert.Empty(t, c.Token())
}

func TestRegister_FieldErrors(t *testing.T) {
	c, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": []map[string]string{
			{"msg": "Please add a name", "param": "name", "location": "body"},
			{"msg": "Please enter a password with 6 or more characters", "param": "password", "location": "body"},
		}})
	})

	err := c.Register(context.Background(), "", "alice@example.com", "123")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Len(t, apiErr.Fields, 2)
	assert.Equal(t, "name", apiErr.Fields[0].Param)
	assert.Equal(t, "Please add a name; Please enter a password with 6 or more characters", apiErr.Error())
}

func TestCurrentUser_Unauthorized(t *testing.T) {
	c, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "No token, authorization denied"})
	})

	_, err := c.CurrentUser(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "No token, authorization denied")
}

func TestServerError_PlainText(t *testing.T) {
	c, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Server Error"))
	})

	err := c.Register(context.Background(), "Alice", "alice@example.com", "secret1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Server Error", apiErr.Error())
}

func TestPing(t *testing.T) {
	c, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	})
	require.NoError(t, c.Ping(context.Background()))
}

func TestUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url, time.Second)
	err := c.Ping(context.Background())
	require.True(t, errors.Is(err, ErrUnavailable), "got %v", err)
}

func TestLogout_ClearsToken(t *testing.T) {
	c, calls := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": "tok"})
	})
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, "alice@example.com", "secret1"))
	c.Logout()
	assert.Empty(t, c.Token())

	_ = c.Ping(ctx)
	assert.Empty(t, (*calls)[len(*calls)-1].token)
}

func TestAPIError_Fallback(t *testing.T) {
	assert.Equal(t, "unexpected status 418", (&APIError{StatusCode: 418}).Error())
}

func TestSetToken_RestoresSession(t *testing.T) {
	c, calls := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"id": "u-1", "name": "Alice", "email": "alice@example.com"})
	})

	c.SetToken("saved-token")
	p, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.ID)
	assert.Equal(t, "saved-token", (*calls)[0].token)
}
