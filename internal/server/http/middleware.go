package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const (
	accessTokenHeader = common.AccessTokenHeaderName
	requestIDHeader   = "X-Request-ID"
)

// limitBody caps the request body at n bytes. Reads past the cap fail with
// *http.MaxBytesError, which bindJSON answers as an invalid body.
func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

type ctxKey string

// UserIDKey holds the authenticated user ID, both on the gin context and on
// the request context.
const UserIDKey ctxKey = "userID"

// UserIDFromContext returns the user ID stored by accessTokenMiddleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}

// tokenFromRequest reads the x-auth-token header, falling back to an
// Authorization bearer token.
func tokenFromRequest(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get(accessTokenHeader)); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, common.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(h, common.BearerPrefix))
	}
	return ""
}

func (s *HTTPServer) accessTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		accessToken := tokenFromRequest(c.Request)
		if accessToken == "" {
			abortWithMessage(c, http.StatusUnauthorized, msgNoToken)
			return
		}

		userID, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
		if err != nil {
			reason := "invalid"
			if errors.Is(err, common.ErrTokenExpired) {
				reason = "expired"
			}
			s.logger.Debug(ctx, "token rejected", "reason", reason)
			abortWithMessage(c, http.StatusUnauthorized, msgTokenNotValid)
			return
		}

		c.Set(string(UserIDKey), userID)
		c.Request = c.Request.WithContext(context.WithValue(ctx, UserIDKey, userID))
		c.Next()
	}
}

// requestLogger tags each request with an ID and logs it once served.
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID, _ = common.MakeRandHexString(8)
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		s.logger.Info(c.Request.Context(), "HTTP request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"remote_addr", c.ClientIP(),
		)
	}
}

func (s *HTTPServer) observeRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

func (s *HTTPServer) handlePanic(c *gin.Context, p any) {
	s.logger.Error(c.Request.Context(), "panic serving request", "panic", p, "path", c.Request.URL.Path)
	c.Abort()
	c.String(http.StatusInternalServerError, msgServerError)
}
