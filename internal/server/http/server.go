// Package http exposes the authkeeper JSON API over gin: registration,
// login and the identity lookup for a token holder.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 10 * time.Second

	maxBodyBytes = 1 << 20
)

// UserService is the business logic the handlers delegate to.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
}

type HTTPServer struct {
	address   string
	users     UserService
	logger    logging.Logger
	jwtSecret []byte
	metrics   *metrics.Metrics
	engine    *gin.Engine
}

func NewHTTPServer(a string, l logging.Logger, us UserService, secretKey string, m *metrics.Metrics, allowedOrigins []string) *HTTPServer {
	registerValidators()

	s := &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		users:     us,
		jwtSecret: []byte(secretKey),
		metrics:   m,
		engine:    gin.New(),
	}

	s.engine.Use(
		gin.CustomRecovery(s.handlePanic),
		s.requestLogger(),
		cors.New(corsConfig(allowedOrigins)),
		s.observeRequest(),
		limitBody(maxBodyBytes),
	)

	s.setupRoutes()

	return s
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", accessTokenHeader}
	return cfg
}

func (s *HTTPServer) setupRoutes() {
	s.engine.GET("/ping", s.Ping)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := s.engine.Group("/api")
	{
		api.POST("/users", s.RegisterUser)
		api.POST("/auth", s.Login)
		api.GET("/auth", s.accessTokenMiddleware(), s.GetCurrentUser)
	}
}

// Handler returns the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:        s.engine,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
