package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"min=6,bcryptlen"`
}

var registerMessages = fieldMessages{
	"name":               "Please add a name",
	"email":              "Please include a valid email",
	"password":           "Please enter a password with 6 or more characters",
	"password.bcryptlen": "Please enter a password of at most 72 bytes",
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

var loginMessages = fieldMessages{
	"email":    "Please include a valid email",
	"password": "Password is required",
}

type tokenResponse struct {
	Token string `json:"token"`
}

// profileResponse is the public view of a user. It has no hash field.
type profileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterUser handles POST /api/users.
func (s *HTTPServer) RegisterUser(c *gin.Context) {
	ctx := c.Request.Context()

	var req registerRequest
	if !bindJSON(c, &req, registerMessages) {
		s.metrics.ObserveRegistration(metrics.ResultInvalidInput)
		return
	}

	token, err := s.users.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.metrics.ObserveRegistration(metrics.ResultDuplicate)
			respondMessage(c, http.StatusBadRequest, msgUserExists)
			return
		}
		s.metrics.ObserveRegistration(metrics.ResultError)
		s.respondServerError(c, msgServerError, err)
		return
	}

	s.metrics.ObserveRegistration(metrics.ResultSuccess)
	s.logger.Info(ctx, "Registered")
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// Login handles POST /api/auth.
func (s *HTTPServer) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req loginRequest
	if !bindJSON(c, &req, loginMessages) {
		s.metrics.ObserveLogin(metrics.ResultInvalidInput)
		return
	}

	token, err := s.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorInvalidCredentials) {
			s.metrics.ObserveLogin(metrics.ResultInvalidCredentials)
			respondMessage(c, http.StatusBadRequest, msgInvalidCredentials)
			return
		}
		s.metrics.ObserveLogin(metrics.ResultError)
		s.respondServerError(c, msgLoginServerError, err)
		return
	}

	s.metrics.ObserveLogin(metrics.ResultSuccess)
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// GetCurrentUser handles GET /api/auth. It runs behind accessTokenMiddleware.
func (s *HTTPServer) GetCurrentUser(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		s.respondServerError(c, msgServerError, errors.New("no authenticated user in context"))
		return
	}

	user, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			respondMessage(c, http.StatusNotFound, msgUserNotFound)
			return
		}
		s.respondServerError(c, msgServerError, err)
		return
	}

	c.JSON(http.StatusOK, profileResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

// Ping handles GET /ping.
func (s *HTTPServer) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}
