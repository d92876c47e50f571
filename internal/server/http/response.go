package http

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Client-facing messages.
const (
	msgServerError        = "Server Error"
	msgLoginServerError   = "Server error"
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid Credentials"
	msgUserNotFound       = "User not found"
	msgNoToken            = "No token, authorization denied"
	msgTokenNotValid      = "Token is not valid"
	msgInvalidBody        = "Invalid request body"
)

type messageResponse struct {
	Msg string `json:"msg"`
}

// fieldError describes one rejected request field.
type fieldError struct {
	Value    any    `json:"value,omitempty"`
	Msg      string `json:"msg"`
	Param    string `json:"param,omitempty"`
	Location string `json:"location"`
}

type validationErrorsResponse struct {
	Errors []fieldError `json:"errors"`
}

// fieldMessages maps a JSON field name, or "field.tag" for a single rule,
// to the message reported when validation fails.
type fieldMessages map[string]string

func (m fieldMessages) lookup(field, tag string) string {
	if msg, ok := m[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := m[field]; ok {
		return msg
	}
	return "Invalid value"
}

// secretFields are never echoed back in validation errors.
var secretFields = map[string]struct{}{"password": {}}

var validatorsOnce sync.Once

// registerValidators makes validation errors report JSON field names and adds
// the bcryptlen rule.
func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= auth.MaxPasswordBytes
		})
	})
}

// bindJSON decodes and validates the request body into req. On failure it
// writes the 400 response and returns false. An empty body is validated as
// an empty object.
func bindJSON(c *gin.Context, req any, messages fieldMessages) bool {
	err := c.ShouldBindJSON(req)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(req)
	}
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	var verrs validator.ValidationErrors
	if errors.As(err, &tooLarge) || !errors.As(err, &verrs) {
		respondValidationErrors(c, []fieldError{{Msg: msgInvalidBody, Location: "body"}})
		return false
	}

	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		item := fieldError{
			Msg:      messages.lookup(fe.Field(), fe.Tag()),
			Param:    fe.Field(),
			Location: "body",
		}
		if _, secret := secretFields[fe.Field()]; !secret {
			if s, ok := fe.Value().(string); !ok || s != "" {
				item.Value = fe.Value()
			}
		}
		out = append(out, item)
	}
	respondValidationErrors(c, out)
	return false
}

func respondMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, messageResponse{Msg: msg})
}

func abortWithMessage(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, messageResponse{Msg: msg})
}

func respondValidationErrors(c *gin.Context, errs []fieldError) {
	c.JSON(http.StatusBadRequest, validationErrorsResponse{Errors: errs})
}

// respondServerError logs err and answers 500 with a plain-text body that
// never carries error details.
func (s *HTTPServer) respondServerError(c *gin.Context, body string, err error) {
	s.logger.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
	c.String(http.StatusInternalServerError, body)
}
