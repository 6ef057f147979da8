package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/medreg/services/logging"
	"go.uber.org/zap"
)

// Envelope wraps every JSON body the API returns.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func New(status int, data any, message string) Envelope {
	return Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	}
}

func JSON(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, New(status, data, message))
}

// APIError is an error with the status and message the client should see.
type APIError struct {
	Code    int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func NewError(code int, message string, err error) *APIError {
	return &APIError{Code: code, Message: message, Err: err}
}

func BadRequest(message string) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: message}
}

func Unauthorized(message string, err error) *APIError {
	return &APIError{Code: http.StatusUnauthorized, Message: message, Err: err}
}

func NotFound(message string) *APIError {
	return &APIError{Code: http.StatusNotFound, Message: message}
}

func Internal(err error) *APIError {
	return &APIError{Code: http.StatusInternalServerError, Message: http.StatusText(http.StatusInternalServerError), Err: err}
}

// ErrorHandler renders every error in the envelope. Errors that are neither
// APIError nor echo.HTTPError become a 500 with a generic message.
func ErrorHandler(logger *logging.Service) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := http.StatusText(code)

		var apiErr *APIError
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &apiErr):
			code, message = apiErr.Code, apiErr.Message
		case errors.As(err, &httpErr):
			code = httpErr.Code
			if m, ok := httpErr.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		}

		req := c.Request()
		if code >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", code),
				zap.Error(err))
		} else {
			logger.Debug("request rejected",
				zap.String("uri", req.RequestURI),
				zap.Int("status", code),
				zap.Error(err))
		}

		if req.Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = JSON(c, code, nil, message)
		}
		if err != nil {
			logger.Error("failed to write error response", zap.Error(err))
		}
	}
}
