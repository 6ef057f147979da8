package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/medreg/response"
	"github.com/tech-arch1tect/medreg/services/session"
)

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return response.NewError(http.StatusBadRequest, "Invalid request body", err)
	}
	return nil
}

// optionalFile returns the named upload, or nil when the request carries none.
func optionalFile(c echo.Context, field string) (*multipart.FileHeader, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, response.NewError(http.StatusBadRequest, "Invalid multipart form", err)
	}
	return fh, nil
}

func formFiles(c echo.Context, field string) ([]*multipart.FileHeader, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, response.NewError(http.StatusBadRequest, "Invalid multipart form", err)
	}
	return form.File[field], nil
}

func queryInt(c echo.Context, name string) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return v
}

// clientContext tags the request context with the caller's address and user
// agent for session logging.
func clientContext(c echo.Context) context.Context {
	return session.WithClient(c.Request().Context(), session.ClientInfo{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
}

type credentialsRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

// presentedRefreshToken prefers the cookie and falls back to the body.
func presentedRefreshToken(c echo.Context) (string, error) {
	if cookie, err := c.Cookie(RefreshCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	var req refreshRequest
	if err := bind(c, &req); err != nil {
		return "", err
	}
	return req.RefreshToken, nil
}
