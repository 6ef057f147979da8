package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/medreg/config"
	"github.com/tech-arch1tect/medreg/middleware/principal"
	"github.com/tech-arch1tect/medreg/middleware/ratelimit"
	"github.com/tech-arch1tect/medreg/models"
	"github.com/tech-arch1tect/medreg/response"
	"github.com/tech-arch1tect/medreg/services/patient"
	"github.com/tech-arch1tect/medreg/services/session"
	"github.com/tech-arch1tect/medreg/services/storage"
)

// PatientHandler serves the /users routes.
type PatientHandler struct {
	patients *patient.Service
	sessions *session.Manager
	uploader *storage.Uploader
	gate     *principal.PatientGate
	limiter  *ratelimit.Limiter
	cookies  cookieWriter
}

func NewPatientHandler(
	patients *patient.Service,
	sessions *session.Manager,
	uploader *storage.Uploader,
	gate *principal.PatientGate,
	limiter *ratelimit.Limiter,
	cookies *config.CookieConfig,
) *PatientHandler {
	return &PatientHandler{
		patients: patients,
		sessions: sessions,
		uploader: uploader,
		gate:     gate,
		limiter:  limiter,
		cookies:  cookieWriter{config: cookies},
	}
}

func (h *PatientHandler) Routes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login, h.limiter.Middleware("patient-login"))
	g.POST("/refresh-token", h.Refresh, h.limiter.Middleware("patient-refresh"))

	g.POST("/logout", h.gate.Protect(h.Logout))
	g.GET("/current-user", h.gate.Protect(h.Current))
	g.POST("/update-profile", h.gate.Protect(h.UpdateProfile))
	g.POST("/upload-reports", h.gate.Protect(h.uploadReports("reports", false)))
	g.POST("/upload-hidden-reports", h.gate.Protect(h.uploadReports("hiddenreports", true)))
	g.POST("/delete-reports", h.gate.Protect(h.deleteReports(false)))
	g.POST("/delete-hidden-reports", h.gate.Protect(h.deleteReports(true)))
	g.POST("/hospitals/:hospitalId", h.gate.Protect(h.LinkHospital))
}

func (h *PatientHandler) Register(c echo.Context) error {
	var in patient.RegisterInput
	if err := bind(c, &in); err != nil {
		return err
	}

	fh, err := optionalFile(c, "profilephoto")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if in.ProfilePhoto, err = h.uploader.UploadOne(ctx, storage.FolderPatientProfiles, fh); err != nil {
		return apiError(err, models.KindPatient)
	}

	created, err := h.patients.Register(ctx, in)
	if err != nil {
		if in.ProfilePhoto != "" {
			h.uploader.Remove(ctx, in.ProfilePhoto)
		}
		return apiError(err, models.KindPatient)
	}

	return response.JSON(c, http.StatusCreated, created, "User created successfully")
}

func (h *PatientHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.sessions.Login(clientContext(c), models.KindPatient, req.Email, req.Password)
	if err != nil {
		return apiError(err, models.KindPatient)
	}

	h.cookies.set(c, result.TokenPair)
	return response.JSON(c, http.StatusOK, map[string]any{
		"user":         result.Principal,
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	}, "User logged in successfully")
}

func (h *PatientHandler) Refresh(c echo.Context) error {
	presented, err := presentedRefreshToken(c)
	if err != nil {
		return err
	}

	pair, err := h.sessions.Refresh(clientContext(c), models.KindPatient, presented)
	if err != nil {
		return refreshError(err, models.KindPatient)
	}

	h.cookies.set(c, *pair)
	return response.JSON(c, http.StatusOK, pair, "Access token refreshed")
}

func (h *PatientHandler) Logout(c echo.Context, p *models.PatientProfile) error {
	if err := h.sessions.Logout(clientContext(c), models.KindPatient, p.ID); err != nil {
		return apiError(err, models.KindPatient)
	}
	h.cookies.clear(c)
	return response.JSON(c, http.StatusOK, map[string]any{}, "User logged out successfully")
}

func (h *PatientHandler) Current(c echo.Context, p *models.PatientProfile) error {
	return response.JSON(c, http.StatusOK, p, "User fetched successfully")
}

func (h *PatientHandler) UpdateProfile(c echo.Context, p *models.PatientProfile) error {
	var in patient.UpdateInput
	if err := bind(c, &in); err != nil {
		return err
	}

	fh, err := optionalFile(c, "profilephoto")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if in.ProfilePhoto, err = h.uploader.UploadOne(ctx, storage.FolderPatientProfiles, fh); err != nil {
		return apiError(err, models.KindPatient)
	}

	updated, err := h.patients.UpdateProfile(ctx, p.ID, in)
	if err != nil {
		if in.ProfilePhoto != "" {
			h.uploader.Remove(ctx, in.ProfilePhoto)
		}
		return apiError(err, models.KindPatient)
	}

	return response.JSON(c, http.StatusOK, updated, "User updated successfully")
}

func (h *PatientHandler) uploadReports(field string, hidden bool) principal.Handler[*models.PatientProfile] {
	folder := storage.FolderReports
	if hidden {
		folder = storage.FolderHiddenReports
	}

	return func(c echo.Context, p *models.PatientProfile) error {
		files, err := formFiles(c, field)
		if err != nil {
			return err
		}

		ctx := c.Request().Context()
		urls, err := h.uploader.Upload(ctx, folder, files)
		if err != nil {
			return apiError(err, models.KindPatient)
		}

		updated, err := h.patients.AddReports(ctx, p.ID, urls, hidden)
		if err != nil {
			h.uploader.Remove(ctx, urls...)
			return apiError(err, models.KindPatient)
		}

		return response.JSON(c, http.StatusCreated, updated, "Reports uploaded successfully")
	}
}

type deleteReportsRequest struct {
	ReportURLs []string `json:"reportUrls" form:"reportUrls"`
}

func (h *PatientHandler) deleteReports(hidden bool) principal.Handler[*models.PatientProfile] {
	return func(c echo.Context, p *models.PatientProfile) error {
		var req deleteReportsRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		updated, err := h.patients.RemoveReports(c.Request().Context(), p.ID, req.ReportURLs, hidden)
		if err != nil {
			return apiError(err, models.KindPatient)
		}

		return response.JSON(c, http.StatusOK, updated, "Reports deleted successfully")
	}
}

func (h *PatientHandler) LinkHospital(c echo.Context, p *models.PatientProfile) error {
	linked, err := h.patients.LinkHospital(c.Request().Context(), p.ID, c.Param("hospitalId"))
	if err != nil {
		return apiError(err, models.KindPatient)
	}
	return response.JSON(c, http.StatusOK, linked.Summary(), "Patient added successfully")
}
