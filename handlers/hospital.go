package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/medreg/config"
	"github.com/tech-arch1tect/medreg/middleware/principal"
	"github.com/tech-arch1tect/medreg/middleware/ratelimit"
	"github.com/tech-arch1tect/medreg/models"
	"github.com/tech-arch1tect/medreg/response"
	"github.com/tech-arch1tect/medreg/services/hospital"
	"github.com/tech-arch1tect/medreg/services/session"
	"github.com/tech-arch1tect/medreg/services/storage"
)

type HospitalHandler struct {
	hospitals *hospital.Service
	sessions  *session.Manager
	uploader  *storage.Uploader
	gate      *principal.HospitalGate
	limiter   *ratelimit.Limiter
	cookies   cookieWriter
}

func NewHospitalHandler(
	hospitals *hospital.Service,
	sessions *session.Manager,
	uploader *storage.Uploader,
	gate *principal.HospitalGate,
	limiter *ratelimit.Limiter,
	cookies *config.CookieConfig,
) *HospitalHandler {
	return &HospitalHandler{
		hospitals: hospitals,
		sessions:  sessions,
		uploader:  uploader,
		gate:      gate,
		limiter:   limiter,
		cookies:   cookieWriter{config: cookies},
	}
}

func (h *HospitalHandler) Routes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login, h.limiter.Middleware("hospital-login"))
	g.POST("/refresh-token", h.Refresh, h.limiter.Middleware("hospital-refresh"))
	g.GET("/all", h.List)
	g.GET("/search", h.Search)
	g.GET("/location/:location", h.ByLocation)

	current := h.gate.Protect(h.Current)
	g.GET("/current-hospital", current)
	g.POST("/current-hospital", current)
	g.POST("/logout", h.gate.Protect(h.Logout))
	g.POST("/update-profile", h.gate.Protect(h.UpdateProfile))
	g.POST("/upload-photos", h.gate.Protect(h.UploadPhotos))
	g.POST("/delete-photos", h.gate.Protect(h.DeletePhotos))

	// must stay last so the static paths above win
	g.GET("/:hospitalId", h.ByID)
}

func (h *HospitalHandler) Register(c echo.Context) error {
	var in hospital.RegisterInput
	if err := bind(c, &in); err != nil {
		return err
	}

	fh, err := optionalFile(c, "profilephoto")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if in.ProfilePhoto, err = h.uploader.UploadOne(ctx, storage.FolderHospitalProfiles, fh); err != nil {
		return apiError(err, models.KindHospital)
	}

	created, err := h.hospitals.Register(ctx, in)
	if err != nil {
		if in.ProfilePhoto != "" {
			h.uploader.Remove(ctx, in.ProfilePhoto)
		}
		return apiError(err, models.KindHospital)
	}

	return response.JSON(c, http.StatusCreated, created, "Hospital registered successfully")
}

func (h *HospitalHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.sessions.Login(clientContext(c), models.KindHospital, req.Email, req.Password)
	if err != nil {
		return apiError(err, models.KindHospital)
	}

	h.cookies.set(c, result.TokenPair)
	return response.JSON(c, http.StatusOK, map[string]any{
		"hospital":     result.Principal,
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	}, "Hospital logged in successfully")
}

func (h *HospitalHandler) Refresh(c echo.Context) error {
	presented, err := presentedRefreshToken(c)
	if err != nil {
		return err
	}

	pair, err := h.sessions.Refresh(clientContext(c), models.KindHospital, presented)
	if err != nil {
		return refreshError(err, models.KindHospital)
	}

	h.cookies.set(c, *pair)
	return response.JSON(c, http.StatusOK, pair, "Access token refreshed")
}

func (h *HospitalHandler) Logout(c echo.Context, p *models.HospitalProfile) error {
	if err := h.sessions.Logout(clientContext(c), models.KindHospital, p.ID); err != nil {
		return apiError(err, models.KindHospital)
	}
	h.cookies.clear(c)
	return response.JSON(c, http.StatusOK, map[string]any{}, "Hospital logged out successfully")
}

func (h *HospitalHandler) Current(c echo.Context, p *models.HospitalProfile) error {
	return response.JSON(c, http.StatusOK, p, "Hospital fetched successfully")
}

func (h *HospitalHandler) UpdateProfile(c echo.Context, p *models.HospitalProfile) error {
	var in hospital.UpdateInput
	if err := bind(c, &in); err != nil {
		return err
	}

	fh, err := optionalFile(c, "profilephoto")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if in.ProfilePhoto, err = h.uploader.UploadOne(ctx, storage.FolderHospitalProfiles, fh); err != nil {
		return apiError(err, models.KindHospital)
	}

	updated, err := h.hospitals.UpdateProfile(ctx, p.ID, in)
	if err != nil {
		if in.ProfilePhoto != "" {
			h.uploader.Remove(ctx, in.ProfilePhoto)
		}
		return apiError(err, models.KindHospital)
	}

	return response.JSON(c, http.StatusOK, updated, "Hospital profile updated successfully")
}

func (h *HospitalHandler) UploadPhotos(c echo.Context, p *models.HospitalProfile) error {
	files, err := formFiles(c, "photos")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	urls, err := h.uploader.Upload(ctx, storage.FolderHospitalPhotos, files)
	if err != nil {
		return apiError(err, models.KindHospital)
	}

	updated, err := h.hospitals.AddPhotos(ctx, p.ID, urls)
	if err != nil {
		h.uploader.Remove(ctx, urls...)
		return apiError(err, models.KindHospital)
	}

	return response.JSON(c, http.StatusCreated, updated, "Photos uploaded successfully")
}

type deletePhotosRequest struct {
	PhotoURLs []string `json:"photoUrls" form:"photoUrls"`
}

func (h *HospitalHandler) DeletePhotos(c echo.Context, p *models.HospitalProfile) error {
	var req deletePhotosRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	updated, err := h.hospitals.RemovePhotos(c.Request().Context(), p.ID, req.PhotoURLs)
	if err != nil {
		return apiError(err, models.KindHospital)
	}

	return response.JSON(c, http.StatusOK, updated, "Photos deleted successfully")
}

func (h *HospitalHandler) List(c echo.Context) error {
	page, err := h.hospitals.List(c.Request().Context(), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		return apiError(err, models.KindHospital)
	}
	return response.JSON(c, http.StatusOK, page, "Hospitals fetched successfully")
}

func (h *HospitalHandler) Search(c echo.Context) error {
	page, err := h.hospitals.SearchByName(c.Request().Context(), c.QueryParam("name"), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		return apiError(err, models.KindHospital)
	}
	return response.JSON(c, http.StatusOK, page, "Hospitals fetched successfully")
}

func (h *HospitalHandler) ByLocation(c echo.Context) error {
	page, err := h.hospitals.SearchByLocation(c.Request().Context(), c.Param("location"), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		return apiError(err, models.KindHospital)
	}
	return response.JSON(c, http.StatusOK, page, "Hospitals fetched successfully")
}

func (h *HospitalHandler) ByID(c echo.Context) error {
	found, err := h.hospitals.GetPublic(c.Request().Context(), c.Param("hospitalId"))
	if err != nil {
		return apiError(err, models.KindHospital)
	}
	return response.JSON(c, http.StatusOK, found, "Hospital fetched successfully")
}
