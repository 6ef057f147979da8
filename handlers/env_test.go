package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/medreg/config"
	"github.com/tech-arch1tect/medreg/middleware/principal"
	"github.com/tech-arch1tect/medreg/middleware/ratelimit"
	"github.com/tech-arch1tect/medreg/models"
	"github.com/tech-arch1tect/medreg/response"
	"github.com/tech-arch1tect/medreg/services/auth"
	"github.com/tech-arch1tect/medreg/services/hospital"
	"github.com/tech-arch1tect/medreg/services/patient"
	"github.com/tech-arch1tect/medreg/services/session"
	"github.com/tech-arch1tect/medreg/services/storage"
	"github.com/tech-arch1tect/medreg/services/token"
	"github.com/tech-arch1tect/medreg/testutils"
)

type testEnv struct {
	e      *echo.Echo
	cfg    *config.Config
	blobs  *testutils.MemoryBlobStore
	tokens *token.Service
}

func newTestEnv(t *testing.T, configure ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := testutils.GetTestConfig()
	for _, fn := range configure {
		fn(cfg)
	}

	db := testutils.SetupTestDB(t)
	passwords := auth.NewService(&cfg.Auth, nil)
	tokens := token.NewService(&cfg.JWT, nil)
	blobs := testutils.NewMemoryBlobStore()
	uploader := storage.NewUploader(blobs, &cfg.Upload, nil)

	hospitals := hospital.NewService(db, passwords, uploader, nil)
	patients := patient.NewService(db, passwords, uploader, nil)
	sessions := session.NewManager(tokens, passwords, nil, hospitals, patients)

	store := ratelimit.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	limiter := ratelimit.NewLimiter(store, &cfg.RateLimit, nil)

	e := echo.New()
	e.HTTPErrorHandler = response.ErrorHandler(nil)
	RegisterRoutes(e,
		NewHospitalHandler(hospitals, sessions, uploader,
			principal.NewGate[*models.HospitalProfile](tokens, hospitals, nil), limiter, &cfg.Cookie),
		NewPatientHandler(patients, sessions, uploader,
			principal.NewGate[*models.PatientProfile](tokens, patients, nil), limiter, &cfg.Cookie),
	)

	return &testEnv{e: e, cfg: cfg, blobs: blobs, tokens: tokens}
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	bearer      string
	cookies     []*http.Cookie
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func (env *testEnv) do(r request) *httptest.ResponseRecorder {
	req := httptest.NewRequest(r.method, r.path, r.body)
	switch {
	case r.contentType != "":
		req.Header.Set(echo.HeaderContentType, r.contentType)
	case r.body != nil:
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if r.bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+r.bearer)
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) postJSON(t *testing.T, path string, v any, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	return env.do(request{method: http.MethodPost, path: path, body: jsonBody(t, v), bearer: bearer})
}

// envelope mirrors response.Envelope with the data left raw.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type loginData struct {
	Hospital     map[string]any `json:"hospital"`
	User         map[string]any `json:"user"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
}

func hospitalPayload(email string) map[string]any {
	return map[string]any{
		"hospitalname":    "City Hospital",
		"email":           email,
		"password":        testutils.TestPasswords.Valid,
		"helplinenumbers": []string{"108"},
		"specializations": []string{"cardiology"},
		"location":        "Pune",
	}
}

func (env *testEnv) registerHospital(t *testing.T, email string) map[string]any {
	t.Helper()
	rec := env.postJSON(t, HospitalsPrefix+"/register", hospitalPayload(email), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]any
	decode(t, rec, &created)
	return created
}

func (env *testEnv) registerPatient(t *testing.T, email string) map[string]any {
	t.Helper()
	rec := env.postJSON(t, UsersPrefix+"/register", map[string]any{
		"fullname": "Pat Doe",
		"email":    email,
		"password": testutils.TestPasswords.Valid,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]any
	decode(t, rec, &created)
	return created
}

func (env *testEnv) login(t *testing.T, prefix, email string) (loginData, *httptest.ResponseRecorder) {
	t.Helper()
	rec := env.postJSON(t, prefix+"/login", map[string]string{
		"email":    email,
		"password": testutils.TestPasswords.Valid,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var data loginData
	decode(t, rec, &data)
	return data, rec
}
