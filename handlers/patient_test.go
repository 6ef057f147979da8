package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tech-arch1tect/medreg/testutils"
)

func TestPatient_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	created := env.registerPatient(t, "P@x.com")
	assert.Equal(t, "p@x.com", created["email"])
	assert.NotContains(t, created, "password")

	rec := env.postJSON(t, UsersPrefix+"/register", map[string]any{
		"fullname": "Other", "email": "p@x.com", "password": testutils.TestPasswords.Valid,
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User with same email already exists", decode(t, rec, nil).Message)

	rec = env.postJSON(t, UsersPrefix+"/register", map[string]any{"email": "q@x.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	data, loginRec := env.login(t, UsersPrefix, "p@x.com")
	assert.Equal(t, "User logged in successfully", decode(t, loginRec, nil).Message)
	assert.Equal(t, "p@x.com", data.User["email"])
	assert.NotEmpty(t, cookieNamed(loginRec, RefreshCookie))

	rec = env.postJSON(t, UsersPrefix+"/login", map[string]string{
		"email": "p@x.com", "password": testutils.TestPasswords.Wrong,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode(t, rec, nil).Message)
}

func TestPatient_RefreshAndLogout(t *testing.T) {
	env := newTestEnv(t)
	env.registerPatient(t, "p@x.com")
	data, loginRec := env.login(t, UsersPrefix, "p@x.com")

	rec := env.do(request{
		method:  http.MethodPost,
		path:    UsersPrefix + "/refresh-token",
		cookies: []*http.Cookie{cookieNamed(loginRec, RefreshCookie)},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rotated loginData
	decode(t, rec, &rotated)
	assert.NotEqual(t, data.RefreshToken, rotated.RefreshToken)

	rec = env.do(request{method: http.MethodPost, path: UsersPrefix + "/logout", bearer: rotated.AccessToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User logged out successfully", decode(t, rec, nil).Message)

	rec = env.postJSON(t, UsersPrefix+"/refresh-token", map[string]string{"refreshToken": rotated.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPatient_CurrentAndUpdate(t *testing.T) {
	env := newTestEnv(t)
	env.registerPatient(t, "p@x.com")
	data, _ := env.login(t, UsersPrefix, "p@x.com")

	rec := env.do(request{method: http.MethodGet, path: UsersPrefix + "/current-user", bearer: data.AccessToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var current map[string]any
	assert.Equal(t, "User fetched successfully", decode(t, rec, &current).Message)
	assert.Equal(t, []any{}, current["hospitals"])

	rec = env.do(request{method: http.MethodGet, path: UsersPrefix + "/current-user", bearer: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid access token", decode(t, rec, nil).Message)

	body, contentType := testutils.MultipartBody(t, map[string][]string{
		"fullname":   {"Pat Renamed"},
		"email":      {"p@x.com"},
		"bloodgroup": {"O+"},
	}, testutils.UploadFile{Field: "profilephoto", Filename: "me.jpg", Content: testutils.JPEGImage(t, 8, 8)})
	rec = env.do(request{method: http.MethodPost, path: UsersPrefix + "/update-profile", body: body, contentType: contentType, bearer: data.AccessToken})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated map[string]any
	assert.Equal(t, "User updated successfully", decode(t, rec, &updated).Message)
	assert.Equal(t, "Pat Renamed", updated["fullname"])
	assert.Equal(t, "O+", updated["bloodgroup"])
	photo, _ := updated["profilephoto"].(string)
	assert.True(t, strings.HasPrefix(photo, "memory://patients/profile/"), photo)

	rec = env.postJSON(t, UsersPrefix+"/update-profile", map[string]any{"fullname": "No Email"}, data.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "fullname, email are required", decode(t, rec, nil).Message)
}

func TestPatient_Reports(t *testing.T) {
	env := newTestEnv(t)
	env.registerPatient(t, "p@x.com")
	data, _ := env.login(t, UsersPrefix, "p@x.com")

	upload := func(path, field string) map[string]any {
		body, contentType := testutils.MultipartBody(t, nil,
			testutils.UploadFile{Field: field, Filename: "r.pdf", Content: testutils.PDFDocument},
		)
		rec := env.do(request{method: http.MethodPost, path: UsersPrefix + path, body: body, contentType: contentType, bearer: data.AccessToken})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var out map[string]any
		assert.Equal(t, "Reports uploaded successfully", decode(t, rec, &out).Message)
		return out
	}

	upload("/upload-reports", "reports")
	patient := upload("/upload-hidden-reports", "hiddenreports")

	reports, _ := patient["reports"].([]any)
	hidden, _ := patient["hiddenreports"].([]any)
	require.Len(t, reports, 1)
	require.Len(t, hidden, 1)
	assert.True(t, strings.HasPrefix(reports[0].(string), "memory://patients/reports/"))
	assert.True(t, strings.HasPrefix(hidden[0].(string), "memory://patients/hidden-reports/"))

	// the wrong field name uploads nothing
	body, contentType := testutils.MultipartBody(t, nil,
		testutils.UploadFile{Field: "reports", Filename: "r.pdf", Content: testutils.PDFDocument},
	)
	rec := env.do(request{method: http.MethodPost, path: UsersPrefix + "/upload-hidden-reports", body: body, contentType: contentType, bearer: data.AccessToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No files uploaded", decode(t, rec, nil).Message)

	rec = env.postJSON(t, UsersPrefix+"/delete-hidden-reports", map[string]any{"reportUrls": reports}, data.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, env.blobs.Len())

	rec = env.postJSON(t, UsersPrefix+"/delete-reports", map[string]any{"reportUrls": reports}, data.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated map[string]any
	assert.Equal(t, "Reports deleted successfully", decode(t, rec, &updated).Message)
	assert.Equal(t, []any{}, updated["reports"])
	assert.Equal(t, hidden, updated["hiddenreports"])
	assert.Equal(t, 1, env.blobs.Len())

	rec = env.postJSON(t, UsersPrefix+"/delete-reports", map[string]any{}, data.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No reports to delete", decode(t, rec, nil).Message)
}

func TestPatient_LinkHospital(t *testing.T) {
	env := newTestEnv(t)
	hospital := env.registerHospital(t, "h@x.com")
	hospitalID := hospital["_id"].(string)
	env.registerPatient(t, "p@x.com")
	patient, _ := env.login(t, UsersPrefix, "p@x.com")

	for range 2 {
		rec := env.do(request{method: http.MethodPost, path: UsersPrefix + "/hospitals/" + hospitalID, bearer: patient.AccessToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var linked map[string]any
		assert.Equal(t, "Patient added successfully", decode(t, rec, &linked).Message)
		assert.Equal(t, hospitalID, linked["_id"])
		assert.NotContains(t, linked, "otherphotos")
	}

	rec := env.do(request{method: http.MethodPost, path: UsersPrefix + "/hospitals/missing", bearer: patient.AccessToken})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Hospital not found", decode(t, rec, nil).Message)

	rec = env.do(request{method: http.MethodGet, path: UsersPrefix + "/current-user", bearer: patient.AccessToken})
	var self map[string]any
	decode(t, rec, &self)
	hospitals, _ := self["hospitals"].([]any)
	require.Len(t, hospitals, 1)
	assert.NotContains(t, hospitals[0], "patients")

	h, _ := env.login(t, HospitalsPrefix, "h@x.com")
	rec = env.do(request{method: http.MethodGet, path: HospitalsPrefix + "/current-hospital", bearer: h.AccessToken})
	var view map[string]any
	decode(t, rec, &view)
	patients, _ := view["patients"].([]any)
	require.Len(t, patients, 1)
	entry := patients[0].(map[string]any)
	assert.Equal(t, "p@x.com", entry["email"])
	assert.NotContains(t, entry, "hiddenreports")
	assert.NotContains(t, entry, "hospitals")
}
