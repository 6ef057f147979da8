package apidoc

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/medreg/handlers"
	"github.com/tech-arch1tect/medreg/middleware/principal"
	"github.com/tech-arch1tect/medreg/models"
	"github.com/tech-arch1tect/medreg/services/hospital"
	"github.com/tech-arch1tect/medreg/services/patient"
	"github.com/tech-arch1tect/medreg/services/session"
)

const (
	JSONPath = "/api/docs/openapi.json"
	YAMLPath = "/api/docs/openapi.yaml"

	bearerScheme = "bearerAuth"
	cookieScheme = "cookieAuth"

	hospitalsTag = "hospitals"
	usersTag     = "users"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshBody struct {
	RefreshToken string `json:"refreshToken,omitempty" doc:"only read when the refreshToken cookie is absent"`
}

type hospitalLogin struct {
	Hospital *models.Hospital `json:"hospital"`
	session.TokenPair
}

type userLogin struct {
	User *models.Patient `json:"user"`
	session.TokenPair
}

type photoURLs struct {
	PhotoURLs []string `json:"photoUrls"`
}

type reportURLs struct {
	ReportURLs []string `json:"reportUrls"`
}

type pong struct {
	Message string `json:"message"`
}

// Describe builds the document for every route the API serves.
func Describe(title, version string) *Document {
	doc := New(title, version).
		Description("Hospital and patient registry").
		Tag(hospitalsTag, "Hospital accounts and directory").
		Tag(usersTag, "Patient accounts, reports and hospital links").
		BearerAuth(bearerScheme, "Access token in the Authorization header").
		CookieAuth(cookieScheme, principal.AccessCookie, "Access token cookie set at login")

	doc.Operation(http.MethodGet, "/api/ping").
		Summary("Liveness check").
		Plain(http.StatusOK, pong{}, "Service is up").
		Build()

	describeHospitals(doc, handlers.HospitalsPrefix)
	describeUsers(doc, handlers.UsersPrefix)
	return doc
}

func describeHospitals(doc *Document, prefix string) {
	registerFields := []string{"hospitalname", "email", "password", "helplinenumbers", "specializations",
		"openingtime", "closingtime", "description", "location"}

	doc.Operation(http.MethodPost, prefix+"/register").
		Summary("Register a hospital").Tags(hospitalsTag).
		Body(hospital.RegisterInput{}, "Hospital details").
		Multipart("Hospital details with an optional profile photo", registerFields, "profilephoto").
		Response(http.StatusCreated, models.Hospital{}, "Hospital registered").
		Errors(400, 409, 500).
		Build()

	doc.Operation(http.MethodPost, prefix+"/login").
		Summary("Log in as a hospital").Tags(hospitalsTag).
		Body(credentials{}, "Hospital credentials").
		Response(http.StatusOK, hospitalLogin{}, "Logged in, token cookies set").
		Errors(400, 401, 404, 429, 500).
		Build()

	doc.Operation(http.MethodPost, prefix+"/refresh-token").
		Summary("Rotate the hospital refresh token").Tags(hospitalsTag).
		CookieParam(handlers.RefreshCookie, "Refresh token").
		Body(refreshBody{}, "Refresh token when no cookie is sent").
		Response(http.StatusOK, session.TokenPair{}, "New token pair, cookies replaced").
		Errors(401, 429, 500).
		Build()

	doc.Operation(http.MethodPost, prefix+"/logout").
		Summary("Log out the current hospital").Tags(hospitalsTag).Secured(bearerScheme, cookieScheme).
		Response(http.StatusOK, map[string]any{}, "Logged out, cookies cleared").
		Errors(401, 500).
		Build()

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		doc.Operation(method, prefix+"/current-hospital").
			Summary("Current hospital with its patients").Tags(hospitalsTag).Secured(bearerScheme, cookieScheme).
			Response(http.StatusOK, models.HospitalProfile{}, "Hospital profile").
			Errors(401, 500).
			Build()
	}

	doc.Operation(http.MethodPost, prefix+"/update-profile").
		Summary("Update the current hospital").Tags(hospitalsTag).Secured(bearerScheme, cookieScheme).
		Body(hospital.UpdateInput{}, "Fields to change; name and email are required").
		Multipart("Fields with an optional new profile photo", registerFields[:2], "profilephoto").
		Response(http.StatusOK, models.Hospital{}, "Updated hospital").
		Errors(400, 401, 409, 500).
		Build()

	doc.Operation(http.MethodPost, prefix+"/upload-photos").
		Summary("Add gallery photos").Tags(hospitalsTag).Secured(bearerScheme, cookieScheme).
		Multipart("Photos", nil, "photos").
		Response(http.StatusCreated, models.Hospital{}, "Updated hospital").
		Errors(400, 401, 500).
		Build()

	doc.Operation(http.MethodPost, prefix+"/delete-photos").
		Summary("Remove gallery photos").Tags(hospitalsTag).Secured(bearerScheme, cookieScheme).
		Body(photoURLs{}, "Photo URLs to remove").
		Response(http.StatusOK, models.Hospital{}, "Updated hospital").
		Errors(400, 401, 500).
		Build()

	doc.Operation(http.MethodGet, prefix+"/all").
		Summary("List hospitals").Tags(hospitalsTag).
		IntQueryParam("page", "Page number, from 1").
		IntQueryParam("limit", "Page size").
		Response(http.StatusOK, hospital.Page{}, "A page of hospitals").
		Errors(500).
		Build()

	doc.Operation(http.MethodGet, prefix+"/search").
		Summary("Search hospitals by name").Tags(hospitalsTag).
		QueryParam("name", "Case-insensitive substring of the hospital name").
		IntQueryParam("page", "Page number, from 1").
		IntQueryParam("limit", "Page size").
		Response(http.StatusOK, hospital.Page{}, "Matching hospitals").
		Errors(400, 500).
		Build()

	doc.Operation(http.MethodGet, prefix+"/location/:location").
		Summary("Search hospitals by location").Tags(hospitalsTag).
		PathParam("location", "Case-insensitive substring of the location").
		IntQueryParam("page", "Page number, from 1").
		IntQueryParam("limit", "Page size").
		Response(http.StatusOK, hospital.Page{}, "Matching hospitals").
		Errors(400, 500).
		Build()

	doc.Operation(http.MethodGet, prefix+"/:hospitalId").
		Summary("Get a hospital").Tags(hospitalsTag).
		PathParam("hospitalId", "Hospital id").
		Response(http.StatusOK, models.Hospital{}, "Hospital").
		Errors(404, 500).
		Build()
}

func describeUsers(doc *Document, prefix string) {
	doc.Operation(http.MethodPost, prefix+"/register").
		Summary("Register a patient").Tags(usersTag).
		Body(patient.RegisterInput{}, "Patient details").
		Multipart("Patient details with an optional profile photo", []string{"fullname", "email", "password"}, "profilephoto").
		Response(http.StatusCreated, models.Patient{}, "Patient registered").
		Errors(400, 409, 500).
		Build()

	doc.Operation(http.MethodPost, prefix+"/login").
		Summary("Log in as a patient").Tags(usersTag).
		Body(credentials{}, "Patient credentials").
		Response(http.StatusOK, userLogin{}, "Logged in, token cookies set").
		Errors(400, 401, 404, 429, 500).
		Build()

	doc.Operation(http.MethodPost, prefix+"/refresh-token").
		Summary("Rotate the patient refresh token").Tags(usersTag).
		CookieParam(handlers.RefreshCookie, "Refresh token").
		Body(refreshBody{}, "Refresh token when no cookie is sent").
		Response(http.StatusOK, session.TokenPair{}, "New token pair, cookies replaced").
		Errors(401, 429, 500).
		Build()

	doc.Operation(http.MethodPost, prefix+"/logout").
		Summary("Log out the current patient").Tags(usersTag).Secured(bearerScheme, cookieScheme).
		Response(http.StatusOK, map[string]any{}, "Logged out, cookies cleared").
		Errors(401, 500).
		Build()

	doc.Operation(http.MethodGet, prefix+"/current-user").
		Summary("Current patient with linked hospitals").Tags(usersTag).Secured(bearerScheme, cookieScheme).
		Response(http.StatusOK, models.PatientProfile{}, "Patient profile").
		Errors(401, 500).
		Build()

	doc.Operation(http.MethodPost, prefix+"/update-profile").
		Summary("Update the current patient").Tags(usersTag).Secured(bearerScheme, cookieScheme).
		Body(patient.UpdateInput{}, "Profile fields; fullname and email are required").
		Multipart("Fields with an optional new profile photo",
			[]string{"fullname", "email", "phonenumber", "dob", "bloodgroup", "gender"}, "profilephoto").
		Response(http.StatusOK, models.Patient{}, "Updated patient").
		Errors(400, 401, 409, 500).
		Build()

	for _, r := range []struct{ path, field, summary string }{
		{"/upload-reports", "reports", "Upload reports"},
		{"/upload-hidden-reports", "hiddenreports", "Upload reports hidden from hospitals"},
	} {
		doc.Operation(http.MethodPost, prefix+r.path).
			Summary(r.summary).Tags(usersTag).Secured(bearerScheme, cookieScheme).
			Multipart("Report files", nil, r.field).
			Response(http.StatusCreated, models.Patient{}, "Updated patient").
			Errors(400, 401, 500).
			Build()
	}

	for _, r := range []struct{ path, summary string }{
		{"/delete-reports", "Delete reports"},
		{"/delete-hidden-reports", "Delete hidden reports"},
	} {
		doc.Operation(http.MethodPost, prefix+r.path).
			Summary(r.summary).Tags(usersTag).Secured(bearerScheme, cookieScheme).
			Body(reportURLs{}, "Report URLs to remove").
			Response(http.StatusOK, models.Patient{}, "Updated patient").
			Errors(400, 401, 500).
			Build()
	}

	doc.Operation(http.MethodPost, prefix+"/hospitals/:hospitalId").
		Summary("Link the current patient to a hospital").Tags(usersTag).Secured(bearerScheme, cookieScheme).
		PathParam("hospitalId", "Hospital id").
		Response(http.StatusOK, models.HospitalSummary{}, "Linked hospital").
		Errors(401, 404, 500).
		Build()
}

// Register serves the document.
func Register(e *echo.Echo, doc *Document) {
	e.GET(JSONPath, doc.JSONHandler())
	e.GET(YAMLPath, doc.YAMLHandler())
}
