package handlers

import "github.com/labstack/echo/v4"

const (
	HospitalsPrefix = "/api/v1/hospitals"
	UsersPrefix     = "/api/v1/users"
)

func RegisterRoutes(e *echo.Echo, hospitals *HospitalHandler, patients *PatientHandler) {
	e.GET("/api/ping", Ping)
	hospitals.Routes(e.Group(HospitalsPrefix))
	patients.Routes(e.Group(UsersPrefix))
}
