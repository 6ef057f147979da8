package models

import (
	"errors"
	"strings"
)

// Kind identifies which collection a principal lives in.
type Kind string

const (
	KindHospital Kind = "hospital"
	KindPatient  Kind = "patient"
)

func (k Kind) Valid() bool {
	return k == KindHospital || k == KindPatient
}

func (k Kind) String() string {
	return string(k)
}

var (
	ErrPrincipalNotFound = errors.New("principal not found")
	ErrEmailTaken        = errors.New("email already registered")
)

// Credentials is the subset of a principal the session layer works with.
type Credentials struct {
	ID           string
	Kind         Kind
	Email        string
	PasswordHash string
	RefreshToken string
}

// NormalizeEmail trims and lower-cases an address before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidationError carries a message that is safe to show to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func Invalid(message string) error {
	return &ValidationError{Message: message}
}
