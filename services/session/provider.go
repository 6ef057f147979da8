package session

import (
	"github.com/tech-arch1tect/medreg/services/auth"
	"github.com/tech-arch1tect/medreg/services/logging"
	"github.com/tech-arch1tect/medreg/services/token"
	"go.uber.org/fx"
)

// StoreGroup is the fx value group principal services register into.
const StoreGroup = `group:"credential_stores"`

type ManagerParams struct {
	fx.In

	Tokens    *token.Service
	Passwords *auth.Service
	Logger    *logging.Service
	Stores    []CredentialStore `group:"credential_stores"`
}

func ProvideManager(p ManagerParams) *Manager {
	return NewManager(p.Tokens, p.Passwords, p.Logger.Named("session"), p.Stores...)
}

var Module = fx.Options(
	fx.Provide(ProvideManager),
)
