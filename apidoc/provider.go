package apidoc

import (
	"github.com/tech-arch1tect/medreg/config"
	"github.com/tech-arch1tect/medreg/server"
	"go.uber.org/fx"
)

func ProvideDocument(cfg *config.Config) *Document {
	return Describe(cfg.App.Name, cfg.App.Version).Server(cfg.App.URL, "")
}

var Module = fx.Options(
	fx.Provide(ProvideDocument),
	fx.Invoke(func(srv *server.Server, doc *Document) {
		Register(srv.Echo(), doc)
	}),
)
