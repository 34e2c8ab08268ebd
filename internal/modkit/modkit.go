// Package modkit wires feature modules into the API router
package modkit

import (
	"net/http"

	"contractlens/internal/modkit/httpkit"
	"contractlens/internal/modkit/module"
	"contractlens/internal/modkit/repokit"
	"contractlens/internal/platform/config"
	"contractlens/internal/platform/logger"
	"contractlens/internal/platform/store"
	str "contractlens/internal/platform/strings"
)

// Deps are shared by every module, PG and CH are nil when the backend is off
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}

// Module is what the API mounts
type Module = module.Module

// Option adjusts a module while it is built
type Option func(*Built)

// Built is the result of applying options
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	Ports  any // injected ports or providers, the concrete type is owned by the module
}

// WithName sets the registry name
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix sets the mount path
func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends per module middleware
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithPorts injects what the module consumes from others
func WithPorts[T any](p T) Option { return func(b *Built) { b.Ports = p } }

// Build applies opts in order, later options win
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	return b
}

// Routes turns b into a Module serving register under b.Prefix and exposing ports.
// A nil register yields a module without routes, as worker modules are
func (b Built) Routes(ports any, register func(httpkit.Router)) *Routed {
	return &Routed{b: b, ports: ports, register: register}
}

// Routed is the Module Build produces
type Routed struct {
	b        Built
	ports    any
	register func(httpkit.Router)
}

// MountRoutes mounts the module under its prefix
func (m *Routed) MountRoutes(r httpkit.Router) {
	if m.register == nil {
		return
	}
	httpkit.MountUnder(r, str.MustPrefix(m.b.Prefix), m.b.Mw, m.register)
}

// Name panics on an unnamed module, the registry needs one
func (m *Routed) Name() string { return str.MustString(m.b.Name, "module name") }

// Ports returns what other modules may consume
func (m *Routed) Ports() any { return m.ports }
