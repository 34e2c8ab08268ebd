// Package api provides the HTTP API for the application
package api

import (
	"time"

	"contractlens/internal/core/analyze"
	"contractlens/internal/core/embedding"
	"contractlens/internal/core/generation"
	"contractlens/internal/platform/config"
	"contractlens/internal/platform/logger"
	phttp "contractlens/internal/platform/net/http"
	"contractlens/internal/platform/net/middleware"
	"contractlens/internal/platform/store"

	"contractlens/internal/modkit"
	"contractlens/internal/modkit/httpkit"
	"contractlens/internal/modkit/module"
	"contractlens/internal/modkit/swaggerkit"

	gensmod "contractlens/internal/services/api/generations/module"
	metamod "contractlens/internal/services/api/meta/module"
	reviewsmod "contractlens/internal/services/api/reviews/module"

	// worker modules own the pipeline ports the API modules consume
	indexermod "contractlens/internal/services/indexer/module"
	reviewmod "contractlens/internal/services/review/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf // root config, modules apply their own prefixes
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
	RequestTimeout time.Duration       // 0 keeps httpkit.DefaultRequestTimeout
	Auth           middleware.AuthPort // nil leaves the pipeline routes open

	Catalog  *generation.Catalog
	Embedder embedding.Embedder
	LLM      analyze.Completer
	Template *analyze.Template // optional
}

// Mounted is what the entrypoint keeps after Mount
type Mounted struct {
	Review *reviewmod.Module
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) Mounted {
	if opt.Catalog == nil || opt.Embedder == nil || opt.LLM == nil {
		panic("api.Mount requires Catalog, Embedder and LLM")
	}

	// shared deps for modules
	deps := modkit.Deps{Cfg: opt.Config}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
		deps.CH = opt.Store.CH
	}

	// worker modules first, their ports feed the API modules
	review := reviewmod.New(deps, reviewmod.Options{}, reviewmod.WithProviders(reviewmod.Providers{
		Catalog:  opt.Catalog,
		Embedder: opt.Embedder,
		LLM:      opt.LLM,
		Template: opt.Template,
	}))
	indexer := indexermod.New(deps, indexermod.Options{}, indexermod.WithProviders(indexermod.Providers{
		Catalog:  opt.Catalog,
		Embedder: opt.Embedder,
	}))

	meta := metamod.Ports{Catalog: opt.Catalog, Embedder: opt.Embedder.Identity()}

	// meta stays open for health checks, the pipeline routes sit behind Auth
	open := []module.Module{
		metamod.New(deps, modkit.WithPorts(meta)),
		// include workers so their ports are registered
		review,
		indexer,
	}
	protected := []module.Module{
		gensmod.New(deps, modkit.WithPorts(gensmod.Ports{
			Indexer: module.MustPortsOf[indexermod.Ports](indexer).Indexer,
		})),
		reviewsmod.New(deps, modkit.WithPorts(reviewsmod.Ports{
			Reviewer: module.MustPortsOf[reviewmod.Ports](review).Reviewer,
		})),
	}

	mount := func(api httpkit.Router, mods []module.Module) {
		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStackTimeout(opt.RequestTimeout), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		mount(api, open)
		httpkit.Protected(api, opt.Auth, func(pr httpkit.Router) { mount(pr, protected) })
	})

	return Mounted{Review: review}
}
