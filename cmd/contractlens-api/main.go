// @title         Contractlens API
// @version       0.1.0
// @description   Contract clause review against versioned reference generations
// @BasePath      /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"contractlens/internal/adapters/providers"
	"contractlens/internal/platform/config"
	"contractlens/internal/platform/logger"
	phttp "contractlens/internal/platform/net/http"
	"contractlens/internal/platform/store"

	"contractlens/internal/modkit/httpkit"
	"contractlens/internal/modkit/repokit"
	"contractlens/internal/services/api"
)

func main() {
	// .env first so every config view below sees it
	if _, err := config.LoadDotenv(); err != nil {
		logger.Get().Fatal().Err(err).Msg("load .env")
	}

	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	pgCfg := root.Prefix("SERVICE_PGSQL_")      // pgCfg lives under SERVICE_PGSQL_*
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_") // chCfg lives under SERVICE_CLICKHOUSE_*
	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// both stores are optional: archive needs pg, run stats need ch
	scfg := store.Config{AppName: "api"}
	if pgCfg.MayBool("ENABLED", false) {
		scfg.PG = store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		}
	}
	if chCfg.MayBool("ENABLED", false) {
		scfg.CH = store.CHConfig{Enabled: true, URL: chCfg.MustString("DBURL")}
	}
	st, err := store.Open(ctx, scfg, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	// clickhouse dials lazily, so ping everything before taking traffic
	repokit.MustGuard(ctx, st)
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	emb, err := providers.Embedder(root)
	if err != nil {
		l.Fatal().Err(err).Msg("embedder")
	}
	llm, err := providers.LLM(root)
	if err != nil {
		l.Fatal().Err(err).Msg("llm")
	}
	tpl, err := providers.Template(root)
	if err != nil {
		l.Fatal().Err(err).Msg("prompt template")
	}
	catalog := providers.Catalog(root)
	l.Info().Str("embedder", emb.Identity().String()).Str("generations", catalog.Root()).Msg("providers ready")

	// http server (reads CORE_API_ADDR)
	srv := phttp.NewServer(apiCfg)

	opts := api.Options{
		Config:         root,
		Store:          st,
		Logger:         l,
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
		RequestTimeout: apiCfg.MayDuration("TIMEOUT", httpkit.DefaultRequestTimeout),
		Catalog:        catalog,
		Embedder:       emb,
		LLM:            llm,
		Template:       tpl,
	}
	if port := httpkit.StaticTokens(apiCfg.MayCSV("TOKENS", nil)...); port != nil {
		opts.Auth = port
	}

	// mount our API
	mounted := api.Mount(srv.Router(), opts)

	// run
	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()

	select {
	case err := <-errc:
		if err != nil {
			l.Panic().Err(err).Msg("http server stopped")
		}
	case <-ctx.Done():
		l.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			l.Error().Err(err).Msg("http shutdown")
		}
	}

	// background reviews finish before the stores close
	mounted.Review.Service().Wait()
}
