// Command contractlens-indexer builds a generation from a CSV of reference clauses, or lists generations
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"contractlens/internal/adapters/providers"
	"contractlens/internal/modkit"
	"contractlens/internal/modkit/module"
	"contractlens/internal/platform/config"
	"contractlens/internal/platform/logger"

	"contractlens/internal/services/indexer/domain"
	indexermod "contractlens/internal/services/indexer/module"

	"github.com/fatih/color"
)

func main() {
	var (
		csvPath   = flag.String("csv", "", "reference clause CSV to embed")
		modelType = flag.String("model-type", "", "expected embedder type (openai, ollama); must match the configured provider")
		model     = flag.String("model", "", "expected embedding model; must match the configured provider")
		rootDir   = flag.String("root", "", "generations root, overrides CORE_INDEX_ROOT")
		list      = flag.Bool("list", false, "list generations instead of building one")
	)
	flag.Parse()

	if _, err := config.LoadDotenv(); err != nil {
		logger.Get().Fatal().Err(err).Msg("load .env")
	}
	if *rootDir != "" {
		_ = os.Setenv("CORE_INDEX_ROOT", *rootDir)
	}

	root := config.New()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	emb, err := providers.Embedder(root)
	if err != nil {
		l.Fatal().Err(err).Msg("embedder")
	}
	catalog := providers.Catalog(root)

	// the CSV is confined to its own directory
	var opts indexermod.Options
	var csvName string
	if *csvPath != "" {
		abs, err := filepath.Abs(*csvPath)
		if err != nil {
			l.Fatal().Err(err).Str("path", *csvPath).Msg("resolve csv path")
		}
		opts.SourceRoot, csvName = filepath.Dir(abs), filepath.Base(abs)
	}

	deps := modkit.Deps{Cfg: root, Log: *l}
	im := indexermod.New(deps, opts, indexermod.WithProviders(indexermod.Providers{
		Catalog:  catalog,
		Embedder: emb,
	}))
	module.Register(im.Name(), im.Ports())
	idx := module.MustPortsOf[indexermod.Ports](im).Indexer

	if *list {
		views, err := idx.List(ctx)
		if err != nil {
			l.Fatal().Err(err).Msg("list generations")
		}
		printList(catalog.Root(), views)
		return
	}

	if *csvPath == "" {
		fmt.Fprintln(os.Stderr, "usage: contractlens-indexer -csv reference.csv [-model-type openai -model text-embedding-3-small]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	res, err := idx.Build(ctx, domain.BuildInput{CSVPath: csvName, ModelType: *modelType, Model: *model})
	if err != nil {
		l.Fatal().Err(err).Msg("build generation")
	}
	ok := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Printf("%s %s\n", ok("built"), res.Generation.ID)
	fmt.Printf("  passages %d, skipped %d, took %s\n", res.Passages, res.Skipped, res.Took)
}

func printList(root string, views []domain.GenerationView) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Printf("%s %s (%d)\n", bold("generations in"), root, len(views))
	for _, v := range views {
		switch {
		case !v.Valid:
			fmt.Printf("  %s %s %s\n", red("x"), v.ID, faint(v.Problem))
		case v.Latest:
			fmt.Printf("  %s %s %s\n", green("*"), bold(v.ID), compat(v.Compatible))
		default:
			fmt.Printf("    %s %s\n", v.ID, compat(v.Compatible))
		}
	}
}

func compat(ok bool) string {
	if ok {
		return ""
	}
	return color.YellowString("(other embedder)")
}
