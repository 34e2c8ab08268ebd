// Command contractlens-review analyzes a local contract and prints the flagged clauses
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"contractlens/internal/adapters/providers"
	"contractlens/internal/core/analyze"
	"contractlens/internal/modkit"
	"contractlens/internal/modkit/module"
	"contractlens/internal/platform/config"
	"contractlens/internal/platform/logger"

	"contractlens/internal/services/review/domain"
	reviewmod "contractlens/internal/services/review/module"

	"github.com/fatih/color"
)

func main() {
	var (
		file       = flag.String("file", "", "contract to review (.pdf, .csv, .txt, .md)")
		text       = flag.String("text", "", "contract text, instead of -file")
		generation = flag.String("generation", "", "generation id, the newest valid one when empty")
		mode       = flag.String("mode", "", "numbered or sentence, CORE_REVIEW_MODE when empty")
		topK       = flag.Int("top-k", 0, "reference passages per clause")
		export     = flag.String("export", "", "also write the verdicts as JSON to this path")
		asJSON     = flag.Bool("json", false, "print the report as JSON")
	)
	flag.Parse()

	if _, err := config.LoadDotenv(); err != nil {
		logger.Get().Fatal().Err(err).Msg("load .env")
	}

	if *file == "" && strings.TrimSpace(*text) == "" {
		fmt.Fprintln(os.Stderr, "usage: contractlens-review -file contract.pdf [-generation store_...] [-mode numbered|sentence]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	root := config.New()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	// each local file is confined to its own directory
	var opts reviewmod.Options
	var docName, exportName string
	if *file != "" {
		opts.DocumentRoot, docName = split(*file)
	}
	if *export != "" {
		opts.ExportRoot, exportName = split(*export)
	}

	deps := modkit.Deps{Cfg: root, Log: *l}
	rm := reviewmod.New(deps, opts, reviewmod.WithProviders(reviewmod.Providers{
		Catalog:  providers.Catalog(root),
		Embedder: emb,
		LLM:      llm,
		Template: tpl,
	}))
	module.Register(rm.Name(), rm.Ports())
	reviewer := module.MustPortsOf[reviewmod.Ports](rm).Reviewer

	rep, err := reviewer.Review(ctx, domain.ReviewInput{
		Text:         *text,
		Path:         docName,
		GenerationID: *generation,
		Mode:         *mode,
		TopK:         *topK,
	})
	if err != nil {
		l.Fatal().Err(err).Msg("review")
	}

	if *export != "" {
		res, err := reviewer.Export(ctx, rep.RunID, domain.ExportInput{Path: exportName})
		if err != nil {
			l.Fatal().Err(err).Msg("export")
		}
		l.Info().Str("path", res.Path).Int("violations", res.Violations).Msg("verdicts exported")
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			l.Fatal().Err(err).Msg("encode report")
		}
		return
	}
	printReport(rep)
	if rep.Status != domain.RunDone {
		os.Exit(1)
	}
}

func split(p string) (dir, name string) {
	abs, err := filepath.Abs(p)
	if err != nil {
		logger.Get().Fatal().Err(err).Str("path", p).Msg("resolve path")
	}
	return filepath.Dir(abs), filepath.Base(abs)
}

func printReport(rep domain.Report) {
	bold := color.New(color.Bold).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Printf("%s %s\n", bold("run"), rep.RunID)
	fmt.Printf("  generation %s, mode %s, source %s\n", rep.GenerationID, rep.Mode, rep.Source)
	fmt.Printf("  units %d, violations %d, failed %d\n\n", rep.TotalUnits, rep.ViolationCount, rep.FailedUnits)

	if len(rep.Violations) == 0 {
		fmt.Println(green("no violations found"))
		return
	}

	for _, v := range sorted(rep.Violations) {
		fmt.Printf("%s %s %s\n", red("violation"), bold("#"+strconv.Itoa(v.UnitID)), faint(fmt.Sprintf("(page %d, %s)", v.PageNumber, v.ParseTier)))
		fmt.Printf("  %s\n", v.Text)
		if v.Reason != "" {
			fmt.Printf("  %s %s\n", cyan("reason"), v.Reason)
		}
		if v.Suggestion != "" {
			fmt.Printf("  %s %s\n", cyan("suggestion"), v.Suggestion)
		}
		for _, ref := range v.References {
			fmt.Printf("  %s %s\n", faint("ref"), firstLine(ref))
		}
		fmt.Println()
	}
}

func sorted(m map[string]analyze.Verdict) []analyze.Verdict {
	out := make([]analyze.Verdict, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID < out[j].UnitID })
	return out
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
