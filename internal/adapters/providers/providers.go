// Package providers builds the configured embedder, language model and generation catalog
// from env, so every entrypoint selects them the same way
package providers

import (
	"strings"

	embedollama "contractlens/internal/adapters/embed/ollama"
	embedopenai "contractlens/internal/adapters/embed/openai"
	llmollama "contractlens/internal/adapters/llm/ollama"
	llmopenai "contractlens/internal/adapters/llm/openai"
	"contractlens/internal/core/analyze"
	"contractlens/internal/core/embedding"
	"contractlens/internal/core/generation"
	"contractlens/internal/platform/config"
	perr "contractlens/internal/platform/errors"
)

// Provider names accepted by CORE_EMBED_PROVIDER and CORE_LLM_PROVIDER
const (
	OpenAI = "openai"
	Ollama = "ollama"
)

// DefaultIndexRoot is where generations live when CORE_INDEX_ROOT is unset
const DefaultIndexRoot = "vector_stores"

// Embedder builds the CORE_EMBED_* embedder; root is the unprefixed config
func Embedder(root config.Conf) (embedding.Embedder, error) {
	c := root.Prefix("CORE_EMBED_")
	switch p := strings.ToLower(c.MayString("PROVIDER", OpenAI)); p {
	case OpenAI:
		return embedopenai.New(embedopenai.Config{
			BaseURL:    c.MayString("BASE_URL", ""),
			APIKey:     c.MayString("API_KEY", root.MayString("OPENAI_API_KEY", "")),
			Model:      c.MayString("MODEL", ""),
			Timeout:    c.MayDuration("TIMEOUT", 0),
			BatchSize:  c.MayInt("BATCH_SIZE", 0),
			MaxRetries: c.MayInt("MAX_RETRIES", 3),
		})
	case Ollama:
		return embedollama.New(embedollama.Config{
			Host:      c.MayString("HOST", ""),
			Model:     c.MayString("MODEL", ""),
			Timeout:   c.MayDuration("TIMEOUT", 0),
			BatchSize: c.MayInt("BATCH_SIZE", 0),
		})
	default:
		return nil, perr.InvalidArgf("unknown embedding provider %q (want openai or ollama)", p)
	}
}

// LLM builds the CORE_LLM_* completer; the openai provider speaks the chat completions
// protocol and defaults to OpenRouter
func LLM(root config.Conf) (analyze.Completer, error) {
	c := root.Prefix("CORE_LLM_")
	switch p := strings.ToLower(c.MayString("PROVIDER", OpenAI)); p {
	case OpenAI:
		key := c.MayString("API_KEY", root.MayString("OPENROUTER_API_KEY", root.MayString("OPENAI_API_KEY", "")))
		return llmopenai.New(llmopenai.Config{
			BaseURL:  c.MayString("BASE_URL", ""),
			APIKey:   key,
			Model:    c.MayString("MODEL", ""),
			AppTitle: c.MayString("APP_TITLE", "contractlens"),
			Timeout:  c.MayDuration("TIMEOUT", 0),
		})
	case Ollama:
		return llmollama.New(llmollama.Config{
			Host:    c.MayString("HOST", ""),
			Model:   c.MayString("MODEL", ""),
			Timeout: c.MayDuration("TIMEOUT", 0),
		})
	default:
		return nil, perr.InvalidArgf("unknown llm provider %q (want openai or ollama)", p)
	}
}

// Template loads CORE_LLM_PROMPT_FILE; nil means the built-in prompt
func Template(root config.Conf) (*analyze.Template, error) {
	path := strings.TrimSpace(root.Prefix("CORE_LLM_").MayString("PROMPT_FILE", ""))
	if path == "" {
		return nil, nil
	}
	return analyze.LoadTemplate(path)
}

// Catalog opens the generation catalog under CORE_INDEX_ROOT
func Catalog(root config.Conf) *generation.Catalog {
	return generation.NewCatalog(root.Prefix("CORE_INDEX_").MayString("ROOT", DefaultIndexRoot))
}
