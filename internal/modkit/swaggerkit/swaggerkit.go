// Package swaggerkit serves the generated API description and the Swagger UI
package swaggerkit

import (
	"encoding/json"
	"net/http"

	"contractlens/internal/platform/config"
	phttp "contractlens/internal/platform/net/http"
	"contractlens/internal/services/api/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Mutator adjusts the parsed document before it is served
type Mutator func(doc map[string]any)

var (
	mutators []Mutator
	readDoc  = func() string { return docs.SwaggerInfo.ReadDoc() }
)

// Register adds a mutator, call it from init
func Register(m Mutator) {
	if m != nil {
		mutators = append(mutators, m)
	}
}

// Mount serves the UI under /api/docs/ and the document at /api/docs/doc.json
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", serveDoc)
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName(docs.SwaggerInfo.InstanceName()),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}

func serveDoc(w http.ResponseWriter, _ *http.Request) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(readDoc()), &doc); err != nil {
		http.Error(w, "api description is not valid JSON", http.StatusInternalServerError)
		return
	}

	if suffix := config.New().Prefix("CORE_API_").MayString("DOCS_TITLE_SUFFIX", ""); suffix != "" {
		if info, ok := doc["info"].(map[string]any); ok {
			info["title"] = str(info["title"]) + " " + suffix
		}
	}
	defineEnvelope(doc)
	for code, desc := range map[string]string{"500": "internal error", "502": "model or embedding provider failed"} {
		addDefault(doc, code, desc)
	}
	for _, m := range mutators {
		m(doc)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(doc)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func child(m map[string]any, key string) map[string]any {
	c, ok := m[key].(map[string]any)
	if !ok {
		c = map[string]any{}
		m[key] = c
	}
	return c
}

// defineEnvelope documents the body every endpoint writes
func defineEnvelope(doc map[string]any) {
	defs := child(doc, "definitions")
	if _, ok := defs["Envelope"]; ok {
		return
	}
	prop := func(typ string) map[string]any { return map[string]any{"type": typ} }
	defs["Envelope"] = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status_code": prop("integer"),
			"status":      prop("string"),
			"code":        prop("integer"),
			"error":       prop("string"),
			"field":       prop("string"),
			"request_id":  prop("string"),
			"data":        map[string]any{},
		},
		"required": []any{"status_code", "status"},
	}
}

// addDefault gives every operation a code response unless it declares its own
func addDefault(doc map[string]any, code, desc string) {
	paths, _ := doc["paths"].(map[string]any)
	for _, p := range paths {
		ops, _ := p.(map[string]any)
		for _, o := range ops {
			op, ok := o.(map[string]any)
			if !ok {
				continue
			}
			resps := child(op, "responses")
			if _, ok := resps[code]; !ok {
				resps[code] = map[string]any{
					"description": desc,
					"schema":      map[string]any{"$ref": "#/definitions/Envelope"},
				}
			}
		}
	}
}
