package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// OpenAPIHandler serves the API description as YAML and JSON
type OpenAPIHandler struct {
	path string

	once    sync.Once
	yamlDoc []byte
	jsonDoc []byte
	loadErr error
}

// NewOpenAPIHandler creates a handler for the document at openAPIPath. The
// file is read on first request.
func NewOpenAPIHandler(openAPIPath string) *OpenAPIHandler {
	absPath, err := filepath.Abs(filepath.Clean(openAPIPath))
	if err != nil {
		absPath = filepath.Clean(openAPIPath)
	}
	return &OpenAPIHandler{path: absPath}
}

// RegisterRoutes registers OpenAPI routes
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/api/v1/openapi.json", h.ServeJSON).Methods("GET")
}

func (h *OpenAPIHandler) load() error {
	h.once.Do(func() {
		data, err := os.ReadFile(h.path)
		if err != nil {
			h.loadErr = fmt.Errorf("failed to read OpenAPI document: %w", err)
			return
		}

		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			h.loadErr = fmt.Errorf("failed to parse OpenAPI document: %w", err)
			return
		}
		asJSON, err := json.Marshal(doc)
		if err != nil {
			h.loadErr = fmt.Errorf("failed to encode OpenAPI document: %w", err)
			return
		}

		h.yamlDoc = data
		h.jsonDoc = asJSON
	})
	return h.loadErr
}

// ServeYAML serves the OpenAPI document in YAML format
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	if err := h.load(); err != nil {
		http.Error(w, "OpenAPI specification not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/x-yaml")
	_, _ = w.Write(h.yamlDoc)
}

// ServeJSON serves the OpenAPI document in JSON format
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	if err := h.load(); err != nil {
		http.Error(w, "OpenAPI specification not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(h.jsonDoc)
}
