// Package endpoints contains the HTTP endpoints for the linemark server.
// Each endpoint lives in its own file and implements api.Endpoint, pairing
// the HTTP route with an optional CLI command that calls it.
package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/jackzampolin/linemark/internal/api"
)

// Config holds dependencies shared by endpoints at registration time.
// Runtime services (home dir, config, logger) flow through svcctx.
type Config struct{}

// All returns every endpoint the server registers.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		&HealthEndpoint{},
		&AnnotateRestrictedEndpoint{},
		&AnnotateFullEndpoint{},
		&OutputsDownloadEndpoint{},
		&StaticEndpoint{},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}
