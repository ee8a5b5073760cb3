package endpoints

import (
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/linemark/internal/api"
	"github.com/jackzampolin/linemark/web"
)

// StaticEndpoint serves the embedded upload page and its assets.
type StaticEndpoint struct{}

var _ api.Endpoint = (*StaticEndpoint)(nil)

func (e *StaticEndpoint) Route() (string, string, http.HandlerFunc) {
	// Wildcard pattern catches all unmatched GET requests.
	return "GET", "/{path...}", e.handler
}

func (e *StaticEndpoint) RequiresInit() bool { return false }

func (e *StaticEndpoint) Command(_ func() string) *cobra.Command {
	return nil // No CLI command for static files
}

func (e *StaticEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	staticFS, err := web.StaticFS()
	if err != nil {
		http.Error(w, "frontend not available", http.StatusInternalServerError)
		return
	}

	filePath := strings.TrimPrefix(r.URL.Path, "/")
	if filePath == "" {
		filePath = "index.html"
	}

	if f, err := staticFS.Open(filePath); err == nil {
		f.Close()
		http.FileServer(http.FS(staticFS)).ServeHTTP(w, r)
		return
	}

	http.NotFound(w, r)
}
