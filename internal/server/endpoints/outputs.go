package endpoints

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/linemark/internal/api"
	"github.com/jackzampolin/linemark/internal/svcctx"
)

// OutputsDownloadEndpoint handles GET /api/outputs/{name}: it streams an
// annotated document or report from the home outputs directory.
type OutputsDownloadEndpoint struct{}

var _ api.Endpoint = (*OutputsDownloadEndpoint)(nil)

func (e *OutputsDownloadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/outputs/{name}", e.handler
}

func (e *OutputsDownloadEndpoint) RequiresInit() bool { return true }

func (e *OutputsDownloadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	h := svcctx.HomeFrom(r.Context())
	if h == nil {
		writeError(w, http.StatusServiceUnavailable, "home directory not initialized")
		return
	}

	name := r.PathValue("name")
	// Reject anything that is not a bare filename.
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		writeError(w, http.StatusBadRequest, "invalid output name")
		return
	}

	path := filepath.Join(h.OutputsDir(), name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no output named %s", name))
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

func (e *OutputsDownloadEndpoint) Command(getServerURL func() string) *cobra.Command {
	var dest string
	cmd := &cobra.Command{
		Use:   "download <name>",
		Short: "Download an annotated output or report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			out := dest
			if out == "" {
				out = name
			}
			client := api.NewClient(getServerURL())
			if err := client.Download(cmd.Context(), "/api/outputs/"+name, out); err != nil {
				return err
			}
			fmt.Printf("Saved %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&dest, "dest", "", "Destination path (default: the output's name)")
	return cmd
}
