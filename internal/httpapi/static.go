package httpapi

import (
	"embed"
	"io/fs"
	"net/http"
)

// The chat page is compiled into the binary so a bare `aria` process
// serves a working client with no assets on disk.
//
//go:embed static/index.html
var staticFS embed.FS

func newStaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// Embed contents are fixed at build time; this cannot happen.
		return http.NotFoundHandler()
	}
	return http.FileServer(http.FS(sub))
}
