package handlers

import (
	_ "embed"
	"net/http"
)

//go:embed manual.md
var manualMarkdown []byte

const manualFilename = "manual_terapeuta_detetive_ajuda.md"

// Manual serves the therapist manual as markdown. ?download=1 offers it as a file.
func Manual(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+manualFilename+`"`)
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(manualMarkdown)
}
