package http

import (
	"net/http"
	"os"
	"path/filepath"
)

// ServeMainApp serves the dashboard's index.html from webDir
func ServeMainApp(webDir string) http.HandlerFunc {
	indexPath := filepath.Join(webDir, "index.html")
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := os.Stat(indexPath); err != nil {
			http.Error(w, "Dashboard page not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, indexPath)
	}
}

// StaticFiles serves dashboard assets mounted under prefix
func StaticFiles(prefix, webDir string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(http.Dir(filepath.Join(webDir, "static"))))
}
