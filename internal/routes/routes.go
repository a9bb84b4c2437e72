package routes

import (
	"net/http"
	"os"
	"path/filepath"

	"foodanalyzer/internal/config"
	"foodanalyzer/internal/handlers"
	"foodanalyzer/internal/logger"
	"foodanalyzer/internal/middleware"
	"foodanalyzer/internal/services"
)

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join("static", path+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers HTTP routes, static file serving and API endpoints,
// and wraps the mux with the request logging middleware.
func SetupRoutes(manager *services.Manager, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// Analysis endpoints
	mux.HandleFunc("/api/analyze", handlers.AnalyzeHandler(manager, cfg, logger))
	mux.HandleFunc("/api/camera", handlers.CameraWebsocketHandler(manager, cfg, logger))
	mux.HandleFunc("/api/feed", handlers.FeedWebsocketHandler(manager, logger))

	// History endpoints
	mux.HandleFunc("/api/analyses", handlers.GetAnalysesHandler(manager, cfg, logger))
	mux.HandleFunc("/api/analyses/view", handlers.ViewPhotoHandler(manager))
	mux.HandleFunc("/api/analyses/delete", handlers.DeleteAnalysisHandler(manager, logger))
	mux.HandleFunc("/api/analyses/clear", handlers.ClearAnalysesHandler(manager, logger))
	mux.HandleFunc("/api/analyses/stats", handlers.GetStatsHandler(manager, logger))

	// Automatic HTML handler mapping for example: /history -> /static/history.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	// Apply middleware
	return middleware.RequestLogger(mux, logger)
}
