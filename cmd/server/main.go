package main

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/Aadesh-Ghodke/splitsmart/internal/config"
	"github.com/Aadesh-Ghodke/splitsmart/internal/llm"
	"github.com/Aadesh-Ghodke/splitsmart/internal/middleware"
	"github.com/Aadesh-Ghodke/splitsmart/internal/service"
	"github.com/Aadesh-Ghodke/splitsmart/internal/session"
	"github.com/Aadesh-Ghodke/splitsmart/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var client llm.Client
	switch cfg.Provider {
	case config.ProviderOpenAI:
		client = llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	default:
		client = llm.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	slog.Info("Inference backend ready", "provider", cfg.Provider)

	router := mux.NewRouter()
	router.Use(middleware.Logging, middleware.Metrics)

	service.NewSessionService(session.NewManager(client)).Register(router)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// Serve the two-pane frontend.
	staticDir, err := filepath.Abs(cfg.StaticPath)
	if err != nil {
		slog.Error("Failed to resolve static path", "error", err)
		os.Exit(1)
	}
	router.PathPrefix("/").Handler(spaHandler(staticDir))
	slog.Info("Serving static files", "path", staticDir)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)

	// h2c allows HTTP/2 without TLS behind a local proxy.
	handler := h2c.NewHandler(corsHandler, &http2.Server{})

	slog.Info("Server starting", "address", cfg.Bind)
	if err := http.ListenAndServe(cfg.Bind, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// spaHandler serves files from dir, falling back to index.html for unknown
// paths so client-side routes resolve.
func spaHandler(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(dir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		http.ServeFile(w, r, filePath)
	})
}
