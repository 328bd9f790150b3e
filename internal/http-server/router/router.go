package router

import (
	"net/http"
	"strings"

	"catalog-media/internal/http-server/handler/asset"
	"catalog-media/internal/http-server/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	AssetHandler *asset.AssetHandler
	// UploadsDir serves the /uploads subtree when the local storage backend
	// is active; empty disables static serving.
	UploadsDir string
}

func SetupRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/uploads/") {
				middleware.LoggingMiddleware(next).ServeHTTP(w, r)
			} else {
				next.ServeHTTP(w, r)
			}
		})
	})

	if h.UploadsDir != "" {
		uploadsDir := http.Dir(h.UploadsDir)
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(uploadsDir)))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				next.ServeHTTP(w, r)
			})
		})

		r.Route("/{kind}/{ownerID}/images", func(r chi.Router) {
			r.Post("/", h.AssetHandler.UploadAssets)
			r.Get("/", h.AssetHandler.ListAssets)
		})

		r.Delete("/assets/{id}", h.AssetHandler.DeleteAsset)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		})
	})

	return r
}
