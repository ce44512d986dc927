package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/mtlprog/coinconv/internal/notify"
	"github.com/mtlprog/coinconv/internal/static"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, market MarketService, notifier notify.Notifier, adminAPIKey string) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewRouter(market, notifier, adminAPIKey),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewRouter builds the route table; split out from NewServer for tests.
func NewRouter(market MarketService, notifier notify.Notifier, adminAPIKey string) http.Handler {
	handler := NewHandler(market, notifier)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api.md", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write(static.APIMD)
	})
	mux.HandleFunc("GET /api/v1/assets", handler.ListAssets)
	mux.HandleFunc("GET /api/v1/currencies", handler.ListCurrencies)
	mux.HandleFunc("GET /api/v1/convert", handler.ConvertQuery)
	mux.HandleFunc("POST /api/v1/convert", handler.Convert)

	refreshHandler := http.HandlerFunc(handler.RefreshAssets)
	if adminAPIKey != "" {
		mux.Handle("POST /api/v1/assets/refresh", requireAuth(adminAPIKey, refreshHandler))
	} else {
		mux.Handle("POST /api/v1/assets/refresh", refreshHandler)
	}

	return mux
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
