package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// NewServer creates an HTTP server with all routes configured. Mutating
// endpoints require the admin API key when one is set.
func NewServer(port string, handler *Handler, adminAPIKey string) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/fund", handler.GetFund)
	mux.HandleFunc("GET /api/v1/fund/gav", handler.GetGAV)
	mux.HandleFunc("GET /api/v1/fund/nav", handler.GetNAV)
	mux.HandleFunc("GET /api/v1/events", handler.ListEvents)
	mux.HandleFunc("GET /api/v1/snapshots/latest", handler.GetLatestSnapshot)
	mux.HandleFunc("GET /api/v1/snapshots/{date}", handler.GetSnapshotByDate)
	mux.HandleFunc("GET /api/v1/snapshots", handler.ListSnapshots)

	mutating := map[string]http.HandlerFunc{
		"POST /api/v1/fund/mark":          handler.Mark,
		"POST /api/v1/invest":             handler.Invest,
		"POST /api/v1/redeem":             handler.Redeem,
		"POST /api/v1/redeem-in-kind":     handler.RedeemInKind,
		"POST /api/v1/snapshots/generate": handler.GenerateSnapshot,
	}
	for pattern, fn := range mutating {
		if adminAPIKey != "" {
			mux.Handle(pattern, requireAuth(adminAPIKey, fn))
		} else {
			mux.Handle(pattern, fn)
		}
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
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
