package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cwkr/personsd/internal/httputil"
	"github.com/cwkr/personsd/internal/persons"
	"github.com/rs/zerolog/log"
)

func HealthHandler(service *persons.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ctx, cancel = context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		httputil.NoCache(w)
		if err := service.Ping(ctx); err != nil {
			log.Error().Err(err).Msg("Health check failed")
			httputil.Error(w, httputil.ErrorUnavailable, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", httputil.ContentTypeJSON)
		w.Write([]byte(`{"status":"UP"}`))
	})
}

func InfoHandler(version, runtimeVersion string) http.Handler {
	var body, _ = json.Marshal(map[string]string{
		"version": version,
		"runtime": runtimeVersion,
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", httputil.ContentTypeJSON)
		w.Write(body)
	})
}
