package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cwkr/personsd/internal/httputil"
	"github.com/cwkr/personsd/internal/interval"
	"github.com/rs/zerolog/log"
)

// SSEHandler streams "Milis is: <n>" once per period until the client disconnects.
func SSEHandler(period time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var flusher, ok = w.(http.Flusher)
		if !ok {
			httputil.Error(w, httputil.ErrorInternal, "streaming not supported", http.StatusInternalServerError)
			return
		}

		var ctx, cancel = context.WithCancel(r.Context())
		defer cancel()

		httputil.NoCache(w)
		w.Header().Set("Content-Type", httputil.ContentTypeEventStream)
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		var sent int64
		for n := range interval.Ticks(ctx, period) {
			if _, err := fmt.Fprintf(w, "data:Milis is: %d\n\n", n); err != nil {
				break
			}
			flusher.Flush()
			sent++
		}
		log.Debug().Int64("events", sent).Msg("SSE client disconnected")
	})
}
