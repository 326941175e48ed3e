package httputil

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	ContentTypeJSON        = "application/json"
	ContentTypeEventStream = "text/event-stream"

	ErrorInvalidRequest = "invalid_request"
	ErrorInternal       = "server_error"
	ErrorUnavailable    = "temporarily_unavailable"
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func Error(w http.ResponseWriter, code, description string, statusCode int) {
	NoCache(w)
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: code, ErrorDescription: description}); err != nil {
		log.Error().Err(err).Msg("Writing error response failed")
	}
}

func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

func IsJSON(contentType string) bool {
	var mediaType, _, err = mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == ContentTypeJSON || strings.HasSuffix(mediaType, "+json")
}

// AcceptsJSON reports whether a client sending the given Accept header values
// can take a JSON response. A missing header accepts anything.
func AcceptsJSON(accept []string) bool {
	var ranges []string
	for _, value := range accept {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				ranges = append(ranges, part)
			}
		}
	}
	if len(ranges) == 0 {
		return true
	}
	for _, r := range ranges {
		var mediaType, params, err = mime.ParseMediaType(r)
		if err != nil {
			continue
		}
		if params["q"] == "0" || params["q"] == "0.0" || params["q"] == "0.00" || params["q"] == "0.000" {
			continue
		}
		switch {
		case mediaType == "*/*", mediaType == "application/*":
			return true
		case IsJSON(mediaType):
			return true
		}
	}
	return false
}
