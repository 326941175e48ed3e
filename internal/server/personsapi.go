package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net/http"
	"strings"
	"unicode"

	"github.com/cwkr/personsd/internal/httputil"
	"github.com/cwkr/personsd/internal/persons"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const (
	ErrorUnsupportedMediaType = "unsupported_media_type"

	MaxBodyBytes = 1 << 20
)

// writePersons streams seq as a JSON array, flushing after every element. A
// store failure before the first element becomes a 500; a later one truncates
// the array.
func writePersons(w http.ResponseWriter, r *http.Request, seq iter.Seq2[persons.Person, error]) {
	var flusher, _ = w.(http.Flusher)
	var count int

	var begin = func() {
		httputil.NoCache(w)
		w.Header().Set("Content-Type", httputil.ContentTypeJSON)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("["))
	}

	for person, err := range seq {
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Debug().Str("url", r.URL.String()).Msg("Client went away")
			} else if count == 0 {
				log.Error().Err(err).Msg("Query for persons failed")
				httputil.Error(w, httputil.ErrorInternal, err.Error(), http.StatusInternalServerError)
			} else {
				log.Error().Err(err).Int("written", count).Msg("Person stream truncated")
			}
			return
		}
		var element, encodeErr = json.Marshal(person)
		if encodeErr != nil {
			log.Error().Err(encodeErr).Msg("Encoding person failed")
			return
		}
		if count == 0 {
			begin()
		} else {
			w.Write([]byte(","))
		}
		if _, err := w.Write(element); err != nil {
			log.Debug().Err(err).Msg("Writing person failed")
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		count++
	}
	if count == 0 {
		begin()
	}
	w.Write([]byte("]"))
}

// decodePersons reads a JSON array of persons element by element. A single
// object is taken as a one-element sequence, an empty body as none.
func decodePersons(body io.Reader) ([]persons.Person, error) {
	var br = bufio.NewReader(body)
	for {
		var b, err = br.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil, nil
		} else if err != nil {
			return nil, err
		}
		if !unicode.IsSpace(rune(b)) {
			br.UnreadByte()
			break
		}
	}

	var dec = json.NewDecoder(br)
	if first, _ := br.Peek(1); first[0] != '[' {
		var person persons.Person
		if err := dec.Decode(&person); err != nil {
			return nil, err
		}
		return []persons.Person{person}, nil
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var list []persons.Person
	for dec.More() {
		var person persons.Person
		if err := dec.Decode(&person); err != nil {
			return nil, err
		}
		list = append(list, person)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return list, nil
}

func ListPersonsHandler(service *persons.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writePersons(w, r, service.FindAll(r.Context()))
	})
}

func ListPersonsByFirstNameHandler(service *persons.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var firstName = mux.Vars(r)["fname"]
		writePersons(w, r, service.FindByFirstName(r.Context(), firstName))
	})
}

func SavePersonsHandler(service *persons.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType := strings.TrimSpace(r.Header.Get("Content-Type")); contentType != "" && !httputil.IsJSON(contentType) {
			httputil.Error(w, ErrorUnsupportedMediaType, contentType, http.StatusUnsupportedMediaType)
			return
		}

		var list, err = decodePersons(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				log.Error().Err(err).Msg("413 Request Entity Too Large")
				httputil.Error(w, httputil.ErrorInvalidRequest, err.Error(), http.StatusRequestEntityTooLarge)
				return
			}
			log.Error().Err(err).Msg("400 Bad Request")
			httputil.Error(w, httputil.ErrorInvalidRequest, err.Error(), http.StatusBadRequest)
			return
		}

		service.SaveAll(list)
		w.WriteHeader(http.StatusNoContent)
	})
}

func DeletePersonsHandler(service *persons.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		service.DeleteAll()
		w.WriteHeader(http.StatusNoContent)
	})
}
