package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/cwkr/personsd/internal/httputil"
	"github.com/cwkr/personsd/internal/persons"
	"github.com/gorilla/mux"
)

// Route is one row of the dispatch table. Routes are matched in table order
// and the first match wins.
type Route struct {
	Name       string
	Method     string
	Path       string
	AcceptJSON bool
	Handler    http.Handler
}

// nest prefixes the paths of routes and optionally scopes them to clients that accept JSON.
func nest(prefix string, acceptJSON bool, routes ...Route) []Route {
	var nested = make([]Route, 0, len(routes))
	for _, route := range routes {
		route.Path = prefix + route.Path
		route.AcceptJSON = route.AcceptJSON || acceptJSON
		nested = append(nested, route)
	}
	return nested
}

func Routes(service *persons.Service, tickInterval time.Duration, version string) []Route {
	var routes = nest("/api", true, nest("/persons", false,
		Route{Name: "listAll", Method: http.MethodGet, Path: "/", Handler: ListPersonsHandler(service)},
		Route{Name: "listByFirstName", Method: http.MethodGet, Path: "/{fname}", Handler: ListPersonsByFirstNameHandler(service)},
		Route{Name: "saveAll", Method: http.MethodPost, Path: "/", Handler: SavePersonsHandler(service)},
		Route{Name: "deleteAll", Method: http.MethodDelete, Path: "/", Handler: DeletePersonsHandler(service)},
	)...)
	return append(routes,
		Route{Name: "stream", Method: http.MethodGet, Path: "/sse", Handler: SSEHandler(tickInterval)},
		Route{Name: "health", Method: http.MethodGet, Path: "/health", Handler: HealthHandler(service)},
		Route{Name: "info", Method: http.MethodGet, Path: "/info", Handler: InfoHandler(version, runtime.Version())},
	)
}

func acceptsJSON(r *http.Request, _ *mux.RouteMatch) bool {
	return httputil.AcceptsJSON(r.Header.Values("Accept"))
}

func NewRouter(routes []Route) *mux.Router {
	var router = mux.NewRouter()
	for _, route := range routes {
		var r = router.Handle(route.Path, route.Handler).
			Methods(route.Method).
			Name(route.Name)
		if route.AcceptJSON {
			r.MatcherFunc(acceptsJSON)
		}
	}
	return router
}
