package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutesTable(t *testing.T) {
	var routes = Routes(newTestService(), 0, "test")

	var got []string
	for _, route := range routes {
		got = append(got, route.Method+" "+route.Path)
	}
	assert.Equal(t, []string{
		"GET /api/persons/",
		"GET /api/persons/{fname}",
		"POST /api/persons/",
		"DELETE /api/persons/",
		"GET /sse",
		"GET /health",
		"GET /info",
	}, got)

	for _, route := range routes[:4] {
		assert.True(t, route.AcceptJSON, route.Name)
	}
	for _, route := range routes[4:] {
		assert.False(t, route.AcceptJSON, route.Name)
	}
}

func TestRouterAcceptPredicate(t *testing.T) {
	var router = newTestRouter(newTestService())

	var cases = []struct {
		accept string
		status int
	}{
		{"", http.StatusOK},
		{"application/json", http.StatusOK},
		{"*/*", http.StatusOK},
		{"text/html", http.StatusNotFound},
	}
	for _, c := range cases {
		var header = map[string]string{}
		if c.accept != "" {
			header["Accept"] = c.accept
		}
		var rr = do(t, router, http.MethodGet, "/api/persons/", "", header)
		assert.Equal(t, c.status, rr.Code, "Accept: %q", c.accept)
	}
}

func TestRouterUnknownPath(t *testing.T) {
	var router = newTestRouter(newTestService())

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/persons/", "", acceptJSON).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/persons/a/b", "", acceptJSON).Code)
}

func TestHealthAndInfo(t *testing.T) {
	var router = newTestRouter(newTestService())

	var rr = do(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"UP"}`, rr.Body.String())

	rr = do(t, router, http.MethodGet, "/info", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"version":"test"`)
}
