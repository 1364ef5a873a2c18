package router

import (
	"net/http"
	"strings"
)

const methodOverrideKey = "_method"

var overridableMethods = map[string]bool{
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// methodOverride lets HTML forms, which can only POST, reach PUT, PATCH and
// DELETE routes through a `_method` query or form value.
func methodOverride(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if request.Method == http.MethodPost {
			override := strings.ToUpper(request.URL.Query().Get(methodOverrideKey))
			if override == "" {
				override = strings.ToUpper(request.PostFormValue(methodOverrideKey))
			}
			if overridableMethods[override] {
				request.Method = override
			}
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}
