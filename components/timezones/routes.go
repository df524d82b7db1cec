package timezones

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// MountPath returns the route of the handler under basePath.
func MountPath(basePath string, fns ...OptionFn) string {
	return mountPath(basePath, NewOptions(fns...).RoutePath)
}

// RegisterRoutes serves the handler on router under basePath and returns
// the registered path.
func RegisterRoutes(router *mux.Router, basePath string, fns ...OptionFn) string {
	path := MountPath(basePath, fns...)
	router.Handle(path, NewHandler(fns...)).Methods(http.MethodGet, http.MethodHead)
	return path
}

func mountPath(basePath, routePath string) string {
	basePath = strings.TrimSpace(basePath)
	routePath = strings.TrimSpace(routePath)
	if routePath == "" {
		routePath = "/"
	}
	if !strings.HasPrefix(routePath, "/") {
		routePath = "/" + routePath
	}
	if basePath == "" || basePath == "/" {
		return routePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	return strings.TrimRight(basePath, "/") + routePath
}
