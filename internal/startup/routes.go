package startup

import (
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"media-library/internal/logging"
)

// RouteInfo describes one method/path pair served by the router.
type RouteInfo struct {
	Method string
	Path   string
	// Name is the library operation the route serves, if named.
	Name string
}

// GetRoutes lists every route that has a handler. Prefix-only subrouter
// entries are skipped.
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		if route.GetHandler() == nil {
			return nil
		}
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: path, Name: route.GetName()})
		}
		return nil
	})
	return routes, err
}

// LogHTTPRoutes reports how many library operations and service endpoints
// are mounted, listing each at debug level.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	section("HTTP SERVER SETUP")

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("  failed to walk routes: %v", err)
	}

	groups := make(map[string][]RouteInfo)
	for _, r := range routes {
		g := getRouteGroup(r.Path)
		groups[g] = append(groups[g], r)
	}
	logging.Info("  Library operations: %d", len(groups[groupOperations]))
	logging.Info("  Service endpoints:  %d", len(groups[groupService]))

	if logging.IsDebugEnabled() {
		for _, g := range []string{groupOperations, groupService} {
			list := groups[g]
			sort.Slice(list, func(i, j int) bool {
				if list[i].Path != list[j].Path {
					return list[i].Path < list[j].Path
				}
				return list[i].Method < list[j].Method
			})
			logging.Debug("  [%s]", g)
			for _, r := range list {
				if r.Name != "" {
					logging.Debug("    %-6s %s (%s)", r.Method, r.Path, r.Name)
				} else {
					logging.Debug("    %-6s %s", r.Method, r.Path)
				}
			}
		}
	}

	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

const (
	groupOperations = "operations"
	groupService    = "service"
)

// getRouteGroup separates the /api operation surface from probes and
// other service endpoints.
func getRouteGroup(path string) string {
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		return groupOperations
	}
	return groupService
}
