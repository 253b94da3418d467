package rib

import (
	"fmt"
	"strings"
)

// hasAllAttrs reports whether every queried (name, value) pair is
// present and equal on the route. An empty query matches any route.
func hasAllAttrs(route *Route, attrs []Attr) bool {
	for _, attr := range attrs {
		val, ok := route.Attr(attr.Name)
		if !ok || val != attr.Value {
			return false
		}
	}
	return true
}

// filterRoutes returns the routes matching the attribute query.
func filterRoutes(routes []*Route, attrs []Attr) []*Route {
	out := make([]*Route, 0, len(routes))
	for _, route := range routes {
		if hasAllAttrs(route, attrs) {
			out = append(out, route)
		}
	}
	return out
}

// dropRoutes splits a route list on the attribute query, returning the
// survivors and the number dropped. An empty query drops everything.
func dropRoutes(routes []*Route, attrs []Attr) ([]*Route, int) {
	var kept []*Route
	dropped := 0
	for _, route := range routes {
		if hasAllAttrs(route, attrs) {
			dropped++
		} else {
			kept = append(kept, route)
		}
	}
	return kept, dropped
}

func formatAttrs(attrs []Attr) string {
	parts := make([]string, len(attrs))
	for i, attr := range attrs {
		parts[i] = fmt.Sprintf("%s=%v", attr.Name, attr.Value)
	}
	return strings.Join(parts, ", ")
}
