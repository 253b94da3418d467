package rib

import "sort"

// sortRoutes orders query results: network address ascending, then
// prefix length ascending, then insertion sequence.
func sortRoutes(routes []*Route) []*Route {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if c := a.key.Compare(b.key); c != 0 {
			return c < 0
		}
		return a.seq < b.seq
	})
	return routes
}

// sortMostSpecific orders iteration: prefix length descending, then
// insertion sequence.
func sortMostSpecific(routes []*Route) []*Route {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if a.key.n != b.key.n {
			return a.key.n > b.key.n
		}
		return a.seq < b.seq
	})
	return routes
}
