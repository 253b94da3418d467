package rib

import (
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertCompressed checks the path-compression invariant: no node other
// than the root has a single child and no routes.
func assertCompressed(t *testing.T, n *rnode, isRoot bool) {
	t.Helper()

	kids := 0
	for _, c := range n.child {
		if c != nil {
			kids++
		}
	}
	if !isRoot && len(n.routes) == 0 {
		assert.Equal(t, 2, kids, "a route-less node must branch")
	}
	for _, c := range n.child {
		if c != nil {
			assertCompressed(t, c, false)
		}
	}
}

func TestRadixTreeCompression(t *testing.T) {
	t.Parallel()

	rib := NewRadixTree(IPv4)
	mustAdd(t, rib, "10.0.0.0/8")
	mustAdd(t, rib, "10.0.0.0/24")
	mustAdd(t, rib, "10.0.1.0/24")
	mustAdd(t, rib, "192.168.0.0/16")

	assertCompressed(t, rib.root, true)
}

func TestRadixTreeCollapseOnDelete(t *testing.T) {
	t.Parallel()

	rib := NewRadixTree(IPv4)
	mustAdd(t, rib, "10.0.0.0/8")
	mustAdd(t, rib, "10.0.0.0/24")
	mustAdd(t, rib, "10.0.1.0/24")

	// removing one sibling leaves the split node with a single child,
	// which must merge back into it
	require.NoError(t, rib.Delete("10.0.0.0/24"))
	assertCompressed(t, rib.root, true)

	key, _, _, err := ParsePrefix("10.0.1.0/24")
	require.NoError(t, err)
	require.NotNil(t, rib.locate(key))

	routes, err := rib.Get("10.0.1.77")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.1.0/24"}, prefixes(routes))

	routes, err = rib.Get("10.0.0.77")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8"}, prefixes(routes))
}

func TestRadixTreeBranchPointSurvivesDelete(t *testing.T) {
	t.Parallel()

	rib := NewRadixTree(IPv4)
	mustAdd(t, rib, "10.0.0.0/23")
	mustAdd(t, rib, "10.0.0.0/24")
	mustAdd(t, rib, "10.0.1.0/24")

	require.NoError(t, rib.Delete("10.0.0.0/23"))
	assertCompressed(t, rib.root, true)

	assert.Equal(t, []string{"10.0.0.0/24", "10.0.1.0/24"}, prefixes(rib.Show()))
}

func TestRadixTreeSplitAcrossWordBoundary(t *testing.T) {
	t.Parallel()

	rib := NewRadixTree(IPv6)
	mustAdd(t, rib, "2a01:db8:acad:1:2:3::/96")
	mustAdd(t, rib, "2a01:db8:acad:1:2:4::/96")

	assertCompressed(t, rib.root, true)

	routes, err := rib.Get("2a01:db8:acad:1:2:3::1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2a01:db8:acad:1:2:3::/96"}, prefixes(routes))

	routes, err = rib.Subtree("2a01:db8:acad:1::/64")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2a01:db8:acad:1:2:3::/96",
		"2a01:db8:acad:1:2:4::/96",
	}, prefixes(routes))
}

func routeStrings(routes []*Route) []string {
	out := make([]string, 0, len(routes))
	for _, route := range routes {
		out = append(out, route.String())
	}
	return out
}

// Both tree variants must answer every query identically for the same
// operation sequence.
func TestTreeEquivalence(t *testing.T) {
	t.Parallel()

	const seed = 1234567890

	var (
		faker  = gofakeit.New(seed)
		bin    = NewPrefixTree(IPv4)
		rad    = NewRadixTree(IPv4)
		protos = []string{"bgp", "ospf", "static"}
		pool   = make([]string, 150)
	)

	for i := range pool {
		pool[i] = fmt.Sprintf("%s/%d", faker.IPv4Address(), faker.Number(0, 32))
	}

	for i, cidr := range pool {
		attrs := []Attr{{"proto", protos[i%len(protos)]}, {"metric", i % 7}}

		require.NoError(t, bin.Add(cidr, attrs...))
		require.NoError(t, rad.Add(cidr, attrs...))
	}

	require.Equal(t, bin.Len(), rad.Len())
	require.Equal(t, routeStrings(bin.Show()), routeStrings(rad.Show()))
	assertCompressed(t, rad.root, true)

	for i := 0; i < 100; i++ {
		addr := faker.IPv4Address()

		bres, err := bin.Get(addr)
		require.NoError(t, err)
		rres, err := rad.Get(addr)
		require.NoError(t, err)
		assert.Equal(t, routeStrings(bres), routeStrings(rres), "get %s", addr)

		bres, err = bin.Match(addr)
		require.NoError(t, err)
		rres, err = rad.Match(addr)
		require.NoError(t, err)
		assert.Equal(t, routeStrings(bres), routeStrings(rres), "match %s", addr)
	}

	for _, wc := range []string{"0.0.3.255", "0.255.0.255", "31.0.7.0"} {
		bres, err := bin.WCMatch("10.20.30.40", wc)
		require.NoError(t, err)
		rres, err := rad.WCMatch("10.20.30.40", wc)
		require.NoError(t, err)
		assert.Equal(t, routeStrings(bres), routeStrings(rres), "wcmatch %s", wc)
	}

	for i, cidr := range pool {
		if i%3 != 0 {
			continue
		}
		berr := bin.Delete(cidr)
		rerr := rad.Delete(cidr)
		assert.Equal(t, berr == nil, rerr == nil, "delete %s: %v vs %v", cidr, berr, rerr)
	}

	require.Equal(t, bin.Len(), rad.Len())
	require.Equal(t, routeStrings(bin.Show()), routeStrings(rad.Show()))
	assertCompressed(t, rad.root, true)

	require.NoError(t, bin.FlushPrefix("10.0.0.0/8", Attr{"proto", "bgp"}))
	require.NoError(t, rad.FlushPrefix("10.0.0.0/8", Attr{"proto", "bgp"}))

	require.Equal(t, bin.Len(), rad.Len())
	require.Equal(t, routeStrings(bin.Show()), routeStrings(rad.Show()))
	assertCompressed(t, rad.root, true)

	bin.Flush()
	rad.Flush()

	assert.Equal(t, 0, bin.Len())
	assert.Equal(t, 0, rad.Len())
	assert.Empty(t, rad.Show())
}
