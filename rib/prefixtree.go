package rib

import "github.com/pkg/errors"

// PrefixTree is a routing table backed by a full binary trie: every
// edge is one prefix bit, routes attach at the node whose depth equals
// the prefix length. Simple and fast, heavier on memory than RadixTree.
type PrefixTree struct {
	family Family
	root   *pnode
	size   int
	seq    uint64
}

type pnode struct {
	child  [2]*pnode
	routes []*Route
}

// pstep records one edge of a walk for later pruning.
type pstep struct {
	parent *pnode
	bit    byte
}

// NewPrefixTree returns an empty table bound to one address family.
// The root node is the zero-length default-route prefix.
func NewPrefixTree(family Family) *PrefixTree {
	return &PrefixTree{family: family, root: &pnode{}}
}

func (t *PrefixTree) Family() Family { return t.family }

// Len returns the number of installed routes.
func (t *PrefixTree) Len() int { return t.size }

// Contains reports whether an address (or prefix) is routable.
func (t *PrefixTree) Contains(prefix string) bool {
	routes, err := t.Get(prefix)
	return err == nil && len(routes) > 0
}

// Iter calls fn for every installed route, most specific prefix first,
// until fn returns false. The tree must not be mutated underneath.
func (t *PrefixTree) Iter(fn func(*Route) bool) {
	for _, route := range sortMostSpecific(t.collect(t.root, nil)) {
		if !fn(route) {
			return
		}
	}
}

func (t *PrefixTree) parse(prefix string) (Key, string, error) {
	key, family, text, err := ParsePrefix(prefix)
	if err != nil {
		return Key{}, "", err
	}
	if family != t.family {
		return Key{}, "", errors.Wrapf(ErrFamilyMismatch, "%s in %s table", text, t.family)
	}
	return key, text, nil
}

// Add installs a route for prefix. Host bits are masked off first.
// Repeating a prefix/attribute combination installs a second route.
func (t *PrefixTree) Add(prefix string, attrs ...Attr) error {
	key, text, err := t.parse(prefix)
	if err != nil {
		return err
	}
	route, err := newRoute(key, t.family, text, attrs)
	if err != nil {
		return err
	}
	n := t.root
	for i := 0; i < key.Len(); i++ {
		bit := key.Bit(i)
		if n.child[bit] == nil {
			n.child[bit] = &pnode{}
		}
		n = n.child[bit]
	}
	t.seq++
	route.seq = t.seq
	n.routes = append(n.routes, route)
	t.size++
	return nil
}

// Get returns the longest-match routes for an address or prefix,
// optionally filtered by attributes. A bare address means a full-width
// prefix.
func (t *PrefixTree) Get(prefix string, filter ...Attr) ([]*Route, error) {
	key, _, err := t.parse(prefix)
	if err != nil {
		return nil, err
	}
	n := t.root
	best := n.routes
	for i := 0; i < key.Len(); i++ {
		n = n.child[key.Bit(i)]
		if n == nil {
			break
		}
		if len(n.routes) > 0 {
			best = n.routes
		}
	}
	return sortRoutes(filterRoutes(best, filter)), nil
}

// Show returns every installed route, filtered and sorted.
func (t *PrefixTree) Show(filter ...Attr) []*Route {
	return sortRoutes(t.collect(t.root, filter))
}

// ShowExact returns the routes attached exactly at prefix, or nothing.
func (t *PrefixTree) ShowExact(prefix string, filter ...Attr) ([]*Route, error) {
	key, _, err := t.parse(prefix)
	if err != nil {
		return nil, err
	}
	n := t.locate(key)
	if n == nil {
		return nil, nil
	}
	return sortRoutes(filterRoutes(n.routes, filter)), nil
}

// Subtree returns all routes at or below prefix, filtered and sorted.
func (t *PrefixTree) Subtree(prefix string, filter ...Attr) ([]*Route, error) {
	key, _, err := t.parse(prefix)
	if err != nil {
		return nil, err
	}
	n := t.locate(key)
	if n == nil {
		return nil, nil
	}
	return sortRoutes(t.collect(n, filter)), nil
}

// Parent returns the routes of the closest route-carrying ancestor of
// an installed prefix.
func (t *PrefixTree) Parent(prefix string, filter ...Attr) ([]*Route, error) {
	key, text, err := t.parse(prefix)
	if err != nil {
		return nil, err
	}
	n := t.root
	var routes []*Route
	for i := 0; i < key.Len(); i++ {
		if len(n.routes) > 0 {
			routes = n.routes
		}
		n = n.child[key.Bit(i)]
		if n == nil {
			return nil, errors.Wrapf(ErrUnknownPrefix, "%s", text)
		}
	}
	if len(n.routes) == 0 {
		return nil, errors.Wrapf(ErrUnknownPrefix, "%s", text)
	}
	return sortRoutes(filterRoutes(routes, filter)), nil
}

// Children returns the routes of every strict descendant of an
// installed prefix, the prefix's own routes excluded.
func (t *PrefixTree) Children(prefix string, filter ...Attr) ([]*Route, error) {
	key, text, err := t.parse(prefix)
	if err != nil {
		return nil, err
	}
	n := t.locate(key)
	if n == nil || len(n.routes) == 0 {
		return nil, errors.Wrapf(ErrUnknownPrefix, "%s", text)
	}
	var routes []*Route
	for _, c := range n.child {
		if c != nil {
			routes = append(routes, t.collect(c, filter)...)
		}
	}
	return sortRoutes(routes), nil
}

// Match returns every route whose prefix covers or equals the query.
func (t *PrefixTree) Match(prefix string, filter ...Attr) ([]*Route, error) {
	key, _, err := t.parse(prefix)
	if err != nil {
		return nil, err
	}
	n := t.root
	matches := append([]*Route(nil), n.routes...)
	for i := 0; i < key.Len(); i++ {
		n = n.child[key.Bit(i)]
		if n == nil {
			break
		}
		matches = append(matches, n.routes...)
	}
	return sortRoutes(filterRoutes(matches, filter)), nil
}

// WCMatch returns every route matching the address under a wildcard
// mask: a set mask bit makes that bit position a don't-care.
func (t *PrefixTree) WCMatch(address, wildcard string, filter ...Attr) ([]*Route, error) {
	addr, wc, err := parseWildcard(t.family, address, wildcard)
	if err != nil {
		return nil, err
	}
	if dontCareBits(wc) == t.family.Width() {
		return t.Show(filter...), nil
	}
	var matches []*Route
	var walk func(n *pnode, depth int)
	walk = func(n *pnode, depth int) {
		for _, route := range n.routes {
			if hasAllAttrs(route, filter) {
				matches = append(matches, route)
			}
		}
		if depth == t.family.Width() {
			return
		}
		if wc.Bit(depth) == 1 {
			if n.child[0] != nil {
				walk(n.child[0], depth+1)
			}
			if n.child[1] != nil {
				walk(n.child[1], depth+1)
			}
			return
		}
		if c := n.child[addr.Bit(depth)]; c != nil {
			walk(c, depth+1)
		}
	}
	walk(t.root, 0)
	return sortRoutes(matches), nil
}

// Delete removes routes attached exactly at prefix. With an attribute
// filter only the matching routes go, otherwise all of them. Branches
// left without routes are pruned.
func (t *PrefixTree) Delete(prefix string, filter ...Attr) error {
	key, text, err := t.parse(prefix)
	if err != nil {
		return err
	}
	path := make([]pstep, 0, key.Len())
	n := t.root
	for i := 0; i < key.Len(); i++ {
		bit := key.Bit(i)
		c := n.child[bit]
		if c == nil {
			return errors.Wrapf(ErrUnknownPrefix, "%s", text)
		}
		path = append(path, pstep{n, bit})
		n = c
	}
	if len(n.routes) == 0 {
		return errors.Wrapf(ErrUnknownPrefix, "%s", text)
	}
	if len(filter) > 0 {
		kept, dropped := dropRoutes(n.routes, filter)
		if dropped == 0 {
			return errors.Wrapf(ErrUnknownPrefix, "%s with [%s]", text, formatAttrs(filter))
		}
		n.routes = kept
		t.size -= dropped
	} else {
		t.size -= len(n.routes)
		n.routes = nil
	}
	t.prune(path)
	return nil
}

// Flush removes matching routes everywhere. With no filter it empties
// the whole tree.
func (t *PrefixTree) Flush(filter ...Attr) {
	if len(filter) == 0 {
		tlog.Debugf("flushing %d %s routes", t.size, t.family)
		t.root = &pnode{}
		t.size = 0
		return
	}
	t.sweep(t.root, filter)
}

// FlushPrefix applies Flush to the subtree rooted at prefix, the node
// at prefix included. A missing prefix is a no-op.
func (t *PrefixTree) FlushPrefix(prefix string, filter ...Attr) error {
	key, _, err := t.parse(prefix)
	if err != nil {
		return err
	}
	path := make([]pstep, 0, key.Len())
	n := t.root
	for i := 0; i < key.Len(); i++ {
		bit := key.Bit(i)
		c := n.child[bit]
		if c == nil {
			return nil
		}
		path = append(path, pstep{n, bit})
		n = c
	}
	t.sweep(n, filter)
	t.prune(path)
	return nil
}

// locate walks to the node at the key's exact depth, nil if absent.
func (t *PrefixTree) locate(key Key) *pnode {
	n := t.root
	for i := 0; i < key.Len() && n != nil; i++ {
		n = n.child[key.Bit(i)]
	}
	return n
}

// collect gathers matching routes attached at n and below. Walks with
// an explicit stack instead of function recursion.
func (t *PrefixTree) collect(n *pnode, filter []Attr) []*Route {
	var routes []*Route
	stack := []*pnode{n}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, route := range n.routes {
			if hasAllAttrs(route, filter) {
				routes = append(routes, route)
			}
		}
		for _, c := range n.child {
			if c != nil {
				stack = append(stack, c)
			}
		}
	}
	return routes
}

// sweep removes matching routes at n and below, dropping branches left
// with neither routes nor children. Reports whether n is still needed.
func (t *PrefixTree) sweep(n *pnode, filter []Attr) bool {
	kept, dropped := dropRoutes(n.routes, filter)
	n.routes = kept
	t.size -= dropped
	for bit, c := range n.child {
		if c != nil && !t.sweep(c, filter) {
			n.child[bit] = nil
		}
	}
	return len(n.routes) > 0 || n.child[0] != nil || n.child[1] != nil
}

// prune removes route-less leaf nodes bottom-up along a walk path. The
// root always stays.
func (t *PrefixTree) prune(path []pstep) {
	for i := len(path) - 1; i >= 0; i-- {
		parent, bit := path[i].parent, path[i].bit
		n := parent.child[bit]
		if n == nil {
			continue
		}
		if len(n.routes) > 0 || n.child[0] != nil || n.child[1] != nil {
			return
		}
		parent.child[bit] = nil
	}
}
