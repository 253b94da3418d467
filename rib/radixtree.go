package rib

import "github.com/pkg/errors"

// RadixTree is a routing table backed by a path-compressed binary trie
// (PATRICIA, radix 2). A node's child index consumes the branching bit
// and the child's skip label holds the bits after it, so no node other
// than the root has a single child and no routes. Results are identical to PrefixTree
// for identical inputs.
type RadixTree struct {
	family Family
	root   *rnode
	size   int
	seq    uint64
}

type rnode struct {
	label  Key
	child  [2]*rnode
	routes []*Route
}

// rstep records one edge of a walk for later restoration.
type rstep struct {
	parent *rnode
	bit    byte
}

// NewRadixTree returns an empty table bound to one address family.
// The root node has an empty label and is the default-route prefix.
func NewRadixTree(family Family) *RadixTree {
	return &RadixTree{family: family, root: &rnode{}}
}

func (t *RadixTree) Family() Family { return t.family }

// Len returns the number of installed routes.
func (t *RadixTree) Len() int { return t.size }

// Contains reports whether an address (or prefix) is routable.
func (t *RadixTree) Contains(prefix string) bool {
	routes, err := t.Get(prefix)
	return err == nil && len(routes) > 0
}

// Iter calls fn for every installed route, most specific prefix first,
// until fn returns false. The tree must not be mutated underneath.
func (t *RadixTree) Iter(fn func(*Route) bool) {
	for _, route := range sortMostSpecific(t.collect(t.root, nil)) {
		if !fn(route) {
			return
		}
	}
}

func (t *RadixTree) parse(prefix string) (Key, string, error) {
	key, family, text, err := ParsePrefix(prefix)
	if err != nil {
		return Key{}, "", err
	}
	if family != t.family {
		return Key{}, "", errors.Wrapf(ErrFamilyMismatch, "%s in %s table", text, t.family)
	}
	return key, text, nil
}

// Add installs a route for prefix, splitting a node when the new
// prefix diverges inside an existing skip label.
func (t *RadixTree) Add(prefix string, attrs ...Attr) error {
	key, text, err := t.parse(prefix)
	if err != nil {
		return err
	}
	route, err := newRoute(key, t.family, text, attrs)
	if err != nil {
		return err
	}
	n := t.root
	depth := 0
	for depth < key.Len() {
		bit := key.Bit(depth)
		c := n.child[bit]
		if c == nil {
			// no branch yet, hang the whole remainder off one leaf
			leaf := &rnode{label: key.Slice(depth+1, key.Len())}
			n.child[bit] = leaf
			n = leaf
			break
		}
		max := c.label.Len()
		if rest := key.Len() - depth - 1; rest < max {
			max = rest
		}
		m := CommonPrefixLen(c.label, key.Slice(depth+1, depth+1+max))
		if m == c.label.Len() {
			// label fully matched, keep walking
			n = c
			depth += 1 + m
			continue
		}
		// the remaining bits end or diverge inside the label: split
		tlog.Tracef("splitting %s node, label bit %d", t.family, m)
		mid := &rnode{label: c.label.Slice(0, m)}
		cbit := c.label.Bit(m)
		c.label = c.label.Slice(m+1, c.label.Len())
		mid.child[cbit] = c
		n.child[bit] = mid
		at := depth + 1 + m
		if at == key.Len() {
			// the new prefix ends at the split point
			n = mid
			break
		}
		leaf := &rnode{label: key.Slice(at+1, key.Len())}
		mid.child[key.Bit(at)] = leaf
		n = leaf
		break
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
func (t *RadixTree) Get(prefix string, filter ...Attr) ([]*Route, error) {
	key, _, err := t.parse(prefix)
	if err != nil {
		return nil, err
	}
	n := t.root
	best := n.routes
	depth := 0
	for depth < key.Len() {
		c := n.child[key.Bit(depth)]
		if c == nil {
			break
		}
		end := depth + 1 + c.label.Len()
		if end > key.Len() || key.Slice(depth+1, end) != c.label {
			break
		}
		n, depth = c, end
		if len(n.routes) > 0 {
			best = n.routes
		}
	}
	return sortRoutes(filterRoutes(best, filter)), nil
}

// Show returns every installed route, filtered and sorted.
func (t *RadixTree) Show(filter ...Attr) []*Route {
	return sortRoutes(t.collect(t.root, filter))
}

// ShowExact returns the routes attached exactly at prefix, or nothing.
func (t *RadixTree) ShowExact(prefix string, filter ...Attr) ([]*Route, error) {
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
// The prefix may end inside a skip label.
func (t *RadixTree) Subtree(prefix string, filter ...Attr) ([]*Route, error) {
	key, _, err := t.parse(prefix)
	if err != nil {
		return nil, err
	}
	n := t.locateSubtree(key)
	if n == nil {
		return nil, nil
	}
	return sortRoutes(t.collect(n, filter)), nil
}

// Parent returns the routes of the closest route-carrying ancestor of
// an installed prefix.
func (t *RadixTree) Parent(prefix string, filter ...Attr) ([]*Route, error) {
	key, text, err := t.parse(prefix)
	if err != nil {
		return nil, err
	}
	n := t.root
	depth := 0
	var routes []*Route
	for depth < key.Len() {
		if len(n.routes) > 0 {
			routes = n.routes
		}
		c := n.child[key.Bit(depth)]
		if c == nil {
			return nil, errors.Wrapf(ErrUnknownPrefix, "%s", text)
		}
		end := depth + 1 + c.label.Len()
		if end > key.Len() || key.Slice(depth+1, end) != c.label {
			return nil, errors.Wrapf(ErrUnknownPrefix, "%s", text)
		}
		n, depth = c, end
	}
	if len(n.routes) == 0 {
		return nil, errors.Wrapf(ErrUnknownPrefix, "%s", text)
	}
	return sortRoutes(filterRoutes(routes, filter)), nil
}

// Children returns the routes of every strict descendant of an
// installed prefix, the prefix's own routes excluded.
func (t *RadixTree) Children(prefix string, filter ...Attr) ([]*Route, error) {
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
func (t *RadixTree) Match(prefix string, filter ...Attr) ([]*Route, error) {
	key, _, err := t.parse(prefix)
	if err != nil {
		return nil, err
	}
	n := t.root
	depth := 0
	matches := append([]*Route(nil), n.routes...)
	for depth < key.Len() {
		c := n.child[key.Bit(depth)]
		if c == nil {
			break
		}
		end := depth + 1 + c.label.Len()
		if end > key.Len() || key.Slice(depth+1, end) != c.label {
			break
		}
		n, depth = c, end
		matches = append(matches, n.routes...)
	}
	return sortRoutes(filterRoutes(matches, filter)), nil
}

// WCMatch returns every route matching the address under a wildcard
// mask: a set mask bit makes that bit position a don't-care. Skip
// labels are checked span-wise against the mask.
func (t *RadixTree) WCMatch(address, wildcard string, filter ...Attr) ([]*Route, error) {
	addr, wc, err := parseWildcard(t.family, address, wildcard)
	if err != nil {
		return nil, err
	}
	if dontCareBits(wc) == t.family.Width() {
		return t.Show(filter...), nil
	}
	var matches []*Route
	var walk func(n *rnode, depth int)
	walk = func(n *rnode, depth int) {
		for _, route := range n.routes {
			if hasAllAttrs(route, filter) {
				matches = append(matches, route)
			}
		}
		if depth >= t.family.Width() {
			return
		}
		for bit := byte(0); bit < 2; bit++ {
			c := n.child[bit]
			if c == nil {
				continue
			}
			if wc.Bit(depth) == 0 && addr.Bit(depth) != bit {
				continue
			}
			end := depth + 1 + c.label.Len()
			if mismatchUnderMask(c.label, addr.Slice(depth+1, end), wc.Slice(depth+1, end)) {
				continue
			}
			walk(c, end)
		}
	}
	walk(t.root, 0)
	return sortRoutes(matches), nil
}

// Delete removes routes attached exactly at prefix. With an attribute
// filter only the matching routes go, otherwise all of them. Path
// compression is restored afterwards.
func (t *RadixTree) Delete(prefix string, filter ...Attr) error {
	key, text, err := t.parse(prefix)
	if err != nil {
		return err
	}
	path := make([]rstep, 0, 8)
	n := t.root
	depth := 0
	for depth < key.Len() {
		bit := key.Bit(depth)
		c := n.child[bit]
		if c == nil {
			return errors.Wrapf(ErrUnknownPrefix, "%s", text)
		}
		end := depth + 1 + c.label.Len()
		if end > key.Len() || key.Slice(depth+1, end) != c.label {
			return errors.Wrapf(ErrUnknownPrefix, "%s", text)
		}
		path = append(path, rstep{n, bit})
		n, depth = c, end
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
	t.restore(path)
	return nil
}

// Flush removes matching routes everywhere. With no filter it empties
// the whole tree.
func (t *RadixTree) Flush(filter ...Attr) {
	if len(filter) == 0 {
		tlog.Debugf("flushing %d %s routes", t.size, t.family)
		t.root = &rnode{}
		t.size = 0
		return
	}
	kept, dropped := dropRoutes(t.root.routes, filter)
	t.root.routes = kept
	t.size -= dropped
	for bit, c := range t.root.child {
		if c != nil {
			t.root.child[bit] = t.sweep(c, filter)
		}
	}
}

// FlushPrefix applies Flush to the subtree rooted at prefix, the node
// at prefix included. The prefix may end inside a skip label. A
// missing prefix is a no-op.
func (t *RadixTree) FlushPrefix(prefix string, filter ...Attr) error {
	key, _, err := t.parse(prefix)
	if err != nil {
		return err
	}
	if key.Len() == 0 {
		t.Flush(filter...)
		return nil
	}
	path := make([]rstep, 0, 8)
	n := t.root
	depth := 0
	for depth < key.Len() {
		bit := key.Bit(depth)
		c := n.child[bit]
		if c == nil {
			return nil
		}
		end := depth + 1 + c.label.Len()
		if end >= key.Len() {
			rest := key.Len() - depth - 1
			if key.Slice(depth+1, key.Len()) != c.label.Slice(0, rest) {
				return nil
			}
			path = append(path, rstep{n, bit})
			n.child[bit] = t.sweep(c, filter)
			t.restore(path)
			return nil
		}
		if key.Slice(depth+1, end) != c.label {
			return nil
		}
		path = append(path, rstep{n, bit})
		n, depth = c, end
	}
	return nil
}

// locate walks to the node whose cumulative depth equals the key, nil
// if the key ends between nodes or off the tree.
func (t *RadixTree) locate(key Key) *rnode {
	n := t.root
	depth := 0
	for depth < key.Len() {
		c := n.child[key.Bit(depth)]
		if c == nil {
			return nil
		}
		end := depth + 1 + c.label.Len()
		if end > key.Len() || key.Slice(depth+1, end) != c.label {
			return nil
		}
		n, depth = c, end
	}
	return n
}

// locateSubtree is like locate but also accepts a key ending inside a
// node's skip label, returning that node as the subtree root.
func (t *RadixTree) locateSubtree(key Key) *rnode {
	n := t.root
	depth := 0
	for depth < key.Len() {
		c := n.child[key.Bit(depth)]
		if c == nil {
			return nil
		}
		end := depth + 1 + c.label.Len()
		if end >= key.Len() {
			rest := key.Len() - depth - 1
			if key.Slice(depth+1, key.Len()) != c.label.Slice(0, rest) {
				return nil
			}
			return c
		}
		if key.Slice(depth+1, end) != c.label {
			return nil
		}
		n, depth = c, end
	}
	return n
}

// collect gathers matching routes attached at n and below. Walks with
// an explicit stack instead of function recursion.
func (t *RadixTree) collect(n *rnode, filter []Attr) []*Route {
	var routes []*Route
	stack := []*rnode{n}
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

// sweep removes matching routes at n and below, rebuilding path
// compression on the way out. Returns the node's replacement, nil when
// the whole branch goes.
func (t *RadixTree) sweep(n *rnode, filter []Attr) *rnode {
	kept, dropped := dropRoutes(n.routes, filter)
	n.routes = kept
	t.size -= dropped
	for bit, c := range n.child {
		if c != nil {
			n.child[bit] = t.sweep(c, filter)
		}
	}
	if len(n.routes) > 0 || (n.child[0] != nil && n.child[1] != nil) {
		return n
	}
	var cbit byte
	switch {
	case n.child[1] != nil:
		cbit = 1
	case n.child[0] != nil:
	default:
		return nil
	}
	c := n.child[cbit]
	c.label = n.label.Append(bitKey(cbit)).Append(c.label)
	return c
}

// restore re-establishes the compression invariant bottom-up after a
// removal: a route-less node with one child merges into it, an empty
// leaf drops and the check moves to its parent. The root is exempt.
func (t *RadixTree) restore(path []rstep) {
	for i := len(path) - 1; i >= 0; i-- {
		parent, bit := path[i].parent, path[i].bit
		n := parent.child[bit]
		if n == nil {
			continue
		}
		if len(n.routes) > 0 {
			return
		}
		switch {
		case n.child[0] != nil && n.child[1] != nil:
			return
		case n.child[0] == nil && n.child[1] == nil:
			parent.child[bit] = nil
		default:
			var cbit byte
			if n.child[1] != nil {
				cbit = 1
			}
			c := n.child[cbit]
			c.label = n.label.Append(bitKey(cbit)).Append(c.label)
			parent.child[bit] = c
			tlog.Tracef("collapsed %s node into %d-bit label", t.family, c.label.Len())
			return
		}
	}
}
