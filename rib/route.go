package rib

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// attrPrefix is the reserved attribute name of the immutable prefix.
const attrPrefix = "prefix"

// Attr is a single named route attribute.
type Attr struct {
	Name  string
	Value interface{}
}

// Route binds a stored prefix to free-form attributes. The prefix is
// fixed at construction, attributes may be added, replaced or removed
// afterwards and keep their insertion order. Routes compare by
// identity: two Add calls with equal arguments install two routes.
type Route struct {
	key    Key
	family Family
	text   string
	seq    uint64
	names  []string
	attrs  map[string]interface{}
}

// NewRoute builds a stand-alone route for a textual prefix. Tables
// construct their own routes on Add; this is for direct use.
func NewRoute(prefix string, attrs ...Attr) (*Route, error) {
	key, family, text, err := ParsePrefix(prefix)
	if err != nil {
		return nil, err
	}
	return newRoute(key, family, text, attrs)
}

func newRoute(key Key, family Family, text string, attrs []Attr) (*Route, error) {
	route := &Route{
		key:    key,
		family: family,
		text:   text,
		attrs:  make(map[string]interface{}, len(attrs)),
	}
	for _, attr := range attrs {
		if err := route.SetAttr(attr.Name, attr.Value); err != nil {
			return nil, err
		}
	}
	return route, nil
}

// Prefix returns the canonical CIDR text the route was installed with.
func (r *Route) Prefix() string { return r.text }

// Key returns the masked prefix bits.
func (r *Route) Key() Key { return r.key }

func (r *Route) Family() Family { return r.family }

// Attr returns a named attribute value. The prefix is readable under
// the name "prefix".
func (r *Route) Attr(name string) (interface{}, bool) {
	if name == attrPrefix {
		return r.text, true
	}
	val, ok := r.attrs[name]
	return val, ok
}

// SetAttr adds or replaces an attribute. Replacing keeps the original
// position. Writing "prefix" fails with ErrImmutableAttribute.
func (r *Route) SetAttr(name string, value interface{}) error {
	if name == attrPrefix {
		return errors.Wrapf(ErrImmutableAttribute, "%s", r.text)
	}
	if _, ok := r.attrs[name]; !ok {
		r.names = append(r.names, name)
	}
	r.attrs[name] = value
	return nil
}

// DelAttr removes an attribute, reporting whether it was present.
// The prefix cannot be removed.
func (r *Route) DelAttr(name string) bool {
	if _, ok := r.attrs[name]; !ok {
		return false
	}
	delete(r.attrs, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
	return true
}

// Items returns all (name, value) pairs with the prefix first.
func (r *Route) Items() []Attr {
	items := make([]Attr, 0, len(r.names)+1)
	items = append(items, Attr{attrPrefix, r.text})
	for _, name := range r.names {
		items = append(items, Attr{name, r.attrs[name]})
	}
	return items
}

// Decode maps the route's attributes (prefix included) onto a caller
// struct via mapstructure.
func (r *Route) Decode(out interface{}) error {
	m := make(map[string]interface{}, len(r.names)+1)
	m[attrPrefix] = r.text
	for _, name := range r.names {
		m[name] = r.attrs[name]
	}
	return mapstructure.Decode(m, out)
}

func (r *Route) String() string {
	var buf strings.Builder
	buf.WriteString("Route(")
	for i, item := range r.Items() {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%s=%v", item.Name, item.Value)
	}
	buf.WriteByte(')')
	return buf.String()
}
