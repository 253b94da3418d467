package rib

import "github.com/sirupsen/logrus"

var tlog = logrus.WithField("component", "rib")

// Table is the operational surface shared by both tree variants. Both
// must return identical sorted results for identical inputs.
//
// Tables are not safe for concurrent use, callers serialize. Returned
// route slices are views valid until the next mutation.
type Table interface {
	Family() Family

	Add(prefix string, attrs ...Attr) error
	Get(prefix string, filter ...Attr) ([]*Route, error)
	Show(filter ...Attr) []*Route
	ShowExact(prefix string, filter ...Attr) ([]*Route, error)
	Subtree(prefix string, filter ...Attr) ([]*Route, error)
	Parent(prefix string, filter ...Attr) ([]*Route, error)
	Children(prefix string, filter ...Attr) ([]*Route, error)
	Match(prefix string, filter ...Attr) ([]*Route, error)
	WCMatch(address, wildcard string, filter ...Attr) ([]*Route, error)
	Delete(prefix string, filter ...Attr) error
	Flush(filter ...Attr)
	FlushPrefix(prefix string, filter ...Attr) error

	Len() int
	Contains(prefix string) bool
	Iter(fn func(*Route) bool)
}

var (
	_ Table = (*PrefixTree)(nil)
	_ Table = (*RadixTree)(nil)
)
