package rib

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MarshalJSON renders the route as an object with the prefix first and
// the attributes in insertion order.
func (r *Route) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range r.Items() {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(item.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(item.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON renders the table as a sorted route array.
func (t *PrefixTree) MarshalJSON() ([]byte, error) {
	return marshalRoutes(t.Show())
}

// MarshalJSON renders the table as a sorted route array.
func (t *RadixTree) MarshalJSON() ([]byte, error) {
	return marshalRoutes(t.Show())
}

func marshalRoutes(routes []*Route) ([]byte, error) {
	if routes == nil {
		routes = []*Route{}
	}
	return json.Marshal(routes)
}
