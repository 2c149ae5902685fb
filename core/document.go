package core

import (
	"fmt"
	"strings"
)

// Document is a nested key/value tree decoded from an upstream XML payload.
// Attributes are keyed with AttrPrefix, element text lives under TextKey.
// A repeated element decodes to a list while a lone one decodes to a map,
// so callers must go through AsList before ranging over children.
type Document map[string]interface{}

const (
	AttrPrefix = "-"
	TextKey    = "#text"
)

// AsList coerces v into a sequence of documents:
//   nil or blank string -> empty
//   single object       -> one element
//   collection          -> its elements (each must be an object)
// Any other shape returns a *ShapeError naming path.
func AsList(v interface{}, path string) ([]Document, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, nil
		}
		return nil, NewShapeError(path, v)
	case Document:
		return []Document{t}, nil
	case map[string]interface{}:
		return []Document{t}, nil
	case []Document:
		return t, nil
	case []map[string]interface{}:
		out := make([]Document, 0, len(t))
		for _, m := range t {
			out = append(out, m)
		}
		return out, nil
	case []interface{}:
		out := make([]Document, 0, len(t))
		for i, item := range t {
			doc, ok := asDocument(item)
			if !ok {
				return nil, NewShapeError(fmt.Sprintf("%s[%d]", path, i), item)
			}
			out = append(out, doc)
		}
		return out, nil
	default:
		return nil, NewShapeError(path, v)
	}
}

func asDocument(v interface{}) (Document, bool) {
	switch t := v.(type) {
	case Document:
		return t, true
	case map[string]interface{}:
		return t, true
	}
	return nil, false
}

// Lookup walks keys and returns the raw value found, or nil.
func (d Document) Lookup(keys ...string) interface{} {
	var cur interface{} = d
	for _, k := range keys {
		doc, ok := asDocument(cur)
		if !ok {
			return nil
		}
		cur = doc[k]
	}
	return cur
}

// Child returns the object at keys, or nil if absent or not an object.
func (d Document) Child(keys ...string) Document {
	doc, _ := asDocument(d.Lookup(keys...))
	return doc
}

// List coerces the value at keys with AsList.
func (d Document) List(keys ...string) ([]Document, error) {
	return AsList(d.Lookup(keys...), strings.Join(keys, "."))
}

// Attr returns the attribute `name` as a string ("" if absent).
func (d Document) Attr(name string) string {
	return stringify(d[AttrPrefix+name])
}

// Text returns the text content of the child element `key`.
func (d Document) Text(key string) string {
	switch t := d[key].(type) {
	case map[string]interface{}:
		return stringify(t[TextKey])
	case Document:
		return stringify(t[TextKey])
	default:
		return stringify(t)
	}
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
