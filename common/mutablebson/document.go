// Package mutablebson implements an in-place editable document tree over
// BSON-style values. Elements are handles into a per-document arena, so a
// handle stays valid while sibling elements are detached around it.
package mutablebson

import (
	"fmt"
	"sort"

	"gopkg.in/mgo.v2/bson"
)

// Kind is the type tag of an element's value. The set is closed; values
// outside it are rejected at construction time.
type Kind int

const (
	Invalid Kind = iota
	Double
	String
	Object
	Array
	Boolean
	Null
	Int32
	Int64
)

func (k Kind) String() string {
	switch k {
	case Double:
		return "double"
	case String:
		return "string"
	case Object:
		return "object"
	case Array:
		return "array"
	case Boolean:
		return "bool"
	case Null:
		return "null"
	case Int32:
		return "int"
	case Int64:
		return "long"
	}
	return "invalid"
}

const invalidSlot = -1

// elementRep is one arena entry. Links are arena slots, invalidSlot when
// absent. Scalar reps hold their value directly; object/array reps hold
// their value through their child links.
type elementRep struct {
	fieldName string
	kind      Kind
	value     interface{}

	parent     int
	firstChild int
	lastChild  int
	leftSib    int
	rightSib   int

	detached bool
}

// Document owns the element arena. The root is always slot 0, an unnamed
// object.
type Document struct {
	reps []elementRep
}

// NewDocument returns an empty document consisting of just the root object.
func NewDocument() *Document {
	doc := &Document{}
	doc.newRep("", Object, nil)
	return doc
}

// NewDocumentFromValue builds a document whose root fields are taken from
// val, which must be a bson.D, bson.M or map[string]interface{}.
func NewDocumentFromValue(val interface{}) (*Document, error) {
	doc := NewDocument()
	fields, err := asDocElems(val)
	if err != nil {
		return nil, err
	}
	for _, field := range fields {
		child, err := doc.MakeElement(field.Name, field.Value)
		if err != nil {
			return nil, err
		}
		if err := doc.Root().PushBack(child); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (d *Document) newRep(name string, kind Kind, value interface{}) int {
	d.reps = append(d.reps, elementRep{
		fieldName:  name,
		kind:       kind,
		value:      value,
		parent:     invalidSlot,
		firstChild: invalidSlot,
		lastChild:  invalidSlot,
		leftSib:    invalidSlot,
		rightSib:   invalidSlot,
	})
	return len(d.reps) - 1
}

// Root returns the document's root element.
func (d *Document) Root() Element {
	return Element{doc: d, slot: 0}
}

// End returns the invalid element, used as a "no element" sentinel.
func (d *Document) End() Element {
	return Element{doc: d, slot: invalidSlot}
}

// MakeElement builds a new unattached element named name carrying value.
// Object and array values are built recursively; bson.M and plain maps have
// their keys sorted for a deterministic field order.
func (d *Document) MakeElement(name string, value interface{}) (Element, error) {
	switch v := value.(type) {
	case nil:
		return Element{d, d.newRep(name, Null, nil)}, nil
	case float64:
		return Element{d, d.newRep(name, Double, v)}, nil
	case float32:
		return Element{d, d.newRep(name, Double, float64(v))}, nil
	case string:
		return Element{d, d.newRep(name, String, v)}, nil
	case bool:
		return Element{d, d.newRep(name, Boolean, v)}, nil
	case int:
		return Element{d, d.newRep(name, Int64, int64(v))}, nil
	case int32:
		return Element{d, d.newRep(name, Int32, v)}, nil
	case int64:
		return Element{d, d.newRep(name, Int64, v)}, nil
	case bson.D, bson.M, map[string]interface{}:
		fields, err := asDocElems(v)
		if err != nil {
			return d.End(), err
		}
		elem := Element{d, d.newRep(name, Object, nil)}
		for _, field := range fields {
			child, err := d.MakeElement(field.Name, field.Value)
			if err != nil {
				return d.End(), err
			}
			if err := elem.PushBack(child); err != nil {
				return d.End(), err
			}
		}
		return elem, nil
	case []interface{}:
		elem := Element{d, d.newRep(name, Array, nil)}
		for i, entry := range v {
			child, err := d.MakeElement(fmt.Sprintf("%d", i), entry)
			if err != nil {
				return d.End(), err
			}
			if err := elem.PushBack(child); err != nil {
				return d.End(), err
			}
		}
		return elem, nil
	}
	return d.End(), fmt.Errorf("unsupported value of type %T", value)
}

// MakeElementArray builds a new unattached, empty array element.
func (d *Document) MakeElementArray(name string) Element {
	return Element{d, d.newRep(name, Array, nil)}
}

// MakeElementWithNewFieldName deep-copies the value of from, which may
// belong to a different document, into a new unattached element named name.
func (d *Document) MakeElementWithNewFieldName(name string, from Element) (Element, error) {
	if !from.Ok() {
		return d.End(), fmt.Errorf("cannot copy an invalid element")
	}
	return d.MakeElement(name, from.Value())
}

// asDocElems converts the accepted object representations to an ordered
// field list. Map forms are sorted by key; bson.D keeps its order.
func asDocElems(val interface{}) (bson.D, error) {
	switch v := val.(type) {
	case bson.D:
		return v, nil
	case bson.M:
		return sortedDocElems(v), nil
	case map[string]interface{}:
		return sortedDocElems(v), nil
	}
	return nil, fmt.Errorf("expected a document, got %T", val)
}

func sortedDocElems(m map[string]interface{}) bson.D {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	elems := make(bson.D, 0, len(keys))
	for _, key := range keys {
		elems = append(elems, bson.DocElem{Name: key, Value: m[key]})
	}
	return elems
}
