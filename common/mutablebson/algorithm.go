package mutablebson

import (
	"errors"
	"strconv"
	"strings"

	"gopkg.in/mgo.v2/bson"

	"github.com/mongodb/mongo-update/common/fieldref"
)

// ErrElementNotFound is returned by FindLongestPrefix when not even the
// first path part exists under the root.
var ErrElementNotFound = errors.New("element not found")

// FindLongestPrefix locates the deepest existing element along ref starting
// at root. It returns the index of the last path part that resolved and the
// element found there. A partial prefix, including a path that dead-ends at
// a scalar, is a successful outcome with idx < ref.NumParts()-1.
func FindLongestPrefix(ref *fieldref.FieldRef, root Element) (int, Element, error) {
	if ref.NumParts() == 0 {
		return 0, root.doc.End(), errors.New("cannot resolve an empty path")
	}

	current := root
	found := root.doc.End()
	idx := 0
	for i := 0; i < ref.NumParts(); i++ {
		child := findChild(current, ref.Part(i))
		if !child.Ok() {
			break
		}
		found = child
		idx = i
		current = child
	}

	if !found.Ok() {
		return 0, root.doc.End(), ErrElementNotFound
	}
	return idx, found, nil
}

// findChild resolves one path part under elem: by name for objects, by
// position for arrays.
func findChild(elem Element, part string) Element {
	switch elem.Type() {
	case Object:
		for child := elem.LeftChild(); child.Ok(); child = child.RightSibling() {
			if child.FieldName() == part {
				return child
			}
		}
	case Array:
		index, err := strconv.Atoi(part)
		if err != nil || index < 0 {
			return elem.doc.End()
		}
		for child := elem.LeftChild(); child.Ok(); child = child.RightSibling() {
			if index == 0 {
				return child
			}
			index--
		}
	}
	return elem.doc.End()
}

// Canonical type classes. Integers share one class so int and long compare
// numerically, but double is its own class: 5 and 5.0 never compare equal.
const (
	classNull = iota
	classInt
	classDouble
	classString
	classObject
	classArray
	classBool
)

func canonicalClass(v interface{}) (int, bool) {
	switch v.(type) {
	case nil:
		return classNull, true
	case int, int32, int64:
		return classInt, true
	case float32, float64:
		return classDouble, true
	case string:
		return classString, true
	case bson.D, bson.M, map[string]interface{}:
		return classObject, true
	case []interface{}:
		return classArray, true
	case bool:
		return classBool, true
	}
	return 0, false
}

// CompareValues imposes the document's canonical total order on two raw
// values: first by type class, then by value. Values of unsupported Go
// types sort after everything else.
func CompareValues(a, b interface{}) int {
	aClass, aOK := canonicalClass(a)
	bClass, bOK := canonicalClass(b)
	if !aOK || !bOK {
		switch {
		case aOK:
			return -1
		case bOK:
			return 1
		}
		return 0
	}
	if aClass != bClass {
		return compareInts(int64(aClass), int64(bClass))
	}

	switch aClass {
	case classNull:
		return 0
	case classInt:
		return compareInts(toInt64(a), toInt64(b))
	case classDouble:
		aVal, bVal := toFloat64(a), toFloat64(b)
		switch {
		case aVal < bVal:
			return -1
		case aVal > bVal:
			return 1
		}
		return 0
	case classString:
		return strings.Compare(a.(string), b.(string))
	case classObject:
		return compareObjects(a, b)
	case classArray:
		return compareArrays(a.([]interface{}), b.([]interface{}))
	case classBool:
		aVal, bVal := a.(bool), b.(bool)
		switch {
		case aVal == bVal:
			return 0
		case !aVal:
			return -1
		}
		return 1
	}
	return 0
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	}
	return 0
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

func compareObjects(a, b interface{}) int {
	aElems, err := asDocElems(a)
	if err != nil {
		return 0
	}
	bElems, err := asDocElems(b)
	if err != nil {
		return 0
	}
	for i := 0; i < len(aElems) && i < len(bElems); i++ {
		if cmp := strings.Compare(aElems[i].Name, bElems[i].Name); cmp != 0 {
			return cmp
		}
		if cmp := CompareValues(aElems[i].Value, bElems[i].Value); cmp != 0 {
			return cmp
		}
	}
	return compareInts(int64(len(aElems)), int64(len(bElems)))
}

func compareArrays(a, b []interface{}) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if cmp := CompareValues(a[i], b[i]); cmp != 0 {
			return cmp
		}
	}
	return compareInts(int64(len(a)), int64(len(b)))
}
