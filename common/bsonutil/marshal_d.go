// Package bsonutil provides helpers for moving between bson values and
// their JSON representations.
package bsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/mgo.v2/bson"
)

// MarshalD is a wrapper for bson.D that allows marshalling to JSON with
// preserved field order. Necessary for printing documents and oplog
// entries.
type MarshalD bson.D

// MarshalJSON makes the MarshalD type usable by the encoding/json package.
func (md MarshalD) MarshalJSON() ([]byte, error) {
	var buff bytes.Buffer
	buff.WriteString("{")
	for i, item := range md {
		key, err := json.Marshal(item.Name)
		if err != nil {
			return nil, fmt.Errorf("cannot marshal key %v: %v", item.Name, err)
		}
		val, err := json.Marshal(wrapOrdered(item.Value))
		if err != nil {
			return nil, fmt.Errorf("cannot marshal %v: %v", item.Value, err)
		}
		buff.Write(key)
		buff.WriteString(":")
		buff.Write(val)
		if i != len(md)-1 {
			buff.WriteString(",")
		}
	}
	buff.WriteString("}")
	return buff.Bytes(), nil
}

// wrapOrdered recursively wraps nested bson.D values so they marshal as
// objects rather than as lists of name/value pairs.
func wrapOrdered(val interface{}) interface{} {
	switch v := val.(type) {
	case bson.D:
		return MarshalD(v)
	case MarshalD:
		return v
	case []interface{}:
		wrapped := make([]interface{}, len(v))
		for i, entry := range v {
			wrapped[i] = wrapOrdered(entry)
		}
		return wrapped
	}
	return val
}
