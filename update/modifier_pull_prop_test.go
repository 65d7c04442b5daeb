package update

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gopkg.in/mgo.v2/bson"

	"github.com/mongodb/mongo-update/common/mutablebson"
)

func int64Array(values []int64) []interface{} {
	arr := make([]interface{}, len(values))
	for i, v := range values {
		arr[i] = v
	}
	return arr
}

func sameInt64s(got []interface{}, want []int64) bool {
	if len(got) != len(want) {
		return false
	}
	for i, v := range got {
		if mutablebson.CompareValues(v, want[i]) != 0 {
			return false
		}
	}
	return true
}

// Property-based checks over the prepare/apply/log cycle for generated
// integer arrays.
func TestPullProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("$gt pull keeps exactly the non-matching elements in order", prop.ForAll(
		func(values []int64, threshold int64) bool {
			mod := NewModifierPull()
			err := mod.Init(bson.DocElem{
				Name:  "arr",
				Value: bson.D{{Name: "$gt", Value: threshold}},
			})
			if err != nil {
				return false
			}

			doc, err := mutablebson.NewDocumentFromValue(bson.M{"arr": int64Array(values)})
			if err != nil {
				return false
			}

			var expected []int64
			for _, v := range values {
				if v <= threshold {
					expected = append(expected, v)
				}
			}

			execInfo := &ExecInfo{}
			if err := mod.Prepare(doc.Root(), "", execInfo); err != nil {
				return false
			}
			if execInfo.NoOp {
				// No-op means nothing matched; the array must be untouched.
				return len(expected) == len(values)
			}
			if err := mod.Apply(); err != nil {
				return false
			}

			result, ok := doc.Root().LeftChild().Value().([]interface{})
			if !ok || !sameInt64s(result, expected) {
				return false
			}

			// The logged $set must equal the post-removal array.
			logBuilder := NewLogBuilder(mutablebson.NewDocument())
			if err := mod.Log(logBuilder); err != nil {
				return false
			}
			logged := logBuilder.Document().Root().ValueObject()
			if len(logged) != 1 || logged[0].Name != "$set" {
				return false
			}
			setDoc := logged[0].Value.(bson.D)
			if len(setDoc) != 1 || setDoc[0].Name != "arr" {
				return false
			}
			if !sameInt64s(setDoc[0].Value.([]interface{}), expected) {
				return false
			}

			// Re-preparing against the result must be a no-op.
			again := &ExecInfo{}
			if err := mod.Prepare(doc.Root(), "", again); err != nil {
				return false
			}
			return again.NoOp
		},
		gen.SliceOf(gen.Int64Range(-50, 50)),
		gen.Int64Range(-50, 50),
	))

	properties.Property("literal pull removes every equal element and nothing else", prop.ForAll(
		func(values []int64, target int64) bool {
			mod := NewModifierPull()
			if err := mod.Init(bson.DocElem{Name: "arr", Value: target}); err != nil {
				return false
			}

			doc, err := mutablebson.NewDocumentFromValue(bson.M{"arr": int64Array(values)})
			if err != nil {
				return false
			}

			var expected []int64
			matched := false
			for _, v := range values {
				if v == target {
					matched = true
				} else {
					expected = append(expected, v)
				}
			}

			execInfo := &ExecInfo{}
			if err := mod.Prepare(doc.Root(), "", execInfo); err != nil {
				return false
			}
			if execInfo.NoOp {
				return !matched
			}
			if err := mod.Apply(); err != nil {
				return false
			}

			result, ok := doc.Root().LeftChild().Value().([]interface{})
			return ok && sameInt64s(result, expected)
		},
		gen.SliceOf(gen.Int64Range(-10, 10)),
		gen.Int64Range(-10, 10),
	))

	properties.TestingRun(t)
}
