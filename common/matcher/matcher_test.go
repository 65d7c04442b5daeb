package matcher

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/mgo.v2/bson"
)

func TestParseErrors(t *testing.T) {

	Convey("Top level operators are rejected", t, func() {
		_, err := Parse(bson.D{{Name: "$gt", Value: 1}})
		So(err, ShouldNotBeNil)
	})
}

func TestImplicitEquality(t *testing.T) {

	Convey("With an implicit equality expression", t, func() {
		expr, err := Parse(bson.D{{Name: "a", Value: 1}})
		So(err, ShouldBeNil)

		Convey("matching values match", func() {
			So(expr.Matches(bson.D{{Name: "a", Value: 1}}), ShouldBeTrue)
			So(expr.Matches(bson.M{"a": int64(1)}), ShouldBeTrue)
		})

		Convey("numeric comparison crosses int and double", func() {
			So(expr.Matches(bson.M{"a": 1.0}), ShouldBeTrue)
		})

		Convey("other values and missing fields do not match", func() {
			So(expr.Matches(bson.M{"a": 2}), ShouldBeFalse)
			So(expr.Matches(bson.M{"a": "1"}), ShouldBeFalse)
			So(expr.Matches(bson.M{"b": 1}), ShouldBeFalse)
		})
	})

	Convey("With an object-valued equality", t, func() {
		expr, err := Parse(bson.D{{Name: "a", Value: bson.D{{Name: "b", Value: 1}}}})
		So(err, ShouldBeNil)

		So(expr.Matches(bson.M{"a": bson.D{{Name: "b", Value: 1}}}), ShouldBeTrue)
		So(expr.Matches(bson.M{"a": bson.D{{Name: "b", Value: 2}}}), ShouldBeFalse)
	})

	Convey("With multiple fields, all must match", t, func() {
		expr, err := Parse(bson.D{{Name: "a", Value: 1}, {Name: "b", Value: 2}})
		So(err, ShouldBeNil)

		So(expr.Matches(bson.M{"a": 1, "b": 2}), ShouldBeTrue)
		So(expr.Matches(bson.M{"a": 1, "b": 3}), ShouldBeFalse)
	})
}

func TestComparisonOperators(t *testing.T) {

	Convey("With a $gt expression", t, func() {
		expr, err := Parse(bson.D{{Name: "n", Value: bson.D{{Name: "$gt", Value: 3}}}})
		So(err, ShouldBeNil)

		So(expr.Matches(bson.M{"n": 5}), ShouldBeTrue)
		So(expr.Matches(bson.M{"n": 5.5}), ShouldBeTrue)
		So(expr.Matches(bson.M{"n": 3}), ShouldBeFalse)
		So(expr.Matches(bson.M{"n": 1}), ShouldBeFalse)
		So(expr.Matches(bson.M{"n": "5"}), ShouldBeFalse)
		So(expr.Matches(bson.M{}), ShouldBeFalse)
	})

	Convey("With several operators in one document, all apply", t, func() {
		expr, err := Parse(bson.D{{Name: "n", Value: bson.D{
			{Name: "$gte", Value: 2},
			{Name: "$lt", Value: 5},
		}}})
		So(err, ShouldBeNil)

		So(expr.Matches(bson.M{"n": 2}), ShouldBeTrue)
		So(expr.Matches(bson.M{"n": 4}), ShouldBeTrue)
		So(expr.Matches(bson.M{"n": 5}), ShouldBeFalse)
		So(expr.Matches(bson.M{"n": 1}), ShouldBeFalse)
	})

	Convey("$ne matches differing and missing values", t, func() {
		expr, err := Parse(bson.D{{Name: "n", Value: bson.D{{Name: "$ne", Value: 1}}}})
		So(err, ShouldBeNil)

		So(expr.Matches(bson.M{"n": 2}), ShouldBeTrue)
		So(expr.Matches(bson.M{"n": "x"}), ShouldBeTrue)
		So(expr.Matches(bson.M{}), ShouldBeTrue)
		So(expr.Matches(bson.M{"n": 1}), ShouldBeFalse)
	})

	Convey("$in and $nin", t, func() {
		expr, err := Parse(bson.D{{Name: "n", Value: bson.D{
			{Name: "$in", Value: []interface{}{1, "two", 3.0}},
		}}})
		So(err, ShouldBeNil)

		So(expr.Matches(bson.M{"n": 1}), ShouldBeTrue)
		So(expr.Matches(bson.M{"n": "two"}), ShouldBeTrue)
		So(expr.Matches(bson.M{"n": 3}), ShouldBeTrue)
		So(expr.Matches(bson.M{"n": 4}), ShouldBeFalse)

		ninExpr, err := Parse(bson.D{{Name: "n", Value: bson.D{
			{Name: "$nin", Value: []interface{}{1, 2}},
		}}})
		So(err, ShouldBeNil)
		So(ninExpr.Matches(bson.M{"n": 3}), ShouldBeTrue)
		So(ninExpr.Matches(bson.M{}), ShouldBeTrue)
		So(ninExpr.Matches(bson.M{"n": 2}), ShouldBeFalse)

		Convey("a non-array operand is a parse error", func() {
			_, err := Parse(bson.D{{Name: "n", Value: bson.D{{Name: "$in", Value: 1}}}})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("An unknown operator is a parse error", t, func() {
		_, err := Parse(bson.D{{Name: "n", Value: bson.D{{Name: "$regex", Value: "x"}}}})
		So(err, ShouldNotBeNil)
	})
}

func TestDottedFieldLookup(t *testing.T) {

	Convey("Dotted field names traverse nested objects", t, func() {
		expr, err := Parse(bson.D{{Name: "a.b", Value: 1}})
		So(err, ShouldBeNil)

		So(expr.Matches(bson.M{"a": bson.M{"b": 1}}), ShouldBeTrue)
		So(expr.Matches(bson.M{"a": bson.M{"b": 2}}), ShouldBeFalse)
		So(expr.Matches(bson.M{"a": 1}), ShouldBeFalse)
	})
}

func TestEmptyFieldName(t *testing.T) {

	Convey("The synthetic empty field name used for primitive wrapping works", t, func() {
		expr, err := Parse(bson.D{{Name: "", Value: bson.D{{Name: "$gt", Value: 3}}}})
		So(err, ShouldBeNil)

		So(expr.Matches(bson.D{{Name: "", Value: 5}}), ShouldBeTrue)
		So(expr.Matches(bson.D{{Name: "", Value: 2}}), ShouldBeFalse)
	})
}

func TestIsComparisonOperator(t *testing.T) {

	Convey("Comparison keywords are recognized", t, func() {
		for _, op := range []string{"$eq", "$ne", "$gt", "$gte", "$lt", "$lte", "$in", "$nin"} {
			So(IsComparisonOperator(op), ShouldBeTrue)
		}
		So(IsComparisonOperator("$and"), ShouldBeFalse)
		So(IsComparisonOperator("b"), ShouldBeFalse)
	})
}
