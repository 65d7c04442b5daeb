package mongoupdate

import (
	"bytes"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func runUpdate(updateJSON, matchedField, input string, oplog bool) (*MongoUpdate, string, error) {
	out := &bytes.Buffer{}
	mu := &MongoUpdate{
		UpdateOptions: &UpdateOptions{
			Update:       updateJSON,
			MatchedField: matchedField,
			Oplog:        oplog,
		},
		In:  strings.NewReader(input),
		Out: out,
	}
	if err := mu.ValidateSettings(); err != nil {
		return mu, "", err
	}
	_, err := mu.Run()
	return mu, out.String(), err
}

func TestValidateSettings(t *testing.T) {

	Convey("An empty update document is rejected", t, func() {
		_, _, err := runUpdate("", "", "", false)
		So(err, ShouldNotBeNil)
	})

	Convey("Invalid JSON is rejected", t, func() {
		_, _, err := runUpdate("{not json", "", "", false)
		So(err, ShouldNotBeNil)
	})

	Convey("An update without $pull is rejected", t, func() {
		_, _, err := runUpdate(`{"$set": {"a": 1}}`, "", "", false)
		So(err, ShouldNotBeNil)
	})

	Convey("A $pull mixed with other operators is rejected", t, func() {
		_, _, err := runUpdate(`{"$pull": {"a": 1}, "$set": {"b": 2}}`, "", "", false)
		So(err, ShouldNotBeNil)
	})

	Convey("An invalid $pull expression is rejected", t, func() {
		_, _, err := runUpdate(`{"$pull": {"a..b": 1}}`, "", "", false)
		So(err, ShouldNotBeNil)
	})

	Convey("A valid $pull passes validation", t, func() {
		mu, _, err := runUpdate(`{"$pull": {"a": 1}}`, "", "", false)
		So(err, ShouldBeNil)
		So(mu, ShouldNotBeNil)
	})
}

func TestRun(t *testing.T) {

	Convey("Pulling a literal from each input document", t, func() {
		output, err := applied(`{"$pull": {"arr": 1}}`, "",
			`{"arr": [1, 2, 1, 3]}
{"arr": [2, 3]}`)
		So(err, ShouldBeNil)
		So(output, ShouldEqual,
			`{"arr":[2,3]}
{"arr":[2,3]}
`)
	})

	Convey("Pulling with a comparison predicate", t, func() {
		output, err := applied(`{"$pull": {"votes": {"$gt": 3}}}`, "",
			`{"votes": [1, 5, 2, 9]}`)
		So(err, ShouldBeNil)
		So(output, ShouldEqual, `{"votes":[1,2]}`+"\n")
	})

	Convey("A missing field leaves the document untouched", t, func() {
		output, err := applied(`{"$pull": {"arr": 1}}`, "", `{"other": true}`)
		So(err, ShouldBeNil)
		So(output, ShouldEqual, `{"other":true}`+"\n")
	})

	Convey("Pulling from a non-array reports an error", t, func() {
		_, _, err := runUpdate(`{"$pull": {"a": 1}}`, "", `{"a": 1}`, false)
		So(err, ShouldNotBeNil)
	})

	Convey("With --oplog the replication entry follows each document", t, func() {
		_, output, err := runUpdate(`{"$pull": {"votes": {"$gt": 3}}}`, "",
			`{"votes": [1, 5, 2, 9]}`, true)
		So(err, ShouldBeNil)
		So(output, ShouldEqual,
			`{"votes":[1,2]}
{"$set":{"votes":[1,2]}}
`)
	})

	Convey("With --oplog a missing field logs an unset", t, func() {
		_, output, err := runUpdate(`{"$pull": {"arr": 1}}`, "", `{"other": 1}`, true)
		So(err, ShouldBeNil)
		So(output, ShouldEqual,
			`{"other":1}
{"$unset":{"arr":1}}
`)
	})

	Convey("A positional path binds --matchedField", t, func() {
		_, output, err := runUpdate(`{"$pull": {"a.$.b": 2}}`, "1",
			`{"a": [{"b": [2]}, {"b": [2, 5]}]}`, false)
		So(err, ShouldBeNil)
		So(output, ShouldEqual, `{"a":[{"b":[2]},{"b":[5]}]}`+"\n")
	})
}

func applied(updateJSON, matchedField, input string) (string, error) {
	_, output, err := runUpdate(updateJSON, matchedField, input, false)
	return output, err
}
