// Package update implements update modifiers: pluggable operators that
// mutate a document in place as part of a write and produce a replayable
// oplog entry describing the mutation.
package update

import (
	"gopkg.in/mgo.v2/bson"

	"github.com/mongodb/mongo-update/common/fieldref"
	"github.com/mongodb/mongo-update/common/mutablebson"
)

// ExecInfo reports prepare-time decisions back to the update driver. Both
// slots are written by Prepare before any early return.
type ExecInfo struct {
	// FieldRef is the path this modifier touches, for cross-modifier
	// conflict detection.
	FieldRef *fieldref.FieldRef

	// NoOp is true when the modifier determined no mutation is needed.
	NoOp bool
}

// Modifier is the lifecycle contract shared by all update operators.
//
// Init runs exactly once per instance with the operator's raw expression.
// Then, per target document: Prepare decides what would change, the driver
// inspects ExecInfo, and optionally calls Apply followed by Log. When Apply
// runs in a cycle, Log must run after it. An instance is reusable against a
// new document via another Prepare call.
type Modifier interface {
	Init(modExpr bson.DocElem) error
	Prepare(root mutablebson.Element, matchedField string, execInfo *ExecInfo) error
	Apply() error
	Log(logBuilder *LogBuilder) error
}
