package update

import (
	"sort"

	"gopkg.in/mgo.v2/bson"

	"github.com/mongodb/mongo-update/common/fieldref"
	"github.com/mongodb/mongo-update/common/matcher"
	"github.com/mongodb/mongo-update/common/mutablebson"
)

// pullPreparedState is the transient bookkeeping produced by Prepare and
// consumed by Apply/Log for one target document. It borrows the document's
// elements; it owns only its own vectors and flags.
type pullPreparedState struct {
	// Index in the field ref up to which an element exists in the document.
	idxFound int

	// Element corresponding to fieldRef[0..idxFound].
	elemFound mutablebson.Element

	// Value bound to a $-positional field, if one was provided.
	boundDollar string

	// Elements to be removed, in array order.
	elementsToRemove []mutablebson.Element

	// True if this update is a no-op.
	noOp bool
}

// ModifierPull implements the $pull operator: it removes from an array
// field every element matching the operator's criterion, which is either a
// literal value or a query-style predicate.
type ModifierPull struct {
	// The $pull target path.
	fieldRef fieldref.FieldRef

	// 0 or index of the $-positional element in fieldRef.
	posDollar     int
	hasPositional bool

	// The raw operator expression, kept for literal-equality matching.
	exprElt bson.DocElem

	// Compiled predicate when the expression is an object, nil in
	// literal-equality mode. matcherOnPrimitive is set when the expression
	// object was an operator document over a single primitive value and was
	// wrapped in a synthetic empty-named field before compiling.
	matchExpr          matcher.Expression
	matcherOnPrimitive bool

	preparedState *pullPreparedState
}

var _ Modifier = (*ModifierPull)(nil)

// NewModifierPull returns an uninitialized $pull modifier; Init must run
// before any Prepare.
func NewModifierPull() *ModifierPull {
	return &ModifierPull{}
}

// Init parses the operator expression. It runs exactly once per instance
// and never touches a document.
func (m *ModifierPull) Init(modExpr bson.DocElem) error {
	// Perform standard field name and updateable checks.
	m.fieldRef.Parse(modExpr.Name)
	if err := fieldref.IsUpdatable(&m.fieldRef); err != nil {
		return newError(ErrInvalidPath, "%v", err)
	}

	// If a $-positional operator was used, get the index in which it
	// occurred and ensure only one occurrence.
	pos, count, found := fieldref.IsPositional(&m.fieldRef)
	if found && count > 1 {
		return newError(ErrInvalidArgument, "too many positional($) elements found")
	}
	m.posDollar = pos
	m.hasPositional = found

	m.exprElt = modExpr
	if exprObj, ok := expressionObject(modExpr.Value); ok {
		m.matcherOnPrimitive = len(exprObj) > 0 && matcher.IsComparisonOperator(exprObj[0].Name)
		if m.matcherOnPrimitive {
			exprObj = bson.D{{Name: "", Value: exprObj}}
		}

		matchExpr, err := matcher.Parse(exprObj)
		if err != nil {
			return newError(ErrInvalidArgument, "%v", err)
		}
		m.matchExpr = matchExpr
	}

	return nil
}

// expressionObject normalizes an object-typed operator expression to an
// ordered bson.D. Map forms get sorted keys so the operator-document check
// is deterministic.
func expressionObject(value interface{}) (bson.D, bool) {
	switch v := value.(type) {
	case bson.D:
		return v, true
	case bson.M:
		return sortedFields(v), true
	case map[string]interface{}:
		return sortedFields(v), true
	}
	return nil, false
}

func sortedFields(m map[string]interface{}) bson.D {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fields := make(bson.D, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, bson.DocElem{Name: key, Value: m[key]})
	}
	return fields
}

// Prepare resolves the target path against root, decides whether this cycle
// is a no-op, and records which elements Apply would remove. It writes
// execInfo's slots before any early return.
func (m *ModifierPull) Prepare(root mutablebson.Element, matchedField string, execInfo *ExecInfo) error {
	m.preparedState = &pullPreparedState{}

	// If we have a $-positional field, it is time to bind it to an actual
	// field part.
	if m.hasPositional {
		if matchedField == "" {
			return newError(ErrInvalidArgument, "matched field not provided")
		}
		m.preparedState.boundDollar = matchedField
		m.fieldRef.SetPart(m.posDollar, matchedField)
	}

	// Locate the field name in 'root'. A completely missing path is fine
	// here; the prepared state just keeps an invalid elemFound.
	idxFound, elemFound, err := mutablebson.FindLongestPrefix(&m.fieldRef, root)
	if err == nil {
		m.preparedState.idxFound = idxFound
		m.preparedState.elemFound = elemFound
	} else if err != mutablebson.ErrElementNotFound {
		return newError(ErrInvalidArgument, "%v", err)
	}

	// We register interest in the field name. The driver needs this info to
	// sort out if there is any conflict among mods.
	execInfo.FieldRef = &m.fieldRef

	if !m.preparedState.elemFound.Ok() ||
		m.preparedState.idxFound < m.fieldRef.NumParts()-1 {
		// If no target element exists, then there is nothing to do here.
		m.preparedState.noOp = true
		execInfo.NoOp = true
		return nil
	}

	// This operation only applies to arrays.
	if m.preparedState.elemFound.Type() != mutablebson.Array {
		return newError(ErrInvalidArgument, "Cannot apply $pull to a non-array value")
	}

	// If the array is empty, there is nothing to pull, so this is a noop.
	if !m.preparedState.elemFound.HasChildren() {
		m.preparedState.noOp = true
		execInfo.NoOp = true
		return nil
	}

	// Walk the values in the array.
	for cursor := m.preparedState.elemFound.LeftChild(); cursor.Ok(); cursor = cursor.RightSibling() {
		if m.isMatch(cursor) {
			m.preparedState.elementsToRemove = append(m.preparedState.elementsToRemove, cursor)
		}
	}

	// If we didn't find any elements to remove, then this is a no-op.
	if len(m.preparedState.elementsToRemove) == 0 {
		m.preparedState.noOp = true
		execInfo.NoOp = true
	}

	return nil
}

// Apply removes every element recorded by Prepare. Calling it on a no-op or
// short-prefix cycle is a programming error, not a user error.
func (m *ModifierPull) Apply() error {
	if m.preparedState == nil || m.preparedState.noOp {
		panic("$pull apply called on an unprepared or no-op cycle")
	}
	if !m.preparedState.elemFound.Ok() ||
		m.preparedState.idxFound != m.fieldRef.NumParts()-1 {
		panic("$pull apply called without a fully resolved path")
	}

	for _, elem := range m.preparedState.elementsToRemove {
		if err := elem.Remove(); err != nil {
			return newError(ErrInternal, "cannot remove matched element: %v", err)
		}
	}

	return nil
}

// Log appends this cycle's oplog entry to logBuilder. When Apply ran in
// this cycle, Log must run after it: the $set branch reads the array as it
// stands post-removal.
func (m *ModifierPull) Log(logBuilder *LogBuilder) error {
	if m.preparedState == nil {
		panic("$pull log called on an unprepared cycle")
	}

	doc := logBuilder.Document()

	if !m.preparedState.elemFound.Ok() ||
		m.preparedState.idxFound < m.fieldRef.NumParts()-1 {

		// We didn't find the element that we wanted to pull from, so log an
		// unset for that path. The value is a placeholder; only the field
		// name is replayed.
		logElement, err := doc.MakeElement(m.fieldRef.DottedField(), 1)
		if err != nil {
			return newError(ErrInternal, "cannot create log entry for $pull mod")
		}
		if err := logBuilder.AddToUnsets(logElement); err != nil {
			return newError(ErrInternal, "cannot log unset for $pull mod: %v", err)
		}
		return nil
	}

	// Log the full resulting array as {$set: {<fieldname>: [...]}}. A
	// positional entry would not replay correctly, since positions shift
	// after removal.
	logElement := doc.MakeElementArray(m.fieldRef.DottedField())

	for curr := m.preparedState.elemFound.LeftChild(); curr.Ok(); curr = curr.RightSibling() {
		// Copy each remaining array entry into the log document. Entry
		// names are dropped; position carries the meaning.
		currCopy, err := doc.MakeElementWithNewFieldName("", curr)
		if err != nil {
			return newError(ErrInternal, "could not create copy element")
		}
		if err := logElement.PushBack(currCopy); err != nil {
			return newError(ErrInternal, "could not append entry for $pull log")
		}
	}

	if err := logBuilder.AddToSets(logElement); err != nil {
		return newError(ErrInternal, "cannot log set for $pull mod: %v", err)
	}
	return nil
}

// isMatch decides whether one array element satisfies the removal
// criterion. The element must carry a concrete value.
func (m *ModifierPull) isMatch(element mutablebson.Element) bool {
	if m.matchExpr == nil {
		return element.ValueEquals(m.exprElt.Value)
	}

	if m.matcherOnPrimitive {
		candidate := bson.D{{Name: "", Value: element.Value()}}
		return m.matchExpr.Matches(candidate)
	}

	if element.Type() != mutablebson.Object {
		return false
	}

	return m.matchExpr.Matches(element.ValueObject())
}
