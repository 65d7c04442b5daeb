package update

import (
	"fmt"

	"github.com/mongodb/mongo-update/common/mutablebson"
)

// LogBuilder accumulates the oplog entry for one update: a document shaped
// {$set: {...}, $unset: {...}}, with either section created lazily on first
// use.
type LogBuilder struct {
	doc              *mutablebson.Document
	setAccumulator   mutablebson.Element
	unsetAccumulator mutablebson.Element
}

// NewLogBuilder returns a builder writing into doc, which should be empty.
func NewLogBuilder(doc *mutablebson.Document) *LogBuilder {
	return &LogBuilder{
		doc:              doc,
		setAccumulator:   doc.End(),
		unsetAccumulator: doc.End(),
	}
}

// Document returns the log document under construction. Modifiers use it to
// build the elements they hand back to AddToSets/AddToUnsets.
func (lb *LogBuilder) Document() *mutablebson.Document {
	return lb.doc
}

func (lb *LogBuilder) section(name string, cached *mutablebson.Element) (mutablebson.Element, error) {
	if cached.Ok() {
		return *cached, nil
	}
	elem, err := lb.doc.MakeElement(name, map[string]interface{}{})
	if err != nil {
		return lb.doc.End(), err
	}
	if err := lb.doc.Root().PushBack(elem); err != nil {
		return lb.doc.End(), err
	}
	*cached = elem
	return elem, nil
}

// AddToSets appends elem to the $set section.
func (lb *LogBuilder) AddToSets(elem mutablebson.Element) error {
	sets, err := lb.section("$set", &lb.setAccumulator)
	if err != nil {
		return fmt.Errorf("cannot create $set section of log entry: %v", err)
	}
	return sets.PushBack(elem)
}

// AddToUnsets appends elem to the $unset section. Only elem's field name is
// replayed; its value is a placeholder.
func (lb *LogBuilder) AddToUnsets(elem mutablebson.Element) error {
	unsets, err := lb.section("$unset", &lb.unsetAccumulator)
	if err != nil {
		return fmt.Errorf("cannot create $unset section of log entry: %v", err)
	}
	return unsets.PushBack(elem)
}
