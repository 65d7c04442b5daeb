package mutablebson

import (
	"fmt"

	"gopkg.in/mgo.v2/bson"
)

// Element is a handle to one node of a Document. Handles are stable: they
// stay valid while other elements are attached or removed, and only go
// stale for the element that was itself removed.
type Element struct {
	doc  *Document
	slot int
}

// Ok reports whether the handle refers to a live, attached element.
func (e Element) Ok() bool {
	return e.doc != nil && e.slot != invalidSlot && !e.doc.reps[e.slot].detached
}

func (e Element) rep() *elementRep {
	return &e.doc.reps[e.slot]
}

func (e Element) at(slot int) Element {
	return Element{doc: e.doc, slot: slot}
}

// FieldName returns the element's field name. Array entries carry their
// position as a name, but it is ignored by comparisons.
func (e Element) FieldName() string {
	return e.rep().fieldName
}

// Type returns the element's kind.
func (e Element) Type() Kind {
	return e.rep().kind
}

// HasChildren reports whether an object or array element has at least one
// child.
func (e Element) HasChildren() bool {
	return e.rep().firstChild != invalidSlot
}

// LeftChild returns the first child, or the invalid element.
func (e Element) LeftChild() Element {
	return e.at(e.rep().firstChild)
}

// RightSibling returns the next sibling, or the invalid element.
func (e Element) RightSibling() Element {
	return e.at(e.rep().rightSib)
}

// Parent returns the parent element, or the invalid element for the root.
func (e Element) Parent() Element {
	return e.at(e.rep().parent)
}

// PushBack appends an unattached child built by the same document.
func (e Element) PushBack(child Element) error {
	if e.doc != child.doc {
		return fmt.Errorf("cannot attach an element from another document")
	}
	if !e.Ok() || child.slot == invalidSlot || child.rep().detached {
		return fmt.Errorf("cannot attach an invalid element")
	}
	if kind := e.rep().kind; kind != Object && kind != Array {
		return fmt.Errorf("cannot attach a child to a %v element", kind)
	}
	if child.rep().parent != invalidSlot {
		return fmt.Errorf("element is already attached")
	}

	rep := e.rep()
	crep := child.rep()
	crep.parent = e.slot
	crep.leftSib = rep.lastChild
	crep.rightSib = invalidSlot
	if rep.lastChild != invalidSlot {
		e.doc.reps[rep.lastChild].rightSib = child.slot
	} else {
		rep.firstChild = child.slot
	}
	rep.lastChild = child.slot
	return nil
}

// Remove detaches the element from its parent. Sibling handles held by the
// caller remain valid; only this handle goes stale.
func (e Element) Remove() error {
	if !e.Ok() {
		return fmt.Errorf("cannot remove an invalid element")
	}
	rep := e.rep()
	if rep.parent == invalidSlot {
		return fmt.Errorf("cannot remove the root element")
	}

	parent := &e.doc.reps[rep.parent]
	if rep.leftSib != invalidSlot {
		e.doc.reps[rep.leftSib].rightSib = rep.rightSib
	} else {
		parent.firstChild = rep.rightSib
	}
	if rep.rightSib != invalidSlot {
		e.doc.reps[rep.rightSib].leftSib = rep.leftSib
	} else {
		parent.lastChild = rep.leftSib
	}

	rep.parent = invalidSlot
	rep.leftSib = invalidSlot
	rep.rightSib = invalidSlot
	rep.detached = true
	return nil
}

// Value materializes the element's value: scalars directly, objects as
// bson.D, arrays as []interface{}.
func (e Element) Value() interface{} {
	rep := e.rep()
	switch rep.kind {
	case Object:
		return e.ValueObject()
	case Array:
		arr := []interface{}{}
		for child := e.LeftChild(); child.Ok(); child = child.RightSibling() {
			arr = append(arr, child.Value())
		}
		return arr
	}
	return rep.value
}

// ValueObject materializes an object element as an ordered bson.D.
func (e Element) ValueObject() bson.D {
	obj := bson.D{}
	for child := e.LeftChild(); child.Ok(); child = child.RightSibling() {
		obj = append(obj, bson.DocElem{Name: child.FieldName(), Value: child.Value()})
	}
	return obj
}

// ValueEquals compares the element's value against a raw value using the
// document's canonical ordering, ignoring field names.
func (e Element) ValueEquals(raw interface{}) bool {
	return CompareValues(e.Value(), raw) == 0
}
