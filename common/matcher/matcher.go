// Package matcher implements the query-predicate sublanguage used by update
// operators: implicit equality plus a fixed set of comparison operators.
package matcher

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/mgo.v2/bson"

	"github.com/mongodb/mongo-update/common/mutablebson"
)

// Expression is a compiled predicate, evaluable against a document value.
type Expression interface {
	// Matches evaluates the predicate against doc, which must be an object
	// form (bson.D, bson.M or map[string]interface{}).
	Matches(doc interface{}) bool
}

// comparison operators recognized inside an operator document.
const (
	opEq  = "$eq"
	opNe  = "$ne"
	opGt  = "$gt"
	opGte = "$gte"
	opLt  = "$lt"
	opLte = "$lte"
	opIn  = "$in"
	opNin = "$nin"
)

// IsComparisonOperator reports whether name is one of the recognized
// comparison operator keywords.
func IsComparisonOperator(name string) bool {
	switch name {
	case opEq, opNe, opGt, opGte, opLt, opLte, opIn, opNin:
		return true
	}
	return false
}

// Parse compiles a query expression object. Each top-level field is either
// an implicit equality or an operator document; multiple fields and
// multiple operators are combined with AND.
func Parse(expr bson.D) (Expression, error) {
	var clauses []Expression
	for _, field := range expr {
		if strings.HasPrefix(field.Name, "$") {
			return nil, fmt.Errorf("unknown top level operator: %v", field.Name)
		}
		sub, isOps := operatorDoc(field.Value)
		if !isOps {
			clauses = append(clauses, &comparisonExpression{
				field: field.Name, op: opEq, operand: field.Value,
			})
			continue
		}
		for _, opField := range sub {
			clause, err := parseComparison(field.Name, opField.Name, opField.Value)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, clause)
		}
	}
	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return &andExpression{clauses: clauses}, nil
}

// operatorDoc reports whether val is an operator document, i.e. an object
// whose first field is a "$"-prefixed keyword, returning its ordered
// fields.
func operatorDoc(val interface{}) (bson.D, bool) {
	fields, ok := orderedFields(val)
	if !ok || len(fields) == 0 {
		return nil, false
	}
	if !strings.HasPrefix(fields[0].Name, "$") {
		return nil, false
	}
	return fields, true
}

func orderedFields(val interface{}) (bson.D, bool) {
	switch v := val.(type) {
	case bson.D:
		return v, true
	case bson.M:
		return sortFields(v), true
	case map[string]interface{}:
		return sortFields(v), true
	}
	return nil, false
}

func sortFields(m map[string]interface{}) bson.D {
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

func parseComparison(field, op string, operand interface{}) (Expression, error) {
	switch op {
	case opEq, opNe, opGt, opGte, opLt, opLte:
		return &comparisonExpression{field: field, op: op, operand: operand}, nil
	case opIn, opNin:
		values, ok := operand.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%v needs an array", op)
		}
		return &inExpression{field: field, values: values, negate: op == opNin}, nil
	}
	return nil, fmt.Errorf("unknown operator: %v", op)
}

type andExpression struct {
	clauses []Expression
}

func (e *andExpression) Matches(doc interface{}) bool {
	for _, clause := range e.clauses {
		if !clause.Matches(doc) {
			return false
		}
	}
	return true
}

type comparisonExpression struct {
	field   string
	op      string
	operand interface{}
}

func (e *comparisonExpression) Matches(doc interface{}) bool {
	value, found := lookupField(doc, e.field)
	if !found {
		// Only $ne matches a missing field.
		return e.op == opNe
	}
	cmp, comparable := compareForMatch(value, e.operand)
	switch e.op {
	case opEq:
		return comparable && cmp == 0
	case opNe:
		return !comparable || cmp != 0
	case opGt:
		return comparable && cmp > 0
	case opGte:
		return comparable && cmp >= 0
	case opLt:
		return comparable && cmp < 0
	case opLte:
		return comparable && cmp <= 0
	}
	return false
}

type inExpression struct {
	field  string
	values []interface{}
	negate bool
}

func (e *inExpression) Matches(doc interface{}) bool {
	value, found := lookupField(doc, e.field)
	if !found {
		return e.negate
	}
	for _, candidate := range e.values {
		if cmp, comparable := compareForMatch(value, candidate); comparable && cmp == 0 {
			return !e.negate
		}
	}
	return e.negate
}

// lookupField resolves a possibly dotted field name inside an object value.
func lookupField(doc interface{}, field string) (interface{}, bool) {
	fields, ok := orderedFields(doc)
	if !ok {
		return nil, false
	}
	name := field
	rest := ""
	if dot := strings.Index(field, "."); dot != -1 {
		name, rest = field[:dot], field[dot+1:]
	}
	for _, entry := range fields {
		if entry.Name != name {
			continue
		}
		if rest == "" {
			return entry.Value, true
		}
		return lookupField(entry.Value, rest)
	}
	return nil, false
}

// compareForMatch orders two values for query evaluation. Unlike the
// document's canonical order, numeric values compare across the int and
// double classes, so {$gt: 3} matches 5.0. Values of different non-numeric
// classes are not comparable.
func compareForMatch(a, b interface{}) (int, bool) {
	if aNum, aOK := asFloat(a); aOK {
		bNum, bOK := asFloat(b)
		if !bOK {
			return 0, false
		}
		switch {
		case aNum < bNum:
			return -1, true
		case aNum > bNum:
			return 1, true
		}
		return 0, true
	}
	if sameClass(a, b) {
		return mutablebson.CompareValues(a, b), true
	}
	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func sameClass(a, b interface{}) bool {
	switch a.(type) {
	case string:
		_, ok := b.(string)
		return ok
	case bool:
		_, ok := b.(bool)
		return ok
	case nil:
		return b == nil
	case []interface{}:
		_, ok := b.([]interface{})
		return ok
	case bson.D, bson.M, map[string]interface{}:
		_, ok := orderedFields(b)
		return ok
	}
	return false
}
