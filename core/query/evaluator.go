package query

import (
	"strings"

	"github.com/asaidimu/go-memtable/core/schema"
)

// conditionTest is one compiled leaf condition.
type conditionTest func(doc schema.Document) bool

// EvaluateCondition evaluates a single condition against a document. It is
// the uncompiled form of what a Predicate does per leaf and never modifies
// the document.
func EvaluateCondition(condition FilterCondition, doc schema.Document) (bool, error) {
	test, err := compileCondition(condition)
	if err != nil {
		return false, err
	}
	return test(doc), nil
}

// compileCondition resolves the operator once and converts the condition
// value to its tagged form, so the returned test only reads the document.
func compileCondition(condition FilterCondition) (conditionTest, error) {
	field := condition.Field
	target := schema.ValueOf(condition.Value)

	switch condition.Operator.Normalize() {
	case ComparisonOperatorEq:
		return func(doc schema.Document) bool {
			return doc.Field(field).Equal(target)
		}, nil
	case ComparisonOperatorNe:
		return func(doc schema.Document) bool {
			return !doc.Field(field).Equal(target)
		}, nil
	case ComparisonOperatorLt:
		return ordered(field, target, func(c int) bool { return c < 0 }), nil
	case ComparisonOperatorLte:
		return ordered(field, target, func(c int) bool { return c <= 0 }), nil
	case ComparisonOperatorGt:
		return ordered(field, target, func(c int) bool { return c > 0 }), nil
	case ComparisonOperatorGte:
		return ordered(field, target, func(c int) bool { return c >= 0 }), nil
	case ComparisonOperatorIn:
		members, isArray := target.AsArray()
		return func(doc schema.Document) bool {
			if !isArray {
				return false
			}
			actual := doc.Field(field)
			for _, m := range members {
				if actual.Equal(m) {
					return true
				}
			}
			return false
		}, nil
	case ComparisonOperatorContains:
		return textual(field, target, strings.Contains), nil
	case ComparisonOperatorStartsWith:
		return textual(field, target, strings.HasPrefix), nil
	case ComparisonOperatorEndsWith:
		return textual(field, target, strings.HasSuffix), nil
	default:
		return nil, &UnknownOperatorError{
			Operator: condition.Operator,
			Field:    condition.Field,
			Value:    condition.Value,
		}
	}
}

// ordered builds a comparison test. A null condition value never matches,
// and neither do fields whose kind differs from the condition value.
func ordered(field string, target schema.Value, accept func(int) bool) conditionTest {
	return func(doc schema.Document) bool {
		if target.IsNull() {
			return false
		}
		c, ok := doc.Field(field).Compare(target)
		return ok && accept(c)
	}
}

// textual builds a substring test that only matches when both sides are strings.
func textual(field string, target schema.Value, match func(s, sub string) bool) conditionTest {
	needle, isString := target.AsString()
	return func(doc schema.Document) bool {
		if !isString {
			return false
		}
		haystack, ok := doc.Field(field).AsString()
		return ok && match(haystack, needle)
	}
}
