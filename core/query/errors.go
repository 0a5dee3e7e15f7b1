package query

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOperator      = errors.New("unknown operator")
	ErrUnsupportedCondition = errors.New("unsupported condition")
	ErrInvalidPagination    = errors.New("invalid pagination")
)

// UnknownOperatorError is returned when a condition names an operator outside
// the supported vocabulary.
type UnknownOperatorError struct {
	Operator ComparisonOperator
	Field    string
	Value    FilterValue
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown operator in where clause: operator=%q field=%q value=%v", e.Operator, e.Field, e.Value)
}

func (e *UnknownOperatorError) Unwrap() error { return ErrUnknownOperator }

// UnsupportedConditionError is returned for a condition that carries neither
// a recognized connector nor an operator.
type UnsupportedConditionError struct {
	Condition FilterCondition
}

func (e *UnsupportedConditionError) Error() string {
	return fmt.Sprintf("unimplemented scenario for where clause: %+v", e.Condition)
}

func (e *UnsupportedConditionError) Unwrap() error { return ErrUnsupportedCondition }
