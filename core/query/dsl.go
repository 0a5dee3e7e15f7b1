// Package query defines the filter, sort and pagination vocabulary used to
// address records in an in-memory collection, and the processor that
// compiles and applies it.
package query

import "maps"

// ComparisonOperator defines the set of operators that can be used in a filter condition.
type ComparisonOperator string

// Supported comparison operators.
const (
	ComparisonOperatorEq         ComparisonOperator = "eq"
	ComparisonOperatorNe         ComparisonOperator = "ne"
	ComparisonOperatorLt         ComparisonOperator = "lt"
	ComparisonOperatorLte        ComparisonOperator = "lte"
	ComparisonOperatorGt         ComparisonOperator = "gt"
	ComparisonOperatorGte        ComparisonOperator = "gte"
	ComparisonOperatorIn         ComparisonOperator = "in"
	ComparisonOperatorContains   ComparisonOperator = "contains"
	ComparisonOperatorStartsWith ComparisonOperator = "starts_with"
	ComparisonOperatorEndsWith   ComparisonOperator = "ends_with"
)

// Camel-case spellings accepted on input and normalized before dispatch.
const (
	comparisonOperatorStartsWithAlias ComparisonOperator = "startsWith"
	comparisonOperatorEndsWithAlias   ComparisonOperator = "endsWith"
)

// standardComparisonOperators is the fixed operator vocabulary. Every entry
// has a case in compileCondition.
var standardComparisonOperators = map[ComparisonOperator]struct{}{
	ComparisonOperatorEq:         {},
	ComparisonOperatorNe:         {},
	ComparisonOperatorLt:         {},
	ComparisonOperatorLte:        {},
	ComparisonOperatorGt:         {},
	ComparisonOperatorGte:        {},
	ComparisonOperatorIn:         {},
	ComparisonOperatorContains:   {},
	ComparisonOperatorStartsWith: {},
	ComparisonOperatorEndsWith:   {},
}

// Normalize maps alias spellings onto their canonical operator.
func (c ComparisonOperator) Normalize() ComparisonOperator {
	switch c {
	case comparisonOperatorStartsWithAlias:
		return ComparisonOperatorStartsWith
	case comparisonOperatorEndsWithAlias:
		return ComparisonOperatorEndsWith
	}
	return c
}

// IsStandard checks if a comparison operator, after normalization, is part
// of the supported vocabulary.
func (c ComparisonOperator) IsStandard() bool {
	_, ok := standardComparisonOperators[c.Normalize()]
	return ok
}

// GetStandardComparisonOperators returns a copy of the standard comparison
// operators. Changing it does not affect IsStandard.
func GetStandardComparisonOperators() map[ComparisonOperator]struct{} {
	return maps.Clone(standardComparisonOperators)
}

// Connector labels how a condition joins the rest of the list.
type Connector string

// Recognized connectors.
const (
	ConnectorAnd Connector = "AND"
	ConnectorOr  Connector = "OR"
)

// ConnectorMode selects how OR-labelled conditions are combined.
type ConnectorMode string

const (
	// ConnectorModeConjunction folds every condition into one AND, whatever
	// its connector. This is the compatible default.
	ConnectorModeConjunction ConnectorMode = "conjunction"
	// ConnectorModeGrouped requires every AND condition to hold and, when
	// OR conditions are present, at least one of them.
	ConnectorModeGrouped ConnectorMode = "grouped"
)

// FilterValue represents the value used in a filter condition.
type FilterValue any

// FilterCondition defines a single leaf test against one field of a record.
type FilterCondition struct {
	Field     string             `json:"field"`
	Operator  ComparisonOperator `json:"operator"`
	Value     FilterValue        `json:"value"`
	Connector Connector          `json:"connector"`
}

// SortDirection specifies the direction for sorting.
type SortDirection string

// Supported sort directions.
const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// SortConfiguration defines the sorting order for a specific field.
type SortConfiguration struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// FindOptions is everything a multi-record read accepts. Only the first
// entry of SortBy is honored. Nil Offset and Limit mean "not supplied".
type FindOptions struct {
	Where  []FilterCondition   `json:"where,omitempty"`
	SortBy []SortConfiguration `json:"sortBy,omitempty"`
	Offset *int                `json:"offset,omitempty"`
	Limit  *int                `json:"limit,omitempty"`
	Select []string            `json:"select,omitempty"`
}
