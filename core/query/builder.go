// Package query provides a fluent API for building FindOptions, the flat
// condition list plus sort and pagination the processor consumes.
package query

import "slices"

// QueryBuilder provides a fluent and intuitive API for building FindOptions.
// It allows for the step-by-step construction of a query, including filters,
// sorting and pagination, culminating in a final FindOptions value.
type QueryBuilder struct {
	query FindOptions
}

// NewQueryBuilder creates a new, empty query builder instance.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{}
}

// Build returns the constructed FindOptions. The result does not share
// slices with the builder, so the builder can keep being extended.
func (qb *QueryBuilder) Build() FindOptions {
	return cloneOptions(qb.query)
}

// Conditions returns only the condition list built so far.
func (qb *QueryBuilder) Conditions() []FilterCondition {
	return slices.Clone(qb.query.Where)
}

// Clone creates a copy of the current query builder, allowing for the creation
// of new queries based on an existing one without modifying the original.
func (qb *QueryBuilder) Clone() *QueryBuilder {
	return &QueryBuilder{query: cloneOptions(qb.query)}
}

// Reset clears all configurations from the query builder, returning it to its initial state.
func (qb *QueryBuilder) Reset() *QueryBuilder {
	qb.query = FindOptions{}
	return qb
}

func cloneOptions(o FindOptions) FindOptions {
	out := FindOptions{
		Where:  slices.Clone(o.Where),
		SortBy: slices.Clone(o.SortBy),
		Select: slices.Clone(o.Select),
	}
	if o.Offset != nil {
		out.Offset = IntPtr(*o.Offset)
	}
	if o.Limit != nil {
		out.Limit = IntPtr(*o.Limit)
	}
	return out
}

// Where begins an AND-connected condition on a specific field.
func (qb *QueryBuilder) Where(field string) *FilterConditionBuilder {
	return &FilterConditionBuilder{parent: qb, field: field, connector: ConnectorAnd}
}

// OrWhere begins an OR-connected condition on a specific field.
func (qb *QueryBuilder) OrWhere(field string) *FilterConditionBuilder {
	return &FilterConditionBuilder{parent: qb, field: field, connector: ConnectorOr}
}

// FilterConditionBuilder is used to build a single filter condition (e.g., field = value).
type FilterConditionBuilder struct {
	parent    *QueryBuilder
	field     string
	connector Connector
}

// Eq adds an equality condition to the query.
func (fcb *FilterConditionBuilder) Eq(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorEq, value)
}

// Ne adds a not-equal condition to the query.
func (fcb *FilterConditionBuilder) Ne(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorNe, value)
}

// Lt adds a less-than condition to the query.
func (fcb *FilterConditionBuilder) Lt(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorLt, value)
}

// Lte adds a less-than-or-equal condition to the query.
func (fcb *FilterConditionBuilder) Lte(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorLte, value)
}

// Gt adds a greater-than condition to the query.
func (fcb *FilterConditionBuilder) Gt(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorGt, value)
}

// Gte adds a greater-than-or-equal condition to the query.
func (fcb *FilterConditionBuilder) Gte(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorGte, value)
}

// In adds an "in" condition, checking if a field's value is within a set of values.
func (fcb *FilterConditionBuilder) In(values ...FilterValue) *QueryBuilder {
	members := make([]any, len(values))
	for i, v := range values {
		members[i] = v
	}
	return fcb.addCondition(ComparisonOperatorIn, members)
}

// Contains adds a condition to check if a string field contains a substring.
func (fcb *FilterConditionBuilder) Contains(value string) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorContains, value)
}

// StartsWith adds a condition to check if a string field starts with a specific prefix.
func (fcb *FilterConditionBuilder) StartsWith(value string) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorStartsWith, value)
}

// EndsWith adds a condition to check if a string field ends with a specific suffix.
func (fcb *FilterConditionBuilder) EndsWith(value string) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorEndsWith, value)
}

// Custom adds a condition with an arbitrary operator. Operators outside
// the vocabulary are rejected when the query is compiled.
func (fcb *FilterConditionBuilder) Custom(operator ComparisonOperator, value FilterValue) *QueryBuilder {
	return fcb.addCondition(operator, value)
}

func (fcb *FilterConditionBuilder) addCondition(operator ComparisonOperator, value FilterValue) *QueryBuilder {
	fcb.parent.query.Where = append(fcb.parent.query.Where, FilterCondition{
		Field:     fcb.field,
		Operator:  operator,
		Value:     value,
		Connector: fcb.connector,
	})
	return fcb.parent
}

// OrderBy sets the sort key. Only one key is honored by the processor, so a
// later call replaces the earlier one.
func (qb *QueryBuilder) OrderBy(field string, direction SortDirection) *QueryBuilder {
	qb.query.SortBy = []SortConfiguration{{Field: field, Direction: direction}}
	return qb
}

// OrderByAsc sorts ascending on a specific field.
func (qb *QueryBuilder) OrderByAsc(field string) *QueryBuilder {
	return qb.OrderBy(field, SortDirectionAsc)
}

// OrderByDesc sorts descending on a specific field.
func (qb *QueryBuilder) OrderByDesc(field string) *QueryBuilder {
	return qb.OrderBy(field, SortDirectionDesc)
}

// Limit sets the maximum number of records to be returned by the query.
func (qb *QueryBuilder) Limit(limit int) *QueryBuilder {
	qb.query.Limit = IntPtr(limit)
	return qb
}

// Offset sets how many leading records are skipped.
func (qb *QueryBuilder) Offset(offset int) *QueryBuilder {
	qb.query.Offset = IntPtr(offset)
	return qb
}

// Select restricts returned records to the given fields.
func (qb *QueryBuilder) Select(fields ...string) *QueryBuilder {
	qb.query.Select = append(qb.query.Select, fields...)
	return qb
}
