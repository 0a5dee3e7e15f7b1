package query

import (
	"fmt"
	"slices"

	"github.com/asaidimu/go-memtable/core/schema"
	"go.uber.org/zap"
)

// Predicate is a compiled filter. It is pure, holds no reference to the
// conditions it was built from and may be called concurrently.
type Predicate func(doc schema.Document) bool

// MatchAll is the predicate of an empty condition list.
func MatchAll(schema.Document) bool { return true }

// DataProcessor compiles filter conditions and runs the filter, sort and
// pagination pipeline over in-memory rows. It keeps no per-call state.
type DataProcessor struct {
	mode   ConnectorMode
	logger *zap.Logger
}

// Option configures a DataProcessor.
type Option func(*DataProcessor)

// WithConnectorMode selects how OR-labelled conditions are combined.
func WithConnectorMode(mode ConnectorMode) Option {
	return func(p *DataProcessor) {
		if mode != "" {
			p.mode = mode
		}
	}
}

// NewDataProcessor creates a new DataProcessor instance.
func NewDataProcessor(logger *zap.Logger, opts ...Option) *DataProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &DataProcessor{
		mode:   ConnectorModeConjunction,
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Mode returns the connector mode the processor compiles with.
func (p *DataProcessor) Mode() ConnectorMode {
	return p.mode
}

// Compile turns a condition list into a single Predicate. An empty list
// matches every record. Every condition is validated up front, so an
// unknown operator fails here even when no record would reach it.
func (p *DataProcessor) Compile(conditions []FilterCondition) (Predicate, error) {
	if len(conditions) == 0 {
		return MatchAll, nil
	}

	all := make([]conditionTest, 0, len(conditions))
	var anyOf []conditionTest
	for _, condition := range conditions {
		switch condition.Connector {
		case ConnectorAnd:
		case ConnectorOr:
			if p.mode != ConnectorModeGrouped {
				p.logger.Warn("OR connector folded into AND",
					zap.String("field", condition.Field),
					zap.String("operator", string(condition.Operator)),
					zap.Any("value", condition.Value),
				)
			}
		default:
			if condition.Operator == "" {
				return nil, &UnsupportedConditionError{Condition: condition}
			}
			p.logger.Warn("Where clause with operator only",
				zap.String("field", condition.Field),
				zap.String("operator", string(condition.Operator)),
				zap.String("connector", string(condition.Connector)),
			)
		}

		test, err := compileCondition(condition)
		if err != nil {
			return nil, err
		}
		if condition.Connector == ConnectorOr && p.mode == ConnectorModeGrouped {
			anyOf = append(anyOf, test)
		} else {
			all = append(all, test)
		}
	}

	return func(doc schema.Document) bool {
		for _, test := range all {
			if !test(doc) {
				return false
			}
		}
		if len(anyOf) == 0 {
			return true
		}
		for _, test := range anyOf {
			if test(doc) {
				return true
			}
		}
		return false
	}, nil
}

// Match evaluates a single document against a condition list.
func (p *DataProcessor) Match(conditions []FilterCondition, doc schema.Document) (bool, error) {
	predicate, err := p.Compile(conditions)
	if err != nil {
		return false, err
	}
	return predicate(doc), nil
}

// Filter returns the rows accepted by the conditions, in input order. The
// returned slice is new but shares the row maps.
func (p *DataProcessor) Filter(rows []schema.Document, conditions []FilterCondition) ([]schema.Document, error) {
	predicate, err := p.Compile(conditions)
	if err != nil {
		return nil, err
	}
	return filterRows(rows, predicate), nil
}

// Count returns how many rows the conditions accept without copying them.
func (p *DataProcessor) Count(rows []schema.Document, conditions []FilterCondition) (int, error) {
	predicate, err := p.Compile(conditions)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, row := range rows {
		if predicate(row) {
			n++
		}
	}
	return n, nil
}

// Process applies filter, sort, offset, limit and projection, strictly in
// that order. The result is a new slice of shallow copies and never aliases
// the input.
func (p *DataProcessor) Process(rows []schema.Document, opts *FindOptions) ([]schema.Document, error) {
	if opts == nil {
		opts = &FindOptions{}
	}
	if err := validatePagination(opts); err != nil {
		return nil, err
	}

	predicate, err := p.Compile(opts.Where)
	if err != nil {
		return nil, fmt.Errorf("failed to compile where clause: %w", err)
	}

	result := filterRows(rows, predicate)
	p.logger.Debug("Rows remaining after filter", zap.Int("count", len(result)))

	if len(opts.SortBy) > 0 {
		sortRows(result, opts.SortBy[0])
	}

	if opts.Offset != nil && *opts.Offset > 0 {
		if *opts.Offset >= len(result) {
			result = result[:0]
		} else {
			result = result[*opts.Offset:]
		}
	}

	if opts.Limit != nil && *opts.Limit < len(result) {
		result = result[:*opts.Limit]
	}

	final := applyProjection(result, opts.Select)
	p.logger.Debug("Rows returned after pagination", zap.Int("count", len(final)))
	return final, nil
}

func validatePagination(opts *FindOptions) error {
	if opts.Offset != nil && *opts.Offset < 0 {
		return fmt.Errorf("%w: offset %d is negative", ErrInvalidPagination, *opts.Offset)
	}
	if opts.Limit != nil && *opts.Limit < 0 {
		return fmt.Errorf("%w: limit %d is negative", ErrInvalidPagination, *opts.Limit)
	}
	return nil
}

func filterRows(rows []schema.Document, predicate Predicate) []schema.Document {
	filtered := make([]schema.Document, 0, len(rows))
	for _, row := range rows {
		if predicate(row) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// sortRows is a stable single-key sort. Any direction other than desc
// sorts ascending.
func sortRows(rows []schema.Document, by SortConfiguration) {
	desc := by.Direction == SortDirectionDesc
	slices.SortStableFunc(rows, func(a, b schema.Document) int {
		c := schema.Order(a.Field(by.Field), b.Field(by.Field))
		if desc {
			return -c
		}
		return c
	})
}

// applyProjection copies every row, keeping only the selected fields when a
// selection is given.
func applyProjection(rows []schema.Document, fields []string) []schema.Document {
	out := make([]schema.Document, len(rows))
	for i, row := range rows {
		if len(fields) > 0 {
			out[i] = row.Pick(fields...)
		} else {
			out[i] = row.Clone()
		}
	}
	return out
}
