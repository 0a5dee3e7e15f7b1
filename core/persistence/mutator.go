package persistence

import (
	"github.com/asaidimu/go-memtable/core/query"
	"github.com/asaidimu/go-memtable/core/schema"
	"go.uber.org/zap"
)

// TableMutator runs reads and writes against a single collection. It does
// not lock: callers hold the collection exclusively for the duration of a
// call, normally through Registry.Exec. Every where clause is compiled
// before the collection is touched, so a bad condition never leaves a
// partial mutation behind.
type TableMutator struct {
	processor *query.DataProcessor
	logger    *zap.Logger
}

// NewTableMutator creates a mutator that compiles conditions with processor.
func NewTableMutator(processor *query.DataProcessor, logger *zap.Logger) *TableMutator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if processor == nil {
		processor = query.NewDataProcessor(logger)
	}
	return &TableMutator{processor: processor, logger: logger}
}

// Processor returns the data processor used for compilation and queries.
func (m *TableMutator) Processor() *query.DataProcessor {
	return m.processor
}

// Create appends a copy of doc. It fails with a DuplicateRecordError when a
// record with an equal id already exists; two records without an id count
// as equal. The input is returned unchanged.
func (m *TableMutator) Create(c *Collection, doc schema.Document) (schema.Document, error) {
	if doc == nil {
		doc = schema.Document{}
	}
	id := doc.Field(schema.IDField)
	for _, existing := range c.Records() {
		if existing.Field(schema.IDField).Equal(id) {
			return nil, &DuplicateRecordError{Table: c.Name(), ID: doc.ID()}
		}
	}

	c.Append(doc.Clone())
	m.logger.Debug("Record created", zap.String("table", c.Name()), zap.Any("id", doc.ID()))
	return doc, nil
}

// FindOne returns a copy of the first matching record, projected to fields
// when any are given. No match yields nil without an error.
func (m *TableMutator) FindOne(c *Collection, where []query.FilterCondition, fields []string) (schema.Document, error) {
	predicate, err := m.processor.Compile(where)
	if err != nil {
		return nil, err
	}

	for _, record := range c.Records() {
		if predicate(record) {
			if len(fields) > 0 {
				return record.Pick(fields...), nil
			}
			return record.Clone(), nil
		}
	}
	return nil, nil
}

// FindMany runs the query pipeline over the collection.
func (m *TableMutator) FindMany(c *Collection, opts *query.FindOptions) ([]schema.Document, error) {
	return m.processor.Process(c.Records(), opts)
}

// Update merges update into the first matching record and returns a copy of
// the result. A RecordNotFoundError is returned when nothing matches.
func (m *TableMutator) Update(c *Collection, where []query.FilterCondition, update map[string]any) (schema.Document, error) {
	updated, err := m.updateMatching(c, where, update, 1)
	if err != nil {
		return nil, err
	}
	if len(updated) == 0 {
		return nil, &RecordNotFoundError{Table: c.Name(), Where: where}
	}
	return updated[0], nil
}

// UpdateMany merges update into every matching record in place and returns
// how many were changed.
func (m *TableMutator) UpdateMany(c *Collection, where []query.FilterCondition, update map[string]any) (int, error) {
	updated, err := m.updateMatching(c, where, update, -1)
	if err != nil {
		return 0, err
	}
	return len(updated), nil
}

// Delete removes the first matching record and returns 1, or 0 when nothing
// matched.
func (m *TableMutator) Delete(c *Collection, where []query.FilterCondition) (int, error) {
	removed, err := m.removeMatching(c, where, 1)
	if err != nil {
		return 0, err
	}
	return len(removed), nil
}

// DeleteMany removes every matching record, keeping the others in order.
func (m *TableMutator) DeleteMany(c *Collection, where []query.FilterCondition) (int, error) {
	removed, err := m.removeMatching(c, where, -1)
	if err != nil {
		return 0, err
	}
	return len(removed), nil
}

// Count returns how many records match.
func (m *TableMutator) Count(c *Collection, where []query.FilterCondition) (int, error) {
	return m.processor.Count(c.Records(), where)
}

// updateMatching replaces up to limit matching records (all when limit < 0)
// with their merged form and returns copies of the new records.
func (m *TableMutator) updateMatching(c *Collection, where []query.FilterCondition, update map[string]any, limit int) ([]schema.Document, error) {
	predicate, err := m.processor.Compile(where)
	if err != nil {
		return nil, err
	}

	var updated []schema.Document
	for i := 0; i < c.Len(); i++ {
		if limit >= 0 && len(updated) >= limit {
			break
		}
		if !predicate(c.At(i)) {
			continue
		}
		merged := c.At(i).Merge(update)
		c.Replace(i, merged)
		updated = append(updated, merged.Clone())
	}

	m.logger.Debug("Records updated", zap.String("table", c.Name()), zap.Int("count", len(updated)))
	return updated, nil
}

// removeMatching drops up to limit matching records (all when limit < 0) and
// returns them.
func (m *TableMutator) removeMatching(c *Collection, where []query.FilterCondition, limit int) ([]schema.Document, error) {
	predicate, err := m.processor.Compile(where)
	if err != nil {
		return nil, err
	}

	var removed []schema.Document
	kept := make([]schema.Document, 0, c.Len())
	for _, record := range c.Records() {
		if (limit < 0 || len(removed) < limit) && predicate(record) {
			removed = append(removed, record)
			continue
		}
		kept = append(kept, record)
	}

	if len(removed) > 0 {
		c.Reset(kept)
	}
	m.logger.Debug("Records deleted", zap.String("table", c.Name()), zap.Int("count", len(removed)))
	return removed, nil
}
