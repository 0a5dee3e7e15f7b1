package persistence

import (
	"slices"

	"github.com/asaidimu/go-memtable/core/schema"
)

// Collection is the ordered, mutable backing store of one table. It does
// no locking of its own: the Registry hands it to one operation at a time.
type Collection struct {
	name    string
	records []schema.Document
}

// NewCollection creates a collection seeded with the given records, in order.
func NewCollection(name string, records ...schema.Document) *Collection {
	return &Collection{name: name, records: slices.Clone(records)}
}

// Name returns the table name.
func (c *Collection) Name() string { return c.name }

// Len returns the number of records.
func (c *Collection) Len() int { return len(c.records) }

// At returns the record at position i.
func (c *Collection) At(i int) schema.Document { return c.records[i] }

// Records exposes the backing slice for read-only iteration. Callers must
// not modify it or keep it past the current operation.
func (c *Collection) Records() []schema.Document { return c.records }

// Append adds a record at the end.
func (c *Collection) Append(doc schema.Document) {
	c.records = append(c.records, doc)
}

// Replace overwrites the record at position i.
func (c *Collection) Replace(i int, doc schema.Document) {
	c.records[i] = doc
}

// Reset swaps the whole contents for records.
func (c *Collection) Reset(records []schema.Document) {
	c.records = records
}

// snapshot copies the slice header and elements; records are replaced, never
// edited, so this is enough to restore the collection later.
func (c *Collection) snapshot() []schema.Document {
	return slices.Clone(c.records)
}
