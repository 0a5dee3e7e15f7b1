// Package schema defines the record model shared by the query and persistence
// layers: an open Document keyed by field name, and the tagged Value that the
// query engine reads fields through.
package schema

import "maps"

// IDField is the identity field. It is conventionally unique inside a
// collection; uniqueness is only enforced on create.
const IDField = "id"

// Document represents a single record. There is no fixed schema: fields are
// looked up by name at query time.
type Document map[string]any

// Field returns the tagged value stored under name. Missing fields read as
// a Null value.
func (d Document) Field(name string) Value {
	v, ok := d[name]
	if !ok {
		return Null()
	}
	return ValueOf(v)
}

// Has reports whether the field is present, even when it holds nil.
func (d Document) Has(name string) bool {
	_, ok := d[name]
	return ok
}

// ID returns the raw identity value of the document, or nil.
func (d Document) ID() any {
	return d[IDField]
}

// Clone returns a shallow copy of the document. Nested values are shared.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return maps.Clone(d)
}

// Merge returns a new document holding every field of d overlaid with the
// fields of update. Neither input is modified and nested values are not
// merged.
func (d Document) Merge(update map[string]any) Document {
	merged := make(Document, len(d)+len(update))
	maps.Copy(merged, d)
	maps.Copy(merged, update)
	return merged
}

// Pick returns a copy restricted to the named fields. Fields that are absent
// from d are skipped.
func (d Document) Pick(fields ...string) Document {
	picked := make(Document, len(fields))
	for _, f := range fields {
		if v, ok := d[f]; ok {
			picked[f] = v
		}
	}
	return picked
}
