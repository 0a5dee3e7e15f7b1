package persistence

import (
	"errors"
	"fmt"

	"github.com/asaidimu/go-memtable/core/query"
)

var (
	ErrTableNotFound   = errors.New("table not found")
	ErrDuplicateRecord = errors.New("record already exists")
	ErrRecordNotFound  = errors.New("record not found")
)

// TableNotFoundError is returned when a model name does not resolve to a
// collection.
type TableNotFoundError struct {
	Model string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table not found in state for model %q", e.Model)
}

func (e *TableNotFoundError) Unwrap() error { return ErrTableNotFound }

// DuplicateRecordError is returned by create when the identity is taken.
type DuplicateRecordError struct {
	Table string
	ID    any
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("record already exists in %s: %v", e.Table, e.ID)
}

func (e *DuplicateRecordError) Unwrap() error { return ErrDuplicateRecord }

// RecordNotFoundError is returned by a single-record update with no match.
type RecordNotFoundError struct {
	Table string
	Where []query.FilterCondition
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("record not found for update in %s: where %+v", e.Table, e.Where)
}

func (e *RecordNotFoundError) Unwrap() error { return ErrRecordNotFound }
