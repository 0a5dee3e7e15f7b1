package persistence

import (
	"context"

	"github.com/asaidimu/go-memtable/core/query"
	"github.com/asaidimu/go-memtable/core/schema"
)

// PersistenceEventType defines the possible event types for persistence operations.
type PersistenceEventType string

const (
	DocumentCreateStart    PersistenceEventType = "document:create:start"
	DocumentCreateSuccess  PersistenceEventType = "document:create:success"
	DocumentCreateFailed   PersistenceEventType = "document:create:failed"
	DocumentReadStart      PersistenceEventType = "document:read:start"
	DocumentReadSuccess    PersistenceEventType = "document:read:success"
	DocumentReadFailed     PersistenceEventType = "document:read:failed"
	DocumentUpdateStart    PersistenceEventType = "document:update:start"
	DocumentUpdateSuccess  PersistenceEventType = "document:update:success"
	DocumentUpdateFailed   PersistenceEventType = "document:update:failed"
	DocumentDeleteStart    PersistenceEventType = "document:delete:start"
	DocumentDeleteSuccess  PersistenceEventType = "document:delete:success"
	DocumentDeleteFailed   PersistenceEventType = "document:delete:failed"
	TransactionStart       PersistenceEventType = "transaction:start"
	TransactionSuccess     PersistenceEventType = "transaction:success"
	TransactionFailed      PersistenceEventType = "transaction:failed"
	SubscriptionRegister   PersistenceEventType = "subscription:register"
	SubscriptionUnregister PersistenceEventType = "subscription:unregister"

	// Broadcasts sent after a committed mutation, carrying the table name and
	// the affected records.
	ItemsCreated PersistenceEventType = "items.created"
	ItemsUpdated PersistenceEventType = "items.updated"
	ItemsDeleted PersistenceEventType = "items.deleted"
)

// PersistenceEvent represents events emitted during persistence operations.
type PersistenceEvent struct {
	Type          PersistenceEventType `json:"type"`                    // The type of event (e.g., 'document:create:start').
	Timestamp     int64                `json:"timestamp"`               // Unix milliseconds.
	Operation     string               `json:"operation"`               // The operation being performed (e.g., 'create').
	Model         string               `json:"model,omitempty"`         // Model name the caller asked for.
	Collection    *string              `json:"collection,omitempty"`    // Resolved table name, when resolution succeeded.
	Input         any                  `json:"input,omitempty"`         // Data passed to the operation.
	Output        any                  `json:"output,omitempty"`        // Data returned by the operation.
	Error         *string              `json:"error,omitempty"`         // Error message if the operation failed.
	Query         any                  `json:"query,omitempty"`         // Where clause or find options.
	TransactionID *string              `json:"transactionId,omitempty"` // Set when the operation ran inside Transact.
	Duration      *int64               `json:"duration,omitempty"`      // Duration of the operation in milliseconds.
	Records       []schema.Document    `json:"records,omitempty"`       // Affected records, on items.* broadcasts.
}

type EventCallbackFunction func(ctx context.Context, event PersistenceEvent) error

// RegisterSubscriptionOptions describes a subscription to register.
type RegisterSubscriptionOptions struct {
	Event       PersistenceEventType
	Label       *string
	Description *string
	Callback    EventCallbackFunction
}

// SubscriptionInfo describes a subscription configuration.
type SubscriptionInfo struct {
	Id          *string              `json:"id,omitempty"`
	Event       PersistenceEventType `json:"event"`                 // The event subscribed to.
	Label       *string              `json:"label,omitempty"`       // Optional short identifier.
	Description *string              `json:"description,omitempty"` // Optional description.
	Unsubscribe func()               `json:"-"`
}

// CreateParams is the input of Persistence.Create.
type CreateParams struct {
	Model  string
	Data   schema.Document
	Select []string
}

// FindParams is the input of Persistence.FindOne.
type FindParams struct {
	Model  string
	Where  []query.FilterCondition
	Select []string
}

// FindManyParams is the input of Persistence.FindMany. Only one sort key is
// supported.
type FindManyParams struct {
	Model  string
	Where  []query.FilterCondition
	SortBy *query.SortConfiguration
	Limit  *int
	Offset *int
	Select []string
}

// Options converts the parameters into pipeline options.
func (p FindManyParams) Options() *query.FindOptions {
	opts := &query.FindOptions{
		Where:  p.Where,
		Limit:  p.Limit,
		Offset: p.Offset,
		Select: p.Select,
	}
	if p.SortBy != nil {
		opts.SortBy = []query.SortConfiguration{*p.SortBy}
	}
	return opts
}

// UpdateParams is the input of Persistence.Update and Persistence.UpdateMany.
type UpdateParams struct {
	Model  string
	Where  []query.FilterCondition
	Update map[string]any
}

// DeleteParams is the input of Persistence.Delete and Persistence.DeleteMany.
type DeleteParams struct {
	Model string
	Where []query.FilterCondition
}

// CountParams is the input of Persistence.Count.
type CountParams struct {
	Model string
	Where []query.FilterCondition
}
