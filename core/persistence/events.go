package persistence

import (
	"time"
)

// operation names carried on events and log lines.
const (
	opCreate     = "create"
	opFindOne    = "findOne"
	opFindMany   = "findMany"
	opUpdate     = "update"
	opUpdateMany = "updateMany"
	opDelete     = "delete"
	opDeleteMany = "deleteMany"
	opCount      = "count"
	opTransact   = "transaction"
)

// eventTypes groups the start/success/failed events of one operation kind.
type eventTypes struct {
	start   PersistenceEventType
	success PersistenceEventType
	failed  PersistenceEventType
}

var (
	createEvents = eventTypes{DocumentCreateStart, DocumentCreateSuccess, DocumentCreateFailed}
	readEvents   = eventTypes{DocumentReadStart, DocumentReadSuccess, DocumentReadFailed}
	updateEvents = eventTypes{DocumentUpdateStart, DocumentUpdateSuccess, DocumentUpdateFailed}
	deleteEvents = eventTypes{DocumentDeleteStart, DocumentDeleteSuccess, DocumentDeleteFailed}
)

func createEvent(
	eventType PersistenceEventType,
	operation string,
	model string,
	collectionName string,
	input any,
	output any,
	query any,
	err *string,
	startTime time.Time,
) PersistenceEvent {
	var duration *int64
	if !startTime.IsZero() {
		d := time.Since(startTime).Milliseconds()
		duration = &d
	}

	var collectionNamePtr *string
	if collectionName != "" {
		collectionNamePtr = &collectionName
	}

	return PersistenceEvent{
		Type:       eventType,
		Timestamp:  time.Now().UnixMilli(),
		Operation:  operation,
		Model:      model,
		Collection: collectionNamePtr,
		Input:      input,
		Output:     output,
		Error:      err,
		Query:      query,
		Duration:   duration,
	}
}

func errorString(err error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	return &s
}
