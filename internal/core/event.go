package core

import "time"

// EventKind names a repository change.
type EventKind string

const (
	EventCreated  EventKind = "created"
	EventUpdated  EventKind = "updated"
	EventDeleted  EventKind = "deleted"
	EventUploaded EventKind = "uploaded"
)

// TransactionEvent describes a change applied to the repository.
// Record is nil for deletes and uploads.
type TransactionEvent struct {
	Kind      EventKind
	ID        string
	Period    string
	Record    *Transaction
	Timestamp time.Time
}
