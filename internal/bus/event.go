package bus

import "time"

// Event is a single change notification published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Event kinds published by the engine. Subscribers filter by namespace
// prefix, e.g. "records." for table changes or "sync." for sync status.
const (
	KindRecordsAdded    = "records.added"
	KindRecordsUpdated  = "records.updated"
	KindRecordsDeleted  = "records.deleted"
	KindRecordsReplaced = "records.replaced"

	KindSyncStateChanged = "sync.state_changed"
	KindSyncCompleted    = "sync.completed"
	KindSyncFailed       = "sync.failed"

	KindSaveFailed = "persist.save_failed"
)
