package audit

import (
	"context"
	"time"
)

// Event is a single audit trail entry. Every record mutation, every
// authorization denial and every detected storage inconsistency produces
// one.
type Event struct {
	Action    string    `json:"action"`
	ActorID   int64     `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	RecordID  string    `json:"record_id,omitempty"`
	PatientID int64     `json:"patient_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

// Actions emitted by the record service.
const (
	ActionRecordCreated    = "record.created"
	ActionRecordUpdated    = "record.updated"
	ActionRecordDeleted    = "record.deleted"
	ActionAttachmentAdded  = "attachment.added"
	ActionAccessDenied     = "access.denied"
	ActionStorageDataLoss  = "storage.data_loss"
)

// Publisher delivers audit events to the configured broker. Publishing is
// best-effort from the caller's point of view: a failed publish must not
// fail the operation it describes.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher discards all events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, ev Event) error { return nil }
