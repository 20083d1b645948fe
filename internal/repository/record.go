package repository

import (
	"context"

	"medrecapi/internal/model"
)

// RecordRepository defines data access for medical records using SQL
// queries only. No business logic here — strictly persistence operations.
type RecordRepository interface {
	// Create inserts a new medical record row and returns the stored record.
	Create(ctx context.Context, rec *model.MedicalRecord) (*model.MedicalRecord, error)

	// FindByID returns a record by its ID.
	FindByID(ctx context.Context, id string) (*model.MedicalRecord, error)

	// Update applies the given field changes to a record and returns the
	// updated row. Only title, description and notes are updatable.
	Update(ctx context.Context, id string, upd RecordUpdate) (*model.MedicalRecord, error)

	// ListByPatient returns all records owned by a patient, newest first.
	ListByPatient(ctx context.Context, patientID int64) ([]model.MedicalRecord, error)

	// ListByType returns a patient's records filtered by record type.
	ListByType(ctx context.Context, patientID int64, recordType string) ([]model.MedicalRecord, error)

	// ListRecent returns the patient's most recent records, capped at limit.
	ListRecent(ctx context.Context, patientID int64, limit int) ([]model.MedicalRecord, error)

	// Begin opens a transaction for the record deletion protocol.
	Begin(ctx context.Context) (RecordTx, error)
}

// RecordUpdate carries the mutable subset of a record's fields. Nil
// pointers mean "leave unchanged".
type RecordUpdate struct {
	Title       *string
	Description *string
	Notes       *string
}

// AttachmentRepository defines data access for attachment metadata rows.
type AttachmentRepository interface {
	// Create inserts a new attachment metadata row.
	Create(ctx context.Context, att *model.Attachment) (*model.Attachment, error)

	// FindByRecordAndID returns the attachment only when it belongs to the
	// given record; an ID match under a different record is a miss.
	FindByRecordAndID(ctx context.Context, recordID, attachmentID string) (*model.Attachment, error)

	// ListByRecord returns all attachments of a record.
	ListByRecord(ctx context.Context, recordID string) ([]model.Attachment, error)
}

// RecordTx is a transaction over record and attachment metadata. All row
// mutations performed through it either commit together or roll back
// together; it never touches object storage.
type RecordTx interface {
	// FindRecordForUpdate fetches the record row and takes a row-level lock
	// on it, serializing concurrent deletions of the same record.
	FindRecordForUpdate(ctx context.Context, id string) (*model.MedicalRecord, error)

	// ListAttachments returns the attachments of a record within the transaction.
	ListAttachments(ctx context.Context, recordID string) ([]model.Attachment, error)

	// DeleteAttachment removes one attachment row.
	DeleteAttachment(ctx context.Context, attachmentID string) error

	// DeleteRecord removes the record row and reports affected rows.
	DeleteRecord(ctx context.Context, recordID string) (int64, error)

	Commit() error
	Rollback() error
}
