package postgres

import (
	"context"
	"database/sql"

	"medrecapi/internal/model"
	"medrecapi/internal/repository"
)

const attachmentColumns = "id, record_id, filename, mime_type, size, storage_key, created_at"

// AttachmentPostgres is a PostgreSQL implementation of repository.AttachmentRepository.
type AttachmentPostgres struct {
	db *sql.DB
}

// NewAttachmentPostgres creates a new AttachmentPostgres repository.
func NewAttachmentPostgres(db *sql.DB) *AttachmentPostgres {
	return &AttachmentPostgres{db: db}
}

var _ repository.AttachmentRepository = (*AttachmentPostgres)(nil)

func scanAttachment(row interface{ Scan(...any) error }) (*model.Attachment, error) {
	var a model.Attachment
	if err := row.Scan(
		&a.ID,
		&a.RecordID,
		&a.Filename,
		&a.MimeType,
		&a.Size,
		&a.StorageKey,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAttachments(rows *sql.Rows) ([]model.Attachment, error) {
	items := make([]model.Attachment, 0)
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Create inserts a new attachment metadata row.
func (r *AttachmentPostgres) Create(ctx context.Context, att *model.Attachment) (*model.Attachment, error) {
	const q = `
		INSERT INTO attachments (id, record_id, filename, mime_type, size, storage_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + attachmentColumns
	row := r.db.QueryRowContext(ctx, q,
		att.ID,
		att.RecordID,
		att.Filename,
		att.MimeType,
		att.Size,
		att.StorageKey,
		att.CreatedAt,
	)
	return scanAttachment(row)
}

// FindByRecordAndID fetches an attachment filtered by both record and
// attachment ID, so an attachment of a different record is never returned.
func (r *AttachmentPostgres) FindByRecordAndID(ctx context.Context, recordID, attachmentID string) (*model.Attachment, error) {
	const q = `SELECT ` + attachmentColumns + ` FROM attachments WHERE record_id = $1 AND id = $2`
	return scanAttachment(r.db.QueryRowContext(ctx, q, recordID, attachmentID))
}

// ListByRecord returns all attachments of a record.
func (r *AttachmentPostgres) ListByRecord(ctx context.Context, recordID string) ([]model.Attachment, error) {
	const q = `SELECT ` + attachmentColumns + ` FROM attachments WHERE record_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttachments(rows)
}
