package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"medrecapi/internal/model"
	"medrecapi/internal/repository"
)

const recordColumns = "id, patient_id, doctor_id, record_type, title, description, notes, created_at, updated_at"

// RecordPostgres is a PostgreSQL implementation of repository.RecordRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type RecordPostgres struct {
	db *sql.DB
}

// NewRecordPostgres creates a new RecordPostgres repository.
func NewRecordPostgres(db *sql.DB) *RecordPostgres {
	return &RecordPostgres{db: db}
}

var _ repository.RecordRepository = (*RecordPostgres)(nil)

func scanRecord(row interface{ Scan(...any) error }) (*model.MedicalRecord, error) {
	var r model.MedicalRecord
	if err := row.Scan(
		&r.ID,
		&r.PatientID,
		&r.DoctorID,
		&r.RecordType,
		&r.Title,
		&r.Description,
		&r.Notes,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserts a new medical record row and returns the stored record.
func (r *RecordPostgres) Create(ctx context.Context, rec *model.MedicalRecord) (*model.MedicalRecord, error) {
	const q = `
		INSERT INTO medical_records (id, patient_id, doctor_id, record_type, title, description, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + recordColumns
	row := r.db.QueryRowContext(ctx, q,
		rec.ID,
		rec.PatientID,
		rec.DoctorID,
		rec.RecordType,
		rec.Title,
		rec.Description,
		rec.Notes,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return scanRecord(row)
}

// FindByID fetches a single record by its ID.
func (r *RecordPostgres) FindByID(ctx context.Context, id string) (*model.MedicalRecord, error) {
	const q = `SELECT ` + recordColumns + ` FROM medical_records WHERE id = $1`
	return scanRecord(r.db.QueryRowContext(ctx, q, id))
}

// Update applies non-nil field changes and returns the updated row.
// A no-op update still touches updated_at so the query shape stays fixed.
func (r *RecordPostgres) Update(ctx context.Context, id string, upd repository.RecordUpdate) (*model.MedicalRecord, error) {
	set := []string{"updated_at = now()"}
	args := []any{id}

	appendSet := func(col string, v *string) {
		if v != nil {
			args = append(args, *v)
			set = append(set, col+" = $"+strconv.Itoa(len(args)))
		}
	}
	appendSet("title", upd.Title)
	appendSet("description", upd.Description)
	appendSet("notes", upd.Notes)

	q := `UPDATE medical_records SET ` + strings.Join(set, ", ") +
		` WHERE id = $1 RETURNING ` + recordColumns
	return scanRecord(r.db.QueryRowContext(ctx, q, args...))
}

func (r *RecordPostgres) queryRecords(ctx context.Context, q string, args ...any) ([]model.MedicalRecord, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.MedicalRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ListByPatient returns all of a patient's records, newest first.
func (r *RecordPostgres) ListByPatient(ctx context.Context, patientID int64) ([]model.MedicalRecord, error) {
	const q = `
		SELECT ` + recordColumns + `
		FROM medical_records
		WHERE patient_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.queryRecords(ctx, q, patientID)
}

// ListByType returns a patient's records of one type, newest first.
func (r *RecordPostgres) ListByType(ctx context.Context, patientID int64, recordType string) ([]model.MedicalRecord, error) {
	const q = `
		SELECT ` + recordColumns + `
		FROM medical_records
		WHERE patient_id = $1 AND record_type = $2
		ORDER BY created_at DESC, id DESC
	`
	return r.queryRecords(ctx, q, patientID, recordType)
}

// ListRecent returns the patient's most recent records, capped at limit.
func (r *RecordPostgres) ListRecent(ctx context.Context, patientID int64, limit int) ([]model.MedicalRecord, error) {
	const q = `
		SELECT ` + recordColumns + `
		FROM medical_records
		WHERE patient_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	return r.queryRecords(ctx, q, patientID, limit)
}

// Begin opens a metadata transaction for the deletion protocol.
func (r *RecordPostgres) Begin(ctx context.Context) (repository.RecordTx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &recordTx{tx: tx}, nil
}

// recordTx implements repository.RecordTx over *sql.Tx.
type recordTx struct {
	tx *sql.Tx
}

var _ repository.RecordTx = (*recordTx)(nil)

// FindRecordForUpdate locks the record row for the duration of the transaction.
func (t *recordTx) FindRecordForUpdate(ctx context.Context, id string) (*model.MedicalRecord, error) {
	const q = `SELECT ` + recordColumns + ` FROM medical_records WHERE id = $1 FOR UPDATE`
	return scanRecord(t.tx.QueryRowContext(ctx, q, id))
}

// ListAttachments returns the attachments of a record within the transaction.
func (t *recordTx) ListAttachments(ctx context.Context, recordID string) ([]model.Attachment, error) {
	const q = `
		SELECT id, record_id, filename, mime_type, size, storage_key, created_at
		FROM attachments
		WHERE record_id = $1
		ORDER BY created_at, id
	`
	rows, err := t.tx.QueryContext(ctx, q, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttachments(rows)
}

// DeleteAttachment removes one attachment row.
func (t *recordTx) DeleteAttachment(ctx context.Context, attachmentID string) error {
	const q = `DELETE FROM attachments WHERE id = $1`
	_, err := t.tx.ExecContext(ctx, q, attachmentID)
	return err
}

// DeleteRecord removes the record row and reports affected rows.
func (t *recordTx) DeleteRecord(ctx context.Context, recordID string) (int64, error) {
	const q = `DELETE FROM medical_records WHERE id = $1`
	res, err := t.tx.ExecContext(ctx, q, recordID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *recordTx) Commit() error   { return t.tx.Commit() }
func (t *recordTx) Rollback() error { return t.tx.Rollback() }
