package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medrecapi/internal/audit"
	"medrecapi/internal/authz"
	"medrecapi/internal/model"
	"medrecapi/internal/repository"
	"medrecapi/internal/storage"
)

var (
	ErrRecordNotFound       = errors.New("medical record not found")
	ErrAttachmentNotFound   = errors.New("attachment not found")
	ErrFileMissing          = errors.New("attachment file missing from storage")
	ErrForbidden            = errors.New("not authorized")
	ErrProviderRoleRequired = errors.New("provider role required")
	ErrReaderNil            = errors.New("reader is nil")
)

// defaultRecentLimit caps ListRecent when the caller passes no usable limit.
const defaultRecentLimit = 5

// CreateRecordInput carries the fields of a new medical record.
type CreateRecordInput struct {
	PatientID   int64  `json:"patient_id"`
	DoctorID    int64  `json:"doctor_id"`
	RecordType  string `json:"record_type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
}

// UpdateRecordInput carries the mutable fields of a record. Nil means
// "leave unchanged"; patient, doctor and type are immutable after creation.
type UpdateRecordInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Notes       *string `json:"notes"`
}

// RecordService sequences authorization checks and storage mutations for
// medical records and their attachments. Every operation authorizes the
// caller before reading or mutating a specific record's data.
type RecordService interface {
	// Create inserts a new record. Restricted to provider roles.
	Create(ctx context.Context, caller authz.Identity, in CreateRecordInput) (*model.MedicalRecord, error)

	// Update changes title/description/notes of an existing record.
	Update(ctx context.Context, caller authz.Identity, recordID string, in UpdateRecordInput) (*model.MedicalRecord, error)

	// GetRecord returns one record.
	GetRecord(ctx context.Context, caller authz.Identity, recordID string) (*model.MedicalRecord, error)

	// ListByPatient returns all records of a patient.
	ListByPatient(ctx context.Context, caller authz.Identity, patientID int64) ([]model.MedicalRecord, error)

	// ListByType returns a patient's records of one type.
	ListByType(ctx context.Context, caller authz.Identity, patientID int64, recordType string) ([]model.MedicalRecord, error)

	// ListRecent returns the patient's most recent records. A non-positive
	// limit falls back to the default of 5.
	ListRecent(ctx context.Context, caller authz.Identity, patientID int64, limit int) ([]model.MedicalRecord, error)

	// AddAttachment stores the file first and only then inserts the
	// metadata row, so a row never exists for a file that failed to land.
	AddAttachment(ctx context.Context, caller authz.Identity, recordID string, r io.Reader, filename, mimeType string, size int64) (*model.Attachment, error)

	// ListAttachments returns the attachment metadata of a record.
	ListAttachments(ctx context.Context, caller authz.Identity, recordID string) ([]model.Attachment, error)

	// DownloadAttachment streams an attachment's backing file. The row is
	// matched by both record and attachment ID.
	DownloadAttachment(ctx context.Context, caller authz.Identity, recordID, attachmentID string) (io.ReadCloser, *model.Attachment, error)

	// DeleteRecord removes a record, its attachment rows and their backing
	// files; the metadata mutations are transactional.
	DeleteRecord(ctx context.Context, caller authz.Identity, recordID string) error
}

// recordService is a concrete implementation of RecordService.
type recordService struct {
	records     repository.RecordRepository
	attachments repository.AttachmentRepository
	store       storage.Storage
	authorizer  *authz.Engine
	auditor     audit.Publisher
	logger      *zap.Logger
}

// NewRecordService constructs a new RecordService.
func NewRecordService(
	records repository.RecordRepository,
	attachments repository.AttachmentRepository,
	store storage.Storage,
	authorizer *authz.Engine,
	auditor audit.Publisher,
	logger *zap.Logger,
) RecordService {
	return &recordService{
		records:     records,
		attachments: attachments,
		store:       store,
		authorizer:  authorizer,
		auditor:     auditor,
		logger:      logger,
	}
}

// publish sends an audit event best-effort; a broker failure is logged,
// never propagated to the operation that produced the event.
func (s *recordService) publish(ctx context.Context, ev audit.Event) {
	ev.At = time.Now().UTC()
	if err := s.auditor.Publish(ctx, ev); err != nil {
		s.logger.Warn("audit event dropped", zap.String("action", ev.Action), zap.Error(err))
	}
}

// authorize runs the access decision and translates a denial into
// ErrForbidden, emitting an audit event for the denial.
func (s *recordService) authorize(ctx context.Context, caller authz.Identity, res authz.Resource, op string) error {
	dec, err := s.authorizer.Authorize(ctx, caller, res)
	if err != nil {
		return fmt.Errorf("authorize %s: %w", op, err)
	}
	if !dec.Allowed {
		s.publish(ctx, audit.Event{
			Action:    audit.ActionAccessDenied,
			ActorID:   caller.ID,
			ActorRole: string(caller.Role),
			PatientID: res.PatientID,
			Detail:    op,
		})
		return ErrForbidden
	}
	return nil
}

// requireProvider gates write operations on the provider allow-list.
func (s *recordService) requireProvider(ctx context.Context, caller authz.Identity, op string) error {
	if authz.RequireProviderRole(caller) {
		return nil
	}
	s.publish(ctx, audit.Event{
		Action:    audit.ActionAccessDenied,
		ActorID:   caller.ID,
		ActorRole: string(caller.Role),
		Detail:    op,
	})
	return ErrProviderRoleRequired
}

// fetchAuthorized loads a record and checks record-scoped access to it.
func (s *recordService) fetchAuthorized(ctx context.Context, caller authz.Identity, recordID, op string) (*model.MedicalRecord, error) {
	rec, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if err := s.authorize(ctx, caller, authz.RecordResource(rec.PatientID, rec.DoctorID), op); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *recordService) Create(ctx context.Context, caller authz.Identity, in CreateRecordInput) (*model.MedicalRecord, error) {
	if err := s.requireProvider(ctx, caller, "record.create"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &model.MedicalRecord{
		ID:          uuid.New().String(),
		PatientID:   in.PatientID,
		DoctorID:    in.DoctorID,
		RecordType:  in.RecordType,
		Title:       in.Title,
		Description: in.Description,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	stored, err := s.records.Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	s.publish(ctx, audit.Event{
		Action:    audit.ActionRecordCreated,
		ActorID:   caller.ID,
		ActorRole: string(caller.Role),
		RecordID:  stored.ID,
		PatientID: stored.PatientID,
	})
	return stored, nil
}

func (s *recordService) Update(ctx context.Context, caller authz.Identity, recordID string, in UpdateRecordInput) (*model.MedicalRecord, error) {
	if err := s.requireProvider(ctx, caller, "record.update"); err != nil {
		return nil, err
	}
	if _, err := s.fetchAuthorized(ctx, caller, recordID, "record.update"); err != nil {
		return nil, err
	}

	upd := repository.RecordUpdate{
		Title:       in.Title,
		Description: in.Description,
		Notes:       in.Notes,
	}
	rec, err := s.records.Update(ctx, recordID, upd)
	if err != nil {
		// The row can vanish between the authorization fetch and the update.
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("update record: %w", err)
	}

	s.publish(ctx, audit.Event{
		Action:    audit.ActionRecordUpdated,
		ActorID:   caller.ID,
		ActorRole: string(caller.Role),
		RecordID:  rec.ID,
		PatientID: rec.PatientID,
	})
	return rec, nil
}

func (s *recordService) GetRecord(ctx context.Context, caller authz.Identity, recordID string) (*model.MedicalRecord, error) {
	return s.fetchAuthorized(ctx, caller, recordID, "record.get")
}

func (s *recordService) ListByPatient(ctx context.Context, caller authz.Identity, patientID int64) ([]model.MedicalRecord, error) {
	if err := s.authorize(ctx, caller, authz.PatientResource(patientID), "record.list"); err != nil {
		return nil, err
	}
	return s.records.ListByPatient(ctx, patientID)
}

func (s *recordService) ListByType(ctx context.Context, caller authz.Identity, patientID int64, recordType string) ([]model.MedicalRecord, error) {
	if err := s.authorize(ctx, caller, authz.PatientResource(patientID), "record.list"); err != nil {
		return nil, err
	}
	return s.records.ListByType(ctx, patientID, recordType)
}

func (s *recordService) ListRecent(ctx context.Context, caller authz.Identity, patientID int64, limit int) ([]model.MedicalRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if err := s.authorize(ctx, caller, authz.PatientResource(patientID), "record.list"); err != nil {
		return nil, err
	}
	return s.records.ListRecent(ctx, patientID, limit)
}

func (s *recordService) AddAttachment(ctx context.Context, caller authz.Identity, recordID string, r io.Reader, filename, mimeType string, size int64) (*model.Attachment, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if err := s.requireProvider(ctx, caller, "attachment.add"); err != nil {
		return nil, err
	}
	rec, err := s.fetchAuthorized(ctx, caller, recordID, "attachment.add")
	if err != nil {
		return nil, err
	}

	attachmentID := uuid.New().String()
	key := filepath.ToSlash(filepath.Join("records", rec.ID, attachmentID+filepath.Ext(filename)))

	// File first, metadata second: a metadata row must never point at an
	// object that failed to land in storage.
	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: mimeType,
		Metadata: map[string]string{
			"original-filename": filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	att := &model.Attachment{
		ID:         attachmentID,
		RecordID:   rec.ID,
		Filename:   filename,
		MimeType:   mimeType,
		Size:       objInfo.Size,
		StorageKey: objInfo.Key,
		CreatedAt:  time.Now().UTC(),
	}
	stored, err := s.attachments.Create(ctx, att)
	if err != nil {
		// Compensate: remove the just-stored object so no orphan survives.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("metadata save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("metadata save failed: %w", err)
	}

	s.publish(ctx, audit.Event{
		Action:    audit.ActionAttachmentAdded,
		ActorID:   caller.ID,
		ActorRole: string(caller.Role),
		RecordID:  rec.ID,
		PatientID: rec.PatientID,
		Detail:    stored.ID,
	})
	return stored, nil
}

func (s *recordService) ListAttachments(ctx context.Context, caller authz.Identity, recordID string) ([]model.Attachment, error) {
	if _, err := s.fetchAuthorized(ctx, caller, recordID, "attachment.list"); err != nil {
		return nil, err
	}
	return s.attachments.ListByRecord(ctx, recordID)
}

func (s *recordService) DownloadAttachment(ctx context.Context, caller authz.Identity, recordID, attachmentID string) (io.ReadCloser, *model.Attachment, error) {
	rec, err := s.fetchAuthorized(ctx, caller, recordID, "attachment.download")
	if err != nil {
		return nil, nil, err
	}

	att, err := s.attachments.FindByRecordAndID(ctx, recordID, attachmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrAttachmentNotFound
		}
		return nil, nil, err
	}

	rc, _, err := s.store.Get(ctx, att.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			// Metadata without a backing object means storage-layer data
			// loss; this must stay distinguishable from a missing row.
			s.logger.Error("attachment object missing from storage",
				zap.String("record_id", recordID),
				zap.String("attachment_id", attachmentID),
				zap.String("storage_key", att.StorageKey),
			)
			s.publish(ctx, audit.Event{
				Action:    audit.ActionStorageDataLoss,
				ActorID:   caller.ID,
				ActorRole: string(caller.Role),
				RecordID:  rec.ID,
				PatientID: rec.PatientID,
				Detail:    attachmentID,
			})
			return nil, nil, ErrFileMissing
		}
		return nil, nil, fmt.Errorf("get attachment object: %w", err)
	}
	return rc, att, nil
}

// DeleteRecord removes a record together with its attachments. The row
// mutations run in one transaction; backing-file deletions happen before
// commit and are not restored by a rollback. The record row is fetched and
// locked first, so no file is touched for a record that does not exist.
func (s *recordService) DeleteRecord(ctx context.Context, caller authz.Identity, recordID string) error {
	tx, err := s.records.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rec, err := tx.FindRecordForUpdate(ctx, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("lock record: %w", err)
	}
	if err := s.authorize(ctx, caller, authz.RecordResource(rec.PatientID, rec.DoctorID), "record.delete"); err != nil {
		return err
	}

	atts, err := tx.ListAttachments(ctx, recordID)
	if err != nil {
		return fmt.Errorf("list attachments: %w", err)
	}

	for _, att := range atts {
		exists, err := s.store.Exists(ctx, att.StorageKey)
		if err != nil {
			return fmt.Errorf("check attachment object %s: %w", att.ID, err)
		}
		if exists {
			if err := s.store.Delete(ctx, att.StorageKey); err != nil {
				return fmt.Errorf("delete attachment object %s: %w", att.ID, err)
			}
		} else {
			// Already absent: tolerated, the row goes regardless.
			s.logger.Warn("attachment object already absent",
				zap.String("record_id", recordID),
				zap.String("attachment_id", att.ID),
			)
		}
		if err := tx.DeleteAttachment(ctx, att.ID); err != nil {
			return fmt.Errorf("delete attachment row %s: %w", att.ID, err)
		}
	}

	n, err := tx.DeleteRecord(ctx, recordID)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n == 0 {
		return ErrRecordNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete transaction: %w", err)
	}
	committed = true

	s.publish(ctx, audit.Event{
		Action:    audit.ActionRecordDeleted,
		ActorID:   caller.ID,
		ActorRole: string(caller.Role),
		RecordID:  recordID,
		PatientID: rec.PatientID,
		Detail:    fmt.Sprintf("attachments=%d", len(atts)),
	})
	return nil
}
