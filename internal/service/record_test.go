package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medrecapi/internal/audit"
	"medrecapi/internal/authz"
	"medrecapi/internal/model"
	"medrecapi/internal/repository"
	repoMocks "medrecapi/internal/repository/mocks"
	"medrecapi/internal/storage"
	storeMocks "medrecapi/internal/storage/mocks"
)

type denyAllAssignments struct{}

func (denyAllAssignments) IsAssigned(ctx context.Context, providerID, patientID int64) (bool, error) {
	return false, nil
}

var (
	callerAdmin    = authz.Identity{ID: 1, Role: authz.RoleAdmin}
	callerPatient1 = authz.Identity{ID: 10, Role: authz.RolePatient}
	callerPatient2 = authz.Identity{ID: 11, Role: authz.RolePatient}
	callerDoctor1  = authz.Identity{ID: 20, Role: authz.RoleDoctor}
	callerDoctor2  = authz.Identity{ID: 21, Role: authz.RoleDoctor}
)

func sampleRecord() *model.MedicalRecord {
	return &model.MedicalRecord{
		ID:         "rec-1",
		PatientID:  10,
		DoctorID:   20,
		RecordType: "LabResult",
		Title:      "CBC panel",
	}
}

type testMocks struct {
	records     *repoMocks.MockRecordRepository
	attachments *repoMocks.MockAttachmentRepository
	store       *storeMocks.MockStorage
	tx          *repoMocks.MockRecordTx
}

func newTestService(t *testing.T, checker authz.AssignmentChecker) (RecordService, *testMocks) {
	t.Helper()
	m := &testMocks{
		records:     new(repoMocks.MockRecordRepository),
		attachments: new(repoMocks.MockAttachmentRepository),
		store:       new(storeMocks.MockStorage),
		tx:          new(repoMocks.MockRecordTx),
	}
	svc := NewRecordService(m.records, m.attachments, m.store, authz.NewEngine(checker), audit.NopPublisher{}, zap.NewNop())
	return svc, m
}

func (m *testMocks) assertExpectations(t *testing.T) {
	m.records.AssertExpectations(t)
	m.attachments.AssertExpectations(t)
	m.store.AssertExpectations(t)
	m.tx.AssertExpectations(t)
}

func TestRecordService_Create(t *testing.T) {
	ctx := context.Background()
	in := CreateRecordInput{PatientID: 10, DoctorID: 20, RecordType: "LabResult", Title: "CBC panel"}

	t.Run("doctor creates record", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})
		m.records.On("Create", ctx, mock.MatchedBy(func(rec *model.MedicalRecord) bool {
			return rec.ID != "" && rec.PatientID == 10 && rec.DoctorID == 20 && !rec.CreatedAt.IsZero()
		})).Return(sampleRecord(), nil)

		rec, err := svc.Create(ctx, callerDoctor1, in)

		require.NoError(t, err)
		assert.Equal(t, "rec-1", rec.ID)
		m.assertExpectations(t)
	})

	t.Run("patient cannot create", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})

		_, err := svc.Create(ctx, callerPatient1, in)

		assert.ErrorIs(t, err, ErrProviderRoleRequired)
		m.assertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})
		m.records.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))

		_, err := svc.Create(ctx, callerDoctor1, in)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "create record")
		m.assertExpectations(t)
	})
}

func TestRecordService_Update(t *testing.T) {
	ctx := context.Background()
	title := "Updated title"
	in := UpdateRecordInput{Title: &title}

	t.Run("authoring doctor updates", func(t *testing.T) {
		svc, m := newTestService(t, denyAllAssignments{})
		m.records.On("FindByID", ctx, "rec-1").Return(sampleRecord(), nil)
		updated := sampleRecord()
		updated.Title = title
		m.records.On("Update", ctx, "rec-1", mock.MatchedBy(func(u repository.RecordUpdate) bool {
			return u.Title != nil && *u.Title == title && u.Description == nil && u.Notes == nil
		})).Return(updated, nil)

		rec, err := svc.Update(ctx, callerDoctor1, "rec-1", in)

		require.NoError(t, err)
		assert.Equal(t, title, rec.Title)
		m.assertExpectations(t)
	})

	t.Run("record not found", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})
		m.records.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		_, err := svc.Update(ctx, callerDoctor1, "missing", in)

		assert.ErrorIs(t, err, ErrRecordNotFound)
		m.assertExpectations(t)
	})

	t.Run("patient cannot update own record", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})

		_, err := svc.Update(ctx, callerPatient1, "rec-1", in)

		assert.ErrorIs(t, err, ErrProviderRoleRequired)
		m.assertExpectations(t)
	})

	t.Run("unassigned doctor denied", func(t *testing.T) {
		svc, m := newTestService(t, denyAllAssignments{})
		m.records.On("FindByID", ctx, "rec-1").Return(sampleRecord(), nil)

		_, err := svc.Update(ctx, callerDoctor2, "rec-1", in)

		assert.ErrorIs(t, err, ErrForbidden)
		m.assertExpectations(t)
	})
}

func TestRecordService_GetRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("patient reads own record", func(t *testing.T) {
		svc, m := newTestService(t, denyAllAssignments{})
		m.records.On("FindByID", ctx, "rec-1").Return(sampleRecord(), nil)

		rec, err := svc.GetRecord(ctx, callerPatient1, "rec-1")

		require.NoError(t, err)
		assert.Equal(t, "rec-1", rec.ID)
		m.assertExpectations(t)
	})

	t.Run("other patient denied", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})
		m.records.On("FindByID", ctx, "rec-1").Return(sampleRecord(), nil)

		_, err := svc.GetRecord(ctx, callerPatient2, "rec-1")

		assert.ErrorIs(t, err, ErrForbidden)
		m.assertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})
		m.records.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		_, err := svc.GetRecord(ctx, callerAdmin, "missing")

		assert.ErrorIs(t, err, ErrRecordNotFound)
		m.assertExpectations(t)
	})
}

func TestRecordService_Listing(t *testing.T) {
	ctx := context.Background()
	recs := []model.MedicalRecord{*sampleRecord()}

	t.Run("list by patient", func(t *testing.T) {
		svc, m := newTestService(t, denyAllAssignments{})
		m.records.On("ListByPatient", ctx, int64(10)).Return(recs, nil)

		got, err := svc.ListByPatient(ctx, callerPatient1, 10)

		require.NoError(t, err)
		assert.Len(t, got, 1)
		m.assertExpectations(t)
	})

	t.Run("list by type", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})
		m.records.On("ListByType", ctx, int64(10), "LabResult").Return(recs, nil)

		got, err := svc.ListByType(ctx, callerDoctor2, 10, "LabResult")

		require.NoError(t, err)
		assert.Len(t, got, 1)
		m.assertExpectations(t)
	})

	t.Run("list denied for other patient", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})

		_, err := svc.ListByPatient(ctx, callerPatient2, 10)

		assert.ErrorIs(t, err, ErrForbidden)
		m.assertExpectations(t)
	})

	t.Run("recent with explicit limit", func(t *testing.T) {
		svc, m := newTestService(t, denyAllAssignments{})
		m.records.On("ListRecent", ctx, int64(10), 3).Return(recs, nil)

		_, err := svc.ListRecent(ctx, callerPatient1, 10, 3)

		require.NoError(t, err)
		m.assertExpectations(t)
	})

	t.Run("recent falls back to default on non-positive limit", func(t *testing.T) {
		for _, limit := range []int{0, -7} {
			svc, m := newTestService(t, denyAllAssignments{})
			m.records.On("ListRecent", ctx, int64(10), defaultRecentLimit).Return(recs, nil)

			_, err := svc.ListRecent(ctx, callerPatient1, 10, limit)

			require.NoError(t, err)
			m.assertExpectations(t)
		}
	})
}

func TestRecordService_AddAttachment(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		svc, m := newTestService(t, denyAllAssignments{})
		r := strings.NewReader("scan bytes")
		m.records.On("FindByID", ctx, "rec-1").Return(sampleRecord(), nil)
		m.store.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "records/rec-1/") && strings.HasSuffix(key, ".pdf")
		}), r, storage.PutObjectOptions{
			Size:        10,
			ContentType: "application/pdf",
			Metadata:    map[string]string{"original-filename": "scan.pdf"},
		}).Return(storage.ObjectInfo{Key: "records/rec-1/obj.pdf", Size: 10}, nil)
		m.attachments.On("Create", ctx, mock.MatchedBy(func(att *model.Attachment) bool {
			return att.RecordID == "rec-1" && att.StorageKey == "records/rec-1/obj.pdf" && att.ID != ""
		})).Return(&model.Attachment{ID: "att-1", RecordID: "rec-1"}, nil)

		att, err := svc.AddAttachment(ctx, callerDoctor1, "rec-1", r, "scan.pdf", "application/pdf", 10)

		require.NoError(t, err)
		assert.Equal(t, "att-1", att.ID)
		m.assertExpectations(t)
	})

	t.Run("nil reader", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})

		_, err := svc.AddAttachment(ctx, callerDoctor1, "rec-1", nil, "scan.pdf", "application/pdf", 10)

		assert.ErrorIs(t, err, ErrReaderNil)
		m.assertExpectations(t)
	})

	t.Run("record missing, upload never reaches storage", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})
		m.records.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		_, err := svc.AddAttachment(ctx, callerDoctor1, "missing", strings.NewReader("x"), "scan.pdf", "application/pdf", 1)

		assert.ErrorIs(t, err, ErrRecordNotFound)
		m.assertExpectations(t)
	})

	t.Run("storage put fails, no metadata row created", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})
		r := strings.NewReader("x")
		m.records.On("FindByID", ctx, "rec-1").Return(sampleRecord(), nil)
		m.store.On("Put", ctx, mock.Anything, r, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("storage fail"))

		_, err := svc.AddAttachment(ctx, callerDoctor1, "rec-1", r, "scan.pdf", "application/pdf", 1)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "upload to storage")
		m.attachments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("metadata insert fails, stored object rolled back", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})
		r := strings.NewReader("x")
		m.records.On("FindByID", ctx, "rec-1").Return(sampleRecord(), nil)
		m.store.On("Put", ctx, mock.Anything, r, mock.Anything).
			Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
				return storage.ObjectInfo{Key: key}
			}, nil)
		m.attachments.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
		m.store.On("Delete", ctx, mock.Anything).Return(nil)

		_, err := svc.AddAttachment(ctx, callerDoctor1, "rec-1", r, "scan.pdf", "application/pdf", 1)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "metadata save failed")
		m.assertExpectations(t)
	})

	t.Run("patient cannot add attachment", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})

		_, err := svc.AddAttachment(ctx, callerPatient1, "rec-1", strings.NewReader("x"), "scan.pdf", "application/pdf", 1)

		assert.ErrorIs(t, err, ErrProviderRoleRequired)
		m.assertExpectations(t)
	})
}

func TestRecordService_ListAttachments(t *testing.T) {
	ctx := context.Background()
	atts := []model.Attachment{{ID: "att-1", RecordID: "rec-1"}}

	t.Run("owning patient lists", func(t *testing.T) {
		svc, m := newTestService(t, denyAllAssignments{})
		m.records.On("FindByID", ctx, "rec-1").Return(sampleRecord(), nil)
		m.attachments.On("ListByRecord", ctx, "rec-1").Return(atts, nil)

		got, err := svc.ListAttachments(ctx, callerPatient1, "rec-1")

		require.NoError(t, err)
		assert.Len(t, got, 1)
		m.assertExpectations(t)
	})

	t.Run("other patient denied", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})
		m.records.On("FindByID", ctx, "rec-1").Return(sampleRecord(), nil)

		_, err := svc.ListAttachments(ctx, callerPatient2, "rec-1")

		assert.ErrorIs(t, err, ErrForbidden)
		m.attachments.AssertNotCalled(t, "ListByRecord", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})
}

func TestRecordService_DownloadAttachment(t *testing.T) {
	ctx := context.Background()
	storedAtt := &model.Attachment{ID: "att-1", RecordID: "rec-1", Filename: "scan.pdf", StorageKey: "records/rec-1/att-1.pdf"}

	t.Run("owning patient downloads", func(t *testing.T) {
		svc, m := newTestService(t, denyAllAssignments{})
		m.records.On("FindByID", ctx, "rec-1").Return(sampleRecord(), nil)
		m.attachments.On("FindByRecordAndID", ctx, "rec-1", "att-1").Return(storedAtt, nil)
		m.store.On("Get", ctx, "records/rec-1/att-1.pdf").
			Return(io.NopCloser(strings.NewReader("bytes")), storage.ObjectInfo{Size: 5}, nil)

		rc, att, err := svc.DownloadAttachment(ctx, callerPatient1, "rec-1", "att-1")

		require.NoError(t, err)
		require.NotNil(t, rc)
		defer rc.Close()
		assert.Equal(t, "att-1", att.ID)
		m.assertExpectations(t)
	})

	t.Run("attachment of another record is never returned", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})
		m.records.On("FindByID", ctx, "rec-1").Return(sampleRecord(), nil)
		// The repository filters on (record_id, id); a foreign attachment ID is a miss.
		m.attachments.On("FindByRecordAndID", ctx, "rec-1", "att-other").Return(nil, sql.ErrNoRows)

		_, _, err := svc.DownloadAttachment(ctx, callerAdmin, "rec-1", "att-other")

		assert.ErrorIs(t, err, ErrAttachmentNotFound)
		m.store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("missing backing file is distinguished from missing row", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})
		m.records.On("FindByID", ctx, "rec-1").Return(sampleRecord(), nil)
		m.attachments.On("FindByRecordAndID", ctx, "rec-1", "att-1").Return(storedAtt, nil)
		m.store.On("Get", ctx, "records/rec-1/att-1.pdf").
			Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound)

		_, _, err := svc.DownloadAttachment(ctx, callerAdmin, "rec-1", "att-1")

		assert.ErrorIs(t, err, ErrFileMissing)
		assert.NotErrorIs(t, err, ErrAttachmentNotFound)
		m.assertExpectations(t)
	})

	t.Run("unassigned doctor denied under restrictive assignments", func(t *testing.T) {
		svc, m := newTestService(t, denyAllAssignments{})
		m.records.On("FindByID", ctx, "rec-1").Return(sampleRecord(), nil)

		_, _, err := svc.DownloadAttachment(ctx, callerDoctor2, "rec-1", "att-1")

		assert.ErrorIs(t, err, ErrForbidden)
		m.assertExpectations(t)
	})

	t.Run("unassigned doctor allowed under permissive placeholder", func(t *testing.T) {
		// Documents the known gap of PermitAllAssignments; flips to the
		// denial above once a real checker is wired in.
		svc, m := newTestService(t, authz.PermitAllAssignments{})
		m.records.On("FindByID", ctx, "rec-1").Return(sampleRecord(), nil)
		m.attachments.On("FindByRecordAndID", ctx, "rec-1", "att-1").Return(storedAtt, nil)
		m.store.On("Get", ctx, "records/rec-1/att-1.pdf").
			Return(io.NopCloser(strings.NewReader("bytes")), storage.ObjectInfo{}, nil)

		rc, _, err := svc.DownloadAttachment(ctx, callerDoctor2, "rec-1", "att-1")

		require.NoError(t, err)
		rc.Close()
		m.assertExpectations(t)
	})
}

func TestRecordService_DeleteRecord(t *testing.T) {
	ctx := context.Background()
	atts := []model.Attachment{
		{ID: "att-1", RecordID: "rec-1", StorageKey: "records/rec-1/att-1.pdf"},
		{ID: "att-2", RecordID: "rec-1", StorageKey: "records/rec-1/att-2.png"},
	}

	t.Run("deletes record, rows and backing files", func(t *testing.T) {
		svc, m := newTestService(t, denyAllAssignments{})
		m.records.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("FindRecordForUpdate", ctx, "rec-1").Return(sampleRecord(), nil)
		m.tx.On("ListAttachments", ctx, "rec-1").Return(atts, nil)
		for _, att := range atts {
			m.store.On("Exists", ctx, att.StorageKey).Return(true, nil)
			m.store.On("Delete", ctx, att.StorageKey).Return(nil)
			m.tx.On("DeleteAttachment", ctx, att.ID).Return(nil)
		}
		m.tx.On("DeleteRecord", ctx, "rec-1").Return(int64(1), nil)
		m.tx.On("Commit").Return(nil)

		err := svc.DeleteRecord(ctx, callerDoctor1, "rec-1")

		require.NoError(t, err)
		m.assertExpectations(t)
	})

	t.Run("already absent file is tolerated", func(t *testing.T) {
		svc, m := newTestService(t, denyAllAssignments{})
		m.records.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("FindRecordForUpdate", ctx, "rec-1").Return(sampleRecord(), nil)
		m.tx.On("ListAttachments", ctx, "rec-1").Return(atts[:1], nil)
		m.store.On("Exists", ctx, "records/rec-1/att-1.pdf").Return(false, nil)
		m.tx.On("DeleteAttachment", ctx, "att-1").Return(nil)
		m.tx.On("DeleteRecord", ctx, "rec-1").Return(int64(1), nil)
		m.tx.On("Commit").Return(nil)

		err := svc.DeleteRecord(ctx, callerDoctor1, "rec-1")

		require.NoError(t, err)
		m.store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("nonexistent record: not found, nothing touched", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})
		m.records.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("FindRecordForUpdate", ctx, "missing").Return(nil, sql.ErrNoRows)
		m.tx.On("Rollback").Return(nil)

		err := svc.DeleteRecord(ctx, callerAdmin, "missing")

		assert.ErrorIs(t, err, ErrRecordNotFound)
		m.store.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
		m.store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("second delete is idempotent and touches no files", func(t *testing.T) {
		// After a successful delete the row is gone, so a repeat behaves
		// exactly like deleting a record that never existed.
		svc, m := newTestService(t, authz.PermitAllAssignments{})
		m.records.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("FindRecordForUpdate", ctx, "rec-1").Return(nil, sql.ErrNoRows)
		m.tx.On("Rollback").Return(nil)

		err := svc.DeleteRecord(ctx, callerAdmin, "rec-1")

		assert.ErrorIs(t, err, ErrRecordNotFound)
		m.store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("file delete infrastructure failure aborts and rolls back", func(t *testing.T) {
		svc, m := newTestService(t, denyAllAssignments{})
		m.records.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("FindRecordForUpdate", ctx, "rec-1").Return(sampleRecord(), nil)
		m.tx.On("ListAttachments", ctx, "rec-1").Return(atts[:1], nil)
		m.store.On("Exists", ctx, "records/rec-1/att-1.pdf").Return(true, nil)
		m.store.On("Delete", ctx, "records/rec-1/att-1.pdf").Return(errors.New("backend down"))
		m.tx.On("Rollback").Return(nil)

		err := svc.DeleteRecord(ctx, callerDoctor1, "rec-1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "delete attachment object")
		m.tx.AssertNotCalled(t, "DeleteAttachment", mock.Anything, mock.Anything)
		m.tx.AssertNotCalled(t, "Commit")
		m.assertExpectations(t)
	})

	t.Run("zero affected rows on record delete rolls back", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})
		m.records.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("FindRecordForUpdate", ctx, "rec-1").Return(sampleRecord(), nil)
		m.tx.On("ListAttachments", ctx, "rec-1").Return([]model.Attachment{}, nil)
		m.tx.On("DeleteRecord", ctx, "rec-1").Return(int64(0), nil)
		m.tx.On("Rollback").Return(nil)

		err := svc.DeleteRecord(ctx, callerAdmin, "rec-1")

		assert.ErrorIs(t, err, ErrRecordNotFound)
		m.tx.AssertNotCalled(t, "Commit")
		m.assertExpectations(t)
	})

	t.Run("unauthorized caller rolls back before touching attachments", func(t *testing.T) {
		svc, m := newTestService(t, denyAllAssignments{})
		m.records.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("FindRecordForUpdate", ctx, "rec-1").Return(sampleRecord(), nil)
		m.tx.On("Rollback").Return(nil)

		err := svc.DeleteRecord(ctx, callerDoctor2, "rec-1")

		assert.ErrorIs(t, err, ErrForbidden)
		m.tx.AssertNotCalled(t, "ListAttachments", mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("commit failure surfaces as storage failure", func(t *testing.T) {
		svc, m := newTestService(t, authz.PermitAllAssignments{})
		m.records.On("Begin", ctx).Return(m.tx, nil)
		m.tx.On("FindRecordForUpdate", ctx, "rec-1").Return(sampleRecord(), nil)
		m.tx.On("ListAttachments", ctx, "rec-1").Return([]model.Attachment{}, nil)
		m.tx.On("DeleteRecord", ctx, "rec-1").Return(int64(1), nil)
		m.tx.On("Commit").Return(errors.New("deadlock"))
		m.tx.On("Rollback").Return(nil)

		err := svc.DeleteRecord(ctx, callerAdmin, "rec-1")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "commit delete transaction")
		m.assertExpectations(t)
	})
}
