package mocks

import (
	"context"
	"io"

	"medrecapi/internal/authz"
	"medrecapi/internal/model"
	"medrecapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockRecordService struct {
	mock.Mock
}

func (m *MockRecordService) Create(ctx context.Context, caller authz.Identity, in service.CreateRecordInput) (*model.MedicalRecord, error) {
	args := m.Called(ctx, caller, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MedicalRecord), args.Error(1)
}

func (m *MockRecordService) Update(ctx context.Context, caller authz.Identity, recordID string, in service.UpdateRecordInput) (*model.MedicalRecord, error) {
	args := m.Called(ctx, caller, recordID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MedicalRecord), args.Error(1)
}

func (m *MockRecordService) GetRecord(ctx context.Context, caller authz.Identity, recordID string) (*model.MedicalRecord, error) {
	args := m.Called(ctx, caller, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MedicalRecord), args.Error(1)
}

func (m *MockRecordService) ListByPatient(ctx context.Context, caller authz.Identity, patientID int64) ([]model.MedicalRecord, error) {
	args := m.Called(ctx, caller, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MedicalRecord), args.Error(1)
}

func (m *MockRecordService) ListByType(ctx context.Context, caller authz.Identity, patientID int64, recordType string) ([]model.MedicalRecord, error) {
	args := m.Called(ctx, caller, patientID, recordType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MedicalRecord), args.Error(1)
}

func (m *MockRecordService) ListRecent(ctx context.Context, caller authz.Identity, patientID int64, limit int) ([]model.MedicalRecord, error) {
	args := m.Called(ctx, caller, patientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.MedicalRecord), args.Error(1)
}

func (m *MockRecordService) AddAttachment(ctx context.Context, caller authz.Identity, recordID string, r io.Reader, filename, mimeType string, size int64) (*model.Attachment, error) {
	args := m.Called(ctx, caller, recordID, r, filename, mimeType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Attachment), args.Error(1)
}

func (m *MockRecordService) ListAttachments(ctx context.Context, caller authz.Identity, recordID string) ([]model.Attachment, error) {
	args := m.Called(ctx, caller, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Attachment), args.Error(1)
}

func (m *MockRecordService) DownloadAttachment(ctx context.Context, caller authz.Identity, recordID, attachmentID string) (io.ReadCloser, *model.Attachment, error) {
	args := m.Called(ctx, caller, recordID, attachmentID)
	rc, _ := args.Get(0).(io.ReadCloser)
	att, _ := args.Get(1).(*model.Attachment)
	return rc, att, args.Error(2)
}

func (m *MockRecordService) DeleteRecord(ctx context.Context, caller authz.Identity, recordID string) error {
	args := m.Called(ctx, caller, recordID)
	return args.Error(0)
}
