package mocks

import (
	"context"

	"medrecapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockRecordTx struct {
	mock.Mock
}

func (m *MockRecordTx) FindRecordForUpdate(ctx context.Context, id string) (*model.MedicalRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MedicalRecord), args.Error(1)
}

func (m *MockRecordTx) ListAttachments(ctx context.Context, recordID string) ([]model.Attachment, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Attachment), args.Error(1)
}

func (m *MockRecordTx) DeleteAttachment(ctx context.Context, attachmentID string) error {
	args := m.Called(ctx, attachmentID)
	return args.Error(0)
}

func (m *MockRecordTx) DeleteRecord(ctx context.Context, recordID string) (int64, error) {
	args := m.Called(ctx, recordID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRecordTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRecordTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}
