package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/medledger/consent-ledger-api/internal/database"
	"github.com/medledger/consent-ledger-api/internal/models"
)

// MockAccessRequestStore is a mock implementation of the access request store
type MockAccessRequestStore struct {
	mock.Mock
}

func (m *MockAccessRequestStore) Create(ctx context.Context, request *models.AccessRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockAccessRequestStore) GetByID(ctx context.Context, requestID string) (*models.AccessRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessRequest), args.Error(1)
}

func (m *MockAccessRequestStore) ListPendingByOwner(ctx context.Context, ownerID string) ([]models.AccessRequest, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccessRequest), args.Error(1)
}

func (m *MockAccessRequestStore) HasPendingPair(ctx context.Context, requesterID, ownerID string) (bool, error) {
	args := m.Called(ctx, requesterID, ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccessRequestStore) Approve(ctx context.Context, requestID string, approvedTime int64,
	proofRef, proofDigest, auditRef, scriptRef, networkID string) (int64, error) {
	args := m.Called(ctx, requestID, approvedTime, proofRef, proofDigest, auditRef, scriptRef, networkID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccessRequestStore) Reject(ctx context.Context, requestID string) (int64, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccessRequestStore) DeleteWithTx(ctx context.Context, tx *database.Transaction, requestID string) error {
	args := m.Called(ctx, tx, requestID)
	return args.Error(0)
}

// MockGrantedPayloadStore is a mock implementation of the granted payload store
type MockGrantedPayloadStore struct {
	mock.Mock
}

func (m *MockGrantedPayloadStore) Upsert(ctx context.Context, payload *models.GrantedPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockGrantedPayloadStore) Get(ctx context.Context, requestID, fileRef string) (*models.GrantedPayload, error) {
	args := m.Called(ctx, requestID, fileRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GrantedPayload), args.Error(1)
}

func (m *MockGrantedPayloadStore) DeleteByRequestIDWithTx(ctx context.Context, tx *database.Transaction, requestID string) error {
	args := m.Called(ctx, tx, requestID)
	return args.Error(0)
}
