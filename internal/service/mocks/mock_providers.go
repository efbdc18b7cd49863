package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/medledger/consent-ledger-api/internal/ledger/audit"
	"github.com/medledger/consent-ledger-api/internal/ledger/proof"
)

// MockProofProvider is a mock implementation of the private proof provider
type MockProofProvider struct {
	mock.Mock
}

func (m *MockProofProvider) Submit(ctx context.Context, params proof.Params) (*proof.ConsentProof, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*proof.ConsentProof), args.Error(1)
}

func (m *MockProofProvider) VerifyDigest(ctx context.Context, params proof.Params, expectedDigest string) (bool, error) {
	args := m.Called(ctx, params, expectedDigest)
	return args.Bool(0), args.Error(1)
}

// MockAuditProvider is a mock implementation of the public audit provider
type MockAuditProvider struct {
	mock.Mock
}

func (m *MockAuditProvider) Record(ctx context.Context, params audit.RecordParams) (*audit.Record, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Record), args.Error(1)
}

func (m *MockAuditProvider) Exists(ctx context.Context, query audit.ExistsQuery) (*audit.Existence, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Existence), args.Error(1)
}
