package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/medledger/consent-ledger-api/internal/dao"
	"github.com/medledger/consent-ledger-api/internal/ledger/audit"
	"github.com/medledger/consent-ledger-api/internal/ledger/proof"
	"github.com/medledger/consent-ledger-api/internal/models"
	"github.com/medledger/consent-ledger-api/internal/service/mocks"
)

func newReleaseServiceForTest(store *mocks.MockAccessRequestStore, proofProvider *mocks.MockProofProvider, auditProvider *mocks.MockAuditProvider) *ReleaseService {
	return NewReleaseService(store, proofProvider, auditProvider, newTestLedgerConfig(), newTestLogger())
}

// TestRelease_BothChecksPass tests the happy path through the gate
func TestRelease_BothChecksPass(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	proofProvider := &mocks.MockProofProvider{}
	auditProvider := &mocks.MockAuditProvider{}

	request := newApprovedRequest()
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	proofProvider.On("VerifyDigest", mock.Anything, mock.Anything, "digest-abc").Return(true, nil)
	auditProvider.On("Exists", mock.Anything, audit.ExistsQuery{
		RequestID: request.RequestID,
		Digest:    "digest-abc",
		TxRef:     "TX-abc",
	}).Return(&audit.Existence{Exists: true}, nil)

	service := newReleaseServiceForTest(store, proofProvider, auditProvider)
	resp, err := service.Release(context.Background(), request.RequestID, request.RequesterID)

	assert.NoError(t, err)
	assert.Equal(t, "vault://patient-7/"+request.RequestID, resp.CiphertextRef)
	assert.True(t, resp.Verification.Proof)
	assert.True(t, resp.Verification.Audit)
}

// TestRelease_ProofMismatch tests that a non-matching digest denies the
// release with the proof reason
func TestRelease_ProofMismatch(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	proofProvider := &mocks.MockProofProvider{}
	auditProvider := &mocks.MockAuditProvider{}

	request := newApprovedRequest()
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	proofProvider.On("VerifyDigest", mock.Anything, mock.Anything, "digest-abc").Return(false, nil)
	auditProvider.On("Exists", mock.Anything, mock.Anything).Return(&audit.Existence{Exists: true}, nil)

	service := newReleaseServiceForTest(store, proofProvider, auditProvider)
	resp, err := service.Release(context.Background(), request.RequestID, request.RequesterID)

	assert.Nil(t, resp)
	var verr *VerificationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, models.ReasonProofVerificationFailed, verr.Reason)
}

// TestRelease_AuditRecordMissing tests the audit-side denial reason
func TestRelease_AuditRecordMissing(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	proofProvider := &mocks.MockProofProvider{}
	auditProvider := &mocks.MockAuditProvider{}

	request := newApprovedRequest()
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	proofProvider.On("VerifyDigest", mock.Anything, mock.Anything, "digest-abc").Return(true, nil)
	auditProvider.On("Exists", mock.Anything, mock.Anything).Return(&audit.Existence{Exists: false}, nil)

	service := newReleaseServiceForTest(store, proofProvider, auditProvider)
	_, err := service.Release(context.Background(), request.RequestID, request.RequesterID)

	var verr *VerificationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, models.ReasonAuditVerificationFailed, verr.Reason)
}

// TestRelease_ProofProviderDown_VerifiesLocally tests that a dead proof
// service does not block release when the persisted digest re-derives
func TestRelease_ProofProviderDown_VerifiesLocally(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	proofProvider := &mocks.MockProofProvider{}
	auditProvider := &mocks.MockAuditProvider{}

	request := newApprovedRequest()
	// Persist the digest the local scheme actually derives for this row
	local := proof.NewLocalProvider("test-salt", newTestLogger())
	derived, err := local.Submit(context.Background(), proof.Params{
		RequestID:   request.RequestID,
		OwnerID:     request.OwnerID,
		RequesterID: request.RequesterID,
		Categories:  request.Categories,
		Timestamp:   *request.ApprovedTime,
	})
	assert.NoError(t, err)
	request.PrivateProofDigest = strPtr(derived.Digest)

	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	proofProvider.On("VerifyDigest", mock.Anything, mock.Anything, derived.Digest).
		Return(false, errors.New("connection refused"))
	auditProvider.On("Exists", mock.Anything, mock.Anything).Return(&audit.Existence{Exists: true, LocalOnly: true}, nil)

	service := newReleaseServiceForTest(store, proofProvider, auditProvider)
	resp, err := service.Release(context.Background(), request.RequestID, request.RequesterID)

	assert.NoError(t, err)
	assert.True(t, resp.Verification.Proof)
}

// TestRelease_CorruptedDigestIsDenied tests that a tampered persisted
// digest fails the real local digest scheme, not just a mocked check
func TestRelease_CorruptedDigestIsDenied(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	auditProvider := &mocks.MockAuditProvider{}

	request := newApprovedRequest()
	request.PrivateProofDigest = strPtr("0000000000000000000000000000000000000000000000000000000000000000")
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	auditProvider.On("Exists", mock.Anything, mock.Anything).Return(&audit.Existence{Exists: true}, nil)

	local := proof.NewLocalProvider("test-salt", newTestLogger())
	service := NewReleaseService(store, local, auditProvider, newTestLedgerConfig(), newTestLogger())
	_, err := service.Release(context.Background(), request.RequestID, request.RequesterID)

	var verr *VerificationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, models.ReasonProofVerificationFailed, verr.Reason)
}

// TestRelease_NotApproved tests that pending and rejected requests are
// refused outright
func TestRelease_NotApproved(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	request := newPendingRequest()
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)

	service := newReleaseServiceForTest(store, &mocks.MockProofProvider{}, &mocks.MockAuditProvider{})
	_, err := service.Release(context.Background(), request.RequestID, request.RequesterID)

	assert.ErrorIs(t, err, ErrForbidden)
}

// TestRelease_WrongRequester tests that only the named requester can
// pull the envelope reference
func TestRelease_WrongRequester(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	request := newApprovedRequest()
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)

	service := newReleaseServiceForTest(store, &mocks.MockProofProvider{}, &mocks.MockAuditProvider{})
	_, err := service.Release(context.Background(), request.RequestID, "other-clinic")

	assert.ErrorIs(t, err, ErrForbidden)
}

// TestRelease_NotFound tests the missing-request path
func TestRelease_NotFound(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	store.On("GetByID", mock.Anything, "REQ-missing").Return(nil, dao.ErrNotFound)

	service := newReleaseServiceForTest(store, &mocks.MockProofProvider{}, &mocks.MockAuditProvider{})
	_, err := service.Release(context.Background(), "REQ-missing", "clinic-42")

	assert.ErrorIs(t, err, ErrNotFound)
}
