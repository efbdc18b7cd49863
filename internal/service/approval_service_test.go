package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/medledger/consent-ledger-api/internal/dao"
	"github.com/medledger/consent-ledger-api/internal/ledger/audit"
	"github.com/medledger/consent-ledger-api/internal/ledger/proof"
	"github.com/medledger/consent-ledger-api/internal/models"
	"github.com/medledger/consent-ledger-api/internal/service/mocks"
)

func newApprovalServiceForTest(store *mocks.MockAccessRequestStore, proofProvider *mocks.MockProofProvider, auditProvider *mocks.MockAuditProvider) *ApprovalService {
	return NewApprovalService(store, proofProvider, auditProvider, newTestLedgerConfig(), newTestLogger())
}

// TestApprove_RecordsBothLedgers tests the happy path where both
// providers answer and the row flips to approved
func TestApprove_RecordsBothLedgers(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	proofProvider := &mocks.MockProofProvider{}
	auditProvider := &mocks.MockAuditProvider{}

	request := newPendingRequest()
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	proofProvider.On("Submit", mock.Anything, mock.Anything).Return(&proof.ConsentProof{
		ProofRef: "PROOF-xyz",
		Digest:   "digest-xyz",
	}, nil)
	auditProvider.On("Record", mock.Anything, mock.Anything).Return(&audit.Record{
		TxRef:     "TX-xyz",
		ScriptRef: "script1xyz",
		NetworkID: "preprod",
	}, nil)
	store.On("Approve", mock.Anything, request.RequestID, mock.Anything,
		"PROOF-xyz", "digest-xyz", "TX-xyz", "script1xyz", "preprod").Return(int64(1), nil)

	service := newApprovalServiceForTest(store, proofProvider, auditProvider)
	resp, err := service.Approve(context.Background(), request.RequestID, request.OwnerID)

	assert.NoError(t, err)
	assert.Equal(t, request.RequestID, resp.RequestID)
	assert.True(t, resp.Proof.IsReal)
	assert.True(t, resp.Audit.IsReal)
	assert.Equal(t, "digest-xyz", resp.Proof.Digest)
	store.AssertExpectations(t)
	proofProvider.AssertExpectations(t)
	auditProvider.AssertExpectations(t)
}

// TestApprove_ProofProviderDown_StillApproves tests that an unreachable
// proof service degrades to a placeholder instead of blocking approval
func TestApprove_ProofProviderDown_StillApproves(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	proofProvider := &mocks.MockProofProvider{}
	auditProvider := &mocks.MockAuditProvider{}

	request := newPendingRequest()
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	proofProvider.On("Submit", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	auditProvider.On("Record", mock.Anything, mock.Anything).Return(&audit.Record{
		TxRef:     "TX-xyz",
		ScriptRef: "script1xyz",
		NetworkID: "preprod",
	}, nil)
	store.On("Approve", mock.Anything, request.RequestID, mock.Anything,
		mock.Anything, mock.Anything, "TX-xyz", "script1xyz", "preprod").Return(int64(1), nil)

	service := newApprovalServiceForTest(store, proofProvider, auditProvider)
	resp, err := service.Approve(context.Background(), request.RequestID, request.OwnerID)

	assert.NoError(t, err)
	assert.False(t, resp.Proof.IsReal)
	assert.True(t, strings.HasPrefix(resp.Proof.Ref, PlaceholderProofPrefix))
	assert.NotEmpty(t, resp.Proof.Digest)
	assert.True(t, resp.Audit.IsReal)
}

// TestApprove_DegradedDigestIsDeterministic tests that the placeholder
// digest matches the local provider's computation for the same inputs,
// so release-time verification can re-derive it
func TestApprove_DegradedDigestIsDeterministic(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	proofProvider := &mocks.MockProofProvider{}
	auditProvider := &mocks.MockAuditProvider{}

	request := newPendingRequest()
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	proofProvider.On("Submit", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	auditProvider.On("Record", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	var persistedDigest string
	var approvedTime int64
	store.On("Approve", mock.Anything, request.RequestID, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			approvedTime = args.Get(2).(int64)
			persistedDigest = args.String(4)
		}).Return(int64(1), nil)

	service := newApprovalServiceForTest(store, proofProvider, auditProvider)
	resp, err := service.Approve(context.Background(), request.RequestID, request.OwnerID)

	assert.NoError(t, err)
	assert.Equal(t, resp.Proof.Digest, persistedDigest)

	local := proof.NewLocalProvider("test-salt", newTestLogger())
	ok, err := local.VerifyDigest(context.Background(), proof.Params{
		RequestID:   request.RequestID,
		OwnerID:     request.OwnerID,
		RequesterID: request.RequesterID,
		Categories:  request.Categories,
		Timestamp:   approvedTime,
	}, persistedDigest)
	assert.NoError(t, err)
	assert.True(t, ok)
}

// TestApprove_AuditProviderDown_UsesPlaceholderRecord tests the audit
// degrade path and its unconfigured network label
func TestApprove_AuditProviderDown_UsesPlaceholderRecord(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	proofProvider := &mocks.MockProofProvider{}
	auditProvider := &mocks.MockAuditProvider{}

	request := newPendingRequest()
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	proofProvider.On("Submit", mock.Anything, mock.Anything).Return(&proof.ConsentProof{
		ProofRef: "PROOF-xyz",
		Digest:   "digest-xyz",
	}, nil)
	auditProvider.On("Record", mock.Anything, mock.Anything).Return(nil, errors.New("ledger unreachable"))
	store.On("Approve", mock.Anything, request.RequestID, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(1), nil)

	service := newApprovalServiceForTest(store, proofProvider, auditProvider)
	resp, err := service.Approve(context.Background(), request.RequestID, request.OwnerID)

	assert.NoError(t, err)
	assert.False(t, resp.Audit.IsReal)
	assert.True(t, strings.HasPrefix(resp.Audit.Ref, PlaceholderAuditPrefix))
	assert.Equal(t, "local-unconfigured", resp.Audit.Network)
	assert.NotEmpty(t, resp.Audit.ScriptRef)
}

// TestApprove_WrongOwner tests that only the named owner may approve
func TestApprove_WrongOwner(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	request := newPendingRequest()
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)

	service := newApprovalServiceForTest(store, &mocks.MockProofProvider{}, &mocks.MockAuditProvider{})
	resp, err := service.Approve(context.Background(), request.RequestID, "someone-else")

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Nil(t, resp)
}

// TestApprove_TerminalRequest tests that terminal states never move
func TestApprove_TerminalRequest(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	request := newPendingRequest()
	request.Status = models.StatusRejected
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)

	service := newApprovalServiceForTest(store, &mocks.MockProofProvider{}, &mocks.MockAuditProvider{})
	_, err := service.Approve(context.Background(), request.RequestID, request.OwnerID)

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

// TestApprove_LosesConcurrentRace tests that a zero-row conditional
// update surfaces as an invalid transition
func TestApprove_LosesConcurrentRace(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	proofProvider := &mocks.MockProofProvider{}
	auditProvider := &mocks.MockAuditProvider{}

	request := newPendingRequest()
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	proofProvider.On("Submit", mock.Anything, mock.Anything).Return(&proof.ConsentProof{
		ProofRef: "PROOF-xyz", Digest: "digest-xyz",
	}, nil)
	auditProvider.On("Record", mock.Anything, mock.Anything).Return(&audit.Record{
		TxRef: "TX-xyz", ScriptRef: "script1xyz", NetworkID: "preprod",
	}, nil)
	store.On("Approve", mock.Anything, request.RequestID, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)

	service := newApprovalServiceForTest(store, proofProvider, auditProvider)
	_, err := service.Approve(context.Background(), request.RequestID, request.OwnerID)

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

// TestApprove_NotFound tests the missing-request path
func TestApprove_NotFound(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	store.On("GetByID", mock.Anything, "REQ-missing").Return(nil, dao.ErrNotFound)

	service := newApprovalServiceForTest(store, &mocks.MockProofProvider{}, &mocks.MockAuditProvider{})
	_, err := service.Approve(context.Background(), "REQ-missing", "patient-7")

	assert.ErrorIs(t, err, ErrNotFound)
}
