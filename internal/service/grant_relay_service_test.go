package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medledger/consent-ledger-api/internal/crypto"
	"github.com/medledger/consent-ledger-api/internal/dao"
	"github.com/medledger/consent-ledger-api/internal/models"
	"github.com/medledger/consent-ledger-api/internal/service/mocks"
)

// TestGrantFile_SealsPayloadAtRest tests that the stored payload is the
// sealed envelope, not the relayed plaintext
func TestGrantFile_SealsPayloadAtRest(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	payloads := &mocks.MockGrantedPayloadStore{}
	sealKey := newTestSealKey()

	request := newApprovedRequest()
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)

	var stored *models.GrantedPayload
	payloads.On("Upsert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(*models.GrantedPayload)
		}).Return(nil)

	service := NewGrantRelayService(store, payloads, sealKey, newTestLogger())
	resp, err := service.GrantFile(context.Background(), &models.GrantFileRequest{
		RequestID: request.RequestID,
		FileRef:   "records/2026/labs.pdf",
		Payload:   "decrypted file contents",
		OwnerID:   request.OwnerID,
	})

	require.NoError(t, err)
	assert.Equal(t, request.RequestID, resp.RequestID)
	require.NotNil(t, stored)
	assert.NotEqual(t, "decrypted file contents", stored.Payload)

	opened, err := crypto.Decrypt(stored.Payload, sealKey)
	require.NoError(t, err)
	assert.Equal(t, "decrypted file contents", string(opened))
}

// TestGrantFile_WrongOwner tests that only the named owner may push
func TestGrantFile_WrongOwner(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	request := newApprovedRequest()
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)

	service := NewGrantRelayService(store, &mocks.MockGrantedPayloadStore{}, newTestSealKey(), newTestLogger())
	_, err := service.GrantFile(context.Background(), &models.GrantFileRequest{
		RequestID: request.RequestID,
		FileRef:   "labs.pdf",
		Payload:   "data",
		OwnerID:   "someone-else",
	})

	assert.ErrorIs(t, err, ErrUnauthorized)
}

// TestGrantFile_RequestNotApproved tests that pending requests cannot
// receive payloads
func TestGrantFile_RequestNotApproved(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	request := newPendingRequest()
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)

	service := NewGrantRelayService(store, &mocks.MockGrantedPayloadStore{}, newTestSealKey(), newTestLogger())
	_, err := service.GrantFile(context.Background(), &models.GrantFileRequest{
		RequestID: request.RequestID,
		FileRef:   "labs.pdf",
		Payload:   "data",
		OwnerID:   request.OwnerID,
	})

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

// TestGrantFile_RejectsPathTraversalRef tests file reference validation
func TestGrantFile_RejectsPathTraversalRef(t *testing.T) {
	service := NewGrantRelayService(&mocks.MockAccessRequestStore{}, &mocks.MockGrantedPayloadStore{}, newTestSealKey(), newTestLogger())
	_, err := service.GrantFile(context.Background(), &models.GrantFileRequest{
		RequestID: "REQ-x",
		FileRef:   "../../etc/passwd",
		Payload:   "data",
		OwnerID:   "patient-7",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "path traversal")
}

// TestGrantFile_RejectsEmptyPayload tests that a blank payload never
// reaches the store
func TestGrantFile_RejectsEmptyPayload(t *testing.T) {
	service := NewGrantRelayService(&mocks.MockAccessRequestStore{}, &mocks.MockGrantedPayloadStore{}, newTestSealKey(), newTestLogger())
	_, err := service.GrantFile(context.Background(), &models.GrantFileRequest{
		RequestID: "REQ-x",
		FileRef:   "labs.pdf",
		Payload:   "   ",
		OwnerID:   "patient-7",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "payload is required")
}

// TestViewGrantedFile_RoundTrip tests that the approved requester gets
// the original plaintext back
func TestViewGrantedFile_RoundTrip(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	payloads := &mocks.MockGrantedPayloadStore{}
	sealKey := newTestSealKey()

	request := newApprovedRequest()
	sealed, err := crypto.Encrypt([]byte("decrypted file contents"), sealKey)
	require.NoError(t, err)

	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	payloads.On("Get", mock.Anything, request.RequestID, "labs.pdf").Return(&models.GrantedPayload{
		RequestID: request.RequestID,
		FileRef:   "labs.pdf",
		Payload:   sealed,
	}, nil)

	service := NewGrantRelayService(store, payloads, sealKey, newTestLogger())
	resp, err := service.ViewGrantedFile(context.Background(), request.RequestID, "labs.pdf", request.RequesterID)

	require.NoError(t, err)
	assert.Equal(t, "decrypted file contents", resp.Payload)
}

// TestViewGrantedFile_WrongRequester tests the pull authorization check
func TestViewGrantedFile_WrongRequester(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	request := newApprovedRequest()
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)

	service := NewGrantRelayService(store, &mocks.MockGrantedPayloadStore{}, newTestSealKey(), newTestLogger())
	_, err := service.ViewGrantedFile(context.Background(), request.RequestID, "labs.pdf", "other-clinic")

	assert.ErrorIs(t, err, ErrForbidden)
}

// TestViewGrantedFile_MissingPayload tests the not-found path for a
// fileRef the owner never pushed
func TestViewGrantedFile_MissingPayload(t *testing.T) {
	store := &mocks.MockAccessRequestStore{}
	payloads := &mocks.MockGrantedPayloadStore{}

	request := newApprovedRequest()
	store.On("GetByID", mock.Anything, request.RequestID).Return(request, nil)
	payloads.On("Get", mock.Anything, request.RequestID, "missing.pdf").Return(nil, dao.ErrNotFound)

	service := NewGrantRelayService(store, payloads, newTestSealKey(), newTestLogger())
	_, err := service.ViewGrantedFile(context.Background(), request.RequestID, "missing.pdf", request.RequesterID)

	assert.ErrorIs(t, err, ErrNotFound)
}
