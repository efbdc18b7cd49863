package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/medledger/consent-ledger-api/internal/crypto"
	"github.com/medledger/consent-ledger-api/internal/dao"
	"github.com/medledger/consent-ledger-api/internal/models"
	"github.com/medledger/consent-ledger-api/pkg/utils"
)

// GrantRelayService lets the owner push re-encrypted file payloads into
// a per-request bucket the approved counterparty can pull from.
// Payloads are sealed at rest with the server fallback key. Note the
// owner-decrypts-then-relays pattern means plaintext transits this
// service; see DESIGN.md for the confidentiality trade-off.
type GrantRelayService struct {
	requestStore AccessRequestStore
	payloadStore GrantedPayloadStore
	sealKey      []byte
	logger       *logrus.Logger
}

// NewGrantRelayService creates a new grant relay instance. sealKey is
// the server fallback key from configuration.
func NewGrantRelayService(
	requestStore AccessRequestStore,
	payloadStore GrantedPayloadStore,
	sealKey []byte,
	logger *logrus.Logger,
) *GrantRelayService {
	return &GrantRelayService{
		requestStore: requestStore,
		payloadStore: payloadStore,
		sealKey:      sealKey,
		logger:       logger,
	}
}

// GrantFile stores a payload for (requestId, fileRef). Only the named
// owner of an approved request may push; re-submission for the same key
// overwrites the prior payload.
func (s *GrantRelayService) GrantFile(ctx context.Context, request *models.GrantFileRequest) (*models.GrantFileResponse, error) {
	if err := utils.ValidateFileRef(request.FileRef); err != nil {
		return nil, err
	}
	if err := utils.ValidateRequired("payload", request.Payload); err != nil {
		return nil, err
	}

	row, err := s.loadRequest(ctx, request.RequestID)
	if err != nil {
		return nil, err
	}

	if row.OwnerID != request.OwnerID {
		return nil, ErrUnauthorized
	}
	if row.Status != models.StatusApproved {
		return nil, ErrInvalidTransition
	}

	sealed, err := crypto.Encrypt([]byte(request.Payload), s.sealKey)
	if err != nil {
		return nil, fmt.Errorf("failed to seal payload: %w", err)
	}

	err = s.payloadStore.Upsert(ctx, &models.GrantedPayload{
		RequestID:   request.RequestID,
		FileRef:     request.FileRef,
		Payload:     sealed,
		UpdatedTime: utils.GetCurrentTimeMillis(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store granted payload: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": request.RequestID,
		"file_ref":   request.FileRef,
	}).Info("Granted payload stored")

	return &models.GrantFileResponse{
		RequestID: request.RequestID,
		FileRef:   request.FileRef,
	}, nil
}

// ViewGrantedFile returns a pushed payload to the approved requester.
// The authorization check mirrors the release gate, but digest/audit
// re-verification is intentionally not repeated per pull.
func (s *GrantRelayService) ViewGrantedFile(ctx context.Context, requestID, fileRef, requesterID string) (*models.GrantedFileResponse, error) {
	if err := utils.ValidateFileRef(fileRef); err != nil {
		return nil, err
	}

	row, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if row.Status != models.StatusApproved || row.RequesterID != requesterID {
		return nil, ErrForbidden
	}

	payload, err := s.payloadStore.Get(ctx, requestID, fileRef)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load granted payload: %w", err)
	}

	opened, err := crypto.Decrypt(payload.Payload, s.sealKey)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal payload for %s/%s: %w", requestID, fileRef, err)
	}

	return &models.GrantedFileResponse{
		RequestID: requestID,
		FileRef:   fileRef,
		Payload:   string(opened),
	}, nil
}

func (s *GrantRelayService) loadRequest(ctx context.Context, requestID string) (*models.AccessRequest, error) {
	row, err := s.requestStore.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load access request: %w", err)
	}
	return row, nil
}
