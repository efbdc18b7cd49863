package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/medledger/consent-ledger-api/internal/dao"
	"github.com/medledger/consent-ledger-api/internal/database"
	"github.com/medledger/consent-ledger-api/internal/models"
	"github.com/medledger/consent-ledger-api/pkg/utils"
)

// AccessRequestService handles the request lifecycle outside of
// approval: creation, listing, rejection and deletion.
type AccessRequestService struct {
	requestStore AccessRequestStore
	payloadStore GrantedPayloadStore
	db           *database.DB
	logger       *logrus.Logger
}

// NewAccessRequestService creates a new access request service instance
func NewAccessRequestService(
	requestStore AccessRequestStore,
	payloadStore GrantedPayloadStore,
	db *database.DB,
	logger *logrus.Logger,
) *AccessRequestService {
	return &AccessRequestService{
		requestStore: requestStore,
		payloadStore: payloadStore,
		db:           db,
		logger:       logger,
	}
}

// CreateRequest registers a new pending access request from a
// counterparty. A second open request for the same pair is rejected.
func (s *AccessRequestService) CreateRequest(ctx context.Context, request *models.AccessRequestCreateRequest) (*models.AccessRequestCreateResponse, error) {
	if err := utils.ValidateActorID("requester ID", request.RequesterID); err != nil {
		return nil, err
	}
	if err := utils.ValidateActorID("owner ID", request.OwnerID); err != nil {
		return nil, err
	}
	if err := utils.ValidateCategories(request.Categories); err != nil {
		return nil, err
	}
	if err := utils.ValidateMaxLength("reason", request.Reason, 1024); err != nil {
		return nil, err
	}

	exists, err := s.requestStore.HasPendingPair(ctx, request.RequesterID, request.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for open requests: %w", err)
	}
	if exists {
		return nil, ErrDuplicatePending
	}

	row := &models.AccessRequest{
		RequestID:   utils.GenerateRequestID(),
		RequesterID: request.RequesterID,
		OwnerID:     request.OwnerID,
		Categories:  models.StringSlice(request.Categories),
		Status:      models.StatusPending,
		CreatedTime: utils.GetCurrentTimeMillis(),
	}
	if reason := utils.SanitizeString(request.Reason); reason != "" {
		row.Reason = &reason
	}

	if err := s.requestStore.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to create access request: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"request_id":   row.RequestID,
		"owner_id":     row.OwnerID,
		"requester_id": row.RequesterID,
		"categories":   row.Categories,
	}).Info("Access request created")

	return &models.AccessRequestCreateResponse{
		RequestID: row.RequestID,
		CreatedAt: row.CreatedTime,
	}, nil
}

// ListPending returns all pending requests addressed to an owner
func (s *AccessRequestService) ListPending(ctx context.Context, ownerID string) ([]models.AccessRequest, error) {
	if err := utils.ValidateActorID("owner ID", ownerID); err != nil {
		return nil, err
	}

	requests, err := s.requestStore.ListPendingByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}

	if requests == nil {
		requests = []models.AccessRequest{}
	}

	return requests, nil
}

// GetRequest returns a single request to either of its named parties
func (s *AccessRequestService) GetRequest(ctx context.Context, requestID, actorID string) (*models.AccessRequest, error) {
	if err := utils.ValidateRequestID(requestID); err != nil {
		return nil, err
	}

	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if request.OwnerID != actorID && request.RequesterID != actorID {
		return nil, ErrUnauthorized
	}

	return request, nil
}

// Reject transitions a pending request to rejected. Only the named
// owner may reject; a terminal request fails with ErrInvalidTransition.
func (s *AccessRequestService) Reject(ctx context.Context, requestID, ownerID string) (*models.RejectionResponse, error) {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if request.OwnerID != ownerID {
		return nil, ErrUnauthorized
	}

	rows, err := s.requestStore.Reject(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to reject access request: %w", err)
	}
	if rows == 0 {
		// Lost a race or already terminal
		return nil, ErrInvalidTransition
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"owner_id":   ownerID,
	}).Info("Access request rejected")

	return &models.RejectionResponse{RequestID: requestID}, nil
}

// DeleteRequest removes a request and cascades its granted payloads in
// a single transaction. Only the named owner may delete.
func (s *AccessRequestService) DeleteRequest(ctx context.Context, requestID, ownerID string) error {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return err
	}

	if request.OwnerID != ownerID {
		return ErrUnauthorized
	}

	err = s.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		if err := s.payloadStore.DeleteByRequestIDWithTx(ctx, tx, requestID); err != nil {
			return err
		}
		return s.requestStore.DeleteWithTx(ctx, tx, requestID)
	})
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete access request: %w", err)
	}

	s.logger.WithField("request_id", requestID).Info("Access request deleted")
	return nil
}

// loadRequest fetches a request and maps store misses to ErrNotFound
func (s *AccessRequestService) loadRequest(ctx context.Context, requestID string) (*models.AccessRequest, error) {
	request, err := s.requestStore.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load access request: %w", err)
	}
	return request, nil
}
