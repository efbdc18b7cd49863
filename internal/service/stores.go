package service

import (
	"context"

	"github.com/medledger/consent-ledger-api/internal/database"
	"github.com/medledger/consent-ledger-api/internal/models"
)

// AccessRequestStore is the persistence surface the services depend on.
// Satisfied by dao.AccessRequestDAO.
type AccessRequestStore interface {
	Create(ctx context.Context, request *models.AccessRequest) error
	GetByID(ctx context.Context, requestID string) (*models.AccessRequest, error)
	ListPendingByOwner(ctx context.Context, ownerID string) ([]models.AccessRequest, error)
	HasPendingPair(ctx context.Context, requesterID, ownerID string) (bool, error)
	Approve(ctx context.Context, requestID string, approvedTime int64,
		proofRef, proofDigest, auditRef, scriptRef, networkID string) (int64, error)
	Reject(ctx context.Context, requestID string) (int64, error)
	DeleteWithTx(ctx context.Context, tx *database.Transaction, requestID string) error
}

// GrantedPayloadStore is the relay persistence surface. Satisfied by
// dao.GrantedPayloadDAO.
type GrantedPayloadStore interface {
	Upsert(ctx context.Context, payload *models.GrantedPayload) error
	Get(ctx context.Context, requestID, fileRef string) (*models.GrantedPayload, error)
	DeleteByRequestIDWithTx(ctx context.Context, tx *database.Transaction, requestID string) error
}
