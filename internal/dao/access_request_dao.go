package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/medledger/consent-ledger-api/internal/database"
	"github.com/medledger/consent-ledger-api/internal/models"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("not found")

// AccessRequestDAO handles database operations for access requests
type AccessRequestDAO struct {
	db *database.DB
}

// NewAccessRequestDAO creates a new AccessRequestDAO instance
func NewAccessRequestDAO(db *database.DB) *AccessRequestDAO {
	return &AccessRequestDAO{db: db}
}

// Create inserts a new access request
func (dao *AccessRequestDAO) Create(ctx context.Context, request *models.AccessRequest) error {
	query := `
		INSERT INTO CL_ACCESS_REQUEST (
			REQUEST_ID, REQUESTER_ID, OWNER_ID, CATEGORIES, REASON,
			STATUS, CREATED_TIME
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := dao.db.ExecContext(
		ctx,
		query,
		request.RequestID,
		request.RequesterID,
		request.OwnerID,
		request.Categories,
		request.Reason,
		request.Status,
		request.CreatedTime,
	)

	if err != nil {
		return fmt.Errorf("failed to create access request: %w", err)
	}

	return nil
}

// GetByID retrieves an access request by ID
func (dao *AccessRequestDAO) GetByID(ctx context.Context, requestID string) (*models.AccessRequest, error) {
	query := `
		SELECT REQUEST_ID, REQUESTER_ID, OWNER_ID, CATEGORIES, REASON,
		       STATUS, CREATED_TIME, APPROVED_TIME, PRIVATE_PROOF_REF,
		       PRIVATE_PROOF_DIGEST, PUBLIC_AUDIT_REF, AUDIT_SCRIPT_REF,
		       AUDIT_NETWORK_ID
		FROM CL_ACCESS_REQUEST
		WHERE REQUEST_ID = ?
	`

	var request models.AccessRequest
	err := dao.db.GetContext(ctx, &request, query, requestID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("access request %s: %w", requestID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get access request: %w", err)
	}

	return &request, nil
}

// ListPendingByOwner retrieves all pending requests addressed to an owner
func (dao *AccessRequestDAO) ListPendingByOwner(ctx context.Context, ownerID string) ([]models.AccessRequest, error) {
	query := `
		SELECT REQUEST_ID, REQUESTER_ID, OWNER_ID, CATEGORIES, REASON,
		       STATUS, CREATED_TIME, APPROVED_TIME, PRIVATE_PROOF_REF,
		       PRIVATE_PROOF_DIGEST, PUBLIC_AUDIT_REF, AUDIT_SCRIPT_REF,
		       AUDIT_NETWORK_ID
		FROM CL_ACCESS_REQUEST
		WHERE OWNER_ID = ? AND STATUS = ?
		ORDER BY CREATED_TIME DESC
	`

	var requests []models.AccessRequest
	err := dao.db.SelectContext(ctx, &requests, query, ownerID, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}

	return requests, nil
}

// HasPendingPair checks whether an open request already exists for the
// requester/owner pair
func (dao *AccessRequestDAO) HasPendingPair(ctx context.Context, requesterID, ownerID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM CL_ACCESS_REQUEST
			WHERE REQUESTER_ID = ? AND OWNER_ID = ? AND STATUS = ?
		)
	`

	var exists bool
	err := dao.db.GetContext(ctx, &exists, query, requesterID, ownerID, models.StatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to check pending request: %w", err)
	}

	return exists, nil
}

// Approve flips a pending request to approved and persists the ledger
// references in the same statement. The STATUS guard makes the
// transition a single conditional update: a request that is no longer
// pending affects zero rows and the caller maps that to an invalid
// transition. References are written exactly once, alongside the flip.
func (dao *AccessRequestDAO) Approve(
	ctx context.Context,
	requestID string,
	approvedTime int64,
	proofRef, proofDigest, auditRef, scriptRef, networkID string,
) (int64, error) {
	query := `
		UPDATE CL_ACCESS_REQUEST
		SET STATUS = ?, APPROVED_TIME = ?, PRIVATE_PROOF_REF = ?,
		    PRIVATE_PROOF_DIGEST = ?, PUBLIC_AUDIT_REF = ?,
		    AUDIT_SCRIPT_REF = ?, AUDIT_NETWORK_ID = ?
		WHERE REQUEST_ID = ? AND STATUS = ?
	`

	result, err := dao.db.ExecContext(
		ctx,
		query,
		models.StatusApproved,
		approvedTime,
		proofRef,
		proofDigest,
		auditRef,
		scriptRef,
		networkID,
		requestID,
		models.StatusPending,
	)

	if err != nil {
		return 0, fmt.Errorf("failed to approve access request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// Reject flips a pending request to rejected, guarded the same way as
// Approve.
func (dao *AccessRequestDAO) Reject(ctx context.Context, requestID string) (int64, error) {
	query := `
		UPDATE CL_ACCESS_REQUEST
		SET STATUS = ?
		WHERE REQUEST_ID = ? AND STATUS = ?
	`

	result, err := dao.db.ExecContext(ctx, query, models.StatusRejected, requestID, models.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("failed to reject access request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// DeleteWithTx deletes an access request using a transaction. Granted
// payload rows cascade with the parent request.
func (dao *AccessRequestDAO) DeleteWithTx(ctx context.Context, tx *database.Transaction, requestID string) error {
	query := `DELETE FROM CL_ACCESS_REQUEST WHERE REQUEST_ID = ?`

	result, err := tx.ExecContext(ctx, query, requestID)
	if err != nil {
		return fmt.Errorf("failed to delete access request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("access request %s: %w", requestID, ErrNotFound)
	}

	return nil
}
