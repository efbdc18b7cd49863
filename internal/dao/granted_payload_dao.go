package dao

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medledger/consent-ledger-api/internal/database"
	"github.com/medledger/consent-ledger-api/internal/models"
)

// GrantedPayloadDAO handles database operations for relayed payloads
type GrantedPayloadDAO struct {
	db *database.DB
}

// NewGrantedPayloadDAO creates a new GrantedPayloadDAO instance
func NewGrantedPayloadDAO(db *database.DB) *GrantedPayloadDAO {
	return &GrantedPayloadDAO{db: db}
}

// Upsert writes a payload for (requestId, fileRef). Re-submission for
// the same key overwrites the prior payload; last write wins.
func (dao *GrantedPayloadDAO) Upsert(ctx context.Context, payload *models.GrantedPayload) error {
	query := `
		INSERT INTO CL_GRANTED_PAYLOAD (REQUEST_ID, FILE_REF, PAYLOAD, UPDATED_TIME)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE PAYLOAD = VALUES(PAYLOAD), UPDATED_TIME = VALUES(UPDATED_TIME)
	`

	_, err := dao.db.ExecContext(
		ctx,
		query,
		payload.RequestID,
		payload.FileRef,
		payload.Payload,
		payload.UpdatedTime,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert granted payload: %w", err)
	}

	return nil
}

// Get retrieves a payload by (requestId, fileRef)
func (dao *GrantedPayloadDAO) Get(ctx context.Context, requestID, fileRef string) (*models.GrantedPayload, error) {
	query := `
		SELECT REQUEST_ID, FILE_REF, PAYLOAD, UPDATED_TIME
		FROM CL_GRANTED_PAYLOAD
		WHERE REQUEST_ID = ? AND FILE_REF = ?
	`

	var payload models.GrantedPayload
	err := dao.db.GetContext(ctx, &payload, query, requestID, fileRef)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("granted payload %s/%s: %w", requestID, fileRef, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get granted payload: %w", err)
	}

	return &payload, nil
}

// DeleteByRequestIDWithTx removes all payloads for a request. Called
// inside the request deletion transaction so the cascade is atomic.
func (dao *GrantedPayloadDAO) DeleteByRequestIDWithTx(ctx context.Context, tx *database.Transaction, requestID string) error {
	query := `DELETE FROM CL_GRANTED_PAYLOAD WHERE REQUEST_ID = ?`

	if _, err := tx.ExecContext(ctx, query, requestID); err != nil {
		return fmt.Errorf("failed to delete granted payloads: %w", err)
	}

	return nil
}
