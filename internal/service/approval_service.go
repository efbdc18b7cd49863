package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/medledger/consent-ledger-api/internal/config"
	"github.com/medledger/consent-ledger-api/internal/dao"
	"github.com/medledger/consent-ledger-api/internal/ledger/audit"
	"github.com/medledger/consent-ledger-api/internal/ledger/proof"
	"github.com/medledger/consent-ledger-api/internal/models"
	"github.com/medledger/consent-ledger-api/pkg/utils"
)

// Placeholder reference prefixes for degraded ledger results. The
// prefix makes a locally synthesized reference recognizable wherever it
// surfaces later.
const (
	PlaceholderProofPrefix = "local-proof:"
	PlaceholderAuditPrefix = "unconfirmed:"
)

// ApprovalService drives the two-phase consent recording: private proof
// first, public audit second, then one atomic local write. Ledger
// failures never block approval; the local state transition is the
// source of truth and the degraded result is flagged per ledger.
type ApprovalService struct {
	requestStore  AccessRequestStore
	proofProvider proof.Provider
	auditProvider audit.Provider
	// localProof recomputes digests in-process when the configured
	// provider is unreachable, so a degraded approval still persists a
	// digest the release gate can re-derive.
	localProof *proof.LocalProvider
	ledgerCfg  *config.LedgerConfig
	logger     *logrus.Logger
}

// NewApprovalService creates a new approval service instance
func NewApprovalService(
	requestStore AccessRequestStore,
	proofProvider proof.Provider,
	auditProvider audit.Provider,
	ledgerCfg *config.LedgerConfig,
	logger *logrus.Logger,
) *ApprovalService {
	return &ApprovalService{
		requestStore:  requestStore,
		proofProvider: proofProvider,
		auditProvider: auditProvider,
		localProof:    proof.NewLocalProvider(ledgerCfg.Proof.Salt, logger),
		ledgerCfg:     ledgerCfg,
		logger:        logger,
	}
}

// Approve records consent on both ledgers best-effort and flips the
// request to approved in a single conditional write. The response
// carries a per-ledger isReal flag so callers can warn the counterparty
// when consent is only locally attested.
func (s *ApprovalService) Approve(ctx context.Context, requestID, ownerID string) (*models.ApprovalResponse, error) {
	request, err := s.requestStore.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load access request: %w", err)
	}

	if request.OwnerID != ownerID {
		return nil, ErrUnauthorized
	}
	if request.Status != models.StatusPending {
		return nil, ErrInvalidTransition
	}

	approvedTime := utils.GetCurrentTimeMillis()
	params := proof.Params{
		RequestID:   request.RequestID,
		OwnerID:     request.OwnerID,
		RequesterID: request.RequesterID,
		Categories:  request.Categories,
		Timestamp:   approvedTime,
	}

	proofResult := s.submitProof(ctx, params)
	auditResult := s.recordAudit(ctx, request, proofResult.Digest, approvedTime)

	// Single conditional write: the status flip and both ledger
	// references land together, guarded on the row still being pending.
	rows, err := s.requestStore.Approve(
		ctx,
		request.RequestID,
		approvedTime,
		proofResult.Ref,
		proofResult.Digest,
		auditResult.Ref,
		auditResult.ScriptRef,
		auditResult.Network,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to persist approval: %w", err)
	}
	if rows == 0 {
		// Lost the race to a concurrent approve/reject
		return nil, ErrInvalidTransition
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": request.RequestID,
		"owner_id":   ownerID,
		"proof_real": proofResult.IsReal,
		"audit_real": auditResult.IsReal,
	}).Info("Access request approved")

	return &models.ApprovalResponse{
		RequestID: request.RequestID,
		Proof:     proofResult,
		Audit:     auditResult,
	}, nil
}

// submitProof calls the proof provider under a bounded timeout and
// degrades to a locally tagged placeholder on any failure. The
// placeholder digest is still the deterministic local digest, so
// release-time verification can re-derive it from persisted data.
func (s *ApprovalService) submitProof(ctx context.Context, params proof.Params) models.LedgerProofResult {
	callCtx, cancel := context.WithTimeout(ctx, s.ledgerCfg.Proof.ProviderTimeout())
	defer cancel()

	result, err := s.proofProvider.Submit(callCtx, params)
	if err == nil {
		return models.LedgerProofResult{
			Ref:    result.ProofRef,
			Digest: result.Digest,
			IsReal: true,
		}
	}

	s.logger.WithError(err).WithField("request_id", params.RequestID).
		Warn("Proof provider degraded; substituting placeholder proof")

	fallback, fallbackErr := s.localProof.Submit(ctx, params)
	if fallbackErr != nil {
		// The local provider cannot fail, but keep the approval moving
		// regardless.
		fallback = &proof.ConsentProof{Digest: ""}
	}

	return models.LedgerProofResult{
		Ref:    PlaceholderProofPrefix + utils.GenerateID(),
		Digest: fallback.Digest,
		IsReal: false,
	}
}

// recordAudit calls the audit provider under a bounded timeout and
// degrades to a placeholder record on any failure.
func (s *ApprovalService) recordAudit(ctx context.Context, request *models.AccessRequest, digest string, approvedTime int64) models.LedgerAuditResult {
	callCtx, cancel := context.WithTimeout(ctx, s.ledgerCfg.Audit.ProviderTimeout())
	defer cancel()

	record, err := s.auditProvider.Record(callCtx, audit.RecordParams{
		RequestID:   request.RequestID,
		OwnerID:     request.OwnerID,
		RequesterID: request.RequesterID,
		Digest:      digest,
		Timestamp:   approvedTime,
	})
	if err == nil {
		return models.LedgerAuditResult{
			Ref:       record.TxRef,
			ScriptRef: record.ScriptRef,
			Network:   record.NetworkID,
			IsReal:    true,
		}
	}

	s.logger.WithError(err).WithField("request_id", request.RequestID).
		Warn("Audit provider degraded; substituting placeholder record")

	networkID := s.ledgerCfg.Audit.NetworkID
	if networkID == "" {
		networkID = "local-unconfigured"
	}

	return models.LedgerAuditResult{
		Ref:       PlaceholderAuditPrefix + utils.GenerateID(),
		ScriptRef: audit.ScriptAddress(s.ledgerCfg.Audit.VerificationScript, networkID),
		Network:   networkID,
		IsReal:    false,
	}
}
