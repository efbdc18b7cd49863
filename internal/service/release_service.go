package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/medledger/consent-ledger-api/internal/config"
	"github.com/medledger/consent-ledger-api/internal/dao"
	"github.com/medledger/consent-ledger-api/internal/ledger/audit"
	"github.com/medledger/consent-ledger-api/internal/ledger/proof"
	"github.com/medledger/consent-ledger-api/internal/models"
)

// ReleaseService is the gate in front of any data release: both ledger
// references are re-verified against the persisted digest before a
// ciphertext handle is returned. Verify-then-fetch, never the reverse.
type ReleaseService struct {
	requestStore  AccessRequestStore
	proofProvider proof.Provider
	auditProvider audit.Provider
	localProof    *proof.LocalProvider
	ledgerCfg     *config.LedgerConfig
	logger        *logrus.Logger
}

// NewReleaseService creates a new release gate instance
func NewReleaseService(
	requestStore AccessRequestStore,
	proofProvider proof.Provider,
	auditProvider audit.Provider,
	ledgerCfg *config.LedgerConfig,
	logger *logrus.Logger,
) *ReleaseService {
	return &ReleaseService{
		requestStore:  requestStore,
		proofProvider: proofProvider,
		auditProvider: auditProvider,
		localProof:    proof.NewLocalProvider(ledgerCfg.Proof.Salt, logger),
		ledgerCfg:     ledgerCfg,
		logger:        logger,
	}
}

// Release verifies both ledger references for an approved request and,
// only after both checks pass, returns the envelope reference. The two
// checks are independent and run concurrently.
func (s *ReleaseService) Release(ctx context.Context, requestID, requesterID string) (*models.ReleaseResponse, error) {
	request, err := s.requestStore.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load access request: %w", err)
	}

	if request.Status != models.StatusApproved || request.RequesterID != requesterID {
		return nil, ErrForbidden
	}
	if request.ApprovedTime == nil || request.PrivateProofDigest == nil {
		// Approved rows always carry references; a gap here is data
		// corruption, not a caller error.
		return nil, fmt.Errorf("approved request %s is missing ledger references", requestID)
	}

	var proofOK, auditOK bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ok, err := s.verifyProof(gctx, request)
		proofOK = ok
		return err
	})
	g.Go(func() error {
		ok, err := s.verifyAudit(gctx, request)
		auditOK = ok
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("release verification errored: %w", err)
	}

	if !proofOK {
		s.logger.WithField("request_id", requestID).Warn("Release denied: proof digest mismatch")
		return nil, &VerificationError{Reason: models.ReasonProofVerificationFailed}
	}
	if !auditOK {
		s.logger.WithField("request_id", requestID).Warn("Release denied: audit record missing")
		return nil, &VerificationError{Reason: models.ReasonAuditVerificationFailed}
	}

	s.logger.WithFields(logrus.Fields{
		"request_id":   requestID,
		"requester_id": requesterID,
	}).Info("Release gate passed")

	return &models.ReleaseResponse{
		RequestID:     requestID,
		CiphertextRef: envelopeRef(request),
		Verification:  models.ReleaseVerification{Proof: true, Audit: true},
	}, nil
}

// verifyProof re-derives the digest from the persisted parameters. If
// the configured provider is unreachable, it falls back to the local
// deterministic recomputation: verification depends on persisted data,
// not on live provider reachability.
func (s *ReleaseService) verifyProof(ctx context.Context, request *models.AccessRequest) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.ledgerCfg.Proof.ProviderTimeout())
	defer cancel()

	params := proof.Params{
		RequestID:   request.RequestID,
		OwnerID:     request.OwnerID,
		RequesterID: request.RequesterID,
		Categories:  request.Categories,
		Timestamp:   *request.ApprovedTime,
	}

	ok, err := s.proofProvider.VerifyDigest(callCtx, params, *request.PrivateProofDigest)
	if err == nil {
		return ok, nil
	}

	s.logger.WithError(err).WithField("request_id", request.RequestID).
		Warn("Proof provider unreachable during release; verifying locally")

	return s.localProof.VerifyDigest(ctx, params, *request.PrivateProofDigest)
}

// verifyAudit checks the public ledger for the persisted digest. The
// provider itself degrades to the persisted reference pair when the
// ledger is unreachable; a local-only outcome is logged as the weaker
// signal.
func (s *ReleaseService) verifyAudit(ctx context.Context, request *models.AccessRequest) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.ledgerCfg.Audit.ProviderTimeout())
	defer cancel()

	var txRef string
	if request.PublicAuditRef != nil {
		txRef = *request.PublicAuditRef
	}

	existence, err := s.auditProvider.Exists(callCtx, audit.ExistsQuery{
		RequestID: request.RequestID,
		Digest:    *request.PrivateProofDigest,
		TxRef:     txRef,
	})
	if err != nil {
		return false, err
	}

	if existence.LocalOnly {
		s.logger.WithField("request_id", request.RequestID).
			Warn("Audit verification used local references only; ledger not consulted")
	}

	return existence.Exists, nil
}

// envelopeRef builds the opaque reference to the owner's encrypted
// payload in the blob store. Only a ciphertext handle leaves the gate;
// decryption stays with the counterparty.
func envelopeRef(request *models.AccessRequest) string {
	return fmt.Sprintf("vault://%s/%s", request.OwnerID, request.RequestID)
}
