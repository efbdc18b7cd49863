package service

import (
	"bytes"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/medledger/consent-ledger-api/internal/config"
	"github.com/medledger/consent-ledger-api/internal/models"
)

// newTestLogger returns a logger that stays quiet during tests
func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newTestLedgerConfig returns a minimal local-mode ledger configuration
func newTestLedgerConfig() *config.LedgerConfig {
	return &config.LedgerConfig{
		Proof: config.ProofConfig{
			Mode: "local",
			Salt: "test-salt",
		},
		Audit: config.AuditConfig{
			Mode:               "local",
			VerificationScript: "consent-verification-v1",
		},
	}
}

// newPendingRequest builds a pending access request row for tests
func newPendingRequest() *models.AccessRequest {
	return &models.AccessRequest{
		RequestID:   "REQ-11111111-1111-1111-1111-111111111111",
		RequesterID: "clinic-42",
		OwnerID:     "patient-7",
		Categories:  models.StringSlice{"lab-results", "prescriptions"},
		Status:      models.StatusPending,
		CreatedTime: 1700000000000,
	}
}

// newApprovedRequest builds an approved row carrying ledger references
func newApprovedRequest() *models.AccessRequest {
	row := newPendingRequest()
	row.Status = models.StatusApproved
	row.ApprovedTime = i64Ptr(1700000100000)
	row.PrivateProofRef = strPtr("PROOF-abc")
	row.PrivateProofDigest = strPtr("digest-abc")
	row.PublicAuditRef = strPtr("TX-abc")
	row.AuditScriptRef = strPtr("script1abc")
	row.AuditNetworkID = strPtr("preprod")
	return row
}

// newTestSealKey returns a fixed 32-byte envelope key
func newTestSealKey() []byte {
	return bytes.Repeat([]byte{0x2a}, 32)
}

func strPtr(s string) *string {
	return &s
}

func i64Ptr(v int64) *int64 {
	return &v
}
