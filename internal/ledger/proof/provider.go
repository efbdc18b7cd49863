// Package proof attests that consent happened without revealing its
// parameters publicly. The digest scheme is a salted SHA-256 stand-in
// for a real zero-knowledge backend; any replacement only has to keep
// Submit and VerifyDigest deterministic inverses of each other.
package proof

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/medledger/consent-ledger-api/internal/config"
)

// SchemeVersion identifies the active digest scheme
const SchemeVersion = "sha256-v1"

// Params are the consent parameters bound into a proof digest
type Params struct {
	RequestID   string
	OwnerID     string
	RequesterID string
	Categories  []string
	Timestamp   int64
}

// ConsentProof is the ephemeral result of a proof submission. Its
// ProofRef and Digest are copied onto the owning access request; the
// value itself is never persisted.
type ConsentProof struct {
	ProofRef      string
	Digest        string
	GeneratedAt   int64
	SchemeVersion string
}

// Provider is the private proof backend. Implementations must be
// deterministic: VerifyDigest(p, Submit(p).Digest) is always true.
type Provider interface {
	Submit(ctx context.Context, params Params) (*ConsentProof, error)
	VerifyDigest(ctx context.Context, params Params, expectedDigest string) (bool, error)
}

// NewProvider constructs the configured proof backend. The provider is
// built once at process start and passed by reference.
func NewProvider(cfg *config.ProofConfig, logger *logrus.Logger) (Provider, error) {
	switch cfg.Mode {
	case "", "local":
		return NewLocalProvider(cfg.Salt, logger), nil
	case "remote":
		return NewRemoteProvider(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown proof provider mode: %s", cfg.Mode)
	}
}
