// Package audit commits tamper-evident, publicly verifiable records
// referencing a consent proof digest. Two backends exist: a networked
// ledger client and a local deterministic one used when no network
// credentials are configured.
package audit

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/medledger/consent-ledger-api/internal/config"
)

// degradedNetworkID labels records produced without ledger credentials
const degradedNetworkID = "local-unconfigured"

// RecordParams are the inputs to an audit commitment. RequestID keys
// the off-chain index used when true on-chain embedding is unavailable.
type RecordParams struct {
	RequestID   string
	OwnerID     string
	RequesterID string
	Digest      string
	Timestamp   int64
}

// Record is the ephemeral result of an audit commitment. Its references
// are copied onto the owning access request.
type Record struct {
	TxRef       string
	ScriptRef   string
	NetworkID   string
	IsFinalized bool
}

// ExistsQuery carries both verification signals: the request identity
// for a direct ledger lookup and the locally persisted reference+digest
// pair for the fallback check.
type ExistsQuery struct {
	RequestID string
	Digest    string
	TxRef     string
}

// Existence is the outcome of an audit verification. LocalOnly marks
// the weaker fallback check against persisted references, as opposed to
// a direct ledger query.
type Existence struct {
	Exists    bool
	LocalOnly bool
}

// Provider is the public audit backend
type Provider interface {
	Record(ctx context.Context, params RecordParams) (*Record, error)
	Exists(ctx context.Context, query ExistsQuery) (*Existence, error)
}

// NewProvider constructs the configured audit backend. The provider is
// built once at process start and passed by reference.
func NewProvider(cfg *config.AuditConfig, logger *logrus.Logger) (Provider, error) {
	switch cfg.Mode {
	case "", "local":
		return NewLocalProvider(cfg, logger), nil
	case "remote":
		return NewRemoteProvider(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown audit provider mode: %s", cfg.Mode)
	}
}
