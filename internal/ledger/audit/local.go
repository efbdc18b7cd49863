package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/medledger/consent-ledger-api/internal/config"
	"github.com/medledger/consent-ledger-api/pkg/utils"
)

// LocalProvider synthesizes structurally valid audit records without a
// ledger connection so the pipeline can run end to end in development.
// Records are never finalized and the network is labeled as degraded
// when no network id is configured.
type LocalProvider struct {
	config *config.AuditConfig
	logger *logrus.Logger

	mu    sync.RWMutex
	index map[string]string // requestID -> digest, the off-chain index
}

// NewLocalProvider creates a local audit provider
func NewLocalProvider(cfg *config.AuditConfig, logger *logrus.Logger) *LocalProvider {
	return &LocalProvider{
		config: cfg,
		logger: logger,
		index:  make(map[string]string),
	}
}

// Record commits the digest to the in-process off-chain index and
// returns a record with a deterministic script reference.
func (p *LocalProvider) Record(ctx context.Context, params RecordParams) (*Record, error) {
	networkID := p.config.NetworkID
	if networkID == "" {
		networkID = degradedNetworkID
		p.logger.WithField("request_id", params.RequestID).
			Warn("Audit network is not configured; committing to local index only")
	}

	p.mu.Lock()
	p.index[params.RequestID] = params.Digest
	p.mu.Unlock()

	return &Record{
		TxRef:       utils.GenerateTxRef(),
		ScriptRef:   ScriptAddress(p.config.VerificationScript, networkID),
		NetworkID:   networkID,
		IsFinalized: false,
	}, nil
}

// Exists checks the off-chain index first; if the entry is gone (for
// example after a restart) it falls back to the persisted
// reference+digest pair, which is the weaker signal.
func (p *LocalProvider) Exists(ctx context.Context, query ExistsQuery) (*Existence, error) {
	p.mu.RLock()
	indexed, ok := p.index[query.RequestID]
	p.mu.RUnlock()

	if ok {
		return &Existence{
			Exists:    indexed == query.Digest,
			LocalOnly: true,
		}, nil
	}

	return &Existence{
		Exists:    query.TxRef != "" && query.Digest != "",
		LocalOnly: true,
	}, nil
}

// ScriptAddress computes the deterministic contract address for a fixed
// verification script on a given network.
func ScriptAddress(script, networkID string) string {
	sum := sha256.Sum256([]byte(script + "@" + networkID))
	return "script1" + hex.EncodeToString(sum[:])[:40]
}
