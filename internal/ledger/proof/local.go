package proof

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/medledger/consent-ledger-api/pkg/utils"
)

// LocalProvider computes proof digests in-process from a fixed
// application salt. It never fails on network conditions, so it is the
// default backend for development deployments.
type LocalProvider struct {
	salt   string
	logger *logrus.Logger
}

// NewLocalProvider creates a local proof provider
func NewLocalProvider(salt string, logger *logrus.Logger) *LocalProvider {
	return &LocalProvider{
		salt:   salt,
		logger: logger,
	}
}

// Submit computes the digest for the given consent parameters. The
// digest is a pure function of the parameters and the salt, so a replay
// with identical inputs yields an identical digest.
func (p *LocalProvider) Submit(ctx context.Context, params Params) (*ConsentProof, error) {
	digest := p.computeDigest(params)

	p.logger.WithFields(logrus.Fields{
		"request_id": params.RequestID,
		"scheme":     SchemeVersion,
	}).Debug("Computed local consent proof digest")

	return &ConsentProof{
		ProofRef:      "PROOF-" + digest[:32],
		Digest:        digest,
		GeneratedAt:   utils.GetCurrentTimeMillis(),
		SchemeVersion: SchemeVersion,
	}, nil
}

// VerifyDigest recomputes the digest from the supplied parameters and
// compares it against the expected value.
func (p *LocalProvider) VerifyDigest(ctx context.Context, params Params, expectedDigest string) (bool, error) {
	return p.computeDigest(params) == expectedDigest, nil
}

// computeDigest hashes the sorted, trimmed representations of all
// parameter fields plus the application salt.
func (p *LocalProvider) computeDigest(params Params) string {
	categories := make([]string, 0, len(params.Categories))
	for _, c := range params.Categories {
		categories = append(categories, strings.TrimSpace(c))
	}
	sort.Strings(categories)

	input := strings.Join([]string{
		strings.TrimSpace(params.OwnerID),
		strings.TrimSpace(params.RequesterID),
		strings.Join(categories, ","),
		strings.TrimSpace(params.RequestID),
		fmt.Sprintf("%d", params.Timestamp),
		p.salt,
	}, "|")

	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
