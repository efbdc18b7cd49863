package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/medledger/consent-ledger-api/internal/config"
)

// RemoteProvider commits audit records through a ledger gateway over
// HTTP. Exists queries the ledger directly and only falls back to the
// persisted reference pair when the ledger is unreachable.
type RemoteProvider struct {
	httpClient *http.Client
	config     *config.AuditConfig
	logger     *logrus.Logger
}

type remoteRecordRequest struct {
	RequestID   string `json:"requestId"`
	OwnerID     string `json:"ownerId"`
	RequesterID string `json:"requesterId"`
	Digest      string `json:"digest"`
	Timestamp   int64  `json:"timestamp"`
	ScriptRef   string `json:"scriptRef"`
	NetworkID   string `json:"networkId"`
}

type remoteRecordResponse struct {
	TxRef       string `json:"txRef"`
	ScriptRef   string `json:"scriptRef"`
	NetworkID   string `json:"networkId"`
	IsFinalized bool   `json:"isFinalized"`
}

type remoteExistsResponse struct {
	Exists bool `json:"exists"`
}

// NewRemoteProvider creates an audit provider backed by a ledger gateway
func NewRemoteProvider(cfg *config.AuditConfig, logger *logrus.Logger) *RemoteProvider {
	return &RemoteProvider{
		httpClient: &http.Client{
			Timeout: cfg.ProviderTimeout(),
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		config: cfg,
		logger: logger,
	}
}

// Record commits a reference embedding the digest to the ledger
func (p *RemoteProvider) Record(ctx context.Context, params RecordParams) (*Record, error) {
	body := remoteRecordRequest{
		RequestID:   params.RequestID,
		OwnerID:     params.OwnerID,
		RequesterID: params.RequesterID,
		Digest:      params.Digest,
		Timestamp:   params.Timestamp,
		ScriptRef:   ScriptAddress(p.config.VerificationScript, p.config.NetworkID),
		NetworkID:   p.config.NetworkID,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record request: %w", err)
	}

	url := p.config.Endpoint + "/commitments"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.WithError(err).WithField("url", url).Warn("Audit ledger call failed")
		return nil, fmt.Errorf("audit ledger unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("audit ledger returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var out remoteRecordResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode audit ledger response: %w", err)
	}

	if out.TxRef == "" {
		return nil, fmt.Errorf("audit ledger returned an empty transaction reference")
	}

	networkID := out.NetworkID
	if networkID == "" {
		networkID = p.config.NetworkID
	}

	return &Record{
		TxRef:       out.TxRef,
		ScriptRef:   out.ScriptRef,
		NetworkID:   networkID,
		IsFinalized: out.IsFinalized,
	}, nil
}

// Exists queries the ledger for a commitment containing the digest.
// An unreachable ledger is not a hard failure: the check degrades to
// the persisted reference+digest pair and the outcome is marked
// LocalOnly so callers can tell the weaker signal apart.
func (p *RemoteProvider) Exists(ctx context.Context, query ExistsQuery) (*Existence, error) {
	url := fmt.Sprintf("%s/commitments/%s?digest=%s", p.config.Endpoint, query.RequestID, query.Digest)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.WithError(err).WithField("request_id", query.RequestID).
			Warn("Audit ledger query failed; falling back to persisted references")
		return &Existence{
			Exists:    query.TxRef != "" && query.Digest != "",
			LocalOnly: true,
		}, nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var out remoteExistsResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("failed to decode audit ledger response: %w", err)
		}
		return &Existence{Exists: out.Exists, LocalOnly: false}, nil
	case http.StatusNotFound:
		return &Existence{Exists: false, LocalOnly: false}, nil
	default:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("audit ledger returned status %d: %s", resp.StatusCode, string(respBody))
	}
}
