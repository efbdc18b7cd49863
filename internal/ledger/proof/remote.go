package proof

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

// RemoteProvider submits consent parameters to a networked proof
// service. Any failure surfaces as an error; the orchestrator decides
// whether to degrade to a placeholder.
type RemoteProvider struct {
	httpClient *http.Client
	config     *config.ProofConfig
	logger     *logrus.Logger
}

type remoteSubmitRequest struct {
	RequestID   string   `json:"requestId"`
	OwnerID     string   `json:"ownerId"`
	RequesterID string   `json:"requesterId"`
	Categories  []string `json:"categories"`
	Timestamp   int64    `json:"timestamp"`
}

type remoteSubmitResponse struct {
	ProofRef    string `json:"proofRef"`
	Digest      string `json:"digest"`
	GeneratedAt int64  `json:"generatedAt"`
	Scheme      string `json:"scheme"`
}

type remoteVerifyRequest struct {
	remoteSubmitRequest
	ExpectedDigest string `json:"expectedDigest"`
}

type remoteVerifyResponse struct {
	Valid bool `json:"valid"`
}

// NewRemoteProvider creates a proof provider backed by an HTTP service
func NewRemoteProvider(cfg *config.ProofConfig, logger *logrus.Logger) *RemoteProvider {
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

// Submit posts the consent parameters to the proof service
func (p *RemoteProvider) Submit(ctx context.Context, params Params) (*ConsentProof, error) {
	body := remoteSubmitRequest{
		RequestID:   params.RequestID,
		OwnerID:     params.OwnerID,
		RequesterID: params.RequesterID,
		Categories:  params.Categories,
		Timestamp:   params.Timestamp,
	}

	var resp remoteSubmitResponse
	if err := p.post(ctx, "/proofs", body, &resp); err != nil {
		return nil, err
	}

	if resp.ProofRef == "" || resp.Digest == "" {
		return nil, fmt.Errorf("proof service returned an incomplete proof")
	}

	scheme := resp.Scheme
	if scheme == "" {
		scheme = SchemeVersion
	}

	return &ConsentProof{
		ProofRef:      resp.ProofRef,
		Digest:        resp.Digest,
		GeneratedAt:   resp.GeneratedAt,
		SchemeVersion: scheme,
	}, nil
}

// VerifyDigest asks the proof service to recheck a digest
func (p *RemoteProvider) VerifyDigest(ctx context.Context, params Params, expectedDigest string) (bool, error) {
	body := remoteVerifyRequest{
		remoteSubmitRequest: remoteSubmitRequest{
			RequestID:   params.RequestID,
			OwnerID:     params.OwnerID,
			RequesterID: params.RequesterID,
			Categories:  params.Categories,
			Timestamp:   params.Timestamp,
		},
		ExpectedDigest: expectedDigest,
	}

	var resp remoteVerifyResponse
	if err := p.post(ctx, "/proofs/verify", body, &resp); err != nil {
		return false, err
	}

	return resp.Valid, nil
}

func (p *RemoteProvider) post(ctx context.Context, endpoint string, body, out interface{}) error {
	url := p.config.Endpoint + endpoint

	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.WithError(err).WithField("url", url).Warn("Proof service call failed")
		return fmt.Errorf("proof service unreachable: %w", err)
	}
	defer resp.Body.Close()

	p.logger.WithFields(logrus.Fields{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(startTime),
	}).Debug("Proof service call completed")

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("proof service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode proof service response: %w", err)
	}

	return nil
}
