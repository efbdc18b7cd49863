package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Access request lifecycle statuses. Pending transitions exactly once
// to approved or rejected; both are terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// AccessRequest represents the CL_ACCESS_REQUEST table
type AccessRequest struct {
	RequestID          string      `db:"REQUEST_ID" json:"requestId"`
	RequesterID        string      `db:"REQUESTER_ID" json:"requesterId"`
	OwnerID            string      `db:"OWNER_ID" json:"ownerId"`
	Categories         StringSlice `db:"CATEGORIES" json:"categories"`
	Reason             *string     `db:"REASON" json:"reason,omitempty"`
	Status             string      `db:"STATUS" json:"status"`
	CreatedTime        int64       `db:"CREATED_TIME" json:"createdTime"`
	ApprovedTime       *int64      `db:"APPROVED_TIME" json:"approvedTime,omitempty"`
	PrivateProofRef    *string     `db:"PRIVATE_PROOF_REF" json:"privateProofRef,omitempty"`
	PrivateProofDigest *string     `db:"PRIVATE_PROOF_DIGEST" json:"privateProofDigest,omitempty"`
	PublicAuditRef     *string     `db:"PUBLIC_AUDIT_REF" json:"publicAuditRef,omitempty"`
	AuditScriptRef     *string     `db:"AUDIT_SCRIPT_REF" json:"auditScriptRef,omitempty"`
	AuditNetworkID     *string     `db:"AUDIT_NETWORK_ID" json:"auditNetworkId,omitempty"`
}

// GetCreatedTime returns the created time as a time.Time
func (r *AccessRequest) GetCreatedTime() time.Time {
	return time.Unix(0, r.CreatedTime*int64(time.Millisecond))
}

// IsTerminal reports whether the request has reached a terminal state
func (r *AccessRequest) IsTerminal() bool {
	return r.Status == StatusApproved || r.Status == StatusRejected
}

// StringSlice stores a string set as a JSON array column in MySQL
type StringSlice []string

// Scan implements the sql.Scanner interface for StringSlice
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringSlice: %T", value)
	}

	var out []string
	if err := json.Unmarshal(bytes, &out); err != nil {
		return fmt.Errorf("invalid JSON array: %w", err)
	}

	*s = out
	return nil
}

// Value implements the driver.Valuer interface for StringSlice
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal([]string(s))
}

// AccessRequestCreateRequest represents the payload for POST /access/request
type AccessRequestCreateRequest struct {
	RequesterID string   `json:"requesterId" binding:"required"`
	OwnerID     string   `json:"ownerId" binding:"required"`
	Categories  []string `json:"categories" binding:"required"`
	Reason      string   `json:"reason,omitempty"`
}

// AccessRequestCreateResponse represents the response for POST /access/request
type AccessRequestCreateResponse struct {
	RequestID string `json:"requestId"`
	CreatedAt int64  `json:"createdAt"`
}

// AccessDecisionRequest represents the payload for approve and reject calls
type AccessDecisionRequest struct {
	RequestID string `json:"requestId" binding:"required"`
	OwnerID   string `json:"ownerId" binding:"required"`
}

// LedgerProofResult reports the private proof outcome of an approval.
// IsReal is false when the proof service was unreachable and a locally
// synthesized placeholder was substituted.
type LedgerProofResult struct {
	Ref    string `json:"ref"`
	Digest string `json:"digest"`
	IsReal bool   `json:"isReal"`
}

// LedgerAuditResult reports the public audit outcome of an approval
type LedgerAuditResult struct {
	Ref       string `json:"ref"`
	ScriptRef string `json:"scriptRef"`
	Network   string `json:"network"`
	IsReal    bool   `json:"isReal"`
}

// ApprovalResponse represents the response for POST /access/approve
type ApprovalResponse struct {
	RequestID string            `json:"requestId"`
	Proof     LedgerProofResult `json:"proof"`
	Audit     LedgerAuditResult `json:"audit"`
}

// RejectionResponse represents the response for POST /access/reject
type RejectionResponse struct {
	RequestID string `json:"requestId"`
}

// ReleaseRequest represents the payload for POST /access/release
type ReleaseRequest struct {
	RequestID   string `json:"requestId" binding:"required"`
	RequesterID string `json:"requesterId" binding:"required"`
}

// ReleaseVerification reports the two independent ledger checks
type ReleaseVerification struct {
	Proof bool `json:"proof"`
	Audit bool `json:"audit"`
}

// ReleaseResponse represents the response for POST /access/release.
// CiphertextRef is an envelope reference, never plaintext; decryption
// remains the counterparty's responsibility.
type ReleaseResponse struct {
	RequestID     string              `json:"requestId"`
	CiphertextRef string              `json:"ciphertextRef"`
	Verification  ReleaseVerification `json:"verification"`
}

// PendingRequestsResponse represents the response for GET /access/pending
type PendingRequestsResponse struct {
	Requests []AccessRequest `json:"requests"`
}
