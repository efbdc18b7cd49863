package access

// Request and response shapes mirrored from the server API

type AccessRequestCreate struct {
	RequesterID string   `json:"requesterId"`
	OwnerID     string   `json:"ownerId"`
	Categories  []string `json:"categories"`
	Reason      string   `json:"reason,omitempty"`
}

type AccessRequestCreated struct {
	RequestID string `json:"requestId"`
	CreatedAt int64  `json:"createdAt"`
}

type AccessDecision struct {
	RequestID string `json:"requestId"`
	OwnerID   string `json:"ownerId"`
}

type LedgerProofResult struct {
	Ref    string `json:"ref"`
	Digest string `json:"digest"`
	IsReal bool   `json:"isReal"`
}

type LedgerAuditResult struct {
	Ref       string `json:"ref"`
	ScriptRef string `json:"scriptRef"`
	Network   string `json:"network"`
	IsReal    bool   `json:"isReal"`
}

type ApprovalResponse struct {
	RequestID string            `json:"requestId"`
	Proof     LedgerProofResult `json:"proof"`
	Audit     LedgerAuditResult `json:"audit"`
}

type AccessRequestView struct {
	RequestID   string   `json:"requestId"`
	RequesterID string   `json:"requesterId"`
	OwnerID     string   `json:"ownerId"`
	Categories  []string `json:"categories"`
	Status      string   `json:"status"`
	CreatedTime int64    `json:"createdTime"`
}

type PendingRequestsResponse struct {
	Requests []AccessRequestView `json:"requests"`
}

type ReleaseRequest struct {
	RequestID   string `json:"requestId"`
	RequesterID string `json:"requesterId"`
}

type ReleaseVerification struct {
	Proof bool `json:"proof"`
	Audit bool `json:"audit"`
}

type ReleaseResponse struct {
	RequestID     string              `json:"requestId"`
	CiphertextRef string              `json:"ciphertextRef"`
	Verification  ReleaseVerification `json:"verification"`
}

type GrantFileRequest struct {
	RequestID string `json:"requestId"`
	FileRef   string `json:"fileRef"`
	Payload   string `json:"payload"`
	OwnerID   string `json:"ownerId"`
}

type GrantedFileResponse struct {
	RequestID string `json:"requestId"`
	FileRef   string `json:"fileRef"`
	Payload   string `json:"payload"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Reason  string `json:"reason,omitempty"`
}
