package models

// GrantedPayload represents the CL_GRANTED_PAYLOAD table. One row per
// (requestId, fileRef): a payload the owner decrypted with their own
// envelope key and re-sealed for pickup by the approved counterparty.
// Rows cascade-delete with the parent access request.
type GrantedPayload struct {
	RequestID   string `db:"REQUEST_ID" json:"requestId"`
	FileRef     string `db:"FILE_REF" json:"fileRef"`
	Payload     string `db:"PAYLOAD" json:"payload"`
	UpdatedTime int64  `db:"UPDATED_TIME" json:"updatedTime"`
}

// GrantFileRequest represents the payload for POST /access/grant-file
type GrantFileRequest struct {
	RequestID string `json:"requestId" binding:"required"`
	FileRef   string `json:"fileRef" binding:"required"`
	Payload   string `json:"payload" binding:"required"`
	OwnerID   string `json:"ownerId" binding:"required"`
}

// GrantFileResponse represents the response for POST /access/grant-file
type GrantFileResponse struct {
	RequestID string `json:"requestId"`
	FileRef   string `json:"fileRef"`
}

// GrantedFileResponse represents the response for GET /access/view-granted-file
type GrantedFileResponse struct {
	RequestID string `json:"requestId"`
	FileRef   string `json:"fileRef"`
	Payload   string `json:"payload"`
}
