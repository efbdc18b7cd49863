package utils

import (
	"github.com/google/uuid"
)

// GenerateID generates a new UUID for generic identifiers
func GenerateID() string {
	return uuid.New().String()
}

// GenerateRequestID generates a unique access request ID
func GenerateRequestID() string {
	return "REQ-" + uuid.New().String()
}

// GenerateTxRef generates a unique audit transaction reference
func GenerateTxRef() string {
	return "TX-" + uuid.New().String()
}
