package utils

import (
	"fmt"
	"strings"
)

// Record categories an owner can grant access to. These mirror the
// category labels used by the portal when building a request.
var validCategories = map[string]bool{
	"lab-results":   true,
	"prescriptions": true,
	"imaging":       true,
	"visit-notes":   true,
	"immunizations": true,
	"billing":       true,
	"demographics":  true,
}

// ValidateRequestID validates access request ID format
func ValidateRequestID(requestID string) error {
	if requestID == "" {
		return fmt.Errorf("request ID cannot be empty")
	}
	if len(requestID) > 255 {
		return fmt.Errorf("request ID too long (max 255 characters)")
	}
	return nil
}

// ValidateActorID validates an owner or requester identity
func ValidateActorID(fieldName, actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	if len(actorID) > 255 {
		return fmt.Errorf("%s too long (max 255 characters)", fieldName)
	}
	return nil
}

// ValidateCategories validates the requested category set
func ValidateCategories(categories []string) error {
	if len(categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	for _, c := range categories {
		if !validCategories[strings.TrimSpace(c)] {
			return fmt.Errorf("invalid category: %s", c)
		}
	}
	return nil
}

// ValidateFileRef validates a granted file reference
func ValidateFileRef(fileRef string) error {
	if strings.TrimSpace(fileRef) == "" {
		return fmt.Errorf("file reference cannot be empty")
	}
	if len(fileRef) > 512 {
		return fmt.Errorf("file reference too long (max 512 characters)")
	}
	if strings.Contains(fileRef, "..") {
		return fmt.Errorf("file reference must not contain path traversal")
	}
	return nil
}

// ValidateRequired validates that a field is not empty
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateMaxLength validates maximum string length
func ValidateMaxLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%s exceeds maximum length of %d characters", fieldName, maxLength)
	}
	return nil
}

// SanitizeString removes dangerous characters from user input
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.TrimSpace(input)
	return input
}
