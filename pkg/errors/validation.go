package errors

import (
	"strings"
	"unicode"
)

// MaxViewLevel is the deepest view level (fields).
const MaxViewLevel = 4

// ValidateViewLevel checks that a view level is within 0 (packages) and
// MaxViewLevel (fields).
func ValidateViewLevel(level int) error {
	if level < 0 || level > MaxViewLevel {
		return New(ErrCodeInvalidViewLevel, "view level %d out of range (must be 0-%d)", level, MaxViewLevel)
	}
	return nil
}

// ValidateNodeID validates a node identifier received from an API caller.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of 1024 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}
	if len(id) > 1024 {
		return New(ErrCodeInvalidInput, "node id too long (max 1024 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid control characters")
		}
	}
	return nil
}

// ValidatePath validates a local input path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	if len(path) > 4096 {
		return New(ErrCodeInvalidPath, "path too long (max 4096 characters)")
	}
	if strings.ContainsRune(path, 0) {
		return New(ErrCodeInvalidPath, "path contains null bytes")
	}
	return nil
}
