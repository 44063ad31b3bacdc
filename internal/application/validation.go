package application

import (
	"fmt"
	"strings"
	"unicode"

	"spacesync/internal/domain"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		// Format field name with spaces for error message (e.g., "spaceKey" -> "space key")
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "spaceKey" -> "space key")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"spaceKey": "space key",
		"workDir":  "working directory",
		"pageRef":  "page reference",
		"pageID":   "page ID",
		"depth":    "depth",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}

	return fieldName
}

// ValidateSpaceKey checks that a space key only uses the characters the remote accepts
func ValidateSpaceKey(fieldName, key string) error {
	if err := ValidateRequired(fieldName, key); err != nil {
		return err
	}
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '~' {
			return &ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("invalid %s: %s", formatFieldName(fieldName), key),
			}
		}
	}
	return nil
}

// ValidateDepth rejects negative depth limits; zero means unlimited
func ValidateDepth(fieldName string, depth int) error {
	if depth < 0 {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s must not be negative, got: %d", formatFieldName(fieldName), depth),
		}
	}
	return nil
}

// ValidateLocalPath rejects page paths that escape the working directory or
// point into the state directory
func ValidateLocalPath(fieldName, localPath string) error {
	if err := ValidateRequired(fieldName, localPath); err != nil {
		return err
	}
	normalized := domain.NormalizeLocalPath(localPath)
	if normalized == ".." || strings.HasPrefix(normalized, "../") || strings.HasPrefix(normalized, "/") {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s escapes the working directory: %s", formatFieldName(fieldName), localPath),
		}
	}
	if normalized == domain.StateDirName || strings.HasPrefix(normalized, domain.StateDirName+"/") {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s points into %s: %s", formatFieldName(fieldName), domain.StateDirName, localPath),
		}
	}
	return nil
}
