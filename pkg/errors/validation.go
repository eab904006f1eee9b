package errors

import (
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

// Search limits accepted from callers. The search is exponential, so the
// server refuses problems beyond these sizes.
const (
	MaxNodes     = 4096
	MaxTreeDepth = 64
)

// ValidateBounds checks a depth bound and a first-level quota.
func ValidateBounds(maxDepth, l1Quota int) error {
	if maxDepth < 1 {
		return New(ErrCodeInvalidBounds, "max depth must be at least 1, got %d", maxDepth)
	}
	if maxDepth > MaxTreeDepth {
		return New(ErrCodeInvalidBounds, "max depth too large (max %d)", MaxTreeDepth)
	}
	if l1Quota < 1 {
		return New(ErrCodeInvalidBounds, "first-level quota must be at least 1, got %d", l1Quota)
	}
	return nil
}

// ValidateNodeCount checks the number of regions including the canvas.
func ValidateNodeCount(n int) error {
	if n < 1 {
		return New(ErrCodeInvalidGraph, "problem needs at least the canvas node")
	}
	if n > MaxNodes {
		return New(ErrCodeInvalidGraph, "too many nodes: %d (max %d)", n, MaxNodes)
	}
	return nil
}

// ValidateFormat checks that format is one of allowed.
func ValidateFormat(format string, allowed ...string) error {
	if slices.Contains(allowed, format) {
		return nil
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}

// ValidatePath checks a user-supplied output path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..) after cleaning
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if slices.Contains(strings.Split(filepath.ToSlash(filepath.Clean(path)), "/"), "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}
	return nil
}
