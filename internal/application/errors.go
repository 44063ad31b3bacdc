package application

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for common conditions
var (
	ErrStateNotFound = errors.New("no sync state found: run 'spacesync init' first")
	ErrStateExists   = errors.New("sync state already exists")
	ErrNotFound      = errors.New("not found")
	ErrInvalidPath   = errors.New("invalid path")
	ErrVersion       = errors.New("version conflict")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrCancelled     = errors.New("sync cancelled")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigError reports missing or invalid configuration
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

// FolderHierarchyCode classifies folder hierarchy failures
type FolderHierarchyCode string

const (
	CodeInvalidPath   FolderHierarchyCode = "INVALID_PATH"
	CodeDepthExceeded FolderHierarchyCode = "DEPTH_EXCEEDED"
	CodeFolderExists  FolderHierarchyCode = "FOLDER_EXISTS"
)

// FolderHierarchyError is a structural failure while mirroring a directory chain remotely.
// It aborts the whole run.
type FolderHierarchyError struct {
	Path   string
	Reason string
	Code   FolderHierarchyCode
	Err    error
}

func (e *FolderHierarchyError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("folder hierarchy [%s]: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("folder hierarchy [%s] %s: %s", e.Code, e.Path, e.Reason)
}

func (e *FolderHierarchyError) Unwrap() error {
	return e.Err
}

func (e *FolderHierarchyError) Is(target error) bool {
	return target == ErrInvalidPath && (e.Code == CodeInvalidPath || e.Code == CodeDepthExceeded)
}

// VersionConflictError means the remote page moved on since the local copy was pulled
type VersionConflictError struct {
	PageID string
	Local  int
	Remote int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict on page %s: local version %d, remote version %d; pull before pushing again",
		e.PageID, e.Local, e.Remote)
}

func (e *VersionConflictError) Is(target error) bool {
	return target == ErrVersion
}

// NotFoundError reports a remote object that does not exist
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("remote object %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// RateLimitError is surfaced once the client exhausted its retries
type RateLimitError struct {
	RetryAfter time.Duration // zero when the server gave no hint
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited by remote, retry after %s", e.RetryAfter)
	}
	return "rate limited by remote"
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// AuthError is a 401/403 from the remote
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (HTTP %d): check email and API token", e.StatusCode)
}

func (e *AuthError) Is(target error) bool {
	return target == ErrUnauthorized
}

// APIError is any other non-success response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// IsDuplicate reports whether the remote rejected a create because the name is taken
func (e *APIError) IsDuplicate() bool {
	if e.StatusCode != 400 && e.StatusCode != 409 {
		return false
	}
	return strings.Contains(strings.ToLower(e.Message), "already exists")
}

// NetworkError wraps transport failures
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// IsFatal reports whether err must abort a whole run instead of a single page
func IsFatal(err error) bool {
	var folderErr *FolderHierarchyError
	var configErr *ConfigError
	return errors.As(err, &folderErr) || errors.As(err, &configErr) || errors.Is(err, ErrStateNotFound)
}
