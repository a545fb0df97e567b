package pkg

import (
	"errors"
	"fmt"
	"net/http"
)

// Custom error types
var (
	// Visibility errors. Inactive categories and unpublished documents are
	// reported exactly like records that never existed.
	ErrCategoryNotFound = NewAppError("CATEGORY_NOT_FOUND", "Category not found", http.StatusNotFound)
	ErrFolderNotFound   = NewAppError("FOLDER_NOT_FOUND", "Folder not found", http.StatusNotFound)
	ErrDocumentNotFound = NewAppError("DOCUMENT_NOT_FOUND", "Document not found", http.StatusNotFound)
	ErrRequestNotFound  = NewAppError("REQUEST_NOT_FOUND", "Request not found", http.StatusNotFound)

	// Conflict errors
	ErrCategoryAlreadyExists = NewAppError("CATEGORY_ALREADY_EXISTS", "Category already exists", http.StatusConflict)
	ErrFolderAlreadyExists   = NewAppError("FOLDER_ALREADY_EXISTS", "A sibling folder with that name already exists", http.StatusConflict)
	ErrDuplicateTrackingCode = NewAppError("DUPLICATE_TRACKING_CODE", "Tracking code already in use", http.StatusConflict)

	// Validation errors
	ErrValidationFailed  = NewAppError("VALIDATION_FAILED", "Validation failed", http.StatusBadRequest)
	ErrInvalidInput      = NewAppError("INVALID_INPUT", "Invalid input data", http.StatusBadRequest)
	ErrInvalidExtension  = NewAppError("INVALID_EXTENSION", "File extension not allowed", http.StatusBadRequest)
	ErrInvalidTransition = NewAppError("INVALID_TRANSITION", "Request status transition not allowed", http.StatusBadRequest)

	// Tree integrity errors
	ErrFolderCycle      = NewAppError("FOLDER_CYCLE", "Folder parent chain revisits itself", http.StatusInternalServerError)
	ErrCategoryMismatch = NewAppError("CATEGORY_MISMATCH", "Folder category does not match its parent", http.StatusBadRequest)

	// StorageIntegrity: the record exists and is published but the payload is
	// gone from the blob store. Clients see a plain not-found; operators must
	// be able to tell the two apart in the logs.
	ErrStorageIntegrity = NewAppError("STORAGE_INTEGRITY", "Document payload missing from storage", http.StatusNotFound)

	ErrStorageProvider = NewAppError("STORAGE_PROVIDER_ERROR", "Storage provider error", http.StatusInternalServerError)

	// Notification failures are logged, never surfaced.
	ErrNotificationFailed = NewAppError("NOTIFICATION_FAILED", "Notification dispatch failed", http.StatusInternalServerError)

	// Authorization errors (staff-only surface)
	ErrUnauthorized  = NewAppError("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrStaffRequired = NewAppError("STAFF_REQUIRED", "Staff privileges required", http.StatusForbidden)

	// System errors
	ErrInternalServer = NewAppError("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrDatabaseError  = NewAppError("DATABASE_ERROR", "Database error", http.StatusInternalServerError)
)

// AppError represents an application-specific error
type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %s)", e.Code, e.Message, e.Cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetails returns a copy of the error with details attached
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

// WithCause returns a copy of the error with a cause attached
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// Is lets errors.Is match decorated copies against their sentinel by code.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if errors.As(target, &appErr) {
		return e.Code == appErr.Code
	}
	return false
}

// NewAppError creates a new application error
func NewAppError(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// ValidationError represents a single field-level validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", ve[0].Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) ValidationError {
	return ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// IsAppError checks if error is an AppError
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// WrapError wraps an error with an AppError
func WrapError(err error, code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Cause:      err,
	}
}
