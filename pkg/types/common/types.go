// Package common holds the shared identifier and paging vocabulary used
// across the casework service.
package common

import (
	"github.com/google/uuid"
)

// ID is a string alias for UUID v4.
type ID string

// NewID returns a freshly generated UUID v4 as an ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// UserID identifies an actor (case officer, inspector, system process).
type UserID string

// Metadata is an open-ended key-value bag attached to events and audit rows.
type Metadata map[string]interface{}

// Pagination defines parameters for paginated listings.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total,omitempty"`
}

// ErrorDetail provides structured error information for API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
