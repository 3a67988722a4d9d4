// Package errors provides structured domain errors with machine-readable
// codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeNotFound is a generic missing-resource error.
	CodeNotFound Code = "NOT_FOUND"

	// Content errors
	CodePostNotFound     Code = "POST_NOT_FOUND"
	CodeDownloadNotFound Code = "DOWNLOAD_NOT_FOUND"

	// Storage errors
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"

	// Login errors
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
)

// HTTPStatus maps the code to the status a web handler should answer with.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound,
		CodePostNotFound,
		CodeDownloadNotFound:
		return http.StatusNotFound

	case CodeInvalidCredentials:
		return http.StatusUnauthorized

	case CodeStorageUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
