// Package errors holds the sentinel error taxonomy shared by every
// core component, so that callers can branch on failure kind with
// errors.Is instead of string matching.
package errors

import (
	"errors"
	"fmt"
)

var (
	// Codec errors.
	ErrInsufficientShards      = errors.New("insufficient shards available for reconstruction")
	ErrInconsistentShardLength = errors.New("present shards disagree on length")
	ErrInvalidParameters       = errors.New("invalid codec parameters or input")

	// BackendAdapter errors.
	ErrNotFound   = errors.New("blob not found")
	ErrTransient  = errors.New("transient backend failure")
	ErrPermanent  = errors.New("permanent backend failure")

	// ShardOrchestrator / Boundary errors.
	ErrAlreadyExists = errors.New("file already exists")
	ErrUnrecoverable = errors.New("not enough shards to reconstruct the file")
	ErrAuthFailure   = errors.New("missing or invalid authentication token")
	ErrUploadFailed  = errors.New("upload failed")
	ErrInternal      = errors.New("internal error")
)

// FetchingResourceError generates a formatted error for a failed fetch of
// any resource by its id.
func FetchingResourceError(resource string) error {
	return fmt.Errorf("failed to fetch %s by id", resource)
}

// ConfigNotSetError reports a required configuration value that was never set.
func ConfigNotSetError(config string) error {
	return fmt.Errorf("the %s environment variable must be set", config)
}
