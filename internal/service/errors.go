package service

import (
	"errors"
	"fmt"
)

var (
	// ErrCertificateNotFound is returned by operations that need an existing certificate
	ErrCertificateNotFound = errors.New("certificate not found")
	// ErrInvalidRequest is returned when a request is missing required fields
	ErrInvalidRequest = errors.New("invalid request")
	// ErrSetupComplete is returned when initial setup is attempted twice
	ErrSetupComplete = errors.New("setup already complete")
	// ErrInvalidCredentials is returned for an unknown user or a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// CreationFailedError reports that a certificate could not be persisted.
// Nothing is visible to readers when it is returned.
type CreationFailedError struct {
	Err error
}

func (e *CreationFailedError) Error() string {
	return fmt.Sprintf("certificate creation failed: %v", e.Err)
}

func (e *CreationFailedError) Unwrap() error { return e.Err }

// AnchoringFailedError reports that the anchor update could not be written.
// The certificate stays unanchored and the call can be retried.
type AnchoringFailedError struct {
	CertificateID string
	Err           error
}

func (e *AnchoringFailedError) Error() string {
	return fmt.Sprintf("anchoring certificate %s failed: %v", e.CertificateID, e.Err)
}

func (e *AnchoringFailedError) Unwrap() error { return e.Err }

// UpstreamSuggestionError reports that the suggestion provider failed or
// returned nothing usable.
type UpstreamSuggestionError struct {
	Err error
}

func (e *UpstreamSuggestionError) Error() string {
	return fmt.Sprintf("suggestion unavailable: %v", e.Err)
}

func (e *UpstreamSuggestionError) Unwrap() error { return e.Err }
