package domain

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMissingCredential indicates the provider API key is not configured.
	ErrMissingCredential = errors.New("provider credential missing")
	// ErrProviderUnavailable indicates a network failure or non-2xx response
	// from the provider.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrMalformedResponse indicates the provider violated its response
	// contract.
	ErrMalformedResponse = errors.New("malformed provider response")
	// ErrGenerationFailed indicates the provider reported a business failure.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrPollTimeout indicates the poll attempt budget was exhausted before a
	// terminal status arrived.
	ErrPollTimeout = errors.New("poll timeout")
	// ErrInvalidPayload indicates a structurally invalid inbound payload that
	// can never become valid by retrying.
	ErrInvalidPayload = errors.New("invalid payload")
)
