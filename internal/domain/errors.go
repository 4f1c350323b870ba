package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNetwork indicates the remote API or image CDN could not be reached
	ErrNetwork = errors.New("network request failed")

	// ErrDecode indicates a payload (JSON or image bytes) could not be decoded
	ErrDecode = errors.New("failed to decode payload")

	// ErrMissingResource indicates an image could not be produced for a key
	ErrMissingResource = errors.New("resource is missing")

	// ErrPrecondition indicates an action was not applicable to the current state
	ErrPrecondition = errors.New("precondition violated")

	// ErrNotConfigured indicates the API key has not been set up
	ErrNotConfigured = errors.New("api key is not configured")
)

// ErrorKind classifies failures carried by failure actions.
type ErrorKind string

const (
	KindNetwork      ErrorKind = "network"
	KindDecode       ErrorKind = "decode"
	KindMissing      ErrorKind = "missing"
	KindPrecondition ErrorKind = "precondition"
	KindUnknown      ErrorKind = "unknown"
)

// KindOf maps an error onto the taxonomy.
// Decode is checked first: a missing resource caused by a decode failure reports decode.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrMissingResource):
		return KindMissing
	case errors.Is(err, ErrPrecondition):
		return KindPrecondition
	default:
		return KindUnknown
	}
}
