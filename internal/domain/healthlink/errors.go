package healthlink

import "errors"

// ErrNotFound is returned by the submission repository when no submission
// exists for an ID. It is a normal retrieval outcome, not a fault.
var ErrNotFound = errors.New("submission not found")

// ValidationError reports a malformed or incomplete input bundle. Always
// client-caused; the message names the missing or invalid element and never
// includes key material or storage paths.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid bundle: " + e.Reason }

func newValidationError(reason string) error { return &ValidationError{Reason: reason} }

// CryptoError reports an authentication failure while decrypting a stored
// artifact. On the retrieval path this indicates corrupted storage or a
// tampered record and is surfaced distinctly from not-found and expired.
type CryptoError struct {
	cause error
}

func (e *CryptoError) Error() string { return "artifact decryption failed" }
func (e *CryptoError) Unwrap() error { return e.cause }

// StorageError reports a blob or submission store failure. Opaque to API
// callers; the wrapped cause is for logs only.
type StorageError struct {
	Op    string
	cause error
}

func (e *StorageError) Error() string { return "storage failure during " + e.Op }
func (e *StorageError) Unwrap() error { return e.cause }
