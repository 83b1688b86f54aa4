package healthlink

import "context"

// SubmissionRepository persists health link submissions keyed by their
// opaque string ID.
type SubmissionRepository interface {
	Create(ctx context.Context, s *Submission) error
	// GetByID returns ErrNotFound (possibly wrapped) when no submission
	// exists for the ID.
	GetByID(ctx context.Context, id string) (*Submission, error)
	// UpdateStorageKeys patches the two artifact storage keys of an existing
	// submission. It must be idempotent and must not touch key material,
	// nonces, or tags.
	UpdateStorageKeys(ctx context.Context, id, bundleKey, documentKey string) error
}
