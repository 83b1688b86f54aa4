package healthlink

import (
	"fmt"
	"time"

	"github.com/healthlink/healthlink/internal/platform/shl"
)

// Artifact holds the at-rest encryption parameters for one stored ciphertext.
// The (storage key, nonce, tag) triple is only meaningful together with the
// submission's encryption key; mixing triples across artifacts fails
// authentication on decrypt.
type Artifact struct {
	Nonce      []byte `db:"nonce" json:"-"`
	Tag        []byte `db:"tag" json:"-"`
	StorageKey string `db:"storage_key" json:"-"`
}

// Submission is the durable record of one health link issuance. It is
// immutable after creation except for the artifact storage keys, which may be
// patched once before the submission becomes visible for lookup.
type Submission struct {
	ID            string    `db:"id" json:"id"`
	PatientName   string    `db:"patient_name" json:"patient_name"`
	EncryptionKey []byte    `db:"encryption_key" json:"-"`
	Bundle        Artifact  `json:"-"`
	Document      Artifact  `json:"-"`
	ExpiresAt     time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Expired reports whether the submission's expiry is strictly before now.
func (s *Submission) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// ToLink projects the submission into the holder-facing link payload.
func (s *Submission) ToLink(retrievalURL string) *shl.Link {
	return &shl.Link{
		URL:   retrievalURL,
		Flag:  shl.FlagNoPasscode,
		Key:   shl.EncodeKey(s.EncryptionKey),
		Exp:   s.ExpiresAt.Unix(),
		Label: fmt.Sprintf("%s's health summary", s.PatientName),
	}
}

// Storage key layout under the blob store base location.
const (
	bundleBlobName   = "bundle.enc"
	documentBlobName = "document.enc"
)

func bundleStorageKey(id string) string   { return id + "/" + bundleBlobName }
func documentStorageKey(id string) string { return id + "/" + documentBlobName }
