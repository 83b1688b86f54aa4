package healthlink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthlink/healthlink/internal/platform/blobstore"
	"github.com/healthlink/healthlink/internal/platform/crypto"
	"github.com/healthlink/healthlink/internal/platform/shl"
)

// TokenContentType is the cty header of the retrieval token.
const TokenContentType = "application/fhir+json"

// DefaultTTLHours is the submission lifetime when none is configured.
const DefaultTTLHours = 72

// RetrievalOutcome is the three-way result of a retrieval attempt.
type RetrievalOutcome int

const (
	// OutcomeNotFound means no submission exists for the ID.
	OutcomeNotFound RetrievalOutcome = iota
	// OutcomeExpired means the submission exists but its expiry has passed.
	OutcomeExpired
	// OutcomeOK means the submission was decrypted and a token was built.
	OutcomeOK
)

// RetrievalResult carries the outcome and, for OutcomeOK, the compact token.
type RetrievalResult struct {
	Outcome RetrievalOutcome
	Token   string
}

// Service composes bundle extraction, envelope encryption, blob storage, and
// submission persistence into the issue/retrieve pipeline.
type Service struct {
	repo   SubmissionRepository
	blobs  blobstore.Store
	ttl    time.Duration
	logger zerolog.Logger
}

// NewService builds a Service. ttlHours <= 0 falls back to DefaultTTLHours.
func NewService(repo SubmissionRepository, blobs blobstore.Store, ttlHours int, logger zerolog.Logger) *Service {
	if ttlHours <= 0 {
		ttlHours = DefaultTTLHours
	}
	return &Service{
		repo:   repo,
		blobs:  blobs,
		ttl:    time.Duration(ttlHours) * time.Hour,
		logger: logger,
	}
}

// Issue validates a raw bundle, encrypts its record text and attached
// document under a fresh per-submission key, persists both ciphertexts and
// the submission record, and returns the holder-facing link payload.
//
// Validation runs before any cryptographic work or storage I/O. Both blob
// writes and the submission insert must succeed before a link is returned;
// storage keys are finalized before the insert, so a concurrent retrieval can
// never observe a submission with provisional paths.
func (s *Service) Issue(ctx context.Context, raw []byte, baseURL string) (*shl.Link, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, newValidationError("empty body")
	}

	contents, err := ExtractBundle(raw)
	if err != nil {
		return nil, err
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, &CryptoError{cause: err}
	}
	id := uuid.NewString()

	bundleCT, bundleNonce, bundleTag, err := crypto.Seal([]byte(contents.BundleJSON), key)
	if err != nil {
		return nil, &CryptoError{cause: err}
	}
	docCT, docNonce, docTag, err := crypto.Seal(contents.Document, key)
	if err != nil {
		return nil, &CryptoError{cause: err}
	}

	bundleKey := bundleStorageKey(id)
	documentKey := documentStorageKey(id)
	if err := s.blobs.Write(ctx, bundleKey, bundleCT); err != nil {
		return nil, &StorageError{Op: "bundle write", cause: err}
	}
	if err := s.blobs.Write(ctx, documentKey, docCT); err != nil {
		return nil, &StorageError{Op: "document write", cause: err}
	}

	now := time.Now().UTC()
	submission := &Submission{
		ID:            id,
		PatientName:   contents.PatientName,
		EncryptionKey: key,
		Bundle:        Artifact{Nonce: bundleNonce, Tag: bundleTag, StorageKey: bundleKey},
		Document:      Artifact{Nonce: docNonce, Tag: docTag, StorageKey: documentKey},
		ExpiresAt:     now.Add(s.ttl),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, &StorageError{Op: "submission create", cause: err}
	}

	s.logger.Info().
		Str("submission_id", id).
		Time("expires_at", submission.ExpiresAt).
		Msg("health link issued")

	return submission.ToLink(retrievalURL(baseURL, id)), nil
}

// Retrieve looks up a submission, enforces expiry before any decryption
// work, decrypts the stored record artifact, and re-encrypts it into the
// recipient-facing compact token. The recipient identifier is recorded for
// audit only; it does not gate access.
func (s *Service) Retrieve(ctx context.Context, id, recipient string) (*RetrievalResult, error) {
	submission, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &RetrievalResult{Outcome: OutcomeNotFound}, nil
		}
		return nil, &StorageError{Op: "submission lookup", cause: err}
	}

	if submission.Expired(time.Now().UTC()) {
		return &RetrievalResult{Outcome: OutcomeExpired}, nil
	}

	ciphertext, err := s.blobs.Read(ctx, submission.Bundle.StorageKey)
	if err != nil {
		return nil, &StorageError{Op: "bundle read", cause: err}
	}

	plaintext, err := crypto.Open(ciphertext, submission.EncryptionKey,
		submission.Bundle.Nonce, submission.Bundle.Tag)
	if err != nil {
		s.logger.Error().
			Str("submission_id", id).
			Msg("stored artifact failed authentication")
		return nil, &CryptoError{cause: err}
	}

	token, err := shl.BuildToken(plaintext, submission.EncryptionKey, TokenContentType)
	if err != nil {
		return nil, &CryptoError{cause: err}
	}

	s.logger.Info().
		Str("submission_id", id).
		Str("recipient", recipient).
		Msg("health link retrieved")

	return &RetrievalResult{Outcome: OutcomeOK, Token: token}, nil
}

// retrievalURL derives the public retrieval endpoint for a submission.
func retrievalURL(baseURL, id string) string {
	return fmt.Sprintf("%s/api/v1/healthlinks/%s", strings.TrimRight(baseURL, "/"), id)
}
