package healthlink

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type submissionRepoPG struct{ pool *pgxpool.Pool }

// NewSubmissionRepoPG creates the PostgreSQL-backed submission repository.
func NewSubmissionRepoPG(pool *pgxpool.Pool) SubmissionRepository {
	return &submissionRepoPG{pool: pool}
}

const submissionCols = `id, patient_name, encryption_key,
	bundle_nonce, bundle_tag, bundle_storage_key,
	document_nonce, document_tag, document_storage_key,
	expires_at, created_at, updated_at`

func scanSubmission(row pgx.Row) (*Submission, error) {
	var s Submission
	err := row.Scan(&s.ID, &s.PatientName, &s.EncryptionKey,
		&s.Bundle.Nonce, &s.Bundle.Tag, &s.Bundle.StorageKey,
		&s.Document.Nonce, &s.Document.Tag, &s.Document.StorageKey,
		&s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *submissionRepoPG) Create(ctx context.Context, s *Submission) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO healthlink_submission (id, patient_name, encryption_key,
			bundle_nonce, bundle_tag, bundle_storage_key,
			document_nonce, document_tag, document_storage_key,
			expires_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		s.ID, s.PatientName, s.EncryptionKey,
		s.Bundle.Nonce, s.Bundle.Tag, s.Bundle.StorageKey,
		s.Document.Nonce, s.Document.Tag, s.Document.StorageKey,
		s.ExpiresAt, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (r *submissionRepoPG) GetByID(ctx context.Context, id string) (*Submission, error) {
	s, err := scanSubmission(r.pool.QueryRow(ctx,
		`SELECT `+submissionCols+` FROM healthlink_submission WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query submission %s: %w", id, err)
	}
	return s, nil
}

func (r *submissionRepoPG) UpdateStorageKeys(ctx context.Context, id, bundleKey, documentKey string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE healthlink_submission
		SET bundle_storage_key = $2, document_storage_key = $3, updated_at = NOW()
		WHERE id = $1`,
		id, bundleKey, documentKey)
	if err != nil {
		return fmt.Errorf("update submission storage keys: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
