package services

import (
	"context"
	"fmt"
	"time"

	"challengr-backend/internal/apperr"
	"challengr-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SubmissionLedger owns submission creation, photo upload and peer vote
// bookkeeping
type SubmissionLedger struct {
	records RecordStore
	blobs   BlobStore
}

// NewSubmissionLedger creates a new submission ledger
func NewSubmissionLedger(records RecordStore, blobs BlobStore) *SubmissionLedger {
	return &SubmissionLedger{records: records, blobs: blobs}
}

// AddSubmission uploads the proof photo and records a submission referencing
// its URL. If the upload fails no submission exists. If the upload succeeds
// but the record write fails, the orphaned blob is not rolled back.
func (l *SubmissionLedger) AddSubmission(ctx context.Context, challengeID, userID string, photo []byte, contentType string) (*models.Submission, error) {
	if len(photo) == 0 {
		return nil, apperr.Validation("photo", "must not be empty")
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	key := fmt.Sprintf("submissions/%s/%s.jpg", challengeID, uuid.New().String())
	metadata := map[string]string{"user_id": userID}
	if err := l.blobs.Upload(ctx, key, photo, contentType, metadata); err != nil {
		return nil, err
	}
	photoURL := l.blobs.ResolveURL(key)

	data := map[string]any{
		"challengeId": challengeID,
		"userId":      userID,
		"photoURL":    photoURL,
		"approvals":   []string{},
		"rejections":  []string{},
	}
	doc, err := l.records.Create(ctx, CollectionSubmissions, data)
	if err != nil {
		log.Warn().
			Str("key", key).
			Str("challenge_id", challengeID).
			Str("user_id", userID).
			Msg("Submission record failed after upload, blob left behind")
		return nil, err
	}

	log.Info().
		Str("submission_id", doc.ID).
		Str("challenge_id", challengeID).
		Str("user_id", userID).
		Msg("Submission added")

	return submissionFromDoc(doc), nil
}

// Approve adds approverID to the submission's approver set. Idempotent:
// re-approving leaves the set unchanged. The caller is not checked against
// the challenge's participants.
func (l *SubmissionLedger) Approve(ctx context.Context, submissionID, approverID string) error {
	return l.records.ArrayUnion(ctx, CollectionSubmissions, submissionID, "approvals", approverID)
}

// Reject adds rejecterID to the submission's rejecter set, symmetric to
// Approve. The two sets are kept independently; nothing removes an id from
// the opposite set on a vote switch.
func (l *SubmissionLedger) Reject(ctx context.Context, submissionID, rejecterID string) error {
	return l.records.ArrayUnion(ctx, CollectionSubmissions, submissionID, "rejections", rejecterID)
}

// GetSubmission retrieves a submission by id
func (l *SubmissionLedger) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	doc, err := l.records.Get(ctx, CollectionSubmissions, id)
	if err != nil {
		return nil, err
	}
	return submissionFromDoc(doc), nil
}

// ListSubmissions retrieves one user's submissions in one challenge in
// creation order, optionally bounded by a closed creation-timestamp
// interval
func (l *SubmissionLedger) ListSubmissions(ctx context.Context, challengeID, userID string, from, to *time.Time) ([]*models.Submission, error) {
	eq := map[string]string{
		"challengeId": challengeID,
		"userId":      userID,
	}
	docs, err := l.records.Query(ctx, CollectionSubmissions, eq, from, to, 0)
	if err != nil {
		return nil, err
	}
	submissions := make([]*models.Submission, 0, len(docs))
	for i := range docs {
		submissions = append(submissions, submissionFromDoc(&docs[i]))
	}
	return submissions, nil
}
