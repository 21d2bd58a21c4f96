package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"challengr-backend/internal/apperr"
	"challengr-backend/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	defaultChallengeDays = 30
	defaultReminderTime  = "20:00"
)

// ChallengeSpec is the caller-supplied input for creating a challenge
type ChallengeSpec struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Stake        float64    `json:"stake"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	ReminderTime string     `json:"reminder_time,omitempty"`
	InviteCode   string     `json:"invite_code,omitempty"`
}

// MembershipCoordinator owns challenge creation and join semantics
type MembershipCoordinator struct {
	records RecordStore
	invites *InviteCodeAllocator
}

// NewMembershipCoordinator creates a new membership coordinator
func NewMembershipCoordinator(records RecordStore, invites *InviteCodeAllocator) *MembershipCoordinator {
	return &MembershipCoordinator{records: records, invites: invites}
}

// CreateChallenge validates the spec and persists a new challenge with the
// creator pre-inserted into the participant set. The end date defaults to
// start + 30 days; an explicit end date on or before the start date is a
// validation error, not silently corrected.
func (c *MembershipCoordinator) CreateChallenge(ctx context.Context, creatorID string, spec ChallengeSpec) (*models.Challenge, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, apperr.Validation("name", "must not be empty")
	}
	if strings.TrimSpace(spec.Description) == "" {
		return nil, apperr.Validation("description", "must not be empty")
	}
	if spec.Stake <= 0 {
		return nil, apperr.Validation("stake", "must be greater than zero")
	}
	if spec.StartDate.IsZero() {
		return nil, apperr.Validation("start_date", "is required")
	}

	endDate := spec.StartDate.AddDate(0, 0, defaultChallengeDays)
	if spec.EndDate != nil {
		if !spec.EndDate.After(spec.StartDate) {
			return nil, apperr.Validation("end_date", "must be after start_date")
		}
		endDate = *spec.EndDate
	}

	reminder := spec.ReminderTime
	if reminder == "" {
		reminder = defaultReminderTime
	}

	code := strings.ToUpper(strings.TrimSpace(spec.InviteCode))
	if code == "" {
		code = c.invites.Allocate()
	}

	data := map[string]any{
		"name":         spec.Name,
		"description":  spec.Description,
		"stake":        spec.Stake,
		"startDate":    spec.StartDate.Format(time.RFC3339),
		"endDate":      endDate.Format(time.RFC3339),
		"reminderTime": reminder,
		"inviteCode":   code,
		"createdBy":    creatorID,
		"participants": []string{creatorID},
	}

	doc, err := c.records.Create(ctx, CollectionChallenges, data)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("challenge_id", doc.ID).
		Str("creator_id", creatorID).
		Str("invite_code", code).
		Msg("Challenge created")

	return challengeFromDoc(doc), nil
}

// JoinByInviteCode resolves the code and atomically adds the user to the
// challenge's participant set. Re-joining is a no-op at the store level, so
// the call succeeds when the user is already a member.
func (c *MembershipCoordinator) JoinByInviteCode(ctx context.Context, code, userID string) (*models.Challenge, error) {
	challengeID, err := c.invites.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := c.records.ArrayUnion(ctx, CollectionChallenges, challengeID, "participants", userID); err != nil {
		return nil, err
	}

	log.Info().
		Str("challenge_id", challengeID).
		Str("user_id", userID).
		Msg("User joined challenge")

	doc, err := c.records.Get(ctx, CollectionChallenges, challengeID)
	if err != nil {
		return nil, err
	}
	return challengeFromDoc(doc), nil
}

// GetChallenge retrieves a challenge by id
func (c *MembershipCoordinator) GetChallenge(ctx context.Context, id string) (*models.Challenge, error) {
	doc, err := c.records.Get(ctx, CollectionChallenges, id)
	if err != nil {
		return nil, err
	}
	return challengeFromDoc(doc), nil
}

// ListChallenges retrieves every challenge the user participates in
func (c *MembershipCoordinator) ListChallenges(ctx context.Context, userID string) ([]*models.Challenge, error) {
	docs, err := c.records.QueryArrayContains(ctx, CollectionChallenges, "participants", userID)
	if err != nil {
		return nil, err
	}
	challenges := make([]*models.Challenge, 0, len(docs))
	for i := range docs {
		challenges = append(challenges, challengeFromDoc(&docs[i]))
	}
	return challenges, nil
}

// SaveParticipantConfig writes the user's cadence settings for a challenge.
// One config per (challenge, user) pair; last write wins. Joining and saving
// the config are separate operations, so a failure here leaves the user a
// member with an absent config.
func (c *MembershipCoordinator) SaveParticipantConfig(ctx context.Context, cfg models.ParticipantConfig) error {
	if !cfg.Frequency.Valid() {
		return apperr.Validation("frequency", fmt.Sprintf("unknown cadence %q", cfg.Frequency))
	}
	data := map[string]any{
		"challengeId":     cfg.ChallengeID,
		"userId":          cfg.UserID,
		"frequency":       string(cfg.Frequency),
		"goalDescription": cfg.Goal,
	}
	return c.records.Set(ctx, CollectionParticipantConfigs, configDocID(cfg.ChallengeID, cfg.UserID), data, false)
}

// GetParticipantConfig retrieves the user's config for a challenge. An
// absent config is reported as (nil, nil), not an error.
func (c *MembershipCoordinator) GetParticipantConfig(ctx context.Context, challengeID, userID string) (*models.ParticipantConfig, error) {
	doc, err := c.records.Get(ctx, CollectionParticipantConfigs, configDocID(challengeID, userID))
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return participantConfigFromDoc(doc), nil
}

func configDocID(challengeID, userID string) string {
	return challengeID + ":" + userID
}
