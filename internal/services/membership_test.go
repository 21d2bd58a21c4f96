package services

import (
	"context"
	"testing"
	"time"

	"challengr-backend/internal/apperr"
	"challengr-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator() (*MembershipCoordinator, *fakeRecordStore) {
	records := newFakeRecordStore()
	return NewMembershipCoordinator(records, NewInviteCodeAllocator(records)), records
}

func validSpec() ChallengeSpec {
	return ChallengeSpec{
		Name:        "30 days of running",
		Description: "daily run proof",
		Stake:       50,
		StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateChallengeValidation(t *testing.T) {
	coordinator, _ := newTestCoordinator()
	ctx := context.Background()

	var validationErr *apperr.ValidationError

	spec := validSpec()
	spec.Name = "  "
	_, err := coordinator.CreateChallenge(ctx, "creator-1", spec)
	assert.ErrorAs(t, err, &validationErr)

	spec = validSpec()
	spec.Description = ""
	_, err = coordinator.CreateChallenge(ctx, "creator-1", spec)
	assert.ErrorAs(t, err, &validationErr)

	spec = validSpec()
	spec.Stake = 0
	_, err = coordinator.CreateChallenge(ctx, "creator-1", spec)
	assert.ErrorAs(t, err, &validationErr)

	spec = validSpec()
	spec.StartDate = time.Time{}
	_, err = coordinator.CreateChallenge(ctx, "creator-1", spec)
	assert.ErrorAs(t, err, &validationErr)
}

func TestCreateChallengeEndBeforeStart(t *testing.T) {
	coordinator, _ := newTestCoordinator()

	spec := validSpec()
	spec.StartDate = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	spec.EndDate = &end

	var validationErr *apperr.ValidationError
	_, err := coordinator.CreateChallenge(context.Background(), "creator-1", spec)
	assert.ErrorAs(t, err, &validationErr)
}

func TestCreateChallengeDefaultEndDate(t *testing.T) {
	coordinator, _ := newTestCoordinator()

	challenge, err := coordinator.CreateChallenge(context.Background(), "creator-1", validSpec())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), challenge.EndDate)
}

func TestCreateChallengeCreatorIsParticipant(t *testing.T) {
	coordinator, _ := newTestCoordinator()

	challenge, err := coordinator.CreateChallenge(context.Background(), "creator-1", validSpec())
	require.NoError(t, err)

	assert.Equal(t, "creator-1", challenge.CreatedBy)
	assert.Equal(t, []string{"creator-1"}, challenge.Participants)
	assert.Equal(t, "20:00", challenge.ReminderTime)
}

func TestJoinByInviteCodeIdempotent(t *testing.T) {
	coordinator, _ := newTestCoordinator()
	ctx := context.Background()

	created, err := coordinator.CreateChallenge(ctx, "creator-1", validSpec())
	require.NoError(t, err)

	first, err := coordinator.JoinByInviteCode(ctx, created.InviteCode, "joiner-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, first.ID)

	second, err := coordinator.JoinByInviteCode(ctx, created.InviteCode, "joiner-1")
	require.NoError(t, err)

	occurrences := 0
	for _, id := range second.Participants {
		if id == "joiner-1" {
			occurrences++
		}
	}
	assert.Equal(t, 1, occurrences)
	assert.Len(t, second.Participants, 2)
}

func TestJoinUnknownInviteCode(t *testing.T) {
	coordinator, _ := newTestCoordinator()

	_, err := coordinator.JoinByInviteCode(context.Background(), "NOSUCH", "joiner-1")
	assert.ErrorIs(t, err, apperr.ErrInviteNotFound)
}

func TestListChallengesByParticipant(t *testing.T) {
	coordinator, _ := newTestCoordinator()
	ctx := context.Background()

	created, err := coordinator.CreateChallenge(ctx, "creator-1", validSpec())
	require.NoError(t, err)
	_, err = coordinator.JoinByInviteCode(ctx, created.InviteCode, "joiner-1")
	require.NoError(t, err)

	spec := validSpec()
	spec.Name = "meditation"
	_, err = coordinator.CreateChallenge(ctx, "someone-else", spec)
	require.NoError(t, err)

	challenges, err := coordinator.ListChallenges(ctx, "joiner-1")
	require.NoError(t, err)
	require.Len(t, challenges, 1)
	assert.Equal(t, created.ID, challenges[0].ID)
}

func TestParticipantConfigLastWriteWins(t *testing.T) {
	coordinator, _ := newTestCoordinator()
	ctx := context.Background()

	cfg := models.ParticipantConfig{
		ChallengeID: "ch-1",
		UserID:      "user-1",
		Frequency:   models.FrequencyDaily,
		Goal:        "workout pic",
	}
	require.NoError(t, coordinator.SaveParticipantConfig(ctx, cfg))

	cfg.Frequency = models.FrequencyWeekly
	require.NoError(t, coordinator.SaveParticipantConfig(ctx, cfg))

	got, err := coordinator.GetParticipantConfig(ctx, "ch-1", "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.FrequencyWeekly, got.Frequency)
}

func TestParticipantConfigAbsent(t *testing.T) {
	coordinator, _ := newTestCoordinator()

	got, err := coordinator.GetParticipantConfig(context.Background(), "ch-1", "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveParticipantConfigUnknownFrequency(t *testing.T) {
	coordinator, _ := newTestCoordinator()

	var validationErr *apperr.ValidationError
	err := coordinator.SaveParticipantConfig(context.Background(), models.ParticipantConfig{
		ChallengeID: "ch-1",
		UserID:      "user-1",
		Frequency:   "hourly",
	})
	assert.ErrorAs(t, err, &validationErr)
}
