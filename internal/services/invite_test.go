package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"challengr-backend/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateFormat(t *testing.T) {
	allocator := NewInviteCodeAllocator(newFakeRecordStore())
	pattern := regexp.MustCompile(`^[A-Z0-9]{6}$`)

	for i := 0; i < 50; i++ {
		code := allocator.Allocate()
		assert.Regexp(t, pattern, code)
	}
}

func TestResolveRoundtrip(t *testing.T) {
	records := newFakeRecordStore()
	allocator := NewInviteCodeAllocator(records)
	coordinator := NewMembershipCoordinator(records, allocator)

	challenge, err := coordinator.CreateChallenge(context.Background(), "creator-1", ChallengeSpec{
		Name:        "30 days of running",
		Description: "daily run proof",
		Stake:       50,
		StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Regexp(t, `^[A-Z0-9]{6}$`, challenge.InviteCode)

	id, err := allocator.Resolve(context.Background(), challenge.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, challenge.ID, id)
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	records := newFakeRecordStore()
	allocator := NewInviteCodeAllocator(records)
	coordinator := NewMembershipCoordinator(records, allocator)

	challenge, err := coordinator.CreateChallenge(context.Background(), "creator-1", ChallengeSpec{
		Name:        "pushups",
		Description: "100 a day",
		Stake:       10,
		StartDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		InviteCode:  "AB12CD",
	})
	require.NoError(t, err)

	id, err := allocator.Resolve(context.Background(), " ab12cd ")
	require.NoError(t, err)
	assert.Equal(t, challenge.ID, id)
}

func TestResolveNotFound(t *testing.T) {
	allocator := NewInviteCodeAllocator(newFakeRecordStore())

	_, err := allocator.Resolve(context.Background(), "ZZZZZZ")
	assert.ErrorIs(t, err, apperr.ErrInviteNotFound)
}
