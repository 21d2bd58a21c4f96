package models

import "time"

// Frequency is the required upload cadence for one participant in a challenge
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
	// FrequencyFiveWeekly is the "5 times a week" tier
	FrequencyFiveWeekly Frequency = "five_weekly"
)

// Valid reports whether f is one of the known cadence tiers
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyFiveWeekly:
		return true
	}
	return false
}

// User represents a user profile. Identity and credential facts live in the
// identity gateway; this is the profile mirror kept in the record store.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Challenge represents an accountability group joined via invite code
type Challenge struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Stake        float64   `json:"stake"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	ReminderTime string    `json:"reminder_time"`
	InviteCode   string    `json:"invite_code"`
	CreatedBy    string    `json:"created_by"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

// ParticipantConfig holds one user's cadence settings for one challenge.
// One config per (challenge, user) pair; last write wins.
type ParticipantConfig struct {
	ChallengeID string    `json:"challenge_id"`
	UserID      string    `json:"user_id"`
	Frequency   Frequency `json:"frequency"`
	Goal        string    `json:"goal,omitempty"`
}

// Submission represents one proof-of-completion photo posted by a participant
type Submission struct {
	ID          string    `json:"id"`
	ChallengeID string    `json:"challenge_id"`
	UserID      string    `json:"user_id"`
	PhotoURL    string    `json:"photo_url"`
	Approvals   []string  `json:"approvals"`
	Rejections  []string  `json:"rejections"`
	CreatedAt   time.Time `json:"created_at"`
}

// CadenceReport is the result of checking a participant's required upload
// cadence against their recorded submissions for the current period.
// Applicable is false when the participant has no config for the challenge;
// in that case Required/Actual/Satisfied carry no meaning.
type CadenceReport struct {
	Applicable bool `json:"applicable"`
	Required   int  `json:"required"`
	Actual     int  `json:"actual"`
	Satisfied  bool `json:"satisfied"`
}
