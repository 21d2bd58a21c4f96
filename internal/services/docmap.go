package services

import (
	"time"

	"challengr-backend/internal/models"
	"challengr-backend/internal/repository"
)

// Helpers for reading loosely typed document data. JSON numbers decode as
// float64 and arrays as []any; dates are stored as RFC 3339 strings.

func docString(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func docFloat(data map[string]any, key string) float64 {
	switch v := data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func docStrings(data map[string]any, key string) []string {
	switch raw := data[key].(type) {
	case []string:
		// freshly written data, not yet round-tripped through the store
		return raw
	case []any:
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func docTime(data map[string]any, key string) time.Time {
	s, ok := data[key].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func challengeFromDoc(doc *repository.Document) *models.Challenge {
	return &models.Challenge{
		ID:           doc.ID,
		Name:         docString(doc.Data, "name"),
		Description:  docString(doc.Data, "description"),
		Stake:        docFloat(doc.Data, "stake"),
		StartDate:    docTime(doc.Data, "startDate"),
		EndDate:      docTime(doc.Data, "endDate"),
		ReminderTime: docString(doc.Data, "reminderTime"),
		InviteCode:   docString(doc.Data, "inviteCode"),
		CreatedBy:    docString(doc.Data, "createdBy"),
		Participants: docStrings(doc.Data, "participants"),
		CreatedAt:    doc.CreatedAt,
	}
}

func submissionFromDoc(doc *repository.Document) *models.Submission {
	return &models.Submission{
		ID:          doc.ID,
		ChallengeID: docString(doc.Data, "challengeId"),
		UserID:      docString(doc.Data, "userId"),
		PhotoURL:    docString(doc.Data, "photoURL"),
		Approvals:   docStrings(doc.Data, "approvals"),
		Rejections:  docStrings(doc.Data, "rejections"),
		CreatedAt:   doc.CreatedAt,
	}
}

func participantConfigFromDoc(doc *repository.Document) *models.ParticipantConfig {
	return &models.ParticipantConfig{
		ChallengeID: docString(doc.Data, "challengeId"),
		UserID:      docString(doc.Data, "userId"),
		Frequency:   models.Frequency(docString(doc.Data, "frequency")),
		Goal:        docString(doc.Data, "goalDescription"),
	}
}
