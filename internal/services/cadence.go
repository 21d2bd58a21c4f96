package services

import (
	"context"
	"math"
	"time"

	"challengr-backend/internal/apperr"
	"challengr-backend/internal/models"
)

// fiveWeeklyCount is N for the "N times a week" tier
const fiveWeeklyCount = 5

// CadenceEvaluator computes whether a participant's required upload cadence
// is satisfied for the current period
type CadenceEvaluator struct {
	records RecordStore
}

// NewCadenceEvaluator creates a new cadence evaluator
func NewCadenceEvaluator(records RecordStore) *CadenceEvaluator {
	return &CadenceEvaluator{records: records}
}

// Evaluate loads the participant's config and submission history for the
// challenge and reports required vs actual uploads as of now. A participant
// without a config is reported as not applicable rather than behind.
func (e *CadenceEvaluator) Evaluate(ctx context.Context, challengeID, userID string, now time.Time) (*models.CadenceReport, error) {
	chDoc, err := e.records.Get(ctx, CollectionChallenges, challengeID)
	if err != nil {
		return nil, err
	}
	challenge := challengeFromDoc(chDoc)

	cfgDoc, err := e.records.Get(ctx, CollectionParticipantConfigs, configDocID(challengeID, userID))
	if err != nil {
		if apperr.IsNotFound(err) {
			return &models.CadenceReport{Applicable: false}, nil
		}
		return nil, err
	}
	cfg := participantConfigFromDoc(cfgDoc)

	from := challenge.StartDate
	to := clampTime(now, challenge.StartDate, challenge.EndDate)
	eq := map[string]string{
		"challengeId": challengeID,
		"userId":      userID,
	}
	docs, err := e.records.Query(ctx, CollectionSubmissions, eq, &from, &to, 0)
	if err != nil {
		return nil, err
	}

	report := evaluateCadence(cfg.Frequency, challenge.StartDate, challenge.EndDate, now, len(docs))
	return &report, nil
}

// evaluateCadence computes the required-vs-actual report for one frequency
// tier. Days and weeks are counted from the challenge start, capped at its
// end.
func evaluateCadence(freq models.Frequency, start, end, now time.Time, actual int) models.CadenceReport {
	elapsed := clampTime(now, start, end).Sub(start)
	days := int(elapsed.Hours() / 24)
	weeks := int(math.Ceil(float64(days) / 7))

	var required int
	switch freq {
	case models.FrequencyDaily:
		required = days
	case models.FrequencyWeekly:
		required = weeks
	case models.FrequencyFiveWeekly:
		required = weeks * fiveWeeklyCount
	default:
		return models.CadenceReport{Applicable: false}
	}

	return models.CadenceReport{
		Applicable: true,
		Required:   required,
		Actual:     actual,
		Satisfied:  actual >= required,
	}
}

func clampTime(t, lo, hi time.Time) time.Time {
	if t.Before(lo) {
		return lo
	}
	if !hi.IsZero() && t.After(hi) {
		return hi
	}
	return t
}
