// Package audit records decision entries for every accepted store write.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/aitracker/internal/models"
	"github.com/fentz26/aitracker/internal/store"
)

// Actions recorded by the Progress Store.
const (
	ActionProgressSave = "progress.save"
	ActionDailyLogSave = "dailylog.save"
)

// Outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder writes decision records to the repository.
type Recorder struct {
	repo store.Repository
}

// NewRecorder creates a recorder over repo.
func NewRecorder(repo store.Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record writes a decision for action. inputs are hashed, never stored.
func (r *Recorder) Record(ctx context.Context, action string, inputs interface{}, outcome, userID, details string) (*models.Decision, error) {
	d := &models.Decision{
		Action:     action,
		InputsHash: HashInputs(inputs),
		Outcome:    outcome,
		UserID:     userID,
		Details:    details,
	}
	if err := r.repo.WriteDecision(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// HashInputs returns the hex SHA-256 of the JSON encoding of inputs.
// Raw JSON documents are hashed as-is.
func HashInputs(inputs interface{}) string {
	var data []byte
	switch v := inputs.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		data, err = json.Marshal(inputs)
		if err != nil {
			return "hash_error"
		}
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
