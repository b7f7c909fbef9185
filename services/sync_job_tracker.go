package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lichess-stats-api/config"

	"github.com/redis/go-redis/v9"
)

const (
	SyncJobStatePending  = "PENDING"
	SyncJobStateProgress = "PROGRESS"
	SyncJobStateSuccess  = "SUCCESS"
	SyncJobStateFailure  = "FAILURE"

	syncJobKeyPrefix = "lichess:sync:job:"

	// Jobs outlive their pass long enough for pollers to read the outcome;
	// Redis expiry owns cleanup, not the importer.
	defaultSyncJobTTL = 24 * time.Hour
)

// SyncJobState is the pollable state of one sync pass.
type SyncJobState struct {
	JobID   string      `json:"job_id"`
	State   string      `json:"state"`
	Current int         `json:"current"`
	Total   int         `json:"total"`
	Percent int         `json:"percent"`
	Message string      `json:"message"`
	Result  *SyncResult `json:"result,omitempty"`
}

// SyncJobTracker keeps sync job state in Redis so it can be written by the
// importer and read by API pollers without either holding a reference to the
// other, and so state survives across instances.
type SyncJobTracker struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSyncJobTracker constructs a SyncJobTracker.
func NewSyncJobTracker(rdb *redis.Client) *SyncJobTracker {
	if rdb == nil {
		rdb = config.Redis
	}
	return &SyncJobTracker{rdb: rdb, ttl: defaultSyncJobTTL}
}

func syncJobKey(jobID string) string { return syncJobKeyPrefix + jobID }

// Create registers a job in the PENDING state.
func (t *SyncJobTracker) Create(ctx context.Context, jobID string) error {
	return t.put(ctx, &SyncJobState{
		JobID:   jobID,
		State:   SyncJobStatePending,
		Message: "Task is waiting to start",
	})
}

// SetProgress records a progress update. Percent is a rough liveness signal:
// total is a running count of records seen, not a pre-known target.
func (t *SyncJobTracker) SetProgress(ctx context.Context, jobID string, current, total int, message string) error {
	percent := 0
	if total > 0 {
		percent = current * 100 / total
	}
	return t.put(ctx, &SyncJobState{
		JobID:   jobID,
		State:   SyncJobStateProgress,
		Current: current,
		Total:   total,
		Percent: percent,
		Message: message,
	})
}

// Complete records a successful pass with its summary.
func (t *SyncJobTracker) Complete(ctx context.Context, jobID string, result *SyncResult) error {
	state := &SyncJobState{
		JobID:   jobID,
		State:   SyncJobStateSuccess,
		Percent: 100,
		Message: "Completed",
		Result:  result,
	}
	if result != nil {
		state.Current = result.Processed
		state.Total = result.TotalGames
		if result.Message != "" {
			state.Message = result.Message
		}
	}
	return t.put(ctx, state)
}

// Fail records a failed pass with the error description.
func (t *SyncJobTracker) Fail(ctx context.Context, jobID string, jobErr error) error {
	message := "sync failed"
	if jobErr != nil {
		message = jobErr.Error()
	}
	return t.put(ctx, &SyncJobState{
		JobID:   jobID,
		State:   SyncJobStateFailure,
		Message: message,
	})
}

// Get returns the current state for a job id. An unknown id yields a PENDING
// state rather than an error: a poller may race the trigger that creates the
// job, or the entry may already have expired.
func (t *SyncJobTracker) Get(ctx context.Context, jobID string) (*SyncJobState, error) {
	data, err := t.rdb.Get(ctx, syncJobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &SyncJobState{
			JobID:   jobID,
			State:   SyncJobStatePending,
			Message: "Task is waiting to start",
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync job %s: %w", jobID, err)
	}

	var state SyncJobState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode sync job %s: %w", jobID, err)
	}
	return &state, nil
}

func (t *SyncJobTracker) put(ctx context.Context, state *SyncJobState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := t.rdb.Set(ctx, syncJobKey(state.JobID), data, t.ttl).Err(); err != nil {
		return fmt.Errorf("store sync job %s: %w", state.JobID, err)
	}
	return nil
}
