package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"
)

func userRowStep() *queryStep {
	return &queryStep{
		kind:    kindQuery,
		pattern: regexp.MustCompile("SELECT .* FROM `users`"),
		columns: []string{"id", "lichess_id", "username"},
		rows:    [][]driver.Value{{int64(7), "syncuser", "syncuser"}},
	}
}

func tokenRowStep() *queryStep {
	return &queryStep{
		kind:    kindQuery,
		pattern: regexp.MustCompile("SELECT .* FROM `oauth_tokens`"),
		columns: []string{"id", "user_id", "access_token"},
		rows:    [][]driver.Value{{int64(1), int64(7), "tok"}},
	}
}

func waitForTerminalState(t *testing.T, tracker *SyncJobTracker, jobID string) *SyncJobState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state, err := tracker.Get(context.Background(), jobID)
		if err != nil {
			t.Fatalf("tracker get: %v", err)
		}
		if state.State == SyncJobStateSuccess || state.State == SyncJobStateFailure {
			return state
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", jobID)
	return nil
}

func TestTrigger_RunsJobToCompletion(t *testing.T) {
	client, closeServer := newStreamServer(t, http.StatusOK, gameLine("gm0001")+"\n")
	defer closeServer()

	steps := []*queryStep{
		userRowStep(),
		tokenRowStep(),
		startRunStep(),
		selectGameStep(),
		insertBatchStep(1),
		finishRunStep(),
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	rdb, closeRedis := newMiniRedis(t)
	defer closeRedis()
	tracker := NewSyncJobTracker(rdb)

	svc := NewSyncJobService(db, tracker)
	svc.sync = NewGameSyncService(db, client, tracker)

	jobID, err := svc.Trigger(context.Background(), 7)
	if err != nil {
		t.Fatalf("trigger failed: %v", err)
	}
	if jobID == "" {
		t.Fatalf("expected a job id")
	}

	jobState := waitForTerminalState(t, tracker, jobID)
	if jobState.State != SyncJobStateSuccess {
		t.Fatalf("unexpected terminal state: %+v", jobState)
	}
	if jobState.Result == nil || jobState.Result.Processed != 1 {
		t.Errorf("unexpected result: %+v", jobState.Result)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestTrigger_FailedPassEndsInFailureState(t *testing.T) {
	client, closeServer := newStreamServer(t, http.StatusTooManyRequests, "Too Many Requests")
	defer closeServer()

	steps := []*queryStep{
		userRowStep(),
		tokenRowStep(),
		startRunStep(),
		finishRunStep(),
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	rdb, closeRedis := newMiniRedis(t)
	defer closeRedis()
	tracker := NewSyncJobTracker(rdb)

	svc := NewSyncJobService(db, tracker)
	svc.sync = NewGameSyncService(db, client, tracker)

	jobID, err := svc.Trigger(context.Background(), 7)
	if err != nil {
		t.Fatalf("trigger failed: %v", err)
	}

	jobState := waitForTerminalState(t, tracker, jobID)
	if jobState.State != SyncJobStateFailure {
		t.Fatalf("unexpected terminal state: %+v", jobState)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestTrigger_MissingTokenIsRejected(t *testing.T) {
	missingToken := &queryStep{
		kind:    kindQuery,
		pattern: regexp.MustCompile("SELECT .* FROM `oauth_tokens`"),
		columns: []string{"id", "user_id", "access_token"},
		rows:    [][]driver.Value{},
	}

	steps := []*queryStep{
		userRowStep(),
		missingToken,
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	rdb, closeRedis := newMiniRedis(t)
	defer closeRedis()

	svc := NewSyncJobService(db, NewSyncJobTracker(rdb))

	if _, err := svc.Trigger(context.Background(), 7); !errors.Is(err, ErrLichessTokenNotFound) {
		t.Fatalf("expected ErrLichessTokenNotFound, got %v", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestStatus_ReadsTrackerState(t *testing.T) {
	rdb, closeRedis := newMiniRedis(t)
	defer closeRedis()
	tracker := NewSyncJobTracker(rdb)

	svc := &SyncJobService{tracker: tracker}

	ctx := context.Background()
	if err := tracker.SetProgress(ctx, "job-9", 50, 200, "Processed 50 games..."); err != nil {
		t.Fatalf("set progress: %v", err)
	}

	state, err := svc.Status(ctx, "job-9")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if state.State != SyncJobStateProgress || state.Current != 50 {
		t.Errorf("unexpected state: %+v", state)
	}
}
