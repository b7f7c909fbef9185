package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"lichess-stats-api/config"
	"lichess-stats-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrLichessTokenNotFound means the account has no stored bearer
	// credential and cannot sync.
	ErrLichessTokenNotFound = errors.New("lichess token not found")
)

// SyncJobService turns a sync trigger into an asynchronous importer run with
// a pollable job handle. It imposes no per-account mutual exclusion; the
// games table's primary key keeps concurrent passes idempotent.
type SyncJobService struct {
	db      *gorm.DB
	tracker *SyncJobTracker
	sync    *GameSyncService
}

// NewSyncJobService constructs a SyncJobService.
func NewSyncJobService(db *gorm.DB, tracker *SyncJobTracker) *SyncJobService {
	if db == nil {
		db = config.DB
	}
	if tracker == nil {
		tracker = NewSyncJobTracker(nil)
	}
	return &SyncJobService{
		db:      db,
		tracker: tracker,
		sync:    NewGameSyncService(db, nil, tracker),
	}
}

// Trigger verifies the user holds a Lichess credential, registers a PENDING
// job, and starts the pass on its own goroutine. It returns the opaque job id
// immediately without waiting on the run.
func (s *SyncJobService) Trigger(ctx context.Context, userID uint) (string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return "", fmt.Errorf("load user %d: %w", userID, err)
	}

	var token models.OAuthToken
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrLichessTokenNotFound
		}
		return "", fmt.Errorf("load oauth token for user %d: %w", userID, err)
	}

	jobID := uuid.NewString()
	if err := s.tracker.Create(ctx, jobID); err != nil {
		return "", err
	}

	go s.runJob(persistentContext(ctx), &GameSyncInput{
		UserID:          user.ID,
		LichessUsername: user.Username,
		AccessToken:     token.AccessToken,
		JobID:           jobID,
		TriggerSource:   "api",
	})

	return jobID, nil
}

// Status reads the tracker state for a job id.
func (s *SyncJobService) Status(ctx context.Context, jobID string) (*SyncJobState, error) {
	return s.tracker.Get(ctx, jobID)
}

// runJob is the detached worker for one pass. The run is decoupled from the
// triggering request's cancelation; whatever happens inside the pass, the
// process survives and the job ends in a terminal state.
func (s *SyncJobService) runJob(ctx context.Context, input *GameSyncInput) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("game sync panicked: %v", r)
			log.Printf("job %s: %v", input.JobID, err)
			if trackErr := s.tracker.Fail(ctx, input.JobID, err); trackErr != nil {
				log.Printf("job %s: failed to record failure: %v", input.JobID, trackErr)
			}
		}
	}()

	result, err := s.sync.Run(ctx, input)
	if err != nil {
		log.Printf("job %s: sync failed for user %d: %v", input.JobID, input.UserID, err)
		if trackErr := s.tracker.Fail(ctx, input.JobID, err); trackErr != nil {
			log.Printf("job %s: failed to record failure: %v", input.JobID, trackErr)
		}
		sendSyncFailureAlert(input, err)
		return
	}

	if err := s.tracker.Complete(ctx, input.JobID, result); err != nil {
		log.Printf("job %s: failed to record completion: %v", input.JobID, err)
	}
}

// sendSyncFailureAlert mails the operator address, when one is configured,
// about a failed pass. Alerting is best-effort.
func sendSyncFailureAlert(input *GameSyncInput, syncErr error) {
	alertTo := strings.TrimSpace(os.Getenv("ALERT_EMAIL"))
	if alertTo == "" {
		return
	}
	subject := fmt.Sprintf("Game sync failed for %s", input.LichessUsername)
	body := fmt.Sprintf("<p>Sync job <b>%s</b> for user %d (%s) failed:</p><pre>%s</pre>",
		input.JobID, input.UserID, input.LichessUsername, syncErr.Error())
	if err := config.SendMail([]string{alertTo}, subject, body); err != nil {
		log.Printf("job %s: failed to send alert mail: %v", input.JobID, err)
	}
}
