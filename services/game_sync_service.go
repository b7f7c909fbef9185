package services

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"lichess-stats-api/config"
	"lichess-stats-api/models"
	"lichess-stats-api/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	gameSyncBatchSize = 100

	// NDJSON lines from the compact export are short, but the default
	// bufio.Scanner limit of 64KB is too tight to rely on.
	gameSyncMaxLineBytes = 1 << 20
)

// GameSyncInput describes one sync pass for one account.
type GameSyncInput struct {
	UserID          uint
	LichessUsername string
	AccessToken     string
	MaxGames        int

	// JobID, when set, receives live progress updates through the tracker.
	JobID         string
	TriggerSource string
}

// SyncResult summarises a completed pass.
type SyncResult struct {
	TotalGames int    `json:"total_games"`
	Processed  int    `json:"processed"`
	Skipped    int    `json:"skipped"`
	Message    string `json:"message"`
}

// GameSyncService executes sync passes: it streams the account's game feed,
// normalizes and deduplicates each record, and persists novel games in
// batched transactions while reporting progress.
type GameSyncService struct {
	db      *gorm.DB
	lichess *LichessClient
	tracker *SyncJobTracker
}

// NewGameSyncService constructs a GameSyncService.
func NewGameSyncService(db *gorm.DB, lichess *LichessClient, tracker *SyncJobTracker) *GameSyncService {
	if db == nil {
		db = config.DB
	}
	if lichess == nil {
		lichess = NewLichessClient(nil)
	}
	if tracker == nil {
		tracker = NewSyncJobTracker(nil)
	}
	return &GameSyncService{db: db, lichess: lichess, tracker: tracker}
}

// Run executes one complete sync pass. Per-record problems (malformed lines,
// records for other accounts, already-imported games) are counted as skipped
// and never abort the pass; transport and database failures do, leaving
// already-committed batches in place.
func (s *GameSyncService) Run(ctx context.Context, input *GameSyncInput) (*SyncResult, error) {
	if input == nil {
		return nil, errors.New("input is nil")
	}
	if input.UserID == 0 {
		return nil, errors.New("user id is required")
	}
	if strings.TrimSpace(input.LichessUsername) == "" {
		return nil, errors.New("lichess username is required")
	}
	if !utils.ValidateLichessUsername(input.LichessUsername) {
		return nil, fmt.Errorf("invalid lichess username: %q", input.LichessUsername)
	}
	if strings.TrimSpace(input.AccessToken) == "" {
		return nil, errors.New("access token is required")
	}

	run, err := s.startRun(ctx, input)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	var syncErr error

	defer func() {
		if err := s.finishRun(ctx, run.ID, result, syncErr); err != nil {
			log.Printf("failed to update game sync run %d: %v", run.ID, err)
		}
	}()

	s.reportProgress(ctx, input.JobID, 0, 1, "Starting game synchronization...")

	stream, err := s.lichess.StreamGames(ctx, input.LichessUsername, input.AccessToken, input.MaxGames)
	if err != nil {
		syncErr = err
		return nil, err
	}
	defer stream.Close()

	var pending []*models.Game

	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 64*1024), gameSyncMaxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		result.TotalGames++

		entry, err := parseGameLine(line)
		if err != nil {
			result.Skipped++
			log.Printf("game sync: skipping malformed record: %v", err)
			continue
		}

		exists, err := s.gameExists(ctx, entry.ID)
		if err != nil {
			syncErr = err
			return nil, err
		}
		if exists {
			result.Skipped++
			continue
		}

		game, ok := buildGame(entry, input.UserID, input.LichessUsername)
		if !ok {
			result.Skipped++
			continue
		}

		pending = append(pending, game)
		if len(pending) >= gameSyncBatchSize {
			if err := s.flush(ctx, pending); err != nil {
				syncErr = err
				return nil, err
			}
			result.Processed += len(pending)
			pending = pending[:0]
			s.reportProgress(ctx, input.JobID, result.Processed, result.TotalGames,
				fmt.Sprintf("Processed %d games...", result.Processed))
		}
	}

	if err := scanner.Err(); err != nil {
		syncErr = fmt.Errorf("read game stream: %w", err)
		return nil, syncErr
	}

	if len(pending) > 0 {
		if err := s.flush(ctx, pending); err != nil {
			syncErr = err
			return nil, err
		}
		result.Processed += len(pending)
	}

	result.Message = fmt.Sprintf("Successfully synced %d new games", result.Processed)
	s.reportProgress(ctx, input.JobID, result.Processed, result.TotalGames,
		fmt.Sprintf("Completed! Synced %d new games", result.Processed))

	return result, nil
}

// gameExists checks whether a game id has already been imported, for any
// owner. The id is globally unique on the platform.
func (s *GameSyncService) gameExists(ctx context.Context, gameID string) (bool, error) {
	if gameID == "" {
		return false, nil
	}
	var game models.Game
	err := s.db.WithContext(ctx).Select("id").Where("id = ?", gameID).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check existing game %s: %w", gameID, err)
	}
	return true, nil
}

// flush commits one batch in a single transaction. ON CONFLICT DO NOTHING
// backstops the per-record existence check: a concurrent pass that raced past
// dedup cannot produce a duplicate row, only a silently ignored insert.
func (s *GameSyncService) flush(ctx context.Context, batch []*models.Game) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&batch).Error; err != nil {
			return fmt.Errorf("insert game batch: %w", err)
		}
		return nil
	})
}

func (s *GameSyncService) reportProgress(ctx context.Context, jobID string, current, total int, message string) {
	if jobID == "" {
		return
	}
	if err := s.tracker.SetProgress(ctx, jobID, current, total, message); err != nil {
		log.Printf("game sync: failed to report progress for job %s: %v", jobID, err)
	}
}

func (s *GameSyncService) startRun(ctx context.Context, input *GameSyncInput) (*models.GameSyncRun, error) {
	trigger := input.TriggerSource
	if trigger == "" {
		trigger = "unknown"
	}
	run := &models.GameSyncRun{
		UserID:        input.UserID,
		JobID:         input.JobID,
		TriggerSource: trigger,
		Status:        models.GameSyncRunStatusRunning,
		StartedAt:     time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("create game sync run: %w", err)
	}
	return run, nil
}

func (s *GameSyncService) finishRun(ctx context.Context, runID uint, result *SyncResult, syncErr error) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":      models.GameSyncRunStatusSuccess,
		"finished_at": now,
	}
	if result != nil {
		updates["games_seen"] = result.TotalGames
		updates["games_imported"] = result.Processed
		updates["games_skipped"] = result.Skipped
	}
	if syncErr != nil {
		msg := syncErr.Error()
		if len(msg) > 1000 {
			msg = msg[:997] + "..."
		}
		updates["status"] = models.GameSyncRunStatusFailed
		updates["error_message"] = msg
	}
	return s.db.WithContext(ctx).Model(&models.GameSyncRun{}).Where("id = ?", runID).Updates(updates).Error
}
