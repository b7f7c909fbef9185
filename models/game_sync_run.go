package models

import "time"

const (
	GameSyncRunStatusRunning = "running"
	GameSyncRunStatusSuccess = "success"
	GameSyncRunStatusFailed  = "failed"
)

// GameSyncRun is the persisted audit record of one sync pass. The live,
// pollable job state lives in Redis; this row is what remains once the job
// entry expires.
type GameSyncRun struct {
	ID uint `json:"id" gorm:"primaryKey;autoIncrement"`

	UserID        uint       `json:"user_id" gorm:"column:user_id;not null;index"`
	JobID         string     `json:"job_id" gorm:"column:job_id;type:varchar(36);not null;index"`
	TriggerSource string     `json:"trigger_source" gorm:"type:varchar(64);not null"`
	Status        string     `json:"status" gorm:"type:varchar(32);not null;default:'running'"`
	ErrorMessage  *string    `json:"error_message" gorm:"type:text"`
	StartedAt     time.Time  `json:"started_at" gorm:"column:started_at;autoCreateTime"`
	FinishedAt    *time.Time `json:"finished_at" gorm:"column:finished_at"`

	GamesSeen     uint `json:"games_seen" gorm:"column:games_seen;not null;default:0"`
	GamesImported uint `json:"games_imported" gorm:"column:games_imported;not null;default:0"`
	GamesSkipped  uint `json:"games_skipped" gorm:"column:games_skipped;not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (GameSyncRun) TableName() string { return "game_sync_runs" }
