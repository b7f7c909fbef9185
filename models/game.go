package models

import "time"

const (
	GameResultWin  = "win"
	GameResultLoss = "loss"
	GameResultDraw = "draw"

	GameColorWhite = "white"
	GameColorBlack = "black"
)

// Game is one imported match. The primary key is the Lichess game id, which
// is globally unique and never regenerated, so re-importing the same history
// is idempotent. Rows are insert-only; a later sync pass never rewrites an
// existing game.
type Game struct {
	ID     string `gorm:"primaryKey;type:varchar(16)" json:"id"`
	UserID uint   `gorm:"column:user_id;not null;index:idx_games_user_created;index:idx_games_user_perf" json:"user_id"`

	CreatedAt   time.Time `gorm:"column:created_at;not null;index:idx_games_user_created" json:"created_at"`
	PerfType    string    `gorm:"column:perf_type;type:varchar(50);not null;index:idx_games_user_perf" json:"perf_type"`
	TimeControl *string   `gorm:"column:time_control;type:varchar(50)" json:"time_control"`

	OpponentName   string `gorm:"column:opponent_name;type:varchar(255);not null" json:"opponent_name"`
	OpponentRating *int   `gorm:"column:opponent_rating" json:"opponent_rating"`

	UserColor   string `gorm:"column:user_color;type:varchar(10);not null" json:"user_color"`
	Result      string `gorm:"column:result;type:varchar(10);not null" json:"result"`
	Termination string `gorm:"column:termination;type:varchar(50);not null" json:"termination"`

	URL        string    `gorm:"column:url;type:varchar(512);not null" json:"url"`
	ImportedAt time.Time `gorm:"column:imported_at;not null;autoCreateTime" json:"-"`
}

func (Game) TableName() string { return "games" }
