package models

import (
	"time"

	"gorm.io/datatypes"
)

// User is an account established through the Lichess OAuth flow. The
// lichess_id is the stable external identity; username can change on the
// platform and is refreshed on every login.
type User struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	LichessID   string         `gorm:"column:lichess_id;type:varchar(255);uniqueIndex;not null" json:"lichess_id"`
	Username    string         `gorm:"column:username;type:varchar(255);not null" json:"username"`
	ProfileData datatypes.JSON `gorm:"column:profile_data" json:"profile_data,omitempty"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	OAuthToken *OAuthToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Games      []Game      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string { return "users" }

// OAuthToken stores the Lichess bearer credential for one user. The importer
// only ever reads it.
type OAuthToken struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint       `gorm:"column:user_id;not null;index" json:"user_id"`
	AccessToken string     `gorm:"column:access_token;type:varchar(512);not null" json:"-"`
	ExpiresAt   *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (OAuthToken) TableName() string { return "oauth_tokens" }
