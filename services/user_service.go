package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lichess-stats-api/config"
	"lichess-stats-api/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserService manages accounts established through the Lichess OAuth flow.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) *UserService {
	if db == nil {
		db = config.DB
	}
	return &UserService{db: db}
}

// UpsertFromLichess creates or refreshes the local account for a Lichess
// identity and stores the bearer credential, in one transaction.
func (s *UserService) UpsertFromLichess(ctx context.Context, account *LichessAccount, token *LichessTokenResponse) (*models.User, error) {
	if account == nil || account.ID == "" {
		return nil, errors.New("lichess account is required")
	}
	if token == nil || token.AccessToken == "" {
		return nil, errors.New("access token is required")
	}

	var user models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("lichess_id = ?", account.ID).First(&user).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			user = models.User{
				LichessID:   account.ID,
				Username:    account.Username,
				ProfileData: datatypes.JSON(account.Raw),
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("create user: %w", err)
			}
		} else {
			user.Username = account.Username
			user.ProfileData = datatypes.JSON(account.Raw)
			if err := tx.Save(&user).Error; err != nil {
				return fmt.Errorf("update user: %w", err)
			}
		}

		return s.saveToken(tx, user.ID, token)
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *UserService) saveToken(tx *gorm.DB, userID uint, token *LichessTokenResponse) error {
	var expiresAt *time.Time
	if token.ExpiresIn != nil && *token.ExpiresIn > 0 {
		t := time.Now().Add(time.Duration(*token.ExpiresIn) * time.Second)
		expiresAt = &t
	}

	var existing models.OAuthToken
	err := tx.Where("user_id = ?", userID).First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&models.OAuthToken{
			UserID:      userID,
			AccessToken: token.AccessToken,
			ExpiresAt:   expiresAt,
		}).Error
	}

	existing.AccessToken = token.AccessToken
	if expiresAt != nil {
		existing.ExpiresAt = expiresAt
	}
	return tx.Save(&existing).Error
}

// UpdateProfileData refreshes the stored profile snapshot for a user.
func (s *UserService) UpdateProfileData(ctx context.Context, userID uint, profile json.RawMessage) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("profile_data", datatypes.JSON(profile)).Error
}
