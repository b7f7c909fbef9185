package services

import (
	"fmt"

	"lichess-stats-api/config"
	"lichess-stats-api/models"

	"gorm.io/gorm"
)

// GameQueryService reads previously imported games.
type GameQueryService struct {
	db *gorm.DB
}

// NewGameQueryService constructs a GameQueryService.
func NewGameQueryService(db *gorm.DB) *GameQueryService {
	if db == nil {
		db = config.DB
	}
	return &GameQueryService{db: db}
}

// ListByUser returns one page of a user's games, newest first, optionally
// filtered by perf type.
func (s *GameQueryService) ListByUser(userID uint, perfType string, page, limit int) ([]models.Game, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := s.db.Model(&models.Game{}).Where("user_id = ?", userID)
	if perfType != "" {
		query = query.Where("perf_type = ?", perfType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count games: %w", err)
	}

	var games []models.Game
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&games).Error; err != nil {
		return nil, 0, fmt.Errorf("list games: %w", err)
	}

	return games, total, nil
}
