package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"lichess-stats-api/services"

	"github.com/gin-gonic/gin"
)

// POST /api/games/sync
// Enqueues an asynchronous sync pass and returns its job handle immediately.
func TriggerGamesSync(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found in context"})
		return
	}

	jobs := services.NewSyncJobService(nil, nil)
	jobID, err := jobs.Trigger(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrLichessTokenNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Lichess token not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id": jobID,
		"message": "Game synchronization started",
	})
}

// GET /api/games/sync/status/:task_id
func GetSyncStatus(c *gin.Context) {
	jobID := c.Param("task_id")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing task_id"})
		return
	}

	state, err := services.NewSyncJobService(nil, nil).Status(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{
		"task_id": jobID,
		"state":   state.State,
		"current": state.Current,
		"total":   state.Total,
		"percent": state.Percent,
		"message": state.Message,
	}
	if state.Result != nil {
		response["result"] = state.Result
	}

	c.JSON(http.StatusOK, response)
}

// GET /api/games?page=1&limit=20&perf_type=blitz
// Lists the user's imported games, newest first.
func GetGames(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found in context"})
		return
	}

	page := parseIntOrDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	limit := parseIntOrDefault(c.Query("limit"), 20)
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	games, total, err := services.NewGameQueryService(nil).ListByUser(userID, c.Query("perf_type"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	pages := int((total + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, gin.H{
		"items": games,
		"total": total,
		"page":  page,
		"limit": limit,
		"pages": pages,
	})
}

func parseIntOrDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
