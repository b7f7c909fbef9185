package controllers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"lichess-stats-api/config"
	"lichess-stats-api/models"
	"lichess-stats-api/services"

	"github.com/gin-gonic/gin"
)

// GET /api/profile
// Serves the user's Lichess profile, cached in Redis for an hour. A miss
// refreshes both the cache and the profile snapshot on the user row.
func GetProfile(c *gin.Context) {
	start := time.Now()

	userID, ok := getUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found in context"})
		return
	}

	cache := services.NewProfileCache(nil)
	if cached, hit, err := cache.Get(c.Request.Context(), userID); err == nil && hit {
		c.Header("X-Cache-Status", "HIT")
		c.Header("X-Response-Time", fmt.Sprintf("%.3fs", time.Since(start).Seconds()))
		c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
		return
	} else if err != nil {
		log.Printf("profile cache read failed for user %d: %v", userID, err)
	}

	token, err := lichessTokenForUser(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Lichess token not found"})
		return
	}

	lichess := services.NewLichessClient(nil)
	account, err := lichess.GetAccount(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	payload := buildProfilePayload(account)
	data, err := json.Marshal(payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := cache.Set(c.Request.Context(), userID, data); err != nil {
		log.Printf("profile cache write failed for user %d: %v", userID, err)
	}
	if err := services.NewUserService(nil).UpdateProfileData(c.Request.Context(), userID, account.Raw); err != nil {
		log.Printf("profile snapshot update failed for user %d: %v", userID, err)
	}

	c.Header("X-Cache-Status", "MISS")
	c.Header("X-Response-Time", fmt.Sprintf("%.3fs", time.Since(start).Seconds()))
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

type perfRating struct {
	Rating int   `json:"rating"`
	Games  int   `json:"games"`
	RD     *int  `json:"rd,omitempty"`
	Prog   *int  `json:"prog,omitempty"`
	Prov   *bool `json:"prov,omitempty"`
}

type profilePayload struct {
	Username  string                `json:"username"`
	URL       string                `json:"url"`
	Ratings   map[string]perfRating `json:"ratings"`
	CreatedAt int64                 `json:"createdAt"`
	SeenAt    int64                 `json:"seenAt"`
}

// buildProfilePayload flattens the account response into the per-perf rating
// map the frontend consumes, ignoring perf entries without rating data.
func buildProfilePayload(account *services.LichessAccount) *profilePayload {
	var raw struct {
		Username string `json:"username"`
		URL      string `json:"url"`
		Perfs    map[string]struct {
			Rating *int  `json:"rating"`
			Games  *int  `json:"games"`
			RD     *int  `json:"rd"`
			Prog   *int  `json:"prog"`
			Prov   *bool `json:"prov"`
		} `json:"perfs"`
		CreatedAt int64 `json:"createdAt"`
		SeenAt    int64 `json:"seenAt"`
	}
	_ = json.Unmarshal(account.Raw, &raw)

	ratings := make(map[string]perfRating)
	for perfType, perf := range raw.Perfs {
		if perf.Rating == nil || perf.Games == nil {
			continue
		}
		ratings[perfType] = perfRating{
			Rating: *perf.Rating,
			Games:  *perf.Games,
			RD:     perf.RD,
			Prog:   perf.Prog,
			Prov:   perf.Prov,
		}
	}

	return &profilePayload{
		Username:  raw.Username,
		URL:       raw.URL,
		Ratings:   ratings,
		CreatedAt: raw.CreatedAt,
		SeenAt:    raw.SeenAt,
	}
}

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	userID, ok := value.(uint)
	return userID, ok
}

func lichessTokenForUser(userID uint) (string, error) {
	var token models.OAuthToken
	if err := config.DB.Where("user_id = ?", userID).First(&token).Error; err != nil {
		return "", err
	}
	return token.AccessToken, nil
}
