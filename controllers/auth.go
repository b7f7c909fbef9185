package controllers

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"lichess-stats-api/config"
	"lichess-stats-api/middleware"
	"lichess-stats-api/models"
	"lichess-stats-api/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// GET /auth/login
// Starts the Lichess OAuth PKCE flow: generates the verifier/challenge pair,
// parks the verifier in the short-TTL state store, and redirects to Lichess.
func Login(c *gin.Context) {
	verifier := services.CreateVerifier()
	challenge := services.CreateChallenge(verifier)
	state := services.CreateState()

	stateStore := services.NewOAuthStateStore(nil)
	if err := stateStore.Save(c.Request.Context(), state, verifier); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start login"})
		return
	}

	lichess := services.NewLichessClient(nil)
	c.Redirect(http.StatusFound, lichess.AuthorizeURL(callbackURL(c), challenge, state))
}

// GET /auth/callback
func Callback(c *gin.Context) {
	if oauthErr := c.Query("error"); oauthErr != "" {
		detail := c.Query("error_description")
		if oauthErr == "access_denied" {
			detail = "User cancelled authorization"
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": oauthErr, "message": detail})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_code", "message": "Authorization code is required"})
		return
	}

	stateStore := services.NewOAuthStateStore(nil)
	verifier, err := stateStore.Take(c.Request.Context(), c.Query("state"))
	if err != nil {
		if errors.Is(err, services.ErrOAuthStateNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired state parameter"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	lichess := services.NewLichessClient(nil)
	token, err := lichess.ExchangeCode(c.Request.Context(), code, verifier, callbackURL(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed getting token", "message": err.Error()})
		return
	}

	account, err := lichess.GetAccount(c.Request.Context(), token.AccessToken)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed fetching account", "message": err.Error()})
		return
	}

	user, err := services.NewUserService(nil).UpsertFromLichess(c.Request.Context(), account, token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	jwtToken, err := generateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("access_token", jwtToken, 60*60*24*7, "/", "", false, true)
	c.Redirect(http.StatusFound, frontendURL())
}

// GET /auth/me
func GetMe(c *gin.Context) {
	userID, _ := c.Get("userID")

	var user models.User
	if err := config.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"lichess_id": user.LichessID,
		"username":   user.Username,
		"created_at": user.CreatedAt,
		"updated_at": user.UpdatedAt,
	})
}

// POST /auth/logout
func Logout(c *gin.Context) {
	c.SetCookie("access_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// generateToken creates the first-party session JWT.
func generateToken(user *models.User) (string, error) {
	expireHours, err := strconv.Atoi(os.Getenv("JWT_EXPIRE_HOURS"))
	if err != nil {
		expireHours = 24 * 7
	}

	claims := middleware.Claims{
		UserID:    user.ID,
		LichessID: user.LichessID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

func callbackURL(c *gin.Context) string {
	if configured := os.Getenv("LICHESS_REDIRECT_URI"); configured != "" {
		return configured
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + "/auth/callback"
}

func frontendURL() string {
	if url := strings.TrimSpace(os.Getenv("FRONTEND_URL")); url != "" {
		return url
	}
	return "/"
}
