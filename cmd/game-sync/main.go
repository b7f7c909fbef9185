package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"lichess-stats-api/config"
	"lichess-stats-api/models"
	"lichess-stats-api/services"

	"github.com/joho/godotenv"
)

// Manual sync runner: executes one pass synchronously for one user, outside
// the API's job machinery.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.InitDB()
	config.MigrateDB()

	var (
		userID   uint64
		maxGames int
	)

	flag.Uint64Var(&userID, "user-id", 0, "id of the user to sync (required)")
	flag.IntVar(&maxGames, "max", 0, "maximum number of games to request (optional)")
	flag.Parse()

	if userID == 0 {
		log.Fatal("-user-id is required")
	}
	if maxGames < 0 {
		log.Fatal("max must be greater than or equal to 0")
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", userID).Error; err != nil {
		log.Fatalf("load user %d: %v", userID, err)
	}

	var token models.OAuthToken
	if err := config.DB.Where("user_id = ?", userID).First(&token).Error; err != nil {
		log.Fatalf("no lichess token stored for user %d: %v", userID, err)
	}

	sync := services.NewGameSyncService(nil, nil, nil)
	result, err := sync.Run(context.Background(), &services.GameSyncInput{
		UserID:          user.ID,
		LichessUsername: user.Username,
		AccessToken:     token.AccessToken,
		MaxGames:        maxGames,
		TriggerSource:   "cli",
	})
	if err != nil {
		log.Printf("game sync failed: %v", err)
		os.Exit(2)
	}

	fmt.Printf("Games seen: %d, imported: %d, skipped: %d\n",
		result.TotalGames, result.Processed, result.Skipped)
	fmt.Println(result.Message)
}
