package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"lichess-stats-api/models"
)

// lichessGameEntry mirrors one line of the NDJSON game export.
type lichessGameEntry struct {
	ID          string             `json:"id"`
	CreatedAt   int64              `json:"createdAt"`
	Perf        string             `json:"perf"`
	Status      string             `json:"status"`
	Winner      string             `json:"winner"`
	DaysPerTurn int                `json:"daysPerTurn"`
	Clock       *lichessClock      `json:"clock"`
	Players     lichessGamePlayers `json:"players"`
}

type lichessClock struct {
	Initial   int `json:"initial"`
	Increment int `json:"increment"`
}

type lichessGamePlayers struct {
	White lichessPlayer `json:"white"`
	Black lichessPlayer `json:"black"`
}

type lichessPlayer struct {
	User   *lichessPlayerUser `json:"user"`
	Rating *int               `json:"rating"`
}

type lichessPlayerUser struct {
	Name string `json:"name"`
}

func (p lichessPlayer) name() string {
	if p.User == nil {
		return ""
	}
	return p.User.Name
}

func parseGameLine(line []byte) (*lichessGameEntry, error) {
	var entry lichessGameEntry
	if err := json.Unmarshal(line, &entry); err != nil {
		return nil, fmt.Errorf("parse game record: %w", err)
	}
	return &entry, nil
}

// buildGame normalizes one raw game record for the given importing account.
// It returns (nil, false) when the record does not apply to this account or
// is missing a required field; such records are counted as skipped by the
// caller and never abort the pass. A returned Game is always fully populated.
func buildGame(entry *lichessGameEntry, userID uint, lichessUsername string) (*models.Game, bool) {
	if entry == nil || entry.ID == "" || entry.Perf == "" || entry.CreatedAt == 0 {
		return nil, false
	}

	var userColor string
	var opponent lichessPlayer
	switch {
	case strings.EqualFold(entry.Players.White.name(), lichessUsername):
		userColor = models.GameColorWhite
		opponent = entry.Players.Black
	case strings.EqualFold(entry.Players.Black.name(), lichessUsername):
		userColor = models.GameColorBlack
		opponent = entry.Players.White
	default:
		// Anonymous game, or a record for some other account.
		return nil, false
	}

	result := models.GameResultDraw
	if entry.Winner != "" {
		if entry.Winner == userColor {
			result = models.GameResultWin
		} else {
			result = models.GameResultLoss
		}
	}

	opponentName := opponent.name()
	if opponentName == "" {
		opponentName = "Anonymous"
	}

	return &models.Game{
		ID:             entry.ID,
		UserID:         userID,
		CreatedAt:      time.UnixMilli(entry.CreatedAt),
		PerfType:       entry.Perf,
		TimeControl:    buildTimeControl(entry),
		OpponentName:   opponentName,
		OpponentRating: opponent.Rating,
		UserColor:      userColor,
		Result:         result,
		Termination:    mapTermination(entry.Status),
		URL:            fmt.Sprintf("https://lichess.org/%s", entry.ID),
		ImportedAt:     time.Now().UTC(),
	}, true
}

// buildTimeControl derives a human-readable pace descriptor: "5+3" for a
// real-time clock, "2 days/move" for correspondence, nil when neither is set.
func buildTimeControl(entry *lichessGameEntry) *string {
	if entry.Clock != nil {
		tc := fmt.Sprintf("%d+%d", entry.Clock.Initial/60, entry.Clock.Increment)
		return &tc
	}
	if entry.DaysPerTurn > 0 {
		tc := fmt.Sprintf("%d days/move", entry.DaysPerTurn)
		return &tc
	}
	return nil
}

var terminationByStatus = map[string]string{
	"mate":          "checkmate",
	"resign":        "resignation",
	"outoftime":     "time",
	"timeout":       "timeout",
	"draw":          "draw",
	"stalemate":     "stalemate",
	"cheat":         "cheat",
	"noStart":       "abandoned",
	"unknownFinish": "unknown",
	"variantEnd":    "variant_end",
}

// mapTermination is total: unrecognized status codes map to "normal".
func mapTermination(status string) string {
	if termination, ok := terminationByStatus[status]; ok {
		return termination
	}
	return "normal"
}
