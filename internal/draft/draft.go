package draft

import (
	"errors"
	"time"
)

var ErrNoOwners = errors.New("draft: need at least one owner")
var ErrBadRosterSize = errors.New("draft: roster size must be positive")
var ErrWrongTurn = errors.New("draft: not this owner's turn")
var ErrPlayerTaken = errors.New("draft: player already taken")
var ErrRosterFull = errors.New("draft: roster already full")
var ErrDraftComplete = errors.New("draft: every roster is full")

// Owner is a player promoted to run a team for one draft session.
// Budget only matters to the auction draft.
type Owner struct {
	PlayerID string   `json:"player_id"`
	TeamName string   `json:"team_name"`
	Budget   int      `json:"budget"`
	Roster   []string `json:"roster"`
}

// Clock abstracts real time so auction deadline math is testable
// without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }
