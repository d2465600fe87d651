package rating

import (
	"errors"
	"math"
)

// ErrEmptyTeam means a caller passed a zero-size team. That is a caller
// bug, not a runtime condition, and callers should treat it as fatal.
var ErrEmptyTeam = errors.New("rating: team must not be empty")

const DefaultK = 28

// Lookup resolves a player id to its current rating. Unseen players are
// expected to resolve to 1000.
type Lookup func(id string) int

// UpdateTeamRatings computes per-player Elo deltas for a team-vs-team
// result. The team delta is k*(1-expected) for the winner and
// k*(0-expected) for the loser, split evenly across members and rounded
// per player independently, so a team's player deltas may sum to one
// off the team delta. Inputs are never mutated.
func UpdateTeamRatings(winners, losers []string, look Lookup, k float64) (map[string]int, error) {
	if len(winners) == 0 || len(losers) == 0 {
		return nil, ErrEmptyTeam
	}

	winAvg := average(winners, look)
	loseAvg := average(losers, look)

	expectedWin := 1 / (1 + math.Pow(10, (loseAvg-winAvg)/400))
	expectedLose := 1 - expectedWin

	winDelta := k * (1 - expectedWin)
	loseDelta := k * (0 - expectedLose)

	deltas := make(map[string]int, len(winners)+len(losers))
	for _, id := range winners {
		deltas[id] = int(math.Round(winDelta / float64(len(winners))))
	}
	for _, id := range losers {
		deltas[id] = int(math.Round(loseDelta / float64(len(losers))))
	}
	return deltas, nil
}

func average(ids []string, look Lookup) float64 {
	sum := 0
	for _, id := range ids {
		sum += look(id)
	}
	return float64(sum) / float64(len(ids))
}
