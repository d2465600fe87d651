package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Resteral/DiscordActivity/internal/player"
)

// Row is one game line from the stat export:
// team, accountId, stealsOrTurnovers, goals, assists, shots, pickups,
// passes, passesReceived, possession, shotsAllowed, saves, goalieTime,
// skaterTime.
const fieldCount = 14

type Row struct {
	Team           string
	AccountID      string
	Steals         int
	Goals          int
	Assists        int
	Shots          int
	Pickups        int
	Passes         int
	PassesReceived int
	Possession     int
	ShotsAllowed   int
	Saves          int
	GoalieTime     int
	SkaterTime     int
}

// ParseRows reads newline-delimited 14-field records. Blank lines are
// skipped; a malformed line fails the whole batch.
func ParseRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fieldCount
	cr.TrimLeadingSpace = true

	var rows []Row
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("stats: line %d: %w", line+1, err)
		}
		line++

		row := Row{
			Team:      strings.TrimSpace(record[0]),
			AccountID: strings.TrimSpace(record[1]),
		}
		nums := []*int{
			&row.Steals, &row.Goals, &row.Assists, &row.Shots,
			&row.Pickups, &row.Passes, &row.PassesReceived, &row.Possession,
			&row.ShotsAllowed, &row.Saves, &row.GoalieTime, &row.SkaterTime,
		}
		for i, dst := range nums {
			v, err := strconv.Atoi(strings.TrimSpace(record[i+2]))
			if err != nil {
				return nil, fmt.Errorf("stats: line %d field %d: %w", line, i+3, err)
			}
			*dst = v
		}
		rows = append(rows, row)
	}
}

// Aggregate folds rows into per-account totals, one Games increment per
// row.
func Aggregate(rows []Row) map[string]player.Stats {
	out := make(map[string]player.Stats)
	for _, r := range rows {
		s := out[r.AccountID]
		s.Steals += r.Steals
		s.Goals += r.Goals
		s.Assists += r.Assists
		s.Shots += r.Shots
		s.Pickups += r.Pickups
		s.Passes += r.Passes
		s.PassesReceived += r.PassesReceived
		s.Possession += r.Possession
		s.ShotsAllowed += r.ShotsAllowed
		s.Saves += r.Saves
		s.GoalieTime += r.GoalieTime
		s.SkaterTime += r.SkaterTime
		s.Games++
		out[r.AccountID] = s
	}
	return out
}

// TeamGoals sums goals per team name.
func TeamGoals(rows []Row) map[string]int {
	out := make(map[string]int)
	for _, r := range rows {
		out[r.Team] += r.Goals
	}
	return out
}

// Winner infers the match winner from summed team goals. A tie, or an
// empty batch, yields no winner.
func Winner(rows []Row) (string, bool) {
	goals := TeamGoals(rows)

	best := ""
	bestGoals := -1
	tied := false
	for team, g := range goals {
		switch {
		case g > bestGoals:
			best, bestGoals, tied = team, g, false
		case g == bestGoals:
			tied = true
		}
	}
	if best == "" || tied {
		return "", false
	}
	return best, true
}
