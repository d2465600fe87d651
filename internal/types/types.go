package types

import "github.com/Resteral/DiscordActivity/internal/lobby"

type ClientMessage struct {
	Type      string `json:"type"`
	Player    string `json:"player,omitempty"`
	Name      string `json:"name,omitempty"`
	Side      string `json:"side,omitempty"`
	Amount    int    `json:"amount,omitempty"`
	GoalsHome int    `json:"goals_home,omitempty"`
	GoalsAway int    `json:"goals_away,omitempty"`
}

type ServerMessage struct {
	Type    string       `json:"type"` // "StateSnapshot" | "Error"
	Version int          `json:"version,omitempty"`
	State   *lobby.State `json:"state,omitempty"`
	Error   string       `json:"error,omitempty"`
}
