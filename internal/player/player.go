package player

import (
	"errors"
	"sort"
	"sync"
)

var ErrUnknownPlayer = errors.New("unknown player")
var ErrInsufficientFunds = errors.New("insufficient funds")
var ErrInvalidAmount = errors.New("invalid amount")

const DefaultRating = 1000
const StartingBalance = 1000

// Stats are the per-account totals the CSV boundary hands us.
type Stats struct {
	Steals         int `json:"steals"`
	Goals          int `json:"goals"`
	Assists        int `json:"assists"`
	Shots          int `json:"shots"`
	Pickups        int `json:"pickups"`
	Passes         int `json:"passes"`
	PassesReceived int `json:"passes_received"`
	Possession     int `json:"possession"`
	ShotsAllowed   int `json:"shots_allowed"`
	Saves          int `json:"saves"`
	GoalieTime     int `json:"goalie_time"`
	SkaterTime     int `json:"skater_time"`
	Games          int `json:"games"`
}

func (s *Stats) add(o Stats) {
	s.Steals += o.Steals
	s.Goals += o.Goals
	s.Assists += o.Assists
	s.Shots += o.Shots
	s.Pickups += o.Pickups
	s.Passes += o.Passes
	s.PassesReceived += o.PassesReceived
	s.Possession += o.Possession
	s.ShotsAllowed += o.ShotsAllowed
	s.Saves += o.Saves
	s.GoalieTime += o.GoalieTime
	s.SkaterTime += o.SkaterTime
	s.Games += o.Games
}

type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Balance int    `json:"balance"`
	Stats   Stats  `json:"stats"`
}

// Snapshot is the persistence boundary: a flat player list plus the
// connected identity.
type Snapshot struct {
	Players     []Player `json:"players"`
	ConnectedID string   `json:"connected_id"`
}

// Registry holds every player the process has seen. Wallet mutations are
// serialized behind the lock so two concurrent debits can never both
// succeed against the same balance.
type Registry struct {
	mu        sync.Mutex
	players   map[string]*Player
	connected string
}

func NewRegistry() *Registry {
	return &Registry{players: make(map[string]*Player)}
}

// Ensure creates the player on first sight; existing players keep their
// rating, balance and stats but pick up a non-empty display name.
func (r *Registry) Ensure(id, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		r.players[id] = &Player{ID: id, Name: name, Rating: DefaultRating, Balance: StartingBalance}
		return
	}
	if name != "" {
		p.Name = name
	}
}

func (r *Registry) Get(id string) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// RatingOf defaults to 1000 for players the registry has never seen.
func (r *Registry) RatingOf(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[id]; ok {
		return p.Rating
	}
	return DefaultRating
}

// Debit is the single atomic spend path for bets and buy-ins.
func (r *Registry) Debit(id string, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		return ErrUnknownPlayer
	}
	if p.Balance < amount {
		return ErrInsufficientFunds
	}
	p.Balance -= amount
	return nil
}

func (r *Registry) Credit(id string, amount int) {
	if amount <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[id]; ok {
		p.Balance += amount
	}
}

// ApplyDeltas adds rating deltas from a reported result. Unknown ids are
// created on the fly so a rating is never lost.
func (r *Registry) ApplyDeltas(deltas map[string]int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, d := range deltas {
		p, ok := r.players[id]
		if !ok {
			p = &Player{ID: id, Rating: DefaultRating, Balance: StartingBalance}
			r.players[id] = p
		}
		p.Rating += d
	}
}

func (r *Registry) Accumulate(id string, s Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok {
		p = &Player{ID: id, Rating: DefaultRating, Balance: StartingBalance}
		r.players[id] = p
	}
	p.Stats.add(s)
}

func (r *Registry) Connect(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = id
}

func (r *Registry) Connected() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected
}

// TopByRating returns up to n of the given ids ordered by rating
// descending, ties broken by id so selection is stable.
func (r *Registry) TopByRating(ids []string, n int) []string {
	r.mu.Lock()
	ranked := make([]string, len(ids))
	copy(ranked, ids)
	ratings := make(map[string]int, len(ids))
	for _, id := range ids {
		if p, ok := r.players[id]; ok {
			ratings[id] = p.Rating
		} else {
			ratings[id] = DefaultRating
		}
	}
	r.mu.Unlock()

	sort.SliceStable(ranked, func(i, j int) bool {
		if ratings[ranked[i]] != ratings[ranked[j]] {
			return ratings[ranked[i]] > ratings[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := Snapshot{ConnectedID: r.connected}
	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		snap.Players = append(snap.Players, *r.players[id])
	}
	return snap
}

func (r *Registry) Restore(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players = make(map[string]*Player, len(snap.Players))
	for _, p := range snap.Players {
		cp := p
		r.players[p.ID] = &cp
	}
	r.connected = snap.ConnectedID
}
