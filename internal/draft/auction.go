package draft

import (
	"errors"
	"time"
)

var ErrNotBidding = errors.New("auction: no nomination in progress")
var ErrNominationOpen = errors.New("auction: a nomination is already in progress")
var ErrUnknownTeam = errors.New("auction: no such owner")
var ErrBadIncrement = errors.New("auction: increment must be positive")
var ErrOverBudget = errors.New("auction: bid exceeds remaining budget")
var ErrNotInPool = errors.New("auction: player not in the pool")

const (
	DefaultBaseDuration = 15 * time.Second
	MinBaseDuration     = 5 * time.Second
	MaxBaseDuration     = 120 * time.Second
	DefaultExtension    = 3 * time.Second
)

type AuctionConfig struct {
	RosterSize   int
	BaseDuration time.Duration
	Extension    time.Duration
}

func (c AuctionConfig) withDefaults() AuctionConfig {
	if c.BaseDuration == 0 {
		c.BaseDuration = DefaultBaseDuration
	}
	if c.BaseDuration < MinBaseDuration {
		c.BaseDuration = MinBaseDuration
	}
	if c.BaseDuration > MaxBaseDuration {
		c.BaseDuration = MaxBaseDuration
	}
	if c.Extension == 0 {
		c.Extension = DefaultExtension
	}
	return c
}

type AuctionPhase string

const (
	PhaseIdle    AuctionPhase = "idle"
	PhaseBidding AuctionPhase = "bidding"
)

// Bid is one accepted raise, kept in arrival order. Amount is the
// bidder's resulting total bid, not the increment.
type Bid struct {
	Team   string `json:"team"`
	Amount int    `json:"amount"`
	Seq    int    `json:"seq"`
}

// Award is the outcome of one nomination round.
type Award struct {
	Player string `json:"player"`
	Team   string `json:"team"`
	Price  int    `json:"price"`
	Sold   bool   `json:"sold"`
}

// Auction runs nomination rounds: the owner on the clock nominates a
// player, every owner may raise against their budget until the deadline
// passes, then the round resolves. Nomination order is a strict
// round-robin regardless of who has won what. The engine owns the
// deadline arithmetic; the session actor owns the real timer.
type Auction struct {
	cfg    AuctionConfig
	clock  Clock
	owners []*Owner
	byTeam map[string]*Owner
	pool   map[string]bool

	phase     AuctionPhase
	nominated string
	bids      []Bid
	current   map[string]int
	deadline  time.Time
	turn      int
	seq       int
}

func NewAuction(owners []Owner, pool []string, cfg AuctionConfig, clock Clock) (*Auction, error) {
	if len(owners) == 0 {
		return nil, ErrNoOwners
	}
	cfg = cfg.withDefaults()
	if cfg.RosterSize <= 0 {
		return nil, ErrBadRosterSize
	}
	if clock == nil {
		clock = SystemClock()
	}
	a := &Auction{
		cfg:    cfg,
		clock:  clock,
		byTeam: make(map[string]*Owner, len(owners)),
		pool:   make(map[string]bool, len(pool)),
		phase:  PhaseIdle,
	}
	ownerIDs := make(map[string]bool, len(owners))
	for i := range owners {
		o := owners[i]
		a.owners = append(a.owners, &o)
		a.byTeam[o.TeamName] = &o
		ownerIDs[o.PlayerID] = true
	}
	for _, id := range pool {
		if !ownerIDs[id] {
			a.pool[id] = true
		}
	}
	return a, nil
}

func (a *Auction) Phase() AuctionPhase { return a.phase }
func (a *Auction) Nominated() string   { return a.nominated }
func (a *Auction) Deadline() time.Time { return a.deadline }

// Nominator is the owner on the clock for the next nomination.
func (a *Auction) Nominator() *Owner { return a.owners[a.turn] }

func (a *Auction) PoolSize() int { return len(a.pool) }

// Nominate opens a bidding round on playerID and starts the base timer.
func (a *Auction) Nominate(team, playerID string) error {
	if a.phase != PhaseIdle {
		return ErrNominationOpen
	}
	if a.Complete() {
		return ErrDraftComplete
	}
	if team != a.owners[a.turn].TeamName {
		return ErrWrongTurn
	}
	if !a.pool[playerID] {
		return ErrNotInPool
	}
	a.phase = PhaseBidding
	a.nominated = playerID
	a.bids = nil
	a.current = make(map[string]int, len(a.owners))
	a.deadline = a.clock.Now().Add(a.cfg.BaseDuration)
	return nil
}

// Bid raises team's own standing bid by increment. Every accepted bid
// pushes the deadline out from wherever it currently is, so extensions
// accumulate and the remaining time never shrinks on a bid.
func (a *Auction) Bid(team string, increment int) error {
	if a.phase != PhaseBidding {
		return ErrNotBidding
	}
	if increment <= 0 {
		return ErrBadIncrement
	}
	owner, ok := a.byTeam[team]
	if !ok {
		return ErrUnknownTeam
	}
	if len(owner.Roster) >= a.cfg.RosterSize {
		return ErrRosterFull
	}
	newBid := a.current[team] + increment
	if newBid > owner.Budget {
		return ErrOverBudget
	}
	a.seq++
	a.current[team] = newBid
	a.bids = append(a.bids, Bid{Team: team, Amount: newBid, Seq: a.seq})
	a.deadline = a.deadline.Add(a.cfg.Extension)
	return nil
}

// Resolve closes the round, on timer expiry or an explicit award-now.
// The highest standing bid wins; if several owners sit at the same
// amount, the first bid that reached it wins, read off the arrival
// order of the bid log. With no bids the player stays in the pool.
// Either way the nominator turn advances.
func (a *Auction) Resolve() (Award, error) {
	if a.phase != PhaseBidding {
		return Award{}, ErrNotBidding
	}

	award := Award{Player: a.nominated}
	high := 0
	for _, amount := range a.current {
		if amount > high {
			high = amount
		}
	}
	if high > 0 {
		for _, b := range a.bids {
			if b.Amount == high {
				award.Team = b.Team
				award.Price = high
				award.Sold = true
				break
			}
		}
	}

	if award.Sold {
		owner := a.byTeam[award.Team]
		owner.Budget -= award.Price
		owner.Roster = append(owner.Roster, award.Player)
		delete(a.pool, award.Player)
	}

	a.phase = PhaseIdle
	a.nominated = ""
	a.bids = nil
	a.current = nil
	a.turn = (a.turn + 1) % len(a.owners)
	return award, nil
}

// Complete is true once every roster is full. The caller declares the
// draft over; the engine never self-terminates.
func (a *Auction) Complete() bool {
	for _, o := range a.owners {
		if len(o.Roster) < a.cfg.RosterSize {
			return false
		}
	}
	return true
}

func (a *Auction) Owners() []Owner {
	out := make([]Owner, len(a.owners))
	for i, o := range a.owners {
		out[i] = *o
	}
	return out
}

func (a *Auction) Assignments() map[string][]string {
	out := make(map[string][]string, len(a.owners))
	for _, o := range a.owners {
		roster := make([]string, len(o.Roster))
		copy(roster, o.Roster)
		out[o.TeamName] = roster
	}
	return out
}
