package tourney

import (
	"errors"
	"fmt"
	"time"

	"github.com/Resteral/DiscordActivity/internal/bracket"
	"github.com/Resteral/DiscordActivity/internal/draft"
	"github.com/Resteral/DiscordActivity/internal/player"
	"github.com/Resteral/DiscordActivity/internal/rating"
)

var ErrWrongPhase = errors.New("tourney: operation not valid in this phase")
var ErrTeamNameTaken = errors.New("tourney: team name already in use")
var ErrOwnerExists = errors.New("tourney: player already owns a team")
var ErrDraftIncomplete = errors.New("tourney: draft is not complete")
var ErrUnknownDraftMode = errors.New("tourney: unknown draft mode")

type DraftMode string

const (
	DraftSnake   DraftMode = "snake"
	DraftAuction DraftMode = "auction"
)

type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhaseDrafting Phase = "drafting"
	PhaseBracket  Phase = "bracket"
)

type Config struct {
	Mode         DraftMode
	RosterSize   int
	BuyIn        int
	BaseDuration time.Duration
	Extension    time.Duration
}

// Tournament is the coordinator: it collects owners and a player pool,
// runs one draft, then runs a single-elimination bracket over the
// drafted teams. Every recorded result feeds the rating engine. Methods
// are not goroutine-safe; the Runner serializes access.
type Tournament struct {
	cfg      Config
	phase    Phase
	registry *player.Registry
	clock    draft.Clock

	owners []draft.Owner
	pool   []string
	inPool map[string]bool

	snake   *draft.Snake
	auction *draft.Auction

	teams map[string][]string
	brack *bracket.Bracket
	rated map[int]bool
}

func New(cfg Config, reg *player.Registry, clock draft.Clock) (*Tournament, error) {
	if cfg.Mode != DraftSnake && cfg.Mode != DraftAuction {
		return nil, ErrUnknownDraftMode
	}
	if cfg.RosterSize <= 0 {
		return nil, draft.ErrBadRosterSize
	}
	if clock == nil {
		clock = draft.SystemClock()
	}
	return &Tournament{
		cfg:      cfg,
		phase:    PhaseSetup,
		registry: reg,
		clock:    clock,
		inPool:   make(map[string]bool),
	}, nil
}

func (t *Tournament) Phase() Phase { return t.phase }

// AddOwner promotes a player to team owner. In auction mode the buy-in
// is debited from the owner's wallet and becomes the bidding budget, so
// an owner who cannot cover it is refused up front.
func (t *Tournament) AddOwner(playerID, teamName string) error {
	if t.phase != PhaseSetup {
		return ErrWrongPhase
	}
	for _, o := range t.owners {
		if o.TeamName == teamName {
			return ErrTeamNameTaken
		}
		if o.PlayerID == playerID {
			return ErrOwnerExists
		}
	}

	budget := 0
	if t.cfg.Mode == DraftAuction {
		if err := t.registry.Debit(playerID, t.cfg.BuyIn); err != nil {
			return fmt.Errorf("buy-in: %w", err)
		}
		budget = t.cfg.BuyIn
	}
	t.owners = append(t.owners, draft.Owner{PlayerID: playerID, TeamName: teamName, Budget: budget})
	return nil
}

// AddToPool registers a draftable player. Owners are filtered out at
// draft start either way.
func (t *Tournament) AddToPool(playerID string) error {
	if t.phase != PhaseSetup {
		return ErrWrongPhase
	}
	if !t.inPool[playerID] {
		t.inPool[playerID] = true
		t.pool = append(t.pool, playerID)
	}
	return nil
}

func (t *Tournament) StartDraft() error {
	if t.phase != PhaseSetup {
		return ErrWrongPhase
	}
	var err error
	switch t.cfg.Mode {
	case DraftSnake:
		t.snake, err = draft.NewSnake(t.owners, t.cfg.RosterSize)
	case DraftAuction:
		t.auction, err = draft.NewAuction(t.owners, t.pool, draft.AuctionConfig{
			RosterSize:   t.cfg.RosterSize,
			BaseDuration: t.cfg.BaseDuration,
			Extension:    t.cfg.Extension,
		}, t.clock)
	}
	if err != nil {
		return err
	}
	t.phase = PhaseDrafting
	return nil
}

func (t *Tournament) Snake() *draft.Snake     { return t.snake }
func (t *Tournament) Auction() *draft.Auction { return t.auction }

func (t *Tournament) Pick(playerID string) error {
	if t.phase != PhaseDrafting || t.snake == nil {
		return ErrWrongPhase
	}
	if !t.inPool[playerID] {
		return draft.ErrNotInPool
	}
	return t.snake.Pick(playerID)
}

func (t *Tournament) Nominate(team, playerID string) error {
	if t.phase != PhaseDrafting || t.auction == nil {
		return ErrWrongPhase
	}
	return t.auction.Nominate(team, playerID)
}

func (t *Tournament) Bid(team string, increment int) error {
	if t.phase != PhaseDrafting || t.auction == nil {
		return ErrWrongPhase
	}
	return t.auction.Bid(team, increment)
}

func (t *Tournament) ResolveNomination() (draft.Award, error) {
	if t.phase != PhaseDrafting || t.auction == nil {
		return draft.Award{}, ErrWrongPhase
	}
	return t.auction.Resolve()
}

func (t *Tournament) draftComplete() bool {
	if t.snake != nil {
		return t.snake.Complete()
	}
	if t.auction != nil {
		return t.auction.Complete()
	}
	return false
}

func (t *Tournament) assignments() map[string][]string {
	if t.snake != nil {
		return t.snake.Assignments()
	}
	return t.auction.Assignments()
}

// StartBracket locks the drafted teams and builds the bracket. A team's
// match roster is its owner plus the drafted players, in owner order.
func (t *Tournament) StartBracket() error {
	if t.phase != PhaseDrafting {
		return ErrWrongPhase
	}
	if !t.draftComplete() {
		return ErrDraftIncomplete
	}

	picks := t.assignments()
	t.teams = make(map[string][]string, len(t.owners))
	names := make([]string, 0, len(t.owners))
	for _, o := range t.owners {
		t.teams[o.TeamName] = append([]string{o.PlayerID}, picks[o.TeamName]...)
		names = append(names, o.TeamName)
	}

	b, err := bracket.New(names)
	if err != nil {
		return err
	}
	t.brack = b
	t.rated = make(map[int]bool)
	t.phase = PhaseBracket
	return nil
}

func (t *Tournament) Nodes() []bracket.Node {
	if t.brack == nil {
		return nil
	}
	return t.brack.Nodes()
}

// RecordResult stores a match winner and applies rating deltas to both
// rosters. Ratings move only on a node's first recording; a later
// correction fixes the bracket without double-counting ratings.
func (t *Tournament) RecordResult(nodeID int, winner, score string) error {
	if t.phase != PhaseBracket {
		return ErrWrongPhase
	}

	// identify the loser before recording, off the derived node
	nodes := t.brack.Nodes()
	if nodeID < 0 || nodeID >= len(nodes) {
		return bracket.ErrUnknownNode
	}
	n := nodes[nodeID]

	if err := t.brack.Record(nodeID, winner, score); err != nil {
		return err
	}

	if t.rated[nodeID] {
		return nil
	}
	loser := n.Home
	if loser == winner {
		loser = n.Away
	}
	deltas, err := rating.UpdateTeamRatings(t.teams[winner], t.teams[loser], t.registry.RatingOf, rating.DefaultK)
	if err != nil {
		return err
	}
	t.registry.ApplyDeltas(deltas)
	t.rated[nodeID] = true
	return nil
}

// NewChampion reports the champion once per distinct value.
func (t *Tournament) NewChampion() (string, bool) {
	if t.brack == nil {
		return "", false
	}
	return t.brack.NewChampion()
}

func (t *Tournament) Teams() map[string][]string {
	out := make(map[string][]string, len(t.teams))
	for name, roster := range t.teams {
		out[name] = append([]string(nil), roster...)
	}
	return out
}

func (t *Tournament) Owners() []draft.Owner {
	if t.snake != nil {
		return t.snake.Owners()
	}
	if t.auction != nil {
		return t.auction.Owners()
	}
	out := make([]draft.Owner, len(t.owners))
	copy(out, t.owners)
	return out
}
