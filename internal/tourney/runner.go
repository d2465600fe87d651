package tourney

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Resteral/DiscordActivity/internal/bracket"
	"github.com/Resteral/DiscordActivity/internal/draft"
	"github.com/Resteral/DiscordActivity/internal/player"
)

type Msg interface{ isRunnerMsg() }

type AddOwnerMsg struct {
	PlayerID string
	TeamName string
	Reply    chan error
}

type AddToPoolMsg struct {
	PlayerID string
	Reply    chan error
}

type StartDraftMsg struct{ Reply chan error }

type PickMsg struct {
	PlayerID string
	Reply    chan error
}

type NominateMsg struct {
	Team     string
	PlayerID string
	Reply    chan error
}

type BidMsg struct {
	Team      string
	Increment int
	Reply     chan error
}

// AwardNowMsg resolves the open nomination without waiting for the
// timer.
type AwardNowMsg struct{ Reply chan error }

type StartBracketMsg struct{ Reply chan error }

type RecordResultMsg struct {
	NodeID int
	Winner string
	Score  string
	Reply  chan error
}

type JoinMsg struct {
	ClientID string
	Outbox   chan View
}

type LeaveMsg struct{ ClientID string }

type GetStateMsg struct{ Reply chan View }

type ShutdownMsg struct{}

// deadlineFired is posted when the auction round timer expires. Gen
// drops fires from rounds that were already resolved or re-armed.
type deadlineFired struct{ gen int }

func (AddOwnerMsg) isRunnerMsg()     {}
func (AddToPoolMsg) isRunnerMsg()    {}
func (StartDraftMsg) isRunnerMsg()   {}
func (PickMsg) isRunnerMsg()         {}
func (NominateMsg) isRunnerMsg()     {}
func (BidMsg) isRunnerMsg()          {}
func (AwardNowMsg) isRunnerMsg()     {}
func (StartBracketMsg) isRunnerMsg() {}
func (RecordResultMsg) isRunnerMsg() {}
func (JoinMsg) isRunnerMsg()         {}
func (LeaveMsg) isRunnerMsg()        {}
func (GetStateMsg) isRunnerMsg()     {}
func (ShutdownMsg) isRunnerMsg()     {}
func (deadlineFired) isRunnerMsg()   {}

// View is the broadcast snapshot of a tournament.
type View struct {
	Version      int            `json:"version"`
	Phase        Phase          `json:"phase"`
	Owners       []draft.Owner  `json:"owners"`
	AuctionPhase string         `json:"auction_phase,omitempty"`
	Nominated    string         `json:"nominated,omitempty"`
	Deadline     time.Time      `json:"deadline,omitempty"`
	LastAward    *draft.Award   `json:"last_award,omitempty"`
	Nodes        []bracket.Node `json:"nodes,omitempty"`
	Champion     string         `json:"champion,omitempty"`
}

// Runner is the actor that owns one tournament: all mutations are
// serialized through its inbox and it owns the auction round timer.
type Runner struct {
	inbox   chan Msg
	t       *Tournament
	version int
	clients map[string]chan View
	log     *zap.Logger

	timer     *time.Timer
	timerGen  int
	lastAward *draft.Award
	champion  string

	ctx    context.Context
	cancel context.CancelFunc
}

func NewRunner(parent context.Context, cfg Config, reg *player.Registry, log *zap.Logger) (*Runner, error) {
	t, err := New(cfg, reg, draft.SystemClock())
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(parent)
	r := &Runner{
		inbox:   make(chan Msg, 64),
		t:       t,
		clients: make(map[string]chan View),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go r.loop()
	return r, nil
}

func (r *Runner) Inbox() chan<- Msg { return r.inbox }

func (r *Runner) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case AddOwnerMsg:
				r.reply(msg.Reply, r.t.AddOwner(msg.PlayerID, msg.TeamName))
			case AddToPoolMsg:
				r.reply(msg.Reply, r.t.AddToPool(msg.PlayerID))
			case StartDraftMsg:
				r.reply(msg.Reply, r.t.StartDraft())
			case PickMsg:
				r.reply(msg.Reply, r.t.Pick(msg.PlayerID))
			case NominateMsg:
				err := r.t.Nominate(msg.Team, msg.PlayerID)
				if err == nil {
					r.armDeadline()
				}
				r.reply(msg.Reply, err)
			case BidMsg:
				err := r.t.Bid(msg.Team, msg.Increment)
				if err == nil {
					// the accepted bid pushed the deadline out
					r.armDeadline()
				}
				r.reply(msg.Reply, err)
			case AwardNowMsg:
				r.reply(msg.Reply, r.resolveNomination())
			case StartBracketMsg:
				r.reply(msg.Reply, r.t.StartBracket())
			case RecordResultMsg:
				err := r.t.RecordResult(msg.NodeID, msg.Winner, msg.Score)
				if err == nil {
					if champ, ok := r.t.NewChampion(); ok {
						r.champion = champ
						r.log.Info("tournament champion", zap.String("team", champ))
					}
				}
				r.reply(msg.Reply, err)

			case deadlineFired:
				if msg.gen != r.timerGen {
					break
				}
				if err := r.resolveNomination(); err != nil {
					r.log.Warn("auction timer resolution rejected", zap.Error(err))
				}

			case JoinMsg:
				r.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- r.view()
			case LeaveMsg:
				delete(r.clients, msg.ClientID)
			case GetStateMsg:
				msg.Reply <- r.view()
			case ShutdownMsg:
				r.shutdown()
				return
			}
		}
	}
}

// reply answers the caller and broadcasts on success.
func (r *Runner) reply(ch chan error, err error) {
	if err == nil {
		r.version++
		r.broadcast()
	}
	if ch != nil {
		ch <- err
	}
}

func (r *Runner) resolveNomination() error {
	award, err := r.t.ResolveNomination()
	if err != nil {
		return err
	}
	r.cancelDeadline()
	r.lastAward = &award
	if award.Sold {
		r.log.Info("player awarded",
			zap.String("player", award.Player),
			zap.String("team", award.Team),
			zap.Int("price", award.Price))
	} else {
		r.log.Info("nomination passed", zap.String("player", award.Player))
	}
	r.version++
	r.broadcast()
	return nil
}

// armDeadline points the round timer at the auction's current deadline.
// Re-arming bumps the generation, so a fire from the previous deadline
// is ignored.
func (r *Runner) armDeadline() {
	auction := r.t.Auction()
	if auction == nil {
		return
	}
	r.timerGen++
	gen := r.timerGen
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(time.Until(auction.Deadline()), func() {
		select {
		case r.inbox <- deadlineFired{gen: gen}:
		case <-r.ctx.Done():
		}
	})
}

func (r *Runner) cancelDeadline() {
	r.timerGen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Runner) view() View {
	v := View{
		Version:   r.version,
		Phase:     r.t.Phase(),
		Owners:    r.t.Owners(),
		Nodes:     r.t.Nodes(),
		LastAward: r.lastAward,
		Champion:  r.champion,
	}
	if a := r.t.Auction(); a != nil {
		v.AuctionPhase = string(a.Phase())
		v.Nominated = a.Nominated()
		v.Deadline = a.Deadline()
	}
	return v
}

func (r *Runner) broadcast() {
	snap := r.view()
	for id, ch := range r.clients {
		select {
		case ch <- snap:
		default:
			close(ch)
			delete(r.clients, id)
		}
	}
}

func (r *Runner) shutdown() {
	r.cancelDeadline()
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	r.cancel()
}
