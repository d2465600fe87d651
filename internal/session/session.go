package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Resteral/DiscordActivity/internal/betting"
	"github.com/Resteral/DiscordActivity/internal/lobby"
	"github.com/Resteral/DiscordActivity/internal/player"
	"github.com/Resteral/DiscordActivity/internal/rating"
)

type Msg interface{ isSessionMsg() }

// FromClient carries a lobby command. Reply, when non-nil, receives the
// engine's verdict so rejections surface to the caller instead of
// vanishing.
type FromClient struct {
	Cmd   lobby.Command
	Reply chan error
}

func (FromClient) isSessionMsg() {}

type PlaceBet struct {
	Bettor string
	Side   lobby.Side
	Amount int
	Reply  chan error
}

func (PlaceBet) isSessionMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot
}

func (Join) isSessionMsg() {}

type Leave struct{ ClientID string }

func (Leave) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// timerFired is posted by the countdown timer. Gen guards against a
// stale fire racing a cancel: only the current generation is honored.
type timerFired struct{ gen int }

func (timerFired) isSessionMsg() {}

type Snapshot struct {
	Version int
	State   lobby.State
}

type View struct {
	Version    int
	NumClients int
	State      lobby.State
}

// Session is the single actor that owns one lobby: every mutation runs
// through its inbox, so per-session ordering is total. It also owns the
// lobby's bet market and the countdown timer.
type Session struct {
	inbox    chan Msg
	state    lobby.State
	version  int
	clients  map[string]chan Snapshot
	registry *player.Registry
	market   *betting.Market
	log      *zap.Logger

	timer    *time.Timer
	timerGen int
	tick     time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, mode lobby.Mode, reg *player.Registry, log *zap.Logger) *Session {
	return newWithTick(parent, mode, reg, log, time.Second)
}

// newWithTick lets tests shrink the countdown tick.
func newWithTick(parent context.Context, mode lobby.Mode, reg *player.Registry, log *zap.Logger, tick time.Duration) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		inbox:    make(chan Msg, 64),
		state:    lobby.NewState(mode),
		clients:  make(map[string]chan Snapshot),
		registry: reg,
		market:   betting.NewMarket(reg),
		log:      log,
		tick:     tick,
		ctx:      ctx,
		cancel:   cancel,
	}
	go s.loop()
	return s
}

func (s *Session) Inbox() chan<- Msg { return s.inbox }

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				s.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- Snapshot{Version: s.version, State: s.state}

			case Leave:
				delete(s.clients, msg.ClientID)

			case FromClient:
				err := s.apply(msg.Cmd)
				if msg.Reply != nil {
					msg.Reply <- err
				}

			case PlaceBet:
				err := s.placeBet(msg)
				if msg.Reply != nil {
					msg.Reply <- err
				}

			case timerFired:
				if msg.gen != s.timerGen {
					// stale fire from a cancelled countdown
					break
				}
				if err := s.apply(lobby.Command{Type: lobby.CmdCountdownTick}); err != nil {
					s.log.Warn("countdown tick rejected", zap.Error(err))
				}

			case GetState:
				msg.Reply <- View{Version: s.version, NumClients: len(s.clients), State: s.state}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

// apply runs one command through the pure engine, performs the side
// effects its events demand, and broadcasts on success.
func (s *Session) apply(cmd lobby.Command) error {
	events, next, err := lobby.Apply(s.state, cmd, s.registry.RatingOf)
	if err != nil {
		return err
	}
	s.state = next

	for _, evt := range events {
		switch evt.Type {
		case lobby.EvtCountdownStarted:
			s.armTimer()
		case lobby.EvtCountdownCancelled:
			s.cancelTimer()
		case lobby.EvtResultReported:
			s.settleResult(evt)
		}
	}

	// keep ticking while the countdown runs
	if s.state.Phase == lobby.PhaseCountdown && cmd.Type == lobby.CmdCountdownTick {
		s.armTimer()
	}

	s.version++
	s.broadcast(Snapshot{Version: s.version, State: s.state})
	return nil
}

func (s *Session) placeBet(msg PlaceBet) error {
	// betting stays open until the result lands
	if msg.Side != lobby.SideHome && msg.Side != lobby.SideAway {
		return betting.ErrNoSide
	}
	return s.market.Place(msg.Bettor, string(msg.Side), msg.Amount)
}

// settleResult applies ratings and pays the market out of one reported
// result. The engine already reset the lobby state.
func (s *Session) settleResult(evt lobby.Event) {
	if evt.Winner == "" {
		// tie: no rating change, stakes go back
		s.market.Refund()
		s.log.Info("result was a tie, market refunded")
		return
	}

	loser := lobby.SideAway
	if evt.Winner == lobby.SideAway {
		loser = lobby.SideHome
	}
	deltas, err := rating.UpdateTeamRatings(evt.Teams[evt.Winner], evt.Teams[loser], s.registry.RatingOf, rating.DefaultK)
	if err != nil {
		// only possible with empty rosters, which the engine rejects
		s.log.Error("rating update failed", zap.Error(err))
	} else {
		s.registry.ApplyDeltas(deltas)
	}

	payouts := s.market.SettleAndPay(string(evt.Winner))
	s.log.Info("result settled",
		zap.String("winner", string(evt.Winner)),
		zap.Int("payouts", len(payouts)))
}

func (s *Session) armTimer() {
	s.timerGen++
	gen := s.timerGen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.tick, func() {
		select {
		case s.inbox <- timerFired{gen: gen}:
		case <-s.ctx.Done():
		}
	})
}

func (s *Session) cancelTimer() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) shutdown() {
	s.cancelTimer()
	s.market.Refund()
	for id, ch := range s.clients {
		close(ch)
		delete(s.clients, id)
	}
	s.cancel()
}

func (s *Session) broadcast(snap Snapshot) {
	for id, ch := range s.clients {
		select {
		case ch <- snap:
		default:
			// slow client, drop it
			close(ch)
			delete(s.clients, id)
		}
	}
}
