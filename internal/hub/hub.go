package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/Resteral/DiscordActivity/internal/lobby"
	"github.com/Resteral/DiscordActivity/internal/player"
	"github.com/Resteral/DiscordActivity/internal/session"
	"github.com/Resteral/DiscordActivity/internal/tourney"
)

type HubMsg interface{ isHubMsg() }

type CreateLobby struct {
	Code  string
	Mode  lobby.Mode
	Reply chan *session.Session
}

type GetLobby struct {
	Code  string
	Reply chan *session.Session
}

// EnsureLobby creates the lobby if the code is unclaimed, otherwise
// returns the existing one.
type EnsureLobby struct {
	Code  string
	Mode  lobby.Mode
	Reply chan *session.Session
}

type RemoveLobby struct{ Code string }

type CreateTourney struct {
	Code  string
	Cfg   tourney.Config
	Reply chan *tourney.Runner
}

type GetTourney struct {
	Code  string
	Reply chan *tourney.Runner
}

type RemoveTourney struct{ Code string }

type ShutdownHub struct{}

func (CreateLobby) isHubMsg()   {}
func (GetLobby) isHubMsg()      {}
func (EnsureLobby) isHubMsg()   {}
func (RemoveLobby) isHubMsg()   {}
func (CreateTourney) isHubMsg() {}
func (GetTourney) isHubMsg()    {}
func (RemoveTourney) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

// Hub is the session registry: one actor that owns the code -> session
// maps. Sessions share the hub's player registry, so ratings and
// wallets carry across lobbies and tournaments.
type Hub struct {
	inbox    chan HubMsg
	lobbies  map[string]*session.Session
	tourneys map[string]*tourney.Runner
	registry *player.Registry
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, reg *player.Registry, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		lobbies:  make(map[string]*session.Session),
		tourneys: make(map[string]*tourney.Runner),
		registry: reg,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Registry() *player.Registry { return h.registry }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				if s := h.lobbies[msg.Code]; s != nil {
					msg.Reply <- s
					break
				}
				s := session.New(h.ctx, msg.Mode, h.registry, h.log.With(zap.String("lobby", msg.Code)))
				h.lobbies[msg.Code] = s
				msg.Reply <- s

			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // may be nil

			case EnsureLobby:
				if s := h.lobbies[msg.Code]; s != nil {
					msg.Reply <- s
					break
				}
				s := session.New(h.ctx, msg.Mode, h.registry, h.log.With(zap.String("lobby", msg.Code)))
				h.lobbies[msg.Code] = s
				msg.Reply <- s

			case RemoveLobby:
				if s := h.lobbies[msg.Code]; s != nil {
					s.Inbox() <- session.Shutdown{}
					delete(h.lobbies, msg.Code)
				}

			case CreateTourney:
				if r := h.tourneys[msg.Code]; r != nil {
					msg.Reply <- r
					break
				}
				r, err := tourney.NewRunner(h.ctx, msg.Cfg, h.registry, h.log.With(zap.String("tourney", msg.Code)))
				if err != nil {
					h.log.Warn("tourney create rejected", zap.String("code", msg.Code), zap.Error(err))
					msg.Reply <- nil
					break
				}
				h.tourneys[msg.Code] = r
				msg.Reply <- r

			case GetTourney:
				msg.Reply <- h.tourneys[msg.Code] // may be nil

			case RemoveTourney:
				if r := h.tourneys[msg.Code]; r != nil {
					r.Inbox() <- tourney.ShutdownMsg{}
					delete(h.tourneys, msg.Code)
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, s := range h.lobbies {
		s.Inbox() <- session.Shutdown{}
	}
	clear(h.lobbies)
	for _, r := range h.tourneys {
		r.Inbox() <- tourney.ShutdownMsg{}
	}
	clear(h.tourneys)
	h.cancel()
}
