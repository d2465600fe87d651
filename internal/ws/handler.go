package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/Resteral/DiscordActivity/internal/hub"
	"github.com/Resteral/DiscordActivity/internal/lobby"
	"github.com/Resteral/DiscordActivity/internal/session"
	"github.com/Resteral/DiscordActivity/internal/types"
)

func Handler(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.GetLobby{Code: code, Reply: reply}
		sess := <-reply
		if sess == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan session.Snapshot, 8)
		clientID := randID(6)

		sess.Inbox() <- session.Join{ClientID: clientID, Outbox: out}
		defer func() { sess.Inbox() <- session.Leave{ClientID: clientID} }()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				msg := types.ServerMessage{Type: "StateSnapshot", Version: snap.Version, State: &snap.State}
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// identity the client claimed with Hello; bets are attributed to it
		var connPlayer string

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			switch cm.Type {
			case "Hello":
				if cm.Player == "" {
					writeError(r.Context(), conn, "missing player")
					continue
				}
				h.Registry().Ensure(cm.Player, cm.Name)
				h.Registry().Connect(cm.Player)
				connPlayer = cm.Player

			case "PlaceBet":
				if connPlayer == "" {
					writeError(r.Context(), conn, "hello first")
					continue
				}
				errc := make(chan error, 1)
				sess.Inbox() <- session.PlaceBet{Bettor: connPlayer, Side: lobby.Side(cm.Side), Amount: cm.Amount, Reply: errc}
				if err := <-errc; err != nil {
					writeError(r.Context(), conn, err.Error())
				}

			default:
				cmd, ok := toCommand(cm)
				if !ok {
					writeError(r.Context(), conn, "unknown type")
					continue
				}
				errc := make(chan error, 1)
				sess.Inbox() <- session.FromClient{Cmd: cmd, Reply: errc}
				if err := <-errc; err != nil {
					writeError(r.Context(), conn, err.Error())
				}
			}
		}
	}
}

func toCommand(m types.ClientMessage) (lobby.Command, bool) {
	switch m.Type {
	case "ToggleQueue":
		return lobby.Command{Type: lobby.CmdToggleQueue, Player: m.Player}, true
	case "Vote":
		return lobby.Command{Type: lobby.CmdVote, Player: m.Player}, true
	case "DraftPick":
		return lobby.Command{Type: lobby.CmdDraftPick, Player: m.Player}, true
	case "ReportResult":
		return lobby.Command{Type: lobby.CmdReportResult, GoalsHome: m.GoalsHome, GoalsAway: m.GoalsAway}, true
	case "Reset":
		return lobby.Command{Type: lobby.CmdReset}, true
	default:
		return lobby.Command{}, false
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, reason string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "Error", Error: reason})
	wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
