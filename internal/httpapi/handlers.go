package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Resteral/DiscordActivity/internal/hub"
	"github.com/Resteral/DiscordActivity/internal/lobby"
	"github.com/Resteral/DiscordActivity/internal/session"
	"github.com/Resteral/DiscordActivity/internal/stats"
	"github.com/Resteral/DiscordActivity/internal/tourney"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateLobby(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Mode string `json:"mode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		var mode lobby.Mode
		switch body.Mode {
		case "public":
			mode = lobby.ModePublic
		case "pro":
			mode = lobby.ModePro
		default:
			http.Error(w, "mode must be public or pro", http.StatusBadRequest)
			return
		}

		code, ok := freshCode(h, log)
		if !ok {
			http.Error(w, "failed to generate code", http.StatusInternalServerError)
			return
		}

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.EnsureLobby{Code: code, Mode: mode, Reply: reply}
		if <-reply == nil {
			http.Error(w, "failed to create lobby", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

func CreateTourney(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Mode             string `json:"mode"`
			RosterSize       int    `json:"roster_size"`
			BuyIn            int    `json:"buy_in"`
			BaseSeconds      int    `json:"base_seconds"`
			ExtensionSeconds int    `json:"extension_seconds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		var mode tourney.DraftMode
		switch body.Mode {
		case "snake":
			mode = tourney.DraftSnake
		case "auction":
			mode = tourney.DraftAuction
		default:
			http.Error(w, "mode must be snake or auction", http.StatusBadRequest)
			return
		}

		code, ok := freshCode(h, log)
		if !ok {
			http.Error(w, "failed to generate code", http.StatusInternalServerError)
			return
		}

		cfg := tourney.Config{
			Mode:         mode,
			RosterSize:   body.RosterSize,
			BuyIn:        body.BuyIn,
			BaseDuration: time.Duration(body.BaseSeconds) * time.Second,
			Extension:    time.Duration(body.ExtensionSeconds) * time.Second,
		}
		reply := make(chan *tourney.Runner, 1)
		h.Inbox() <- hub.CreateTourney{Code: code, Cfg: cfg, Reply: reply}
		if <-reply == nil {
			http.Error(w, "invalid tournament config", http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

// ImportStats ingests a CSV stat export: totals land on the players,
// and the inferred match winner comes back to the caller.
func ImportStats(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := stats.ParseRows(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		for id, totals := range stats.Aggregate(rows) {
			h.Registry().Accumulate(id, totals)
		}

		winner, decided := stats.Winner(rows)
		writeJSON(w, http.StatusOK, struct {
			Rows    int    `json:"rows"`
			Winner  string `json:"winner,omitempty"`
			Decided bool   `json:"decided"`
		}{Rows: len(rows), Winner: winner, Decided: decided})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// freshCode retries until a code is unclaimed by either map.
func freshCode(h *hub.Hub, log *zap.Logger) (string, bool) {
	for {
		c, err := GenerateCode()
		if err != nil {
			return "", false
		}
		lreply := make(chan *session.Session, 1)
		h.Inbox() <- hub.GetLobby{Code: c, Reply: lreply}
		treply := make(chan *tourney.Runner, 1)
		h.Inbox() <- hub.GetTourney{Code: c, Reply: treply}
		if <-lreply == nil && <-treply == nil {
			return c, true
		}
		log.Info("code collision, regenerating", zap.String("code", c))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
