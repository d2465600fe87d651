package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Resteral/DiscordActivity/internal/lobby"
	"github.com/Resteral/DiscordActivity/internal/player"
)

// helper: receive one snapshot with a timeout so tests never hang
func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{} // unreachable
	}
}

func recvNoSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			return
		}
		t.Fatalf("expected no snapshot within %v, but got: %+v", within, s)
	case <-time.After(within):
	}
}

// waitForPhase drains snapshots until the lobby reaches the phase.
func waitForPhase(t *testing.T, ch <-chan Snapshot, phase lobby.Phase, within time.Duration) Snapshot {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				t.Fatalf("outbox closed while waiting for phase %s", phase)
			}
			if snap.State.Phase == phase {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for phase %s", phase)
		}
	}
}

func sendCmd(t *testing.T, s *Session, cmd lobby.Command) {
	t.Helper()
	reply := make(chan error, 1)
	s.Inbox() <- FromClient{Cmd: cmd, Reply: reply}
	if err := <-reply; err != nil {
		t.Fatalf("command %s: %v", cmd.Type, err)
	}
}

func newTestSession(t *testing.T) (*Session, *player.Registry) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	reg := player.NewRegistry()
	for i := 0; i < 10; i++ {
		reg.Ensure(fmt.Sprintf("p%d", i), "")
	}
	s := newWithTick(ctx, lobby.ModePublic, reg, zap.NewNop(), 2*time.Millisecond)
	return s, reg
}

func TestSession_JoinSendsCurrentSnapshot(t *testing.T) {
	s, _ := newTestSession(t)

	out := make(chan Snapshot, 4)
	s.Inbox() <- Join{ClientID: "c1", Outbox: out}

	first := recvSnapshot(t, out, 100*time.Millisecond)
	if first.Version != 0 {
		t.Fatalf("after join: want version=0, got %d", first.Version)
	}
	if first.State.Phase != lobby.PhaseForming {
		t.Fatalf("after join: want forming, got %s", first.State.Phase)
	}
}

func TestSession_ToggleBroadcastsAndVersions(t *testing.T) {
	s, _ := newTestSession(t)

	out := make(chan Snapshot, 4)
	s.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	sendCmd(t, s, lobby.Command{Type: lobby.CmdToggleQueue, Player: "p0"})

	next := recvSnapshot(t, out, 100*time.Millisecond)
	if next.Version != 1 {
		t.Fatalf("want version=1, got %d", next.Version)
	}
	if len(next.State.Queue) != 1 || next.State.Queue[0] != "p0" {
		t.Fatalf("want queue [p0], got %+v", next.State.Queue)
	}
}

func TestSession_CountdownRunsToLive(t *testing.T) {
	s, _ := newTestSession(t)

	out := make(chan Snapshot, 64)
	s.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	for i := 0; i < 8; i++ {
		sendCmd(t, s, lobby.Command{Type: lobby.CmdToggleQueue, Player: fmt.Sprintf("p%d", i)})
	}

	snap := waitForPhase(t, out, lobby.PhaseLive, time.Second)
	if len(snap.State.Teams[lobby.SideHome]) != 4 || len(snap.State.Teams[lobby.SideAway]) != 4 {
		t.Fatalf("want 4v4 locked rosters, got %+v", snap.State.Teams)
	}
}

func TestSession_CountdownCancelStopsTimer(t *testing.T) {
	s, _ := newTestSession(t)

	out := make(chan Snapshot, 64)
	s.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	for i := 0; i < 8; i++ {
		sendCmd(t, s, lobby.Command{Type: lobby.CmdToggleQueue, Player: fmt.Sprintf("p%d", i)})
	}
	// drop below eight before the countdown can finish
	sendCmd(t, s, lobby.Command{Type: lobby.CmdToggleQueue, Player: "p0"})

	snap := waitForPhase(t, out, lobby.PhaseForming, time.Second)
	if snap.State.Countdown != nil {
		t.Fatalf("countdown should be cleared, got %+v", snap.State)
	}

	// no stale timer may push the lobby anywhere
	recvNoSnapshot(t, out, 50*time.Millisecond)
}

func TestSession_ShutdownStopsTimerNoFire(t *testing.T) {
	s, _ := newTestSession(t)

	out := make(chan Snapshot, 64)
	s.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	for i := 0; i < 8; i++ {
		sendCmd(t, s, lobby.Command{Type: lobby.CmdToggleQueue, Player: fmt.Sprintf("p%d", i)})
	}
	s.Inbox() <- Shutdown{}

	recvNoSnapshot(t, out, 50*time.Millisecond)
}

func TestSession_DropSlowClient(t *testing.T) {
	s, _ := newTestSession(t)

	out := make(chan Snapshot, 1)
	s.Inbox() <- Join{ClientID: "c1", Outbox: out}

	// fill the outbox and trigger two more broadcasts
	sendCmd(t, s, lobby.Command{Type: lobby.CmdToggleQueue, Player: "p0"})
	sendCmd(t, s, lobby.Command{Type: lobby.CmdToggleQueue, Player: "p1"})

	reply := make(chan View, 1)
	s.Inbox() <- GetState{Reply: reply}
	view := <-reply
	if view.NumClients != 0 {
		t.Fatalf("expected slow client to be dropped; NumClients=%d", view.NumClients)
	}
}

func TestSession_ResultSettlesBetsAndRatings(t *testing.T) {
	s, reg := newTestSession(t)
	reg.Ensure("bettor1", "")
	reg.Ensure("bettor2", "")

	out := make(chan Snapshot, 64)
	s.Inbox() <- Join{ClientID: "c1", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	// 60 on home, 40 on away: pool of 100
	bet := make(chan error, 1)
	s.Inbox() <- PlaceBet{Bettor: "bettor1", Side: lobby.SideHome, Amount: 60, Reply: bet}
	if err := <-bet; err != nil {
		t.Fatalf("bet 1: %v", err)
	}
	s.Inbox() <- PlaceBet{Bettor: "bettor2", Side: lobby.SideAway, Amount: 40, Reply: bet}
	if err := <-bet; err != nil {
		t.Fatalf("bet 2: %v", err)
	}

	for i := 0; i < 8; i++ {
		sendCmd(t, s, lobby.Command{Type: lobby.CmdToggleQueue, Player: fmt.Sprintf("p%d", i)})
	}
	live := waitForPhase(t, out, lobby.PhaseLive, time.Second)
	homeRoster := live.State.Teams[lobby.SideHome]

	sendCmd(t, s, lobby.Command{Type: lobby.CmdReportResult, GoalsHome: 3, GoalsAway: 1})

	reset := waitForPhase(t, out, lobby.PhaseForming, time.Second)
	if len(reset.State.Queue) != 0 {
		t.Fatalf("queue should be empty after report, got %+v", reset.State.Queue)
	}

	// winner takes the whole pool proportional to stake: 60/60 * 100
	b1, _ := reg.Get("bettor1")
	if b1.Balance != player.StartingBalance-60+100 {
		t.Fatalf("bettor1 balance: got %d, want %d", b1.Balance, player.StartingBalance+40)
	}
	b2, _ := reg.Get("bettor2")
	if b2.Balance != player.StartingBalance-40 {
		t.Fatalf("bettor2 balance: got %d, want %d", b2.Balance, player.StartingBalance-40)
	}

	// winners' ratings moved up
	for _, id := range homeRoster {
		if got := reg.RatingOf(id); got <= player.DefaultRating {
			t.Fatalf("winner %s rating: got %d, want > %d", id, got, player.DefaultRating)
		}
	}
}
