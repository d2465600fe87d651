package betting

import (
	"errors"

	"github.com/Resteral/DiscordActivity/internal/player"
)

var ErrInvalidStake = errors.New("betting: stake must be positive")
var ErrNoSide = errors.New("betting: bet must name a side")

// Bet is one pari-mutuel stake. The stake is already out of the wallet
// by the time a Bet exists.
type Bet struct {
	Bettor string `json:"bettor"`
	Side   string `json:"side"`
	Amount int    `json:"amount"`
}

// Settle distributes the whole pool to bettors on the winning side,
// proportional to their summed stake, floored. If nobody backed the
// winner the pool evaporates: there is no house to keep it. Floor
// rounding may strand a small remainder; it is not redistributed.
func Settle(bets []Bet, winningSide string) map[string]int {
	pool := 0
	winnersStake := 0
	stakeByBettor := make(map[string]int)
	for _, b := range bets {
		pool += b.Amount
		if b.Side == winningSide {
			winnersStake += b.Amount
			stakeByBettor[b.Bettor] += b.Amount
		}
	}

	payouts := make(map[string]int)
	if pool == 0 || winnersStake == 0 {
		return payouts
	}
	for bettor, stake := range stakeByBettor {
		payouts[bettor] = stake * pool / winnersStake
	}
	return payouts
}

// Market is the per-session bet book. Placement debits the wallet
// through the registry's atomic debit, so a stake is committed exactly
// when the bet is recorded.
type Market struct {
	registry *player.Registry
	bets     []Bet
}

func NewMarket(reg *player.Registry) *Market {
	return &Market{registry: reg}
}

func (m *Market) Place(bettor, side string, amount int) error {
	if amount <= 0 {
		return ErrInvalidStake
	}
	if side == "" {
		return ErrNoSide
	}
	if err := m.registry.Debit(bettor, amount); err != nil {
		return err
	}
	m.bets = append(m.bets, Bet{Bettor: bettor, Side: side, Amount: amount})
	return nil
}

func (m *Market) Bets() []Bet {
	out := make([]Bet, len(m.bets))
	copy(out, m.bets)
	return out
}

func (m *Market) Pool() int {
	total := 0
	for _, b := range m.bets {
		total += b.Amount
	}
	return total
}

// SettleAndPay credits winners and clears the book.
func (m *Market) SettleAndPay(winningSide string) map[string]int {
	payouts := Settle(m.bets, winningSide)
	for bettor, amount := range payouts {
		m.registry.Credit(bettor, amount)
	}
	m.bets = nil
	return payouts
}

// Refund returns every outstanding stake and drops the book. Used on
// session teardown when no result will ever arrive.
func (m *Market) Refund() {
	for _, b := range m.bets {
		m.registry.Credit(b.Bettor, b.Amount)
	}
	m.bets = nil
}
