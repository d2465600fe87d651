package player

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsure_FirstSightDefaults(t *testing.T) {
	r := NewRegistry()
	r.Ensure("p1", "Gretzky")

	p, ok := r.Get("p1")
	require.True(t, ok)
	require.Equal(t, DefaultRating, p.Rating)
	require.Equal(t, StartingBalance, p.Balance)

	// second Ensure must not reset anything
	r.Credit("p1", 50)
	r.Ensure("p1", "Wayne")
	p, _ = r.Get("p1")
	require.Equal(t, "Wayne", p.Name)
	require.Equal(t, StartingBalance+50, p.Balance)
}

func TestRatingOf_UnseenDefaultsTo1000(t *testing.T) {
	r := NewRegistry()
	require.Equal(t, 1000, r.RatingOf("ghost"))
}

func TestDebit_InsufficientFunds(t *testing.T) {
	r := NewRegistry()
	r.Ensure("p1", "")

	require.NoError(t, r.Debit("p1", StartingBalance))
	err := r.Debit("p1", 1)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	p, _ := r.Get("p1")
	require.Equal(t, 0, p.Balance)
}

func TestDebit_NoDoubleSpendUnderConcurrency(t *testing.T) {
	r := NewRegistry()
	r.Ensure("p1", "")

	// 100 concurrent debits of the full balance: exactly one may succeed.
	var wg sync.WaitGroup
	succeeded := make(chan struct{}, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Debit("p1", StartingBalance) == nil {
				succeeded <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(succeeded)

	n := 0
	for range succeeded {
		n++
	}
	require.Equal(t, 1, n)
}

func TestTopByRating_OrderAndTieBreak(t *testing.T) {
	r := NewRegistry()
	r.Ensure("a", "")
	r.Ensure("b", "")
	r.Ensure("c", "")
	r.ApplyDeltas(map[string]int{"a": 10, "c": 10})

	top := r.TopByRating([]string{"b", "c", "a"}, 2)
	require.Equal(t, []string{"a", "c"}, top)
}

func TestSnapshotRestore_RoundTrip(t *testing.T) {
	r := NewRegistry()
	r.Ensure("p1", "One")
	r.Ensure("p2", "Two")
	require.NoError(t, r.Debit("p2", 100))
	r.Accumulate("p1", Stats{Goals: 3, Games: 1})
	r.Connect("p1")

	snap := r.Snapshot()

	fresh := NewRegistry()
	fresh.Restore(snap)
	require.Equal(t, "p1", fresh.Connected())

	p2, ok := fresh.Get("p2")
	require.True(t, ok)
	require.Equal(t, StartingBalance-100, p2.Balance)

	p1, _ := fresh.Get("p1")
	require.Equal(t, 3, p1.Stats.Goals)
}
