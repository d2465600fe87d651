package bracket

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func byRound(nodes []Node) map[int][]Node {
	out := make(map[int][]Node)
	for _, n := range nodes {
		out[n.Round] = append(out[n.Round], n)
	}
	return out
}

func TestDerive_FiveTeamsPadsToEight(t *testing.T) {
	teams := []string{"t1", "t2", "t3", "t4", "t5"}
	nodes := Derive(teams, nil)

	rounds := byRound(nodes)
	require.Len(t, rounds[1], 4)
	require.Len(t, rounds[2], 2)
	require.Len(t, rounds[3], 1)
	require.Len(t, nodes, 7)

	byes := 0
	for _, n := range rounds[1] {
		if n.Home == Bye {
			byes++
		}
		if n.Away == Bye {
			byes++
		}
	}
	require.Equal(t, 3, byes)
}

func TestDerive_ByeAutoAdvancesWithEmptyScore(t *testing.T) {
	nodes := Derive([]string{"t1", "t2", "t3", "t4", "t5"}, nil)
	rounds := byRound(nodes)

	// pair (t5, bye) auto-resolves, pair (bye, bye) advances the bye
	require.Equal(t, "t5", rounds[1][2].Winner)
	require.Equal(t, "", rounds[1][2].Score)
	require.Equal(t, Bye, rounds[1][3].Winner)

	// so t5 gets a second free pass in round 2
	require.Equal(t, "t5", rounds[2][1].Winner)
}

func TestRecord_UnresolvedInputsRejected(t *testing.T) {
	b, err := New([]string{"t1", "t2", "t3", "t4"})
	require.NoError(t, err)

	// node 2 is the final; neither semi has resolved
	err = b.Record(2, "t1", "3-1")
	require.ErrorIs(t, err, ErrInputsUnresolved)
}

func TestRecord_WinnerMustBeAnInput(t *testing.T) {
	b, err := New([]string{"t1", "t2", "t3", "t4"})
	require.NoError(t, err)

	require.ErrorIs(t, b.Record(0, "t3", ""), ErrBadWinner)
	require.ErrorIs(t, b.Record(99, "t1", ""), ErrUnknownNode)
}

func TestPropagation_WinnersFeedNextRound(t *testing.T) {
	b, err := New([]string{"t1", "t2", "t3", "t4"})
	require.NoError(t, err)

	require.NoError(t, b.Record(0, "t1", "4-2"))
	require.NoError(t, b.Record(1, "t4", "2-1"))

	nodes := b.Nodes()
	final := nodes[2]
	require.Equal(t, "t1", final.Home)
	require.Equal(t, "t4", final.Away)

	require.NoError(t, b.Record(2, "t4", "5-0"))
	champ, ok := b.Champion()
	require.True(t, ok)
	require.Equal(t, "t4", champ)
}

func TestRecord_ChangingEarlyResultInvalidatesLaterRounds(t *testing.T) {
	b, err := New([]string{"t1", "t2", "t3", "t4"})
	require.NoError(t, err)

	require.NoError(t, b.Record(0, "t1", ""))
	require.NoError(t, b.Record(1, "t3", ""))
	require.NoError(t, b.Record(2, "t1", ""))

	_, ok := b.Champion()
	require.True(t, ok)

	// flip the first semi: the recorded final named t1, which is no
	// longer an input, so the final must go back to pending
	require.NoError(t, b.Record(0, "t2", ""))
	_, ok = b.Champion()
	require.False(t, ok)

	nodes := b.Nodes()
	require.Equal(t, "t2", nodes[2].Home)
	require.Equal(t, "", nodes[2].Winner)
}

func TestNewChampion_AnnouncedOncePerValue(t *testing.T) {
	b, err := New([]string{"t1", "t2"})
	require.NoError(t, err)

	_, ok := b.NewChampion()
	require.False(t, ok)

	require.NoError(t, b.Record(0, "t2", "1-0"))

	champ, ok := b.NewChampion()
	require.True(t, ok)
	require.Equal(t, "t2", champ)

	// unrelated re-evaluation must not re-announce
	_, ok = b.NewChampion()
	require.False(t, ok)

	// but a changed result yields a fresh announcement
	require.NoError(t, b.Record(0, "t1", "2-1"))
	champ, ok = b.NewChampion()
	require.True(t, ok)
	require.Equal(t, "t1", champ)
}

func TestNew_RejectsSingleTeam(t *testing.T) {
	_, err := New([]string{"lonely"})
	require.ErrorIs(t, err, ErrTooFewTeams)
}
