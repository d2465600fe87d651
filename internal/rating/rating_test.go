package rating

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fixed(ratings map[string]int) Lookup {
	return func(id string) int {
		if r, ok := ratings[id]; ok {
			return r
		}
		return 1000
	}
}

func TestEqualTeams_SymmetricSigns(t *testing.T) {
	winners := []string{"a", "b", "c", "d"}
	losers := []string{"e", "f", "g", "h"}

	deltas, err := UpdateTeamRatings(winners, losers, fixed(nil), DefaultK)
	require.NoError(t, err)

	// evenly matched at 1000: expected 0.5, team delta 14, 3.5 each -> 4
	for _, id := range winners {
		require.Equal(t, 4, deltas[id])
	}
	for _, id := range losers {
		require.Equal(t, -4, deltas[id])
	}
}

func TestUnderdogWin_BiggerSwing(t *testing.T) {
	look := fixed(map[string]int{"fav1": 1200, "fav2": 1200, "dog1": 1000, "dog2": 1000})

	upset, err := UpdateTeamRatings([]string{"dog1", "dog2"}, []string{"fav1", "fav2"}, look, DefaultK)
	require.NoError(t, err)
	expected, err := UpdateTeamRatings([]string{"fav1", "fav2"}, []string{"dog1", "dog2"}, look, DefaultK)
	require.NoError(t, err)

	require.Greater(t, upset["dog1"], expected["fav1"])
	require.Greater(t, upset["dog1"], 0)
	require.Less(t, upset["fav1"], 0)
}

func TestKScalesMagnitude(t *testing.T) {
	winners := []string{"a"}
	losers := []string{"b"}

	small, err := UpdateTeamRatings(winners, losers, fixed(nil), 28)
	require.NoError(t, err)
	big, err := UpdateTeamRatings(winners, losers, fixed(nil), 56)
	require.NoError(t, err)

	require.Equal(t, 14, small["a"])
	require.Equal(t, 28, big["a"])
}

func TestUnevenTeamSizes_Accepted(t *testing.T) {
	deltas, err := UpdateTeamRatings([]string{"a", "b", "c"}, []string{"x"}, fixed(nil), DefaultK)
	require.NoError(t, err)
	require.Len(t, deltas, 4)
	require.Positive(t, deltas["a"])
	require.Negative(t, deltas["x"])
}

func TestEmptyTeam_Rejected(t *testing.T) {
	_, err := UpdateTeamRatings(nil, []string{"x"}, fixed(nil), DefaultK)
	require.ErrorIs(t, err, ErrEmptyTeam)

	_, err = UpdateTeamRatings([]string{"x"}, []string{}, fixed(nil), DefaultK)
	require.ErrorIs(t, err, ErrEmptyTeam)
}

func TestInputsNotMutated(t *testing.T) {
	base := map[string]int{"a": 1100}
	_, err := UpdateTeamRatings([]string{"a"}, []string{"b"}, fixed(base), DefaultK)
	require.NoError(t, err)
	require.Equal(t, 1100, base["a"])
}
