package back // nolint:testpackage

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rallyrank/internal/util"
)

func TestGetPlayerStats(t *testing.T) {
	back, _ := createTestBack(t)
	ctx := context.Background()
	players := createTestPlayers(t, back, "Link", "Ganon", "Zelda")
	link, ganon, zelda := players[0], players[1], players[2]

	mustCreateGame(t, back, link, ganon, 11, 5)
	mustCreateGame(t, back, ganon, link, 11, 3)
	biggest := mustCreateGame(t, back, link, zelda, 21, 0)
	mustCreateGame(t, back, ganon, link, 5, 5)
	mustCreateGame(t, back, zelda, link, 4, 25) // same margin, later

	stats, err := back.GetPlayerStats(ctx, link.ID)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Played)
	assert.Equal(t, 3, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 1, stats.Draws)
	assert.InDelta(t, 0.6, stats.WinRate, 1e-9)
	assert.InDelta(t, 13.0, stats.AverageScore, 1e-9)
	assert.InDelta(t, 5.0, stats.AverageOpponentScore, 1e-9)

	require.NotNil(t, stats.BiggestWin)
	assert.Equal(t, biggest.ID, stats.BiggestWin.GameID)
	assert.Equal(t, 21, stats.BiggestWin.Margin)
	assert.Equal(t, zelda.ID, stats.BiggestWin.OpponentID)
	assert.Equal(t, "Zelda", stats.BiggestWin.OpponentName)

	assert.Equal(t, []OpponentRecord{
		{OpponentID: ganon.ID, OpponentName: "Ganon", Played: 3, Wins: 1, Losses: 1, Draws: 1, WinRate: 1.0 / 3},
		{OpponentID: zelda.ID, OpponentName: "Zelda", Played: 2, Wins: 2, WinRate: 1},
	}, stats.HeadToHead)

	history, err := back.GetRatingHistory(ctx, link.ID)
	require.NoError(t, err)
	require.Len(t, history, 5)

	peak := link.InitialRating
	for _, v := range history {
		if v.Rating > peak {
			peak = v.Rating
		}
	}
	assert.Equal(t, peak, stats.PeakRating)
	assert.Equal(t, ratingOf(t, back, link), history[len(history)-1].Rating)
	assert.Equal(t, ratingOf(t, back, link), stats.Player.Rating)

	rankings, err := back.GetRankings(ctx)
	require.NoError(t, err)
	for _, v := range rankings {
		if v.ID == link.ID {
			assert.Equal(t, int64(v.Rank), stats.Rank.Int64)
			assert.Equal(t, v.Title, stats.Title)
		}
	}
}

func TestGetPlayerStatsWithoutGames(t *testing.T) {
	back, _ := createTestBack(t)
	ctx := context.Background()
	players := createTestPlayers(t, back, "Link")

	stats, err := back.GetPlayerStats(ctx, players[0].ID)
	require.NoError(t, err)
	assert.Zero(t, stats.Played)
	assert.Zero(t, stats.WinRate)
	assert.Nil(t, stats.BiggestWin)
	assert.NotNil(t, stats.HeadToHead)
	assert.Empty(t, stats.HeadToHead)
	assert.Equal(t, 1000, stats.PeakRating)
	assert.Equal(t, int64(1), stats.Rank.Int64)
	assert.Equal(t, TitleChampion, stats.Title)

	_, err = back.DeactivatePlayer(ctx, players[0].ID)
	require.NoError(t, err)

	stats, err = back.GetPlayerStats(ctx, players[0].ID)
	require.NoError(t, err)
	assert.False(t, stats.Rank.Valid)
	assert.Empty(t, stats.Title)

	history, err := back.GetRatingHistory(ctx, players[0].ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHeadToHeadOrdering(t *testing.T) {
	back, _ := createTestBack(t)
	ctx := context.Background()
	players := createTestPlayers(t, back, "Saria", "Impa", "Zelda", "Ganon")
	saria := players[0]

	mustCreateGame(t, back, saria, players[2], 11, 4)
	mustCreateGame(t, back, players[1], saria, 11, 9)
	mustCreateGame(t, back, saria, players[3], 2, 11)
	mustCreateGame(t, back, players[3], saria, 6, 11)

	stats, err := back.GetPlayerStats(ctx, saria.ID)
	require.NoError(t, err)
	require.Len(t, stats.HeadToHead, 3)

	// Most played first, then by name.
	names := make([]string, 0, len(stats.HeadToHead))
	played := 0
	for _, v := range stats.HeadToHead {
		names = append(names, v.OpponentName)
		played += v.Played
		assert.Equal(t, v.Played, v.Wins+v.Losses+v.Draws)
	}
	assert.Equal(t, []string{"Ganon", "Impa", "Zelda"}, names)
	assert.Equal(t, stats.Played, played)
	assert.InDelta(t, 0.5, stats.HeadToHead[0].WinRate, 1e-9)
	assert.Zero(t, stats.HeadToHead[1].WinRate)

	rec := stats.HeadToHead[2]
	assert.Equal(t, players[2].ID, rec.OpponentID)
	assert.Equal(t, 1, rec.Wins)
}

func TestStatsNotFound(t *testing.T) {
	back, _ := createTestBack(t)
	ctx := context.Background()
	id := util.NewUUIDAsBlob()

	_, err := back.GetPlayerStats(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = back.GetRatingHistory(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = back.GetPlayerRatingGraph(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = back.GetPlayerResultsGraph(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlayerGraphs(t *testing.T) {
	back, _ := createTestBack(t)
	ctx := context.Background()
	players := createTestPlayers(t, back, "Link", "Ganon")

	svg, err := back.GetPlayerRatingGraph(ctx, players[0].ID)
	require.NoError(t, err)
	assert.Equal(t, emptySVG, string(svg))

	svg, err = back.GetPlayerResultsGraph(ctx, players[0].ID)
	require.NoError(t, err)
	assert.Equal(t, emptySVG, string(svg))

	mustCreateGame(t, back, players[0], players[1], 11, 5)
	mustCreateGame(t, back, players[0], players[1], 7, 7)

	svg, err = back.GetPlayerRatingGraph(ctx, players[0].ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(svg, []byte("<svg")))

	svg, err = back.GetPlayerResultsGraph(ctx, players[1].ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(svg, []byte("<svg")))
}

func TestServeStopsWithContext(t *testing.T) {
	back, _ := createTestBack(t)
	players := createTestPlayers(t, back, "Link", "Ganon")
	mustCreateGame(t, back, players[0], players[1], 11, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, back.Serve(ctx), context.Canceled)
	assert.Equal(t, "back-periodic", back.String())
}
