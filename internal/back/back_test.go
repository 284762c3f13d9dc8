package back // nolint:testpackage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rallyrank/internal/elo"
	"rallyrank/internal/events"
	"rallyrank/internal/util"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.GameEvent
}

func (p *recordingPublisher) Publish(evs ...events.GameEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evs...)
	return nil
}

func (p *recordingPublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()

	ret := make([]events.Kind, 0, len(p.events))
	for _, v := range p.events {
		ret = append(ret, v.Kind)
	}

	return ret
}

func createTestBack(t *testing.T) (*Back, *recordingPublisher) {
	path := filepath.Join(t.TempDir(), "rallyrank.db")
	require.NoError(t, Migrate(path))

	publisher := &recordingPublisher{}
	back, err := New(path, Options{Publisher: publisher})
	require.NoError(t, err)
	t.Cleanup(func() { back.Close() })

	return back, publisher
}

func createTestPlayers(t *testing.T, back *Back, names ...string) []Player {
	ret := make([]Player, 0, len(names))
	for _, v := range names {
		player, err := back.CreatePlayer(context.Background(), v)
		require.NoError(t, err)
		ret = append(ret, player)
	}

	return ret
}

func mustCreateGame(t *testing.T, back *Back, p1, p2 Player, s1, s2 int) GameEntry {
	entry, err := back.CreateGame(context.Background(), GameInput{
		Player1ID:    p1.ID,
		Player2ID:    p2.ID,
		Player1Score: s1,
		Player2Score: s2,
	})
	require.NoError(t, err)

	return entry
}

func ratingOf(t *testing.T, back *Back, p Player) int {
	player, err := back.GetPlayer(context.Background(), p.ID)
	require.NoError(t, err)

	return player.Rating
}

func requireConsistent(t *testing.T, back *Back) {
	drifts, err := back.CheckConsistency(context.Background())
	require.NoError(t, err)
	require.Empty(t, drifts)
}

func TestMigrateTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rallyrank.db")
	require.NoError(t, Migrate(path))
	require.NoError(t, Migrate(path))
}

func TestCreatePlayer(t *testing.T) {
	back, _ := createTestBack(t)
	ctx := context.Background()

	player, err := back.CreatePlayer(ctx, "  Our  Lord and Savior ZFG ")
	require.NoError(t, err)
	assert.Equal(t, "Our Lord and Savior ZFG", player.Name)
	assert.Equal(t, elo.DefaultRating, player.Rating)
	assert.Equal(t, elo.DefaultRating, player.InitialRating)
	assert.True(t, player.Active)
	assert.False(t, player.DeactivatedAt.Valid)

	stored, err := back.GetPlayer(ctx, player.ID)
	require.NoError(t, err)
	assert.Equal(t, player.ID, stored.ID)
	assert.Equal(t, player.Name, stored.Name)
	assert.True(t, player.CreatedAt.Time().Equal(stored.CreatedAt.Time()))

	_, err = back.CreatePlayer(ctx, "our lord AND savior zfg")
	assert.ErrorIs(t, err, util.ErrPublic(""))

	_, err = back.CreatePlayer(ctx, "   ")
	assert.ErrorIs(t, err, util.ErrPublic(""))
}

func TestCreatePlayerCustomDefaultRating(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rallyrank.db")
	require.NoError(t, Migrate(path))
	back, err := New(path, Options{DefaultRating: 1500})
	require.NoError(t, err)
	defer back.Close()

	player, err := back.CreatePlayer(context.Background(), "Impa")
	require.NoError(t, err)
	assert.Equal(t, 1500, player.Rating)
	assert.Equal(t, 1500, player.InitialRating)
}

func TestGetPlayerNotFound(t *testing.T) {
	back, _ := createTestBack(t)

	_, err := back.GetPlayer(context.Background(), util.NewUUIDAsBlob())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrStorage)
}

func TestGetPlayersOrder(t *testing.T) {
	back, _ := createTestBack(t)
	ctx := context.Background()
	players := createTestPlayers(t, back, "Saria", "Darunia", "Nabooru")

	_, err := back.DeactivatePlayer(ctx, players[1].ID)
	require.NoError(t, err)

	list, err := back.GetPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Nabooru", "Saria", "Darunia"}, []string{list[0].Name, list[1].Name, list[2].Name})
	assert.False(t, list[2].Active)
}

func TestDeactivateReactivate(t *testing.T) {
	back, _ := createTestBack(t)
	ctx := context.Background()
	players := createTestPlayers(t, back, "Ruto", "Zelda")
	mustCreateGame(t, back, players[0], players[1], 11, 5)

	player, err := back.DeactivatePlayer(ctx, players[0].ID)
	require.NoError(t, err)
	assert.False(t, player.Active)
	assert.True(t, player.DeactivatedAt.Valid)
	assert.Equal(t, 1005, player.Rating)

	// Idempotent.
	again, err := back.DeactivatePlayer(ctx, players[0].ID)
	require.NoError(t, err)
	assert.False(t, again.Active)

	_, err = back.CreateGame(ctx, GameInput{
		Player1ID: players[0].ID, Player2ID: players[1].ID, Player1Score: 1, Player2Score: 0,
	})
	assert.ErrorIs(t, err, util.ErrPublic(""))

	player, err = back.ReactivatePlayer(ctx, players[0].ID)
	require.NoError(t, err)
	assert.True(t, player.Active)
	assert.False(t, player.DeactivatedAt.Valid)
	assert.Equal(t, 1005, player.Rating)

	_, err = back.ReactivatePlayer(ctx, util.NewUUIDAsBlob())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePlayerKeepsOpponentsConsistent(t *testing.T) {
	back, publisher := createTestBack(t)
	ctx := context.Background()
	players := createTestPlayers(t, back, "Rauru", "Saria", "Impa")

	mustCreateGame(t, back, players[0], players[1], 11, 5)
	mustCreateGame(t, back, players[1], players[2], 21, 0)
	mustCreateGame(t, back, players[2], players[0], 11, 9)
	mustCreateGame(t, back, players[1], players[0], 3, 11)
	saria := mustCreateGame(t, back, players[1], players[2], 8, 11)

	require.NoError(t, back.DeletePlayer(ctx, players[0].ID))

	_, err := back.GetPlayer(ctx, players[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)

	games, err := back.GetGames(ctx, GameFilter{})
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, saria.ID, games[0].ID)

	// Only the two Saria vs Impa games remain.
	assert.Equal(t, 1000+games[0].Player1RatingChange+games[1].Player1RatingChange, ratingOf(t, back, players[1]))
	assert.Equal(t, 1000+games[0].Player2RatingChange+games[1].Player2RatingChange, ratingOf(t, back, players[2]))
	requireConsistent(t, back)

	kinds := publisher.kinds()
	assert.Equal(t, []events.Kind{events.KindReversed, events.KindReversed, events.KindReversed}, kinds[len(kinds)-3:])

	assert.ErrorIs(t, back.DeletePlayer(ctx, players[0].ID), ErrNotFound)
}

func TestStorageErrors(t *testing.T) {
	back, _ := createTestBack(t)
	require.NoError(t, back.Close())

	_, err := back.CreatePlayer(context.Background(), "Ruto")
	assert.ErrorIs(t, err, ErrStorage)

	_, err = back.GetRankings(context.Background())
	assert.ErrorIs(t, err, ErrStorage)
}

func TestCanceledContext(t *testing.T) {
	back, _ := createTestBack(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := back.GetPlayers(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrStorage)
}

func TestLoadFixtures(t *testing.T) {
	back, _ := createTestBack(t)
	ctx := context.Background()

	require.NoError(t, back.LoadFixtures(ctx, 8, 40))

	players, err := back.GetPlayers(ctx)
	require.NoError(t, err)
	assert.Len(t, players, 8)

	games, err := back.GetGames(ctx, GameFilter{})
	require.NoError(t, err)
	assert.Len(t, games, 40)
	requireConsistent(t, back)

	assert.Error(t, back.LoadFixtures(ctx, 1, 1))
}
