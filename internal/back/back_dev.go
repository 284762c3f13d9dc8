package back

import (
	"context"
	"errors"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"

	"rallyrank/internal/logging"
	"rallyrank/internal/util"
)

// LoadFixtures creates players with random names and plays random games
// between them, for development only.
func (b *Back) LoadFixtures(ctx context.Context, playerCount, gameCount int) error {
	if playerCount < 2 {
		return fmt.Errorf("need at least 2 players, got %d", playerCount)
	}

	faker := gofakeit.New(0)
	players := make([]Player, 0, playerCount)
	for len(players) < playerCount {
		player, err := b.CreatePlayer(ctx, faker.FirstName()+" "+faker.LastName())
		if errors.Is(err, util.ErrPublic("")) {
			logging.Debug().Err(err).Msg("skipping fixture player")
			continue
		} else if err != nil {
			return err
		}

		players = append(players, player)
	}

	for i := 0; i < gameCount; i++ {
		a := faker.IntRange(0, len(players)-1)
		c := faker.IntRange(0, len(players)-2)
		if c >= a {
			c++
		}

		// Rally scoring: the winner reaches 11, or wins by two past deuce.
		winner := 11
		loser := faker.IntRange(0, 12)
		if loser >= 10 {
			winner = loser + 2
		}
		score1, score2 := winner, loser
		if faker.Bool() {
			score1, score2 = loser, winner
		}

		if _, err := b.CreateGame(ctx, GameInput{
			Player1ID:    players[a].ID,
			Player2ID:    players[c].ID,
			Player1Score: score1,
			Player2Score: score2,
		}); err != nil {
			return err
		}
	}

	logging.Info().Int("players", playerCount).Int("games", gameCount).Msg("fixtures loaded")

	return nil
}
