package back

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"rallyrank/internal/logging"
	"rallyrank/internal/metrics"
	"rallyrank/internal/util"
)

// Drift is a player whose stored rating does not match its initial rating
// plus the deltas of its stored games.
type Drift struct {
	PlayerID       util.UUIDAsBlob `json:"player_id"`
	Name           string          `json:"name"`
	Rating         int             `json:"rating"`
	ExpectedRating int             `json:"expected_rating"`
}

// CheckConsistency returns every player whose rating drifted from its game
// history. A healthy ledger always returns an empty slice.
func (b *Back) CheckConsistency(ctx context.Context) ([]Drift, error) {
	ret := []Drift{}
	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		return tx.Select(&ret, `
            SELECT * FROM (
                SELECT
                    Player.ID AS PlayerID,
                    Player.Name AS Name,
                    Player.Rating AS Rating,
                    Player.InitialRating + COALESCE((
                        SELECT SUM(CASE
                            WHEN Game.Player1ID = Player.ID THEN Game.Player1RatingChange
                            ELSE Game.Player2RatingChange END)
                        FROM Game
                        WHERE Game.Player1ID = Player.ID OR Game.Player2ID = Player.ID
                    ), 0) AS ExpectedRating
                FROM Player
            )
            WHERE Rating <> ExpectedRating
            ORDER BY Name ASC`)
	}); err != nil {
		return nil, err
	}

	return ret, nil
}

// Serve runs the periodic tasks until ctx is done. It implements
// suture.Service.
func (b *Back) Serve(ctx context.Context) error {
	logging.Info().Str("interval", util.FormatDuration(b.checkInterval)).Msg("starting Back periodic tasks")

	for {
		if err := b.runPeriodicTasks(ctx); err != nil && ctx.Err() == nil {
			logging.Error().Err(err).Msg("runPeriodicTasks")
		}

		select {
		case <-time.After(b.checkInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (b *Back) String() string {
	return "back-periodic"
}

func (b *Back) runPeriodicTasks(ctx context.Context) error {
	if err := b.refreshGauges(ctx); err != nil {
		return err
	}

	drifts, err := b.CheckConsistency(ctx)
	if err != nil {
		return err
	}

	metrics.RatingDrift.Set(float64(len(drifts)))
	for _, v := range drifts {
		logging.Warn().
			Str("player", v.PlayerID.String()).
			Str("name", v.Name).
			Int("rating", v.Rating).
			Int("expected", v.ExpectedRating).
			Msg("rating drifted from game history")
	}

	return nil
}

func (b *Back) refreshGauges(ctx context.Context) error {
	var players, games int
	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		if err := tx.Get(&players, `SELECT COUNT(*) FROM Player WHERE Player.Active = 1`); err != nil {
			return err
		}

		return tx.Get(&games, `SELECT COUNT(*) FROM Game`)
	}); err != nil {
		return err
	}

	metrics.ActivePlayers.Set(float64(players))
	metrics.StoredGames.Set(float64(games))
	logging.Trace().Int("players", players).Int("games", games).Msg("refreshed gauges")

	return nil
}
