package back

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"

	"rallyrank/internal/elo"
	"rallyrank/internal/events"
	"rallyrank/internal/logging"
	"rallyrank/internal/util"
)

// A Game is a single match between two distinct players along with the
// rating change it caused.
type Game struct {
	ID        util.UUIDAsBlob      `json:"id"`
	CreatedAt util.TimeAsTimestamp `json:"created_at"`
	UpdatedAt null.Time            `json:"updated_at"`

	Player1ID    util.UUIDAsBlob `json:"player1_id"`
	Player2ID    util.UUIDAsBlob `json:"player2_id"`
	Player1Score int             `json:"player1_score"`
	Player2Score int             `json:"player2_score"`
	Result       elo.Result      `json:"result"`

	// Ratings observed when the game was last (re)applied.
	Player1PriorRating int `json:"prior_rating_player1"`
	Player2PriorRating int `json:"prior_rating_player2"`

	// Deltas added to each player, subtracted back on edit or deletion.
	Player1RatingChange int `json:"rating_change_player1"`
	Player2RatingChange int `json:"rating_change_player2"`
}

// GameEntry is a Game with the data needed to display it.
type GameEntry struct {
	Game
	Player1Name      string `json:"player1_name"`
	Player2Name      string `json:"player2_name"`
	Player1NewRating int    `json:"new_rating_player1"`
	Player2NewRating int    `json:"new_rating_player2"`
}

// GameInput holds what a caller provides to record a game.
type GameInput struct {
	Player1ID, Player2ID       util.UUIDAsBlob
	Player1Score, Player2Score int
}

// GameFilter restricts GetGames, zero values mean no restriction.
type GameFilter struct {
	PlayerID util.UUIDAsBlob
	Limit    int
}

func newGame(player1ID, player2ID util.UUIDAsBlob, rec elo.Record) Game {
	game := Game{
		ID:        util.NewUUIDAsBlob(),
		CreatedAt: util.NewTimeAsTimestamp(),
		Player1ID: player1ID,
		Player2ID: player2ID,
	}
	game.setRecord(rec)

	return game
}

func (g *Game) record() elo.Record {
	return elo.Record{
		Score1: g.Player1Score,
		Score2: g.Player2Score,
		Result: g.Result,
		Prior:  elo.Pair{Player1: g.Player1PriorRating, Player2: g.Player2PriorRating},
		Change: elo.Pair{Player1: g.Player1RatingChange, Player2: g.Player2RatingChange},
	}
}

func (g *Game) setRecord(rec elo.Record) {
	g.Player1Score, g.Player2Score = rec.Score1, rec.Score2
	g.Result = rec.Result
	g.Player1PriorRating, g.Player2PriorRating = rec.Prior.Player1, rec.Prior.Player2
	g.Player1RatingChange, g.Player2RatingChange = rec.Change.Player1, rec.Change.Player2
}

func (g *Game) event(kind events.Kind) events.GameEvent {
	return events.GameEvent{
		Kind:          kind,
		GameID:        g.ID,
		Player1ID:     g.Player1ID,
		Player2ID:     g.Player2ID,
		Player1Change: g.Player1RatingChange,
		Player2Change: g.Player2RatingChange,
		At:            time.Now().UTC(),
	}
}

func (g *Game) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Game").SetMap(squirrel.Eq{
		"ID":                  g.ID,
		"CreatedAt":           g.CreatedAt,
		"UpdatedAt":           g.UpdatedAt,
		"Player1ID":           g.Player1ID,
		"Player2ID":           g.Player2ID,
		"Player1Score":        g.Player1Score,
		"Player2Score":        g.Player2Score,
		"Result":              g.Result,
		"Player1PriorRating":  g.Player1PriorRating,
		"Player2PriorRating":  g.Player2PriorRating,
		"Player1RatingChange": g.Player1RatingChange,
		"Player2RatingChange": g.Player2RatingChange,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func (g *Game) update(tx *sqlx.Tx) error {
	query, args, err := squirrel.Update("Game").SetMap(squirrel.Eq{
		"UpdatedAt":           g.UpdatedAt,
		"Player1Score":        g.Player1Score,
		"Player2Score":        g.Player2Score,
		"Result":              g.Result,
		"Player1PriorRating":  g.Player1PriorRating,
		"Player2PriorRating":  g.Player2PriorRating,
		"Player1RatingChange": g.Player1RatingChange,
		"Player2RatingChange": g.Player2RatingChange,
	}).Where("Game.ID = ?", g.ID).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func (g *Game) delete(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DELETE FROM Game WHERE Game.ID = ?`, g.ID)
	return err
}

func getGameByID(tx *sqlx.Tx, id util.UUIDAsBlob) (Game, error) {
	var ret Game
	query := `SELECT * FROM Game WHERE Game.ID = ? LIMIT 1`
	if err := tx.Get(&ret, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Game{}, fmt.Errorf("%w: game %s", ErrNotFound, id)
		}

		return Game{}, err
	}

	return ret, nil
}

func getGamesByPlayerNewestFirst(tx *sqlx.Tx, playerID util.UUIDAsBlob) ([]Game, error) {
	var ret []Game
	query := `
        SELECT * FROM Game
        WHERE Game.Player1ID = ? OR Game.Player2ID = ?
        ORDER BY Game.CreatedAt DESC, Game.rowid DESC`
	if err := tx.Select(&ret, query, playerID, playerID); err != nil {
		return nil, err
	}

	return ret, nil
}

// gameEntries is the base query for GameEntry, newest games come first
// unless the caller orders otherwise.
func gameEntries() squirrel.SelectBuilder {
	return squirrel.Select(
		"Game.*",
		"P1.Name AS Player1Name",
		"P2.Name AS Player2Name",
		"Game.Player1PriorRating + Game.Player1RatingChange AS Player1NewRating",
		"Game.Player2PriorRating + Game.Player2RatingChange AS Player2NewRating",
	).
		From("Game").
		Join("Player AS P1 ON (P1.ID = Game.Player1ID)").
		Join("Player AS P2 ON (P2.ID = Game.Player2ID)")
}

func getGameEntries(tx *sqlx.Tx, q squirrel.SelectBuilder) ([]GameEntry, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	ret := []GameEntry{}
	if err := tx.Select(&ret, query, args...); err != nil {
		return nil, err
	}

	return ret, nil
}

func getGameEntryByID(tx *sqlx.Tx, id util.UUIDAsBlob) (GameEntry, error) {
	entries, err := getGameEntries(tx, gameEntries().Where("Game.ID = ?", id).Limit(1))
	if err != nil {
		return GameEntry{}, err
	}

	if len(entries) == 0 {
		return GameEntry{}, fmt.Errorf("%w: game %s", ErrNotFound, id)
	}

	return entries[0], nil
}

// getGamePlayers returns both players of a game, player 1 first.
func getGamePlayers(tx *sqlx.Tx, player1ID, player2ID util.UUIDAsBlob) (Player, Player, error) {
	player1, err := getPlayerByID(tx, player1ID)
	if err != nil {
		return Player{}, Player{}, err
	}

	player2, err := getPlayerByID(tx, player2ID)
	if err != nil {
		return Player{}, Player{}, err
	}

	return player1, player2, nil
}

func setRatings(tx *sqlx.Tx, player1, player2 *Player, live elo.Pair) error {
	player1.Rating, player2.Rating = live.Player1, live.Player2
	if err := player1.update(tx); err != nil {
		return err
	}

	return player2.update(tx)
}

// CreateGame records a game between two active players and applies its
// rating change.
func (b *Back) CreateGame(ctx context.Context, in GameInput) (entry GameEntry, _ error) {
	if in.Player1ID == in.Player2ID {
		return GameEntry{}, util.ErrPublic("player1_id, player2_id: a player cannot play against itself")
	}

	if _, err := elo.Classify(in.Player1Score, in.Player2Score); err != nil {
		return GameEntry{}, err
	}

	var game Game
	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		player1, player2, err := getGamePlayers(tx, in.Player1ID, in.Player2ID)
		if err != nil {
			return err
		}

		for _, v := range []Player{player1, player2} {
			if !v.Active {
				return util.ErrPublic(fmt.Sprintf("player %q is inactive", v.Name))
			}
		}

		rec, live, err := b.engine.Apply(
			elo.Pair{Player1: player1.Rating, Player2: player2.Rating},
			in.Player1Score, in.Player2Score,
		)
		if err != nil {
			return err
		}

		game = newGame(player1.ID, player2.ID, rec)
		if err := game.insert(tx); err != nil {
			return err
		}

		if err := setRatings(tx, &player1, &player2, live); err != nil {
			return err
		}

		entry = GameEntry{
			Game:             game,
			Player1Name:      player1.Name,
			Player2Name:      player2.Name,
			Player1NewRating: live.Player1,
			Player2NewRating: live.Player2,
		}

		return nil
	}); err != nil {
		return GameEntry{}, err
	}

	logging.Info().
		Str("game", game.ID.String()).
		Int("player1_change", game.Player1RatingChange).
		Int("player2_change", game.Player2RatingChange).
		Msg("game applied")
	b.publish(game.event(events.KindApplied))

	return entry, nil
}

func (b *Back) GetGame(ctx context.Context, id util.UUIDAsBlob) (entry GameEntry, _ error) {
	if err := b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		entry, err = getGameEntryByID(tx, id)
		return err
	}); err != nil {
		return GameEntry{}, err
	}

	return entry, nil
}

// GetGames returns games newest first.
func (b *Back) GetGames(ctx context.Context, filter GameFilter) (entries []GameEntry, _ error) {
	q := gameEntries().OrderBy("Game.CreatedAt DESC", "Game.rowid DESC")
	if !filter.PlayerID.IsZero() {
		q = q.Where("(Game.Player1ID = ? OR Game.Player2ID = ?)", filter.PlayerID, filter.PlayerID)
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	if err := b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		if !filter.PlayerID.IsZero() {
			if _, err := getPlayerByID(tx, filter.PlayerID); err != nil {
				return err
			}
		}

		entries, err = getGameEntries(tx, q)
		return err
	}); err != nil {
		return nil, err
	}

	return entries, nil
}

// UpdateGameScores replaces the scores of a game. The old rating change is
// subtracted from the players' current ratings and the new scores are
// applied on top, in place: the game keeps its ID and creation date.
func (b *Back) UpdateGameScores(ctx context.Context, id util.UUIDAsBlob, score1, score2 int) (entry GameEntry, _ error) {
	if _, err := elo.Classify(score1, score2); err != nil {
		return GameEntry{}, err
	}

	var game Game
	if err := b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		game, err = getGameByID(tx, id)
		if err != nil {
			return err
		}

		player1, player2, err := getGamePlayers(tx, game.Player1ID, game.Player2ID)
		if err != nil {
			return err
		}

		rec, live, err := b.engine.Reapply(
			elo.Pair{Player1: player1.Rating, Player2: player2.Rating},
			game.record(),
			score1, score2,
		)
		if err != nil {
			return err
		}

		game.setRecord(rec)
		game.UpdatedAt = null.TimeFrom(time.Now().UTC())
		if err := game.update(tx); err != nil {
			return err
		}

		if err := setRatings(tx, &player1, &player2, live); err != nil {
			return err
		}

		entry = GameEntry{
			Game:             game,
			Player1Name:      player1.Name,
			Player2Name:      player2.Name,
			Player1NewRating: rec.New().Player1,
			Player2NewRating: rec.New().Player2,
		}

		return nil
	}); err != nil {
		return GameEntry{}, err
	}

	logging.Info().
		Str("game", game.ID.String()).
		Int("player1_change", game.Player1RatingChange).
		Int("player2_change", game.Player2RatingChange).
		Msg("game reapplied")
	b.publish(game.event(events.KindReapplied))

	return entry, nil
}

// DeleteGame removes a game and subtracts its rating change from the
// players' current ratings.
func (b *Back) DeleteGame(ctx context.Context, id util.UUIDAsBlob) error {
	var ev events.GameEvent
	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		game, err := getGameByID(tx, id)
		if err != nil {
			return err
		}

		ev, err = b.reverseGame(tx, game)
		return err
	}); err != nil {
		return err
	}

	logging.Info().Str("game", id.String()).Msg("game reversed")
	b.publish(ev)

	return nil
}

// reverseGame subtracts the stored change of game from its players' live
// ratings and deletes it.
func (b *Back) reverseGame(tx *sqlx.Tx, game Game) (events.GameEvent, error) {
	player1, player2, err := getGamePlayers(tx, game.Player1ID, game.Player2ID)
	if err != nil {
		return events.GameEvent{}, err
	}

	live := elo.Reverse(elo.Pair{Player1: player1.Rating, Player2: player2.Rating}, game.record())
	if err := setRatings(tx, &player1, &player2, live); err != nil {
		return events.GameEvent{}, err
	}

	if err := game.delete(tx); err != nil {
		return events.GameEvent{}, err
	}

	return game.event(events.KindReversed), nil
}
