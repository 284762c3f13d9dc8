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

	"rallyrank/internal/events"
	"rallyrank/internal/logging"
	"rallyrank/internal/util"
)

// A Player is a competitor that can take part in games. Only the ledger
// changes its Rating.
type Player struct {
	ID            util.UUIDAsBlob      `json:"id"`
	CreatedAt     util.TimeAsTimestamp `json:"created_at"`
	Name          string               `json:"name"`
	Rating        int                  `json:"rating"`
	InitialRating int                  `json:"initial_rating"`
	Active        bool                 `json:"is_active"`
	DeactivatedAt null.Time            `json:"deactivated_at"`
}

func NewPlayer(name string, rating int) Player {
	return Player{
		ID:            util.NewUUIDAsBlob(),
		CreatedAt:     util.NewTimeAsTimestamp(),
		Name:          name,
		Rating:        rating,
		InitialRating: rating,
		Active:        true,
	}
}

func (p *Player) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Player").SetMap(squirrel.Eq{
		"ID":            p.ID,
		"CreatedAt":     p.CreatedAt,
		"Name":          p.Name,
		"Rating":        p.Rating,
		"InitialRating": p.InitialRating,
		"Active":        p.Active,
		"DeactivatedAt": p.DeactivatedAt,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func (p *Player) update(tx *sqlx.Tx) error {
	query, args, err := squirrel.Update("Player").SetMap(squirrel.Eq{
		"Name":          p.Name,
		"Rating":        p.Rating,
		"Active":        p.Active,
		"DeactivatedAt": p.DeactivatedAt,
	}).Where("Player.ID = ?", p.ID).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func (p *Player) delete(tx *sqlx.Tx) error {
	_, err := tx.Exec(`DELETE FROM Player WHERE Player.ID = ?`, p.ID)
	return err
}

func getPlayerByName(tx *sqlx.Tx, name string) (Player, error) {
	var ret Player
	query := `SELECT * FROM Player WHERE Player.Name = ? LIMIT 1`
	if err := tx.Get(&ret, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Player{}, fmt.Errorf("%w: player %q", ErrNotFound, name)
		}

		return Player{}, err
	}

	return ret, nil
}

func getPlayerByID(tx *sqlx.Tx, id util.UUIDAsBlob) (Player, error) {
	var ret Player
	query := `SELECT * FROM Player WHERE Player.ID = ? LIMIT 1`
	if err := tx.Get(&ret, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Player{}, fmt.Errorf("%w: player %s", ErrNotFound, id)
		}

		return Player{}, err
	}

	return ret, nil
}

// CreatePlayer registers a new active player at the default rating.
func (b *Back) CreatePlayer(ctx context.Context, name string) (player Player, _ error) {
	name, err := util.NormalizeName(name)
	if err != nil {
		return Player{}, err
	}

	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := getPlayerByName(tx, name); err == nil {
			return util.ErrPublic(fmt.Sprintf("name: %q is taken already", name))
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		player = NewPlayer(name, b.defaultRating)
		return player.insert(tx)
	}); err != nil {
		return Player{}, err
	}

	logging.Info().Str("player", player.ID.String()).Str("name", player.Name).Msg("player created")

	return player, nil
}

func (b *Back) GetPlayer(ctx context.Context, id util.UUIDAsBlob) (player Player, _ error) {
	if err := b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		player, err = getPlayerByID(tx, id)
		return err
	}); err != nil {
		return Player{}, err
	}

	return player, nil
}

// GetPlayers returns every player, active ones first then by name.
func (b *Back) GetPlayers(ctx context.Context) ([]Player, error) {
	players := []Player{}
	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		return tx.Select(&players, `SELECT * FROM Player ORDER BY Active DESC, Name ASC`)
	}); err != nil {
		return nil, err
	}

	return players, nil
}

// DeactivatePlayer removes a player from the rankings without touching any
// rating. Deactivating an inactive player is a no-op.
func (b *Back) DeactivatePlayer(ctx context.Context, id util.UUIDAsBlob) (Player, error) {
	return b.setPlayerActive(ctx, id, false)
}

// ReactivatePlayer puts a player back into the rankings with the rating it
// had when it was deactivated.
func (b *Back) ReactivatePlayer(ctx context.Context, id util.UUIDAsBlob) (Player, error) {
	return b.setPlayerActive(ctx, id, true)
}

func (b *Back) setPlayerActive(ctx context.Context, id util.UUIDAsBlob, active bool) (player Player, _ error) {
	if err := b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		player, err = getPlayerByID(tx, id)
		if err != nil {
			return err
		}

		if player.Active == active {
			return nil
		}

		player.Active = active
		player.DeactivatedAt = null.Time{}
		if !active {
			player.DeactivatedAt = null.TimeFrom(time.Now().UTC())
		}

		return player.update(tx)
	}); err != nil {
		return Player{}, err
	}

	logging.Info().Str("player", player.ID.String()).Bool("active", player.Active).Msg("player status changed")

	return player, nil
}

// DeletePlayer permanently removes a player and every game it played.
// Each game is reversed, newest first, so its opponents lose exactly what
// they gained from it.
func (b *Back) DeletePlayer(ctx context.Context, id util.UUIDAsBlob) error {
	var evs []events.GameEvent

	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		player, err := getPlayerByID(tx, id)
		if err != nil {
			return err
		}

		games, err := getGamesByPlayerNewestFirst(tx, player.ID)
		if err != nil {
			return err
		}

		for _, game := range games {
			ev, err := b.reverseGame(tx, game)
			if err != nil {
				return fmt.Errorf("unable to reverse game %s: %w", game.ID, err)
			}

			evs = append(evs, ev)
		}

		return player.delete(tx)
	}); err != nil {
		return err
	}

	logging.Info().Str("player", id.String()).Int("games", len(evs)).Msg("player deleted")
	b.publish(evs...)

	return nil
}
