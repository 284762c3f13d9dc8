package back

import (
	"context"

	"github.com/jmoiron/sqlx"

	"rallyrank/internal/elo"
)

// Title is the honorific attached to a rank.
type Title string

const (
	TitleChampion Title = "Champion"
	TitleLegend   Title = "Legend"
	TitleMaster   Title = "Master"
	TitlePro      Title = "Pro"
	TitleNovice   Title = "Novice"
)

// TitleFor returns the title of the player at 1-based rank among total
// ranked players. The first player is always Champion, then the top 20%
// are Legend, 40% Master, 60% Pro.
func TitleFor(rank, total int) Title {
	if rank <= 0 || total <= 0 {
		return ""
	}

	if rank == 1 {
		return TitleChampion
	}

	percentage := float64(rank) / float64(total) * 100
	switch {
	case percentage <= 20:
		return TitleLegend
	case percentage <= 40:
		return TitleMaster
	case percentage <= 60:
		return TitlePro
	default:
		return TitleNovice
	}
}

type RankingEntry struct {
	Player
	Rank  int   `db:"-" json:"rank"`
	Title Title `db:"-" json:"title"`

	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// GetRankings returns the active players by descending rating, ties are
// broken by ID so the order is stable.
func (b *Back) GetRankings(ctx context.Context) ([]RankingEntry, error) {
	ret := []RankingEntry{}
	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		return tx.Select(&ret, `
            SELECT
                Player.*,
                COALESCE(SUM(CASE
                    WHEN Game.Player1ID = Player.ID AND Game.Result = ? THEN 1
                    WHEN Game.Player2ID = Player.ID AND Game.Result = ? THEN 1
                    ELSE 0 END), 0) AS Wins,
                COALESCE(SUM(CASE
                    WHEN Game.Player1ID = Player.ID AND Game.Result = ? THEN 1
                    WHEN Game.Player2ID = Player.ID AND Game.Result = ? THEN 1
                    ELSE 0 END), 0) AS Losses,
                COALESCE(SUM(CASE WHEN Game.Result = ? THEN 1 ELSE 0 END), 0) AS Draws
            FROM Player
            LEFT JOIN Game ON (Game.Player1ID = Player.ID OR Game.Player2ID = Player.ID)
            WHERE Player.Active = 1
            GROUP BY Player.ID
            ORDER BY Player.Rating DESC, Player.ID ASC`,
			elo.ResultPlayer1Win, elo.ResultPlayer2Win,
			elo.ResultPlayer2Win, elo.ResultPlayer1Win,
			elo.ResultDraw,
		)
	}); err != nil {
		return nil, err
	}

	for k := range ret {
		ret[k].Rank = k + 1
		ret[k].Title = TitleFor(k+1, len(ret))
	}

	return ret, nil
}

// getPlayerRank returns the 1-based rank of an active player and the number
// of active players, using the same ordering as GetRankings.
func getPlayerRank(tx *sqlx.Tx, player Player) (rank, total int, _ error) {
	if !player.Active {
		return 0, 0, nil
	}

	if err := tx.Get(&total, `SELECT COUNT(*) FROM Player WHERE Player.Active = 1`); err != nil {
		return 0, 0, err
	}

	var ahead int
	if err := tx.Get(&ahead, `
        SELECT COUNT(*) FROM Player
        WHERE Player.Active = 1
          AND (Player.Rating > ? OR (Player.Rating = ? AND Player.ID < ?))`,
		player.Rating, player.Rating, player.ID,
	); err != nil {
		return 0, 0, err
	}

	return ahead + 1, total, nil
}
