package back

import (
	"context"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"

	"rallyrank/internal/elo"
	"rallyrank/internal/logging"
	"rallyrank/internal/util"
)

// PlayerStats summarizes the games of a player. Draws are counted apart:
// Played is always Wins + Losses + Draws.
type PlayerStats struct {
	Player Player `json:"player"`

	Played  int     `json:"played"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Draws   int     `json:"draws"`
	WinRate float64 `json:"win_rate"`

	AverageScore         float64 `json:"average_score"`
	AverageOpponentScore float64 `json:"average_opponent_score"`

	PeakRating int         `json:"peak_rating"`
	BiggestWin *BiggestWin `json:"biggest_win"`

	// HeadToHead has one record per opponent, most played first.
	HeadToHead []OpponentRecord `json:"head_to_head"`

	// Rank and Title are only set for active players.
	Rank  null.Int `json:"rank"`
	Title Title    `json:"title,omitempty"`
}

// BiggestWin is the won game with the widest margin, the earliest one wins
// ties.
type BiggestWin struct {
	GameID        util.UUIDAsBlob `json:"game_id"`
	Margin        int             `json:"margin"`
	Score         int             `json:"score"`
	OpponentScore int             `json:"opponent_score"`
	OpponentID    util.UUIDAsBlob `json:"opponent_id"`
	OpponentName  string          `json:"opponent_name"`
}

// OpponentRecord is the record of a player against a single opponent.
type OpponentRecord struct {
	OpponentID   util.UUIDAsBlob `json:"opponent_id"`
	OpponentName string          `json:"opponent_name"`
	Played       int             `json:"played"`
	Wins         int             `json:"wins"`
	Losses       int             `json:"losses"`
	Draws        int             `json:"draws"`
	WinRate      float64         `json:"win_rate"`
}

// RatingPoint is the rating of a player right after a game.
type RatingPoint struct {
	GameID       util.UUIDAsBlob      `json:"game_id"`
	At           util.TimeAsTimestamp `json:"at"`
	Rating       int                  `json:"rating"`
	Change       int                  `json:"change"`
	OpponentID   util.UUIDAsBlob      `json:"opponent_id"`
	OpponentName string               `json:"opponent_name"`
}

// side is a game seen from one of its players.
type side struct {
	score, opponentScore int
	prior, change        int
	opponentID           util.UUIDAsBlob
	opponentName         string
	won, lost            bool
}

func (e GameEntry) sideOf(playerID util.UUIDAsBlob) side {
	if e.Player1ID == playerID {
		return side{
			score:         e.Player1Score,
			opponentScore: e.Player2Score,
			prior:         e.Player1PriorRating,
			change:        e.Player1RatingChange,
			opponentID:    e.Player2ID,
			opponentName:  e.Player2Name,
			won:           e.Result == elo.ResultPlayer1Win,
			lost:          e.Result == elo.ResultPlayer2Win,
		}
	}

	return side{
		score:         e.Player2Score,
		opponentScore: e.Player1Score,
		prior:         e.Player2PriorRating,
		change:        e.Player2RatingChange,
		opponentID:    e.Player1ID,
		opponentName:  e.Player1Name,
		won:           e.Result == elo.ResultPlayer2Win,
		lost:          e.Result == elo.ResultPlayer1Win,
	}
}

// getPlayerGamesChronological returns the games of a player, oldest first.
func getPlayerGamesChronological(tx *sqlx.Tx, playerID util.UUIDAsBlob) ([]GameEntry, error) {
	return getGameEntries(tx, gameEntries().
		Where("(Game.Player1ID = ? OR Game.Player2ID = ?)", playerID, playerID).
		OrderBy("Game.CreatedAt ASC", "Game.rowid ASC"),
	)
}

func computePlayerStats(player Player, games []GameEntry) PlayerStats {
	stats := PlayerStats{
		Player:     player,
		Played:     len(games),
		PeakRating: player.InitialRating,
	}

	var totalScore, totalOpponentScore int
	opponents := map[util.UUIDAsBlob]*OpponentRecord{}
	for _, game := range games {
		s := game.sideOf(player.ID)
		totalScore += s.score
		totalOpponentScore += s.opponentScore

		record, ok := opponents[s.opponentID]
		if !ok {
			record = &OpponentRecord{OpponentID: s.opponentID}
			opponents[s.opponentID] = record
		}
		record.OpponentName = s.opponentName
		record.Played++

		switch {
		case s.won:
			stats.Wins++
			record.Wins++
			margin := s.score - s.opponentScore
			if stats.BiggestWin == nil || margin > stats.BiggestWin.Margin {
				stats.BiggestWin = &BiggestWin{
					GameID:        game.ID,
					Margin:        margin,
					Score:         s.score,
					OpponentScore: s.opponentScore,
					OpponentID:    s.opponentID,
					OpponentName:  s.opponentName,
				}
			}
		case s.lost:
			stats.Losses++
			record.Losses++
		default:
			stats.Draws++
			record.Draws++
		}

		if r := s.prior + s.change; r > stats.PeakRating {
			stats.PeakRating = r
		}
	}

	if stats.Played > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.Played)
		stats.AverageScore = float64(totalScore) / float64(stats.Played)
		stats.AverageOpponentScore = float64(totalOpponentScore) / float64(stats.Played)
	}

	stats.HeadToHead = headToHead(opponents)

	return stats
}

func headToHead(opponents map[util.UUIDAsBlob]*OpponentRecord) []OpponentRecord {
	ret := make([]OpponentRecord, 0, len(opponents))
	for _, v := range opponents {
		v.WinRate = float64(v.Wins) / float64(v.Played)
		ret = append(ret, *v)
	}

	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Played != ret[j].Played {
			return ret[i].Played > ret[j].Played
		}
		if ret[i].OpponentName != ret[j].OpponentName {
			return ret[i].OpponentName < ret[j].OpponentName
		}
		return ret[i].OpponentID.String() < ret[j].OpponentID.String()
	})

	return ret
}

func computeRatingHistory(playerID util.UUIDAsBlob, games []GameEntry) []RatingPoint {
	ret := make([]RatingPoint, 0, len(games))
	for _, game := range games {
		s := game.sideOf(playerID)
		ret = append(ret, RatingPoint{
			GameID:       game.ID,
			At:           game.CreatedAt,
			Rating:       s.prior + s.change,
			Change:       s.change,
			OpponentID:   s.opponentID,
			OpponentName: s.opponentName,
		})
	}

	return ret
}

// GetPlayerStats computes the record, averages, peak rating, biggest win,
// and current rank of a player.
func (b *Back) GetPlayerStats(ctx context.Context, id util.UUIDAsBlob) (stats PlayerStats, _ error) {
	start := time.Now()
	defer func() {
		logging.Debug().Str("player", id.String()).Dur("took", time.Since(start)).Msg("computed player stats")
	}()

	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		player, err := getPlayerByID(tx, id)
		if err != nil {
			return err
		}

		games, err := getPlayerGamesChronological(tx, id)
		if err != nil {
			return err
		}

		rank, total, err := getPlayerRank(tx, player)
		if err != nil {
			return err
		}

		stats = computePlayerStats(player, games)
		if rank > 0 {
			stats.Rank = null.IntFrom(int64(rank))
			stats.Title = TitleFor(rank, total)
		}

		return nil
	}); err != nil {
		return PlayerStats{}, err
	}

	return stats, nil
}

// GetRatingHistory returns the rating of a player after each of its games,
// oldest first.
func (b *Back) GetRatingHistory(ctx context.Context, id util.UUIDAsBlob) (history []RatingPoint, _ error) {
	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := getPlayerByID(tx, id); err != nil {
			return err
		}

		games, err := getPlayerGamesChronological(tx, id)
		if err != nil {
			return err
		}

		history = computeRatingHistory(id, games)
		return nil
	}); err != nil {
		return nil, err
	}

	return history, nil
}
