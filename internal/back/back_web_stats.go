package back

// This file contains functions specific to the web frontend.
// Please do not call them outside of the webserver.

import (
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"rallyrank/internal/util"
)

const emptySVG = `<svg xmlns="http://www.w3.org/2000/svg"/>`

// GetPlayerRatingGraph renders the rating of a player over its games as
// SVG, starting from its initial rating.
func (b *Back) GetPlayerRatingGraph(ctx context.Context, id util.UUIDAsBlob) ([]byte, error) {
	var (
		player Player
		points []RatingPoint
	)

	if err := b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		player, err = getPlayerByID(tx, id)
		if err != nil {
			return err
		}

		games, err := getPlayerGamesChronological(tx, id)
		if err != nil {
			return err
		}

		points = computeRatingHistory(id, games)
		return nil
	}); err != nil {
		return nil, err
	}

	return generateRatingGraph(player.InitialRating, points)
}

func generateRatingGraph(initial int, points []RatingPoint) ([]byte, error) {
	if len(points) == 0 {
		return []byte(emptySVG), nil
	}

	xs := make([]float64, 0, len(points)+1)
	ys := make([]float64, 0, len(points)+1)
	xs, ys = append(xs, 0), append(ys, float64(initial))
	minY, maxY := float64(initial), float64(initial)

	for k, v := range points {
		y := float64(v.Rating)
		xs, ys = append(xs, float64(k+1)), append(ys, y)
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}

	graph := chart.Chart{
		Height:     300,
		Width:      600,
		Canvas:     chart.Style{FillColor: chart.ColorTransparent},
		Background: chart.Style{FillColor: chart.ColorTransparent},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(len(points))},
			ValueFormatter: func(v interface{}) string {
				return strconv.Itoa(int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			// Pad so a flat line still has a non-empty range.
			Range: &chart.ContinuousRange{Min: minY - 10, Max: maxY + 10},
			ValueFormatter: func(v interface{}) string {
				return strconv.Itoa(int(v.(float64)))
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("4c7899"),
					StrokeWidth: 2,
				},
				XValues: xs,
				YValues: ys,
			},
		},
	}

	return renderChart(graph)
}

// GetPlayerResultsGraph renders the wins, losses, and draws of a player as
// an SVG bar chart.
func (b *Back) GetPlayerResultsGraph(ctx context.Context, id util.UUIDAsBlob) ([]byte, error) {
	stats, err := b.GetPlayerStats(ctx, id)
	if err != nil {
		return nil, err
	}

	return generateResultsGraph(stats)
}

func generateResultsGraph(stats PlayerStats) ([]byte, error) {
	if stats.Played == 0 {
		return []byte(emptySVG), nil
	}

	bar := func(label, color string, value int) chart.Value {
		return chart.Value{
			Label: label,
			Value: float64(value),
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex(color),
				StrokeColor: drawing.ColorFromHex(color),
				StrokeWidth: 1,
			},
		}
	}

	maxValue := stats.Wins
	if stats.Losses > maxValue {
		maxValue = stats.Losses
	}
	if stats.Draws > maxValue {
		maxValue = stats.Draws
	}

	graph := chart.BarChart{
		Height:     300,
		Width:      400,
		BarSpacing: 40,
		Canvas:     chart.Style{FillColor: chart.ColorTransparent},
		Background: chart.Style{FillColor: chart.ColorTransparent},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxValue)},
			Ticks: []chart.Tick{
				{Value: 0, Label: "0"},
				{Value: float64(maxValue), Label: strconv.Itoa(maxValue)},
			},
		},
		Bars: []chart.Value{
			bar("Wins", "2f9e44", stats.Wins),
			bar("Losses", "c92a2a", stats.Losses),
			bar("Draws", "868e96", stats.Draws),
		},
	}
	graph.BarWidth = (graph.Width - (len(graph.Bars) * graph.BarSpacing)) / len(graph.Bars)

	return renderChart(graph)
}

type renderable interface {
	Render(chart.RendererProvider, io.Writer) error
}

func renderChart(r renderable) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(chart.SVG, &buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
