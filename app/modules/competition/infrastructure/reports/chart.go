// Package competitionreports renders standings charts and payout workbooks.
package competitionreports

import (
	"bytes"
	"fmt"

	competitionservice "github.com/Black-And-White-Club/stride-league/app/modules/competition/application"
	competitiondomain "github.com/Black-And-White-Club/stride-league/app/modules/competition/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// MaxChartEntries caps how many ranked entries a standings chart shows.
const MaxChartEntries = 15

// ChartPalette holds the colors used for rendered charts.
type ChartPalette struct {
	Background drawing.Color
	Bar        drawing.Color
	Leader     drawing.Color
	TextColor  drawing.Color
}

// DefaultPalette is a dark theme with a gold leader bar.
var DefaultPalette = ChartPalette{
	Background: drawing.ColorFromHex("0f1f1a"),
	Bar:        drawing.ColorFromHex("3f8f6b"),
	Leader:     drawing.ColorFromHex("d4a537"),
	TextColor:  drawing.ColorFromHex("e8efe9"),
}

// StandingsChart produces a PNG bar chart of the top standings.
func StandingsChart(st competitionservice.Standings, palette ChartPalette) ([]byte, error) {
	if len(st.Entries) == 0 {
		return renderNoDataPlaceholder(palette)
	}

	entries := st.Entries
	if len(entries) > MaxChartEntries {
		entries = entries[:MaxChartEntries]
	}

	bars := make([]chart.Value, len(entries))
	maxScore := 0.0
	for i, e := range entries {
		fill := palette.Bar
		if e.Rank == 1 {
			fill = palette.Leader
		}
		bars[i] = chart.Value{
			Label: entryLabel(e, st.IsTeam),
			Value: e.Score,
			Style: chart.Style{FillColor: fill, StrokeColor: fill},
		}
		if e.Score > maxScore {
			maxScore = e.Score
		}
	}
	// A flat range cannot be drawn.
	if maxScore == 0 {
		maxScore = 1
	}

	graph := chart.BarChart{
		Title:      st.CompetitionName,
		TitleStyle: chart.Style{FontColor: palette.TextColor},
		Width:      120 + len(bars)*60,
		Height:     400,
		BarWidth:   40,
		BarSpacing: 20,
		Background: chart.Style{
			FillColor: palette.Background,
			Padding:   chart.Box{Top: 40},
		},
		Canvas: chart.Style{FillColor: palette.Background},
		XAxis:  chart.Style{FontColor: palette.TextColor},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: palette.TextColor},
			Range: &chart.ContinuousRange{Min: 0, Max: maxScore * 1.1},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("render standings chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func entryLabel(e competitiondomain.RankedEntry, isTeam bool) string {
	if isTeam {
		return fmt.Sprintf("#%d Team %d", e.Rank, e.TeamNumber)
	}
	return fmt.Sprintf("#%d %s", e.Rank, e.UserID.String()[:8])
}

func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No scores yet"
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(palette.TextColor)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
