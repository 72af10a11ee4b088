package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/fittracker/fittracker/internal/domain/progress"
	"github.com/fittracker/fittracker/internal/platform/apperr"
)

// Image formats for RenderChart.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

const (
	chartImageWidth  = 800
	chartImageHeight = 360
)

// RenderChart draws a standalone evolution chart for one series. The
// series must be renderable.
func RenderChart(s progress.Series, format string) ([]byte, string, error) {
	if !s.Renderable() {
		return nil, "", apperr.Invalid("not enough measurements to chart %s", s.Key)
	}

	provider, contentType := chart.PNG, "image/png"
	switch format {
	case "", FormatPNG:
	case FormatSVG:
		provider, contentType = chart.SVG, "image/svg+xml"
	default:
		return nil, "", apperr.Invalid("format must be %q or %q", FormatPNG, FormatSVG)
	}

	color := hex(s.Color)
	style := chart.Style{
		StrokeColor: color,
		StrokeWidth: 2,
		DotColor:    color,
		DotWidth:    4,
	}

	ch := chart.Chart{
		Title:      s.Label,
		Width:      chartImageWidth,
		Height:     chartImageHeight,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 24, Bottom: 16}},
		YAxis: chart.YAxis{
			Name: s.Unit,
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f", f)
				}
				return ""
			},
		},
	}

	first, last := s.Points[0].At, s.Points[len(s.Points)-1].At
	if first.Equal(last) {
		// A time axis needs a non-zero span; space the points evenly like
		// the report polyline does.
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		ticks := make([]chart.Tick, len(s.Points))
		for i, p := range s.Points {
			xs[i], ys[i] = float64(i), p.Value
			ticks[i] = chart.Tick{Value: float64(i), Label: p.Date}
		}
		ch.XAxis = chart.XAxis{Ticks: ticks}
		ch.Series = []chart.Series{
			chart.ContinuousSeries{Name: s.Label, XValues: xs, YValues: ys, Style: style},
		}
	} else {
		xs := make([]time.Time, len(s.Points))
		ys := make([]float64, len(s.Points))
		for i, p := range s.Points {
			xs[i], ys[i] = p.At, p.Value
		}
		ch.XAxis = chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat(progress.SeriesDateLayout),
		}
		ch.Series = []chart.Series{
			chart.TimeSeries{Name: s.Label, XValues: xs, YValues: ys, Style: style},
		}
	}

	var buf bytes.Buffer
	if err := ch.Render(provider, &buf); err != nil {
		return nil, "", fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), contentType, nil
}
