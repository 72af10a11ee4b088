package progress

import (
	"sort"
	"time"

	"github.com/fittracker/fittracker/internal/domain/measurement"
)

// SeriesDateLayout is the dd/MM label under each point.
const SeriesDateLayout = "02/01"

type Point struct {
	Date  string    `json:"date"`
	Value float64   `json:"value"`
	At    time.Time `json:"at"`
}

type Series struct {
	Key    ChartKey `json:"key"`
	Label  string   `json:"label"`
	Color  string   `json:"color"`
	Unit   string   `json:"unit"`
	Points []Point  `json:"points"`
}

// Renderable reports whether the series has enough points to draw a line.
// Every chart surface uses this same rule.
func (s Series) Renderable() bool {
	return len(s.Points) >= 2
}

// Chronological returns ms sorted by measured_at ascending without
// modifying ms.
func Chronological(ms []*measurement.Measurement) []*measurement.Measurement {
	out := make([]*measurement.Measurement, len(ms))
	copy(out, ms)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MeasuredAt.Before(out[j].MeasuredAt)
	})
	return out
}

// ExtractSeries builds the time-ascending series for key. Measurements
// missing the field are skipped. With fewer than two measurements the
// series is empty.
func ExtractSeries(key ChartKey, ms []*measurement.Measurement, loc *time.Location) Series {
	if loc == nil {
		loc = time.UTC
	}
	s := Series{Key: key, Label: key.Label(), Color: key.Color(), Unit: key.Unit(), Points: []Point{}}
	if len(ms) < 2 {
		return s
	}
	for _, m := range Chronological(ms) {
		v := key.Value(m)
		if v == nil {
			continue
		}
		s.Points = append(s.Points, Point{
			Date:  m.MeasuredAt.In(loc).Format(SeriesDateLayout),
			Value: *v,
			At:    m.MeasuredAt,
		})
	}
	return s
}

// AvailableCharts lists, in canonical order, the keys with at least one
// non-nil value in ms.
func AvailableCharts(ms []*measurement.Measurement) []ChartKey {
	out := []ChartKey{}
	for _, k := range AllChartKeys {
		for _, m := range ms {
			if k.Value(m) != nil {
				out = append(out, k)
				break
			}
		}
	}
	return out
}

// RenderableSeries extracts every available key and keeps the drawable ones.
func RenderableSeries(ms []*measurement.Measurement, loc *time.Location) []Series {
	out := []Series{}
	for _, k := range AvailableCharts(ms) {
		if s := ExtractSeries(k, ms, loc); s.Renderable() {
			out = append(out, s)
		}
	}
	return out
}

type Trend struct {
	WeightChange  float64   `json:"weight_change"`
	BodyFatChange float64   `json:"body_fat_change"`
	Measurements  int       `json:"measurements"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
}

// Summarize compares the first and last measurement. Nil with fewer than
// two measurements.
func Summarize(ms []*measurement.Measurement) *Trend {
	if len(ms) < 2 {
		return nil
	}
	sorted := Chronological(ms)
	first, last := sorted[0], sorted[len(sorted)-1]
	return &Trend{
		WeightChange:  round1(last.Weight - first.Weight),
		BodyFatChange: round1(last.BodyFatPercentage - first.BodyFatPercentage),
		Measurements:  len(ms),
		From:          first.MeasuredAt,
		To:            last.MeasuredAt,
	}
}

// PlotArea is the rectangle a series polyline is fitted into.
type PlotArea struct {
	Left, Top, Width, Height float64
}

type XY struct {
	X, Y float64
}

// PlotPoints spreads the points evenly across the area's width and scales
// values between the series min and max to its height, larger values
// higher. A flat series sits on the bottom edge.
func PlotPoints(s Series, area PlotArea) []XY {
	n := len(s.Points)
	if n == 0 {
		return nil
	}
	lo, hi := s.Points[0].Value, s.Points[0].Value
	for _, p := range s.Points[1:] {
		if p.Value < lo {
			lo = p.Value
		}
		if p.Value > hi {
			hi = p.Value
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	out := make([]XY, n)
	for i, p := range s.Points {
		x := area.Left
		if n > 1 {
			x += float64(i) / float64(n-1) * area.Width
		}
		y := area.Top + area.Height - (p.Value-lo)/span*area.Height
		out[i] = XY{X: x, Y: y}
	}
	return out
}
