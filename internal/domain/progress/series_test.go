package progress

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fittracker/fittracker/internal/domain/measurement"
	"github.com/fittracker/fittracker/internal/platform/apperr"
)

func ptr(v float64) *float64 { return &v }

func meas(day int, weight, fat float64, waist *float64) *measurement.Measurement {
	return &measurement.Measurement{
		Weight:             weight,
		Height:             175,
		BodyFatPercentage:  fat,
		WaistCircumference: waist,
		MeasuredAt:         time.Date(2024, 3, day, 9, 0, 0, 0, time.UTC),
	}
}

func TestParseChartKey(t *testing.T) {
	for _, k := range AllChartKeys {
		got, err := ParseChartKey(k.String())
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", k, err)
		}
		if got != k {
			t.Errorf("expected %s, got %s", k, got)
		}
	}

	_, err := ParseChartKey("pescoco")
	if !errors.Is(err, ErrUnknownChartKey) {
		t.Errorf("expected ErrUnknownChartKey, got %v", err)
	}
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("expected unknown key to be an invalid-input error, got %v", err)
	}
}

func TestChartKey_Metadata(t *testing.T) {
	if BodyFat.Label() != "Evolução da % de Gordura" || BodyFat.Unit() != "%" || BodyFat.Color() != "#EF4444" {
		t.Errorf("unexpected metadata for body fat: %q %q %q", BodyFat.Label(), BodyFat.Unit(), BodyFat.Color())
	}
	if CalfRight.String() != "panturrilhaDireita" {
		t.Errorf("expected panturrilhaDireita, got %s", CalfRight)
	}
	if len(AllChartKeys) != 11 {
		t.Errorf("expected 11 chart keys, got %d", len(AllChartKeys))
	}
}

func TestChartKey_JSON(t *testing.T) {
	b, err := json.Marshal([]ChartKey{Weight, ArmLeft})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != `["peso","bracoEsquerdo"]` {
		t.Errorf("unexpected encoding %s", b)
	}

	var keys []ChartKey
	if err := json.Unmarshal([]byte(`["cintura","quadril"]`), &keys); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 || keys[0] != Waist || keys[1] != Hip {
		t.Errorf("unexpected decode %v", keys)
	}
}

func TestExtractSeries_OrderAndGaps(t *testing.T) {
	// Newest first, as the repository returns them.
	ms := []*measurement.Measurement{
		meas(20, 78, 20, ptr(84)),
		meas(10, 79, 21, nil),
		meas(1, 80, 22, ptr(86)),
	}

	s := ExtractSeries(Weight, ms, time.UTC)
	if len(s.Points) != 3 {
		t.Fatalf("expected 3 weight points, got %d", len(s.Points))
	}
	if s.Points[0].Value != 80 || s.Points[2].Value != 78 {
		t.Errorf("expected ascending time order, got %+v", s.Points)
	}
	if s.Points[0].Date != "01/03" {
		t.Errorf("expected dd/MM date, got %s", s.Points[0].Date)
	}

	waist := ExtractSeries(Waist, ms, time.UTC)
	if len(waist.Points) != 2 {
		t.Fatalf("expected nil waist to be skipped, got %d points", len(waist.Points))
	}
	if !waist.Renderable() {
		t.Error("expected two-point series to be renderable")
	}
	if ms[0].Weight != 78 {
		t.Error("expected input slice to keep its order")
	}
}

func TestExtractSeries_TooFewMeasurements(t *testing.T) {
	s := ExtractSeries(Weight, []*measurement.Measurement{meas(1, 80, 22, nil)}, time.UTC)
	if len(s.Points) != 0 {
		t.Errorf("expected empty series, got %d points", len(s.Points))
	}
	if s.Renderable() {
		t.Error("expected empty series not to be renderable")
	}
	if s.Points == nil {
		t.Error("expected non-nil points so JSON encodes []")
	}
}

func TestExtractSeries_SingleValueNotRenderable(t *testing.T) {
	ms := []*measurement.Measurement{meas(1, 80, 22, ptr(86)), meas(2, 79, 21, nil)}
	if ExtractSeries(Waist, ms, time.UTC).Renderable() {
		t.Error("expected one-point series not to be renderable")
	}
}

func TestAvailableCharts(t *testing.T) {
	if got := AvailableCharts(nil); len(got) != 0 {
		t.Errorf("expected no charts without measurements, got %v", got)
	}

	ms := []*measurement.Measurement{meas(1, 80, 22, nil), meas(2, 79, 21, ptr(85))}
	got := AvailableCharts(ms)
	want := []ChartKey{Weight, BodyFat, Waist}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
}

func TestRenderableSeries(t *testing.T) {
	ms := []*measurement.Measurement{meas(1, 80, 22, ptr(86)), meas(2, 79, 21, nil)}
	got := RenderableSeries(ms, time.UTC)
	if len(got) != 2 {
		t.Fatalf("expected weight and body fat only, got %d series", len(got))
	}
}

func TestSummarize(t *testing.T) {
	if Summarize([]*measurement.Measurement{meas(1, 80, 22, nil)}) != nil {
		t.Error("expected nil trend for a single measurement")
	}

	tr := Summarize([]*measurement.Measurement{meas(20, 77.66, 19.5, nil), meas(1, 80, 22, nil)})
	if tr == nil {
		t.Fatal("expected a trend")
	}
	if tr.WeightChange != -2.3 {
		t.Errorf("expected -2.3, got %v", tr.WeightChange)
	}
	if tr.BodyFatChange != -2.5 {
		t.Errorf("expected -2.5, got %v", tr.BodyFatChange)
	}
	if tr.Measurements != 2 {
		t.Errorf("expected 2, got %d", tr.Measurements)
	}
}

func TestPlotPoints(t *testing.T) {
	area := PlotArea{Left: 20, Top: 40, Width: 360, Height: 120}
	s := Series{Points: []Point{{Value: 80}, {Value: 75}, {Value: 70}}}

	pts := PlotPoints(s, area)
	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %d", len(pts))
	}
	if pts[0].X != 20 || pts[2].X != 380 || pts[1].X != 200 {
		t.Errorf("unexpected x spread %+v", pts)
	}
	if pts[0].Y != 40 || pts[2].Y != 160 || pts[1].Y != 100 {
		t.Errorf("unexpected y scale %+v", pts)
	}

	flat := PlotPoints(Series{Points: []Point{{Value: 5}, {Value: 5}}}, area)
	if flat[0].Y != 160 || flat[1].Y != 160 {
		t.Errorf("expected flat series on the bottom edge, got %+v", flat)
	}
}
