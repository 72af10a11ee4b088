package report

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fittracker/fittracker/internal/domain/progress"
	"github.com/fittracker/fittracker/internal/platform/apperr"
)

func TestRenderChart_PNG(t *testing.T) {
	s := progress.ExtractSeries(progress.Weight, history(uuid.New(), 3), time.UTC)

	out, ct, err := RenderChart(s, FormatPNG)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != chartImageWidth || b.Dy() != chartImageHeight {
		t.Errorf("expected %dx%d, got %v", chartImageWidth, chartImageHeight, b)
	}
}

func TestRenderChart_SameMeasuredAt(t *testing.T) {
	h := history(uuid.New(), 2)
	h[1].MeasuredAt = h[0].MeasuredAt

	for _, format := range []string{FormatPNG, FormatSVG} {
		s := progress.ExtractSeries(progress.Weight, h, time.UTC)
		if !s.Renderable() {
			t.Fatal("expected renderable series")
		}
		out, _, err := RenderChart(s, format)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", format, err)
		}
		if len(out) == 0 {
			t.Errorf("%s: expected image bytes", format)
		}
	}
}

func TestRenderChart_FlatSeries(t *testing.T) {
	s := progress.ExtractSeries(progress.Chest, history(uuid.New(), 3), time.UTC)

	if _, _, err := RenderChart(s, FormatPNG); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRenderChart_Invalid(t *testing.T) {
	single := progress.ExtractSeries(progress.Weight, history(uuid.New(), 1), time.UTC)
	if _, _, err := RenderChart(single, FormatPNG); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("expected invalid for one point, got %v", err)
	}

	s := progress.ExtractSeries(progress.Weight, history(uuid.New(), 2), time.UTC)
	if _, _, err := RenderChart(s, "gif"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("expected invalid for unknown format, got %v", err)
	}
}
