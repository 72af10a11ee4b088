package report

import (
	"fmt"

	"github.com/fittracker/fittracker/internal/domain/measurement"
	"github.com/fittracker/fittracker/internal/domain/progress"
	"github.com/fittracker/fittracker/internal/platform/apperr"
)

var (
	ErrNoMeasurements   = fmt.Errorf("%w: no measurements available", apperr.ErrInvalid)
	ErrNoChartsSelected = fmt.Errorf("%w: no charts selected", apperr.ErrInvalid)
	ErrChartUnavailable = fmt.Errorf("%w: chart not available", apperr.ErrInvalid)
)

// Gender picks the body outline drawn in the report.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// ParseGender defaults to Male when s is empty.
func ParseGender(s string) (Gender, error) {
	switch Gender(s) {
	case "", Male:
		return Male, nil
	case Female:
		return Female, nil
	default:
		return "", apperr.Invalid("gender must be %q or %q", Male, Female)
	}
}

// Selection is the set of charts chosen for an export, limited to the
// available ones. It starts empty.
type Selection struct {
	available []progress.ChartKey
	selected  map[progress.ChartKey]bool
}

func NewSelection(available []progress.ChartKey) *Selection {
	return &Selection{
		available: append([]progress.ChartKey(nil), available...),
		selected:  make(map[progress.ChartKey]bool),
	}
}

func (s *Selection) isAvailable(k progress.ChartKey) bool {
	for _, a := range s.available {
		if a == k {
			return true
		}
	}
	return false
}

// Toggle flips k in or out of the selection.
func (s *Selection) Toggle(k progress.ChartKey) error {
	if !s.isAvailable(k) {
		return fmt.Errorf("%w: %s", ErrChartUnavailable, k)
	}
	if s.selected[k] {
		delete(s.selected, k)
	} else {
		s.selected[k] = true
	}
	return nil
}

func (s *Selection) SelectAll() {
	for _, k := range s.available {
		s.selected[k] = true
	}
}

func (s *Selection) DeselectAll() {
	clear(s.selected)
}

// Selected returns the chosen keys in availability order.
func (s *Selection) Selected() []progress.ChartKey {
	out := []progress.ChartKey{}
	for _, k := range s.available {
		if s.selected[k] {
			out = append(out, k)
		}
	}
	return out
}

func (s *Selection) CanConfirm() bool {
	return len(s.selected) > 0
}

func (s *Selection) Confirm() ([]progress.ChartKey, error) {
	if !s.CanConfirm() {
		return nil, ErrNoChartsSelected
	}
	return s.Selected(), nil
}

// ResolveCharts decides which charts an export includes. With fewer than
// two measurements charts are skipped and the request is ignored. Otherwise
// every requested key must be available and at least one must be given.
func ResolveCharts(history []*measurement.Measurement, requested []progress.ChartKey) ([]progress.ChartKey, error) {
	if len(history) == 0 {
		return nil, ErrNoMeasurements
	}
	if len(history) < 2 {
		return []progress.ChartKey{}, nil
	}

	sel := NewSelection(progress.AvailableCharts(history))
	seen := make(map[progress.ChartKey]bool, len(requested))
	for _, k := range requested {
		if seen[k] {
			continue
		}
		seen[k] = true
		if err := sel.Toggle(k); err != nil {
			return nil, err
		}
	}
	return sel.Confirm()
}
