// Package progress derives the read-only views shown for a student: age,
// BMI, dashboard statistics, chart series and trend summaries. Everything
// here is a pure function of its inputs.
package progress

import (
	"fmt"
	"math"
	"time"
)

// Age returns whole calendar years between birth and now. Both are read
// as calendar dates in their own locations; the year is not counted until
// now reaches birth's month and day.
func Age(birth, now time.Time) int {
	by, bm, bd := birth.Date()
	ny, nm, nd := now.Date()

	age := ny - by
	if nm < bm || (nm == bm && nd < bd) {
		age--
	}
	return age
}

// BMI is weight / (height in metres)^2. A non-positive height yields 0.
func BMI(weightKg, heightCm float64) float64 {
	if heightCm <= 0 {
		return 0
	}
	m := heightCm / 100
	return weightKg / (m * m)
}

// FormatBMI renders BMI with one decimal place, or "-" when it cannot be
// computed.
func FormatBMI(weightKg, heightCm float64) string {
	if heightCm <= 0 || weightKg <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", BMI(weightKg, heightCm))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// StatsEntry is the per-student input to ComputeStats.
type StatsEntry struct {
	CreatedAt        time.Time
	MeasurementCount int
}

type Stats struct {
	TotalStudents     int `json:"total_students"`
	NewThisMonth      int `json:"new_this_month"`
	TotalMeasurements int `json:"total_measurements"`
	WithProgress      int `json:"with_progress"`
}

// ComputeStats aggregates the dashboard counters. "This month" starts at
// midnight on the first day of now's month, in now's location.
func ComputeStats(entries []StatsEntry, now time.Time) Stats {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	s := Stats{TotalStudents: len(entries)}
	for _, e := range entries {
		if !e.CreatedAt.Before(monthStart) {
			s.NewThisMonth++
		}
		s.TotalMeasurements += e.MeasurementCount
		if e.MeasurementCount > 1 {
			s.WithProgress++
		}
	}
	return s
}
