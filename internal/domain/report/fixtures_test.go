package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/fittracker/fittracker/internal/domain/measurement"
	"github.com/fittracker/fittracker/internal/domain/student"
)

func ptr(v float64) *float64 { return &v }

func testStudent(userID uuid.UUID) *student.Student {
	return &student.Student{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        "Ana  Paula Souza",
		Email:       "ana@example.com",
		DateOfBirth: student.NewDate(time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)),
	}
}

// history returns n measurements one week apart, newest first, as the
// repository does.
func history(studentID uuid.UUID, n int) []*measurement.Measurement {
	out := make([]*measurement.Measurement, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = &measurement.Measurement{
			ID:                 uuid.New(),
			StudentID:          studentID,
			Weight:             80 - float64(i),
			Height:             175,
			BodyFatPercentage:  22 - float64(i)/2,
			WaistCircumference: ptr(90 - float64(i)),
			ChestCircumference: ptr(100),
			MeasuredAt:         time.Date(2024, 3, 1+7*i, 9, 0, 0, 0, time.UTC),
		}
	}
	return out
}
