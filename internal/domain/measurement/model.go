package measurement

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Measurement is one body-measurement record. Weight is in kg, height and
// circumferences in cm.
type Measurement struct {
	ID                      uuid.UUID `json:"id"`
	StudentID               uuid.UUID `json:"student_id"`
	UserID                  uuid.UUID `json:"user_id"`
	Weight                  float64   `json:"weight"`
	Height                  float64   `json:"height"`
	BodyFatPercentage       float64   `json:"body_fat_percentage"`
	ChestCircumference      *float64  `json:"chest_circumference"`
	WaistCircumference      *float64  `json:"waist_circumference"`
	HipCircumference        *float64  `json:"hip_circumference"`
	ArmCircumferenceLeft    *float64  `json:"arm_circumference_left"`
	ArmCircumferenceRight   *float64  `json:"arm_circumference_right"`
	ThighCircumferenceLeft  *float64  `json:"thigh_circumference_left"`
	ThighCircumferenceRight *float64  `json:"thigh_circumference_right"`
	CalfCircumferenceLeft   *float64  `json:"calf_circumference_left"`
	CalfCircumferenceRight  *float64  `json:"calf_circumference_right"`
	Notes                   *string   `json:"notes"`
	MeasuredAt              time.Time `json:"measured_at"`
	CreatedAt               time.Time `json:"created_at"`
}

// MaxNotesLength bounds notes in runes. Notes are printed in full on the
// exported report.
const MaxNotesLength = 2000

type CreateInput struct {
	Weight                  float64    `json:"weight" validate:"required,gt=0,lte=500"`
	Height                  float64    `json:"height" validate:"required,gt=0,lte=300"`
	BodyFatPercentage       *float64   `json:"body_fat_percentage" validate:"required,gte=0,lte=100"`
	ChestCircumference      *float64   `json:"chest_circumference" validate:"omitempty,gt=0"`
	WaistCircumference      *float64   `json:"waist_circumference" validate:"omitempty,gt=0"`
	HipCircumference        *float64   `json:"hip_circumference" validate:"omitempty,gt=0"`
	ArmCircumferenceLeft    *float64   `json:"arm_circumference_left" validate:"omitempty,gt=0"`
	ArmCircumferenceRight   *float64   `json:"arm_circumference_right" validate:"omitempty,gt=0"`
	ThighCircumferenceLeft  *float64   `json:"thigh_circumference_left" validate:"omitempty,gt=0"`
	ThighCircumferenceRight *float64   `json:"thigh_circumference_right" validate:"omitempty,gt=0"`
	CalfCircumferenceLeft   *float64   `json:"calf_circumference_left" validate:"omitempty,gt=0"`
	CalfCircumferenceRight  *float64   `json:"calf_circumference_right" validate:"omitempty,gt=0"`
	Notes                   *string    `json:"notes" validate:"omitempty,max=2000"`
	MeasuredAt              *time.Time `json:"measured_at"`
}

// Optional distinguishes an absent JSON field from an explicit null, so a
// patch can clear a nullable column.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func Clear[T any]() Optional[T]    { return Optional[T]{Set: true} }
func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: &v} }

// Patch changes only the fields present in the request body.
type Patch struct {
	Weight                  *float64          `json:"weight"`
	Height                  *float64          `json:"height"`
	BodyFatPercentage       *float64          `json:"body_fat_percentage"`
	ChestCircumference      Optional[float64] `json:"chest_circumference"`
	WaistCircumference      Optional[float64] `json:"waist_circumference"`
	HipCircumference        Optional[float64] `json:"hip_circumference"`
	ArmCircumferenceLeft    Optional[float64] `json:"arm_circumference_left"`
	ArmCircumferenceRight   Optional[float64] `json:"arm_circumference_right"`
	ThighCircumferenceLeft  Optional[float64] `json:"thigh_circumference_left"`
	ThighCircumferenceRight Optional[float64] `json:"thigh_circumference_right"`
	CalfCircumferenceLeft   Optional[float64] `json:"calf_circumference_left"`
	CalfCircumferenceRight  Optional[float64] `json:"calf_circumference_right"`
	Notes                   Optional[string]  `json:"notes"`
	MeasuredAt              *time.Time        `json:"measured_at"`
}

func (p *Patch) circumferences() map[string]Optional[float64] {
	return map[string]Optional[float64]{
		"chest_circumference":       p.ChestCircumference,
		"waist_circumference":       p.WaistCircumference,
		"hip_circumference":         p.HipCircumference,
		"arm_circumference_left":    p.ArmCircumferenceLeft,
		"arm_circumference_right":   p.ArmCircumferenceRight,
		"thigh_circumference_left":  p.ThighCircumferenceLeft,
		"thigh_circumference_right": p.ThighCircumferenceRight,
		"calf_circumference_left":   p.CalfCircumferenceLeft,
		"calf_circumference_right":  p.CalfCircumferenceRight,
	}
}

// Changes returns column -> value for every field present in the patch.
// A nil value clears the column.
func (p *Patch) Changes() map[string]any {
	out := make(map[string]any)
	if p.Weight != nil {
		out["weight"] = *p.Weight
	}
	if p.Height != nil {
		out["height"] = *p.Height
	}
	if p.BodyFatPercentage != nil {
		out["body_fat_percentage"] = *p.BodyFatPercentage
	}
	for col, opt := range p.circumferences() {
		if opt.Set {
			out[col] = opt.Value
		}
	}
	if p.Notes.Set {
		out["notes"] = p.Notes.Value
	}
	if p.MeasuredAt != nil {
		out["measured_at"] = *p.MeasuredAt
	}
	return out
}

// Apply writes the changes of p onto m. Used by in-memory repositories.
func (p *Patch) Apply(m *Measurement) {
	if p.Weight != nil {
		m.Weight = *p.Weight
	}
	if p.Height != nil {
		m.Height = *p.Height
	}
	if p.BodyFatPercentage != nil {
		m.BodyFatPercentage = *p.BodyFatPercentage
	}
	set := func(dst **float64, o Optional[float64]) {
		if o.Set {
			*dst = o.Value
		}
	}
	set(&m.ChestCircumference, p.ChestCircumference)
	set(&m.WaistCircumference, p.WaistCircumference)
	set(&m.HipCircumference, p.HipCircumference)
	set(&m.ArmCircumferenceLeft, p.ArmCircumferenceLeft)
	set(&m.ArmCircumferenceRight, p.ArmCircumferenceRight)
	set(&m.ThighCircumferenceLeft, p.ThighCircumferenceLeft)
	set(&m.ThighCircumferenceRight, p.ThighCircumferenceRight)
	set(&m.CalfCircumferenceLeft, p.CalfCircumferenceLeft)
	set(&m.CalfCircumferenceRight, p.CalfCircumferenceRight)
	if p.Notes.Set {
		m.Notes = p.Notes.Value
	}
	if p.MeasuredAt != nil {
		m.MeasuredAt = *p.MeasuredAt
	}
}
