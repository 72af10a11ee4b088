package measurement

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/fittracker/fittracker/internal/platform/apperr"
	"github.com/fittracker/fittracker/internal/platform/auth"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ListByStudent returns the student's measurements, newest first. An
// unknown or foreign student yields an empty list.
func (s *Service) ListByStudent(ctx context.Context, sess *auth.Session, studentID uuid.UUID) ([]*Measurement, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	return s.repo.ListByStudent(ctx, sess.UserID, studentID)
}

// Latest returns nil without error when the student has no measurements.
func (s *Service) Latest(ctx context.Context, sess *auth.Session, studentID uuid.UUID) (*Measurement, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	return s.repo.Latest(ctx, sess.UserID, studentID)
}

func (s *Service) Get(ctx context.Context, sess *auth.Session, id uuid.UUID) (*Measurement, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, sess.UserID, id)
}

func (s *Service) Create(ctx context.Context, sess *auth.Session, studentID uuid.UUID, in CreateInput) (*Measurement, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	m := &Measurement{
		StudentID:               studentID,
		UserID:                  sess.UserID,
		Weight:                  in.Weight,
		Height:                  in.Height,
		BodyFatPercentage:       *in.BodyFatPercentage,
		ChestCircumference:      in.ChestCircumference,
		WaistCircumference:      in.WaistCircumference,
		HipCircumference:        in.HipCircumference,
		ArmCircumferenceLeft:    in.ArmCircumferenceLeft,
		ArmCircumferenceRight:   in.ArmCircumferenceRight,
		ThighCircumferenceLeft:  in.ThighCircumferenceLeft,
		ThighCircumferenceRight: in.ThighCircumferenceRight,
		CalfCircumferenceLeft:   in.CalfCircumferenceLeft,
		CalfCircumferenceRight:  in.CalfCircumferenceRight,
		Notes:                   cleanNotes(in.Notes),
		MeasuredAt:              s.now(),
	}
	if in.MeasuredAt != nil {
		m.MeasuredAt = *in.MeasuredAt
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Update(ctx context.Context, sess *auth.Session, id uuid.UUID, patch *Patch) (*Measurement, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if patch.Notes.Set {
		patch.Notes.Value = cleanNotes(patch.Notes.Value)
	}
	return s.repo.Update(ctx, sess.UserID, id, patch)
}

func (s *Service) Delete(ctx context.Context, sess *auth.Session, id uuid.UUID) error {
	if err := sess.Require(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, sess.UserID, id)
}

func cleanNotes(n *string) *string {
	if n == nil {
		return nil
	}
	t := strings.TrimSpace(*n)
	if t == "" {
		return nil
	}
	return &t
}

func validateCreate(in CreateInput) error {
	if in.Weight <= 0 {
		return apperr.Invalid("weight must be positive")
	}
	if in.Height <= 0 {
		return apperr.Invalid("height must be positive")
	}
	if in.BodyFatPercentage == nil {
		return apperr.Invalid("body_fat_percentage is required")
	}
	if err := checkBodyFat(*in.BodyFatPercentage); err != nil {
		return err
	}
	if in.MeasuredAt != nil && in.MeasuredAt.IsZero() {
		return apperr.Invalid("measured_at is not a valid time")
	}
	if err := checkNotes(in.Notes); err != nil {
		return err
	}
	for name, v := range map[string]*float64{
		"chest_circumference":       in.ChestCircumference,
		"waist_circumference":       in.WaistCircumference,
		"hip_circumference":         in.HipCircumference,
		"arm_circumference_left":    in.ArmCircumferenceLeft,
		"arm_circumference_right":   in.ArmCircumferenceRight,
		"thigh_circumference_left":  in.ThighCircumferenceLeft,
		"thigh_circumference_right": in.ThighCircumferenceRight,
		"calf_circumference_left":   in.CalfCircumferenceLeft,
		"calf_circumference_right":  in.CalfCircumferenceRight,
	} {
		if v != nil && *v <= 0 {
			return apperr.Invalid("%s must be positive", name)
		}
	}
	return nil
}

func checkBodyFat(v float64) error {
	if v < 0 || v > 100 {
		return apperr.Invalid("body_fat_percentage must be between 0 and 100")
	}
	return nil
}

func checkNotes(n *string) error {
	if n != nil && utf8.RuneCountInString(*n) > MaxNotesLength {
		return apperr.Invalid("notes must be at most %d characters", MaxNotesLength)
	}
	return nil
}

func validatePatch(p *Patch) error {
	if p.Weight != nil && *p.Weight <= 0 {
		return apperr.Invalid("weight must be positive")
	}
	if p.Height != nil && *p.Height <= 0 {
		return apperr.Invalid("height must be positive")
	}
	if p.BodyFatPercentage != nil {
		if err := checkBodyFat(*p.BodyFatPercentage); err != nil {
			return err
		}
	}
	if p.MeasuredAt != nil && p.MeasuredAt.IsZero() {
		return apperr.Invalid("measured_at is not a valid time")
	}
	if err := checkNotes(p.Notes.Value); err != nil {
		return err
	}
	for name, o := range p.circumferences() {
		if o.Value != nil && *o.Value <= 0 {
			return apperr.Invalid("%s must be positive", name)
		}
	}
	return nil
}
