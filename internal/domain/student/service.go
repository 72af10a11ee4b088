package student

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fittracker/fittracker/internal/domain/progress"
	"github.com/fittracker/fittracker/internal/platform/apperr"
	"github.com/fittracker/fittracker/internal/platform/auth"
)

// RecentLimit is how many students the dashboard lists.
const RecentLimit = 5

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context, sess *auth.Session, search string) ([]*Summary, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, sess.UserID, search)
}

func (s *Service) Get(ctx context.Context, sess *auth.Session, id uuid.UUID) (*Student, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, sess.UserID, id)
}

func (s *Service) GetSummary(ctx context.Context, sess *auth.Session, id uuid.UUID) (*Summary, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	return s.repo.GetSummary(ctx, sess.UserID, id)
}

func (s *Service) Create(ctx context.Context, sess *auth.Session, in CreateInput) (*Student, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	dob, err := s.parseBirthDate(in.DateOfBirth)
	if err != nil {
		return nil, err
	}

	st := &Student{
		UserID:      sess.UserID,
		Name:        name,
		Email:       email,
		Phone:       strings.TrimSpace(in.Phone),
		DateOfBirth: dob,
	}
	if err := s.repo.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) Update(ctx context.Context, sess *auth.Session, id uuid.UUID, patch *Patch) (*Student, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	if err := s.normalizePatch(patch); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, sess.UserID, id, patch)
}

func (s *Service) Delete(ctx context.Context, sess *auth.Session, id uuid.UUID) error {
	if err := sess.Require(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, sess.UserID, id)
}

// Dashboard computes the statistics over all of the caller's students and
// returns the most recently created ones. Month boundaries follow now's
// location.
func (s *Service) Dashboard(ctx context.Context, sess *auth.Session, now time.Time) (*Dashboard, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	all, err := s.repo.List(ctx, sess.UserID, "")
	if err != nil {
		return nil, err
	}

	entries := make([]progress.StatsEntry, len(all))
	for i, sum := range all {
		entries[i] = progress.StatsEntry{CreatedAt: sum.CreatedAt, MeasurementCount: sum.MeasurementsCount}
	}

	recent := all
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	return &Dashboard{Stats: progress.ComputeStats(entries, now), Recent: recent}, nil
}

func (s *Service) normalizePatch(p *Patch) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return apperr.Invalid("name must not be empty")
		}
		p.Name = &name
	}
	if p.Email != nil {
		email, err := normalizeEmail(*p.Email)
		if err != nil {
			return err
		}
		p.Email = &email
	}
	if p.Phone != nil {
		phone := strings.TrimSpace(*p.Phone)
		p.Phone = &phone
	}
	if p.DateOfBirth != nil {
		dob, err := s.parseBirthDate(*p.DateOfBirth)
		if err != nil {
			return err
		}
		p.dob = dob
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Invalid("email is not a valid address")
	}
	return email, nil
}

func (s *Service) parseBirthDate(raw string) (Date, error) {
	dob, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, apperr.Invalid("date_of_birth must be YYYY-MM-DD")
	}
	if dob.After(s.now()) {
		return Date{}, apperr.Invalid("date_of_birth is in the future")
	}
	return NewDate(dob), nil
}
