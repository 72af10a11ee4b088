package report

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fittracker/fittracker/internal/domain/measurement"
	"github.com/fittracker/fittracker/internal/domain/progress"
	"github.com/fittracker/fittracker/internal/domain/student"
	"github.com/fittracker/fittracker/internal/platform/auth"
	"github.com/fittracker/fittracker/internal/platform/blobstore"
	"github.com/fittracker/fittracker/internal/platform/telemetry"
)

// StudentReader is satisfied by *student.Service.
type StudentReader interface {
	Get(ctx context.Context, sess *auth.Session, id uuid.UUID) (*student.Student, error)
}

// HistoryReader is satisfied by *measurement.Service.
type HistoryReader interface {
	ListByStudent(ctx context.Context, sess *auth.Session, studentID uuid.UUID) ([]*measurement.Measurement, error)
}

// Deps wires a Service. Archive and Telemetry are optional.
type Deps struct {
	Students  StudentReader
	History   HistoryReader
	Composer  *Composer
	Archive   blobstore.BlobStore
	Telemetry *telemetry.Telemetry
	Location  *time.Location
}

type Service struct {
	students  StudentReader
	history   HistoryReader
	composer  *Composer
	archive   blobstore.BlobStore
	telemetry *telemetry.Telemetry
	loc       *time.Location
	now       func() time.Time
}

func NewService(d Deps) *Service {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		students:  d.Students,
		history:   d.History,
		composer:  d.Composer,
		archive:   d.Archive,
		telemetry: d.Telemetry,
		loc:       loc,
		now:       time.Now,
	}
}

type ExportRequest struct {
	Gender string   `json:"gender" validate:"omitempty,oneof=male female"`
	Charts []string `json:"charts"`
}

type ChartOption struct {
	Key   progress.ChartKey `json:"key"`
	Label string            `json:"label"`
}

type ExportOptions struct {
	ChartsEnabled bool          `json:"charts_enabled"`
	Available     []ChartOption `json:"available"`
}

// Progress is the chart tab of a student profile.
type Progress struct {
	Measurements int               `json:"measurements"`
	Available    []ChartOption     `json:"available"`
	Series       []progress.Series `json:"series"`
	Trend        *progress.Trend   `json:"trend"`
}

func chartOptions(keys []progress.ChartKey) []ChartOption {
	out := make([]ChartOption, len(keys))
	for i, k := range keys {
		out[i] = ChartOption{Key: k, Label: k.Label()}
	}
	return out
}

// load fetches the student, which must belong to the caller, and its
// measurement history.
func (s *Service) load(ctx context.Context, sess *auth.Session, studentID uuid.UUID) (*student.Student, []*measurement.Measurement, error) {
	if err := sess.Require(); err != nil {
		return nil, nil, err
	}
	st, err := s.students.Get(ctx, sess, studentID)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.history.ListByStudent(ctx, sess, studentID)
	if err != nil {
		return nil, nil, err
	}
	return st, history, nil
}

func (s *Service) Options(ctx context.Context, sess *auth.Session, studentID uuid.UUID) (*ExportOptions, error) {
	_, history, err := s.load(ctx, sess, studentID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, ErrNoMeasurements
	}
	opts := &ExportOptions{ChartsEnabled: len(history) >= 2, Available: []ChartOption{}}
	if opts.ChartsEnabled {
		opts.Available = chartOptions(progress.AvailableCharts(history))
	}
	return opts, nil
}

func (s *Service) Progress(ctx context.Context, sess *auth.Session, studentID uuid.UUID) (*Progress, error) {
	_, history, err := s.load(ctx, sess, studentID)
	if err != nil {
		return nil, err
	}
	return &Progress{
		Measurements: len(history),
		Available:    chartOptions(progress.AvailableCharts(history)),
		Series:       progress.RenderableSeries(history, s.loc),
		Trend:        progress.Summarize(history),
	}, nil
}

// Chart renders one series as an image.
func (s *Service) Chart(ctx context.Context, sess *auth.Session, studentID uuid.UUID, key progress.ChartKey, format string) ([]byte, string, error) {
	_, history, err := s.load(ctx, sess, studentID)
	if err != nil {
		return nil, "", err
	}
	return RenderChart(progress.ExtractSeries(key, history, s.loc), format)
}

// Export builds the PDF report for a student's latest measurement. When an
// archive is configured the document is also stored there; an archive
// failure is logged and does not fail the export.
func (s *Service) Export(ctx context.Context, sess *auth.Session, studentID uuid.UUID, req ExportRequest) (*Document, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	gender, err := ParseGender(req.Gender)
	if err != nil {
		return nil, err
	}
	requested, err := progress.ParseChartKeys(req.Charts)
	if err != nil {
		return nil, err
	}

	st, history, err := s.load(ctx, sess, studentID)
	if err != nil {
		return nil, err
	}
	charts, err := ResolveCharts(history, requested)
	if err != nil {
		return nil, err
	}
	chrono := progress.Chronological(history)

	start := time.Now()
	doc, err := s.composer.Compose(ctx, Input{
		Student: st,
		Latest:  chrono[len(chrono)-1],
		Gender:  gender,
		Charts:  charts,
		History: history,
		Now:     s.now().In(s.loc),
	})
	if s.telemetry != nil {
		pages := 0
		if doc != nil {
			pages = doc.Pages
		}
		s.telemetry.ObserveExport(pages, time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("student_id", studentID.String()).
		Int("pages", doc.Pages).
		Int("charts", len(charts)).
		Msg("report exported")

	if s.archive != nil {
		s.store(ctx, sess, studentID, doc)
	}
	return doc, nil
}

func (s *Service) store(ctx context.Context, sess *auth.Session, studentID uuid.UUID, doc *Document) {
	meta, err := s.archive.Upload(ctx, blobstore.BlobMetadata{
		OwnerID:     sess.UserID.String(),
		StudentID:   studentID.String(),
		FileName:    doc.FileName,
		ContentType: "application/pdf",
	}, bytes.NewReader(doc.PDF))
	if s.telemetry != nil {
		s.telemetry.ObserveArchive(err)
	}
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("file", doc.FileName).Msg("archive report")
		return
	}
	doc.ArchiveID = meta.ID
}
