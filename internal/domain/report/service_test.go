package report

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fittracker/fittracker/internal/domain/measurement"
	"github.com/fittracker/fittracker/internal/domain/progress"
	"github.com/fittracker/fittracker/internal/domain/student"
	"github.com/fittracker/fittracker/internal/platform/apperr"
	"github.com/fittracker/fittracker/internal/platform/auth"
	"github.com/fittracker/fittracker/internal/platform/blobstore"
	"github.com/fittracker/fittracker/internal/platform/db"
	"github.com/fittracker/fittracker/internal/platform/telemetry"
)

// fakeReaders stands in for the student and measurement services, scoping
// every lookup to the session user.
type fakeReaders struct {
	students map[uuid.UUID]*student.Student
	history  map[uuid.UUID][]*measurement.Measurement
	calls    int
}

func newFakeReaders() *fakeReaders {
	return &fakeReaders{
		students: make(map[uuid.UUID]*student.Student),
		history:  make(map[uuid.UUID][]*measurement.Measurement),
	}
}

func (f *fakeReaders) add(userID uuid.UUID, n int) *student.Student {
	st := testStudent(userID)
	f.students[st.ID] = st
	f.history[st.ID] = history(st.ID, n)
	return st
}

func (f *fakeReaders) Get(_ context.Context, sess *auth.Session, id uuid.UUID) (*student.Student, error) {
	f.calls++
	st, ok := f.students[id]
	if !ok || st.UserID != sess.UserID {
		return nil, db.ErrNotFound
	}
	return st, nil
}

func (f *fakeReaders) ListByStudent(_ context.Context, sess *auth.Session, id uuid.UUID) ([]*measurement.Measurement, error) {
	f.calls++
	st, ok := f.students[id]
	if !ok || st.UserID != sess.UserID {
		return nil, db.ErrNotFound
	}
	return f.history[id], nil
}

type failingArchive struct {
	blobstore.BlobStore
}

func (failingArchive) Upload(context.Context, blobstore.BlobMetadata, io.Reader) (*blobstore.BlobMetadata, error) {
	return nil, errors.New("bucket unavailable")
}

func newTestService(archive blobstore.BlobStore) (*Service, *fakeReaders) {
	f := newFakeReaders()
	svc := NewService(Deps{
		Students:  f,
		History:   f,
		Composer:  NewComposer("FitTracker Pro", time.UTC),
		Archive:   archive,
		Telemetry: telemetry.New(zerolog.Nop()),
		Location:  time.UTC,
	})
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, f
}

func TestService_Export(t *testing.T) {
	archive := blobstore.NewInMemoryBlobStore()
	svc, f := newTestService(archive)
	sess := &auth.Session{UserID: uuid.New()}
	st := f.add(sess.UserID, 3)

	doc, err := svc.Export(context.Background(), sess, st.ID, ExportRequest{Gender: "female", Charts: []string{"peso", "cintura"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(doc.PDF, []byte("%PDF")) {
		t.Error("expected PDF output")
	}
	if doc.FileName != "Ana_Paula_Souza_medicoes_2024-06-01.pdf" {
		t.Errorf("unexpected file name %q", doc.FileName)
	}
	if doc.ArchiveID == "" {
		t.Fatal("expected the export to be archived")
	}

	rc, meta, err := archive.Download(context.Background(), sess.UserID.String(), doc.ArchiveID)
	if err != nil {
		t.Fatalf("expected archived report, got %v", err)
	}
	defer rc.Close()
	if meta.StudentID != st.ID.String() || meta.ContentType != "application/pdf" {
		t.Errorf("unexpected archive metadata %+v", meta)
	}
}

func TestService_Export_ArchiveFailureIgnored(t *testing.T) {
	svc, f := newTestService(failingArchive{})
	sess := &auth.Session{UserID: uuid.New()}
	st := f.add(sess.UserID, 1)

	doc, err := svc.Export(context.Background(), sess, st.ID, ExportRequest{})
	if err != nil {
		t.Fatalf("expected archive failure not to fail the export, got %v", err)
	}
	if doc.ArchiveID != "" {
		t.Errorf("expected no archive id, got %q", doc.ArchiveID)
	}
}

func TestService_Export_Errors(t *testing.T) {
	svc, f := newTestService(nil)
	sess := &auth.Session{UserID: uuid.New()}
	empty := f.add(sess.UserID, 0)
	st := f.add(sess.UserID, 3)
	other := f.add(uuid.New(), 3)

	tests := []struct {
		name string
		id   uuid.UUID
		req  ExportRequest
		want error
	}{
		{"no measurements", empty.ID, ExportRequest{}, ErrNoMeasurements},
		{"no charts selected", st.ID, ExportRequest{}, ErrNoChartsSelected},
		{"unknown chart", st.ID, ExportRequest{Charts: []string{"pescoco"}}, progress.ErrUnknownChartKey},
		{"unavailable chart", st.ID, ExportRequest{Charts: []string{"quadril"}}, ErrChartUnavailable},
		{"bad gender", st.ID, ExportRequest{Gender: "x", Charts: []string{"peso"}}, apperr.ErrInvalid},
		{"other user's student", other.ID, ExportRequest{Charts: []string{"peso"}}, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Export(context.Background(), sess, tt.id, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestService_RequiresSession(t *testing.T) {
	svc, f := newTestService(nil)
	st := f.add(uuid.New(), 3)
	ctx := context.Background()

	if _, err := svc.Export(ctx, nil, st.ID, ExportRequest{Charts: []string{"peso"}}); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated from Export, got %v", err)
	}
	if _, err := svc.Options(ctx, &auth.Session{}, st.ID); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated from Options, got %v", err)
	}
	if _, err := svc.Progress(ctx, nil, st.ID); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated from Progress, got %v", err)
	}
	if f.calls != 0 {
		t.Errorf("expected no reads without a session, got %d", f.calls)
	}
}

func TestService_Options(t *testing.T) {
	svc, f := newTestService(nil)
	sess := &auth.Session{UserID: uuid.New()}

	single := f.add(sess.UserID, 1)
	opts, err := svc.Options(context.Background(), sess, single.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.ChartsEnabled || len(opts.Available) != 0 {
		t.Errorf("expected charts disabled for one measurement, got %+v", opts)
	}

	st := f.add(sess.UserID, 3)
	opts, err = svc.Options(context.Background(), sess, st.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.ChartsEnabled {
		t.Error("expected charts enabled")
	}
	keys := make([]progress.ChartKey, len(opts.Available))
	for i, o := range opts.Available {
		keys[i] = o.Key
	}
	want := []progress.ChartKey{progress.Weight, progress.BodyFat, progress.Chest, progress.Waist}
	if len(keys) != len(want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("expected %v, got %v", want, keys)
			break
		}
	}
}

func TestService_Progress(t *testing.T) {
	svc, f := newTestService(nil)
	sess := &auth.Session{UserID: uuid.New()}
	st := f.add(sess.UserID, 3)

	p, err := svc.Progress(context.Background(), sess, st.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Measurements != 3 || len(p.Series) != 4 {
		t.Errorf("expected 3 measurements and 4 series, got %d and %d", p.Measurements, len(p.Series))
	}
	if p.Trend == nil || p.Trend.WeightChange != -2 {
		t.Errorf("expected weight change -2, got %+v", p.Trend)
	}
}

func TestService_Chart(t *testing.T) {
	svc, f := newTestService(nil)
	sess := &auth.Session{UserID: uuid.New()}
	st := f.add(sess.UserID, 3)

	img, ct, err := svc.Chart(context.Background(), sess, st.ID, progress.Weight, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct != "image/png" || !bytes.HasPrefix(img, []byte("\x89PNG")) {
		t.Errorf("expected PNG, got %s", ct)
	}

	svg, ct, err := svc.Chart(context.Background(), sess, st.ID, progress.Waist, FormatSVG)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct != "image/svg+xml" || !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("expected SVG, got %s", ct)
	}

	if _, _, err := svc.Chart(context.Background(), sess, st.ID, progress.Hip, ""); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("expected invalid for a series without points, got %v", err)
	}
	if _, _, err := svc.Chart(context.Background(), sess, st.ID, progress.Weight, "gif"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("expected invalid format error, got %v", err)
	}
}
