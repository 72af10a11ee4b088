package measurement

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fittracker/fittracker/internal/platform/db"
)

// recordingQuerier captures the last statement and answers with canned
// results.
type recordingQuerier struct {
	sql  string
	args []any
	row  fakeRow
	tag  pgconn.CommandTag
	err  error
}

func (q *recordingQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.sql, q.args = sql, args
	return q.tag, q.err
}

func (q *recordingQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql, q.args = sql, args
	return nil, q.err
}

func (q *recordingQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.sql, q.args = sql, args
	return q.row
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.vals[i]))
	}
	return nil
}

var _ db.Querier = (*recordingQuerier)(nil)

func TestRepoPG_CreateSelectsOwnedStudent(t *testing.T) {
	id, created := uuid.New(), time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	q := &recordingQuerier{row: fakeRow{vals: []any{id, created}}}
	m := &Measurement{
		StudentID:         uuid.New(),
		UserID:            uuid.New(),
		Weight:            80,
		Height:            175,
		BodyFatPercentage: 20,
		MeasuredAt:        created,
	}

	if err := NewRepoPG(q).Create(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID != id || !m.CreatedAt.Equal(created) {
		t.Errorf("expected returned id and created_at, got %s %s", m.ID, m.CreatedAt)
	}

	for _, want := range []string{
		"INSERT INTO measurements (student_id,user_id,weight,",
		"SELECT s.id, s.user_id, $1::double precision",
		"$13::text, $14::timestamptz",
		"FROM students s WHERE s.id = $15 AND s.user_id = $16",
	} {
		if !strings.Contains(q.sql, want) {
			t.Errorf("expected SQL to contain %q, got %s", want, q.sql)
		}
	}
	if !strings.HasSuffix(q.sql, "RETURNING id, created_at") {
		t.Errorf("expected RETURNING clause, got %s", q.sql)
	}
	if len(q.args) != 16 || q.args[0] != 80.0 || q.args[14] != m.StudentID.String() || q.args[15] != m.UserID.String() {
		t.Errorf("unexpected args %v", q.args)
	}
}

func TestRepoPG_CreateForeignStudentIsNotFound(t *testing.T) {
	q := &recordingQuerier{row: fakeRow{err: pgx.ErrNoRows}}
	err := NewRepoPG(q).Create(context.Background(), &Measurement{StudentID: uuid.New(), UserID: uuid.New()})
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepoPG_ListByStudentScopedAndOrdered(t *testing.T) {
	boom := errors.New("connection reset")
	q := &recordingQuerier{err: boom}
	userID, studentID := uuid.New(), uuid.New()

	if _, err := NewRepoPG(q).ListByStudent(context.Background(), userID, studentID); !errors.Is(err, boom) {
		t.Errorf("expected wrapped query error, got %v", err)
	}
	want := "FROM measurements WHERE user_id = $1 AND student_id = $2 ORDER BY measured_at DESC, created_at DESC"
	if !strings.HasSuffix(q.sql, want) {
		t.Errorf("expected SQL ending in %q, got %s", want, q.sql)
	}
	if !strings.HasPrefix(q.sql, "SELECT "+strings.Join(Columns, ", ")+" FROM") {
		t.Errorf("expected columns in scan order, got %s", q.sql)
	}
	if !reflect.DeepEqual(q.args, []any{userID.String(), studentID.String()}) {
		t.Errorf("unexpected args %v", q.args)
	}
}

func TestRepoPG_UpdateClearsNullableColumn(t *testing.T) {
	q := &recordingQuerier{row: fakeRow{err: pgx.ErrNoRows}}
	w := 77.5
	patch := &Patch{Weight: &w, Notes: Clear[string]()}
	id, userID := uuid.New(), uuid.New()

	if _, err := NewRepoPG(q).Update(context.Background(), userID, id, patch); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a row owned by someone else, got %v", err)
	}
	if !strings.HasPrefix(q.sql, "UPDATE measurements SET notes = $1, weight = $2 WHERE id = $3 AND user_id = $4 RETURNING ") {
		t.Errorf("unexpected SQL %s", q.sql)
	}
	if n, ok := q.args[0].(*string); !ok || n != nil {
		t.Errorf("expected a NULL notes argument, got %#v", q.args[0])
	}
}

func TestRepoPG_DeleteNoRows(t *testing.T) {
	q := &recordingQuerier{tag: pgconn.NewCommandTag("DELETE 0")}
	if err := NewRepoPG(q).Delete(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if q.sql != "DELETE FROM measurements WHERE id = $1 AND user_id = $2" {
		t.Errorf("unexpected SQL %s", q.sql)
	}

	q.tag = pgconn.NewCommandTag("DELETE 1")
	if err := NewRepoPG(q).Delete(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Errorf("expected success, got %v", err)
	}
}
