package measurement

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fittracker/fittracker/internal/platform/db"
)

type measurementRepoPG struct {
	q  db.Querier
	sb sq.StatementBuilderType
}

func NewRepoPG(q db.Querier) Repository {
	return &measurementRepoPG{q: q, sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

// valueCols are written on insert, in this order, after student_id and user_id.
var valueCols = []string{
	"weight", "height", "body_fat_percentage",
	"chest_circumference", "waist_circumference", "hip_circumference",
	"arm_circumference_left", "arm_circumference_right",
	"thigh_circumference_left", "thigh_circumference_right",
	"calf_circumference_left", "calf_circumference_right",
	"notes", "measured_at",
}

// Columns lists every selected column in scan order. Exported so joins in
// other packages can select the same set with a table prefix.
var Columns = append([]string{"id", "student_id", "user_id"}, append(append([]string{}, valueCols...), "created_at")...)

// Scan reads a row selected with Columns.
func Scan(row pgx.Row) (*Measurement, error) {
	var m Measurement
	err := row.Scan(&m.ID, &m.StudentID, &m.UserID,
		&m.Weight, &m.Height, &m.BodyFatPercentage,
		&m.ChestCircumference, &m.WaistCircumference, &m.HipCircumference,
		&m.ArmCircumferenceLeft, &m.ArmCircumferenceRight,
		&m.ThighCircumferenceLeft, &m.ThighCircumferenceRight,
		&m.CalfCircumferenceLeft, &m.CalfCircumferenceRight,
		&m.Notes, &m.MeasuredAt, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Measurement) values() []any {
	return []any{
		m.Weight, m.Height, m.BodyFatPercentage,
		m.ChestCircumference, m.WaistCircumference, m.HipCircumference,
		m.ArmCircumferenceLeft, m.ArmCircumferenceRight,
		m.ThighCircumferenceLeft, m.ThighCircumferenceRight,
		m.CalfCircumferenceLeft, m.CalfCircumferenceRight,
		m.Notes, m.MeasuredAt,
	}
}

var valueTypes = map[string]string{
	"notes":       "text",
	"measured_at": "timestamptz",
}

func castFor(col string) string {
	if t, ok := valueTypes[col]; ok {
		return t
	}
	return "double precision"
}

func (r *measurementRepoPG) selectScoped(userID uuid.UUID) sq.SelectBuilder {
	return r.sb.Select(Columns...).From("measurements").Where(sq.Eq{"user_id": userID})
}

func (r *measurementRepoPG) list(ctx context.Context, b sq.SelectBuilder) ([]*Measurement, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list measurements: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	defer rows.Close()

	items := []*Measurement{}
	for rows.Next() {
		m, err := Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *measurementRepoPG) ListByStudent(ctx context.Context, userID, studentID uuid.UUID) ([]*Measurement, error) {
	return r.list(ctx, r.selectScoped(userID).
		Where(sq.Eq{"student_id": studentID}).
		OrderBy("measured_at DESC", "created_at DESC"))
}

func (r *measurementRepoPG) Latest(ctx context.Context, userID, studentID uuid.UUID) (*Measurement, error) {
	items, err := r.list(ctx, r.selectScoped(userID).
		Where(sq.Eq{"student_id": studentID}).
		OrderBy("measured_at DESC", "created_at DESC").
		Limit(1))
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

func (r *measurementRepoPG) Get(ctx context.Context, userID, id uuid.UUID) (*Measurement, error) {
	query, args, err := r.selectScoped(userID).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get measurement: %w", err)
	}
	m, err := Scan(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, db.NotFound("get measurement", err)
	}
	return m, nil
}

// Create inserts through a SELECT on the owning student so that a student
// belonging to another user yields no row.
func (r *measurementRepoPG) Create(ctx context.Context, m *Measurement) error {
	owner := sq.Select("s.id", "s.user_id").
		From("students s").
		Where(sq.Eq{"s.id": m.StudentID, "s.user_id": m.UserID})
	for i, v := range m.values() {
		owner = owner.Column("?::"+castFor(valueCols[i]), v)
	}

	query, args, err := r.sb.Insert("measurements").
		Columns(append([]string{"student_id", "user_id"}, valueCols...)...).
		Select(owner).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create measurement: %w", err)
	}

	if err := r.q.QueryRow(ctx, query, args...).Scan(&m.ID, &m.CreatedAt); err != nil {
		return db.NotFound("create measurement", err)
	}
	return nil
}

func (r *measurementRepoPG) Update(ctx context.Context, userID, id uuid.UUID, patch *Patch) (*Measurement, error) {
	changes := patch.Changes()
	if len(changes) == 0 {
		return r.Get(ctx, userID, id)
	}

	query, args, err := r.sb.Update("measurements").
		SetMap(changes).
		Where(sq.Eq{"id": id, "user_id": userID}).
		Suffix("RETURNING " + joinCols(Columns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update measurement: %w", err)
	}
	m, err := Scan(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, db.NotFound("update measurement", err)
	}
	return m, nil
}

func (r *measurementRepoPG) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query, args, err := r.sb.Delete("measurements").Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete measurement: %w", err)
	}
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete measurement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

func joinCols(cols []string) string {
	return strings.Join(cols, ", ")
}
