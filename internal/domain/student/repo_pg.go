package student

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fittracker/fittracker/internal/domain/measurement"
	"github.com/fittracker/fittracker/internal/platform/db"
)

type studentRepoPG struct {
	q  db.Querier
	sb sq.StatementBuilderType
}

func NewRepoPG(q db.Querier) Repository {
	return &studentRepoPG{q: q, sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

var studentCols = []string{"id", "user_id", "name", "email", "phone", "date_of_birth", "created_at", "updated_at"}

func prefixed(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}

// The latest measurement comes back as one jsonb column so that a student
// without measurements scans as a nil pointer.
const (
	countCol   = "(SELECT count(*) FROM measurements c WHERE c.student_id = s.id) AS measurements_count"
	latestCol  = "CASE WHEN lm.id IS NULL THEN NULL ELSE to_jsonb(lm) END AS latest_measurement"
	latestJoin = "LEFT JOIN LATERAL (SELECT %s FROM measurements m WHERE m.student_id = s.id " +
		"ORDER BY m.measured_at DESC, m.created_at DESC LIMIT 1) lm ON true"
)

var latestJoinClause = fmt.Sprintf(latestJoin, strings.Join(prefixed("m", measurement.Columns), ", "))

func scanStudent(row pgx.Row) (*Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Email, &s.Phone, &s.DateOfBirth, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSummary(row pgx.Row) (*Summary, error) {
	var (
		s   Student
		sum = Summary{Student: &s}
	)
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Email, &s.Phone, &s.DateOfBirth, &s.CreatedAt, &s.UpdatedAt,
		&sum.MeasurementsCount, &sum.Latest)
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

func (r *studentRepoPG) selectSummaries(userID uuid.UUID) sq.SelectBuilder {
	return r.sb.Select(prefixed("s", studentCols)...).
		Column(countCol).
		Column(latestCol).
		From("students s").
		JoinClause(latestJoinClause).
		Where(sq.Eq{"s.user_id": userID})
}

// escapeLike quotes the LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *studentRepoPG) List(ctx context.Context, userID uuid.UUID, search string) ([]*Summary, error) {
	b := r.selectSummaries(userID)
	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		b = b.Where(sq.Or{sq.ILike{"s.name": pattern}, sq.ILike{"s.email": pattern}})
	}

	query, args, err := b.OrderBy("s.created_at DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list students: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	items := []*Summary{}
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		items = append(items, sum)
	}
	return items, rows.Err()
}

func (r *studentRepoPG) Get(ctx context.Context, userID, id uuid.UUID) (*Student, error) {
	query, args, err := r.sb.Select(studentCols...).
		From("students").
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get student: %w", err)
	}
	s, err := scanStudent(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, db.NotFound("get student", err)
	}
	return s, nil
}

func (r *studentRepoPG) GetSummary(ctx context.Context, userID, id uuid.UUID) (*Summary, error) {
	query, args, err := r.selectSummaries(userID).Where(sq.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get student summary: %w", err)
	}
	sum, err := scanSummary(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, db.NotFound("get student summary", err)
	}
	return sum, nil
}

func (r *studentRepoPG) Create(ctx context.Context, s *Student) error {
	query, args, err := r.sb.Insert("students").
		Columns("user_id", "name", "email", "phone", "date_of_birth").
		Values(s.UserID, s.Name, s.Email, s.Phone, s.DateOfBirth).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create student: %w", err)
	}
	if err := r.q.QueryRow(ctx, query, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

func (r *studentRepoPG) Update(ctx context.Context, userID, id uuid.UUID, patch *Patch) (*Student, error) {
	changes := patch.Changes()
	if len(changes) == 0 {
		return r.Get(ctx, userID, id)
	}
	changes["updated_at"] = sq.Expr("NOW()")

	query, args, err := r.sb.Update("students").
		SetMap(changes).
		Where(sq.Eq{"id": id, "user_id": userID}).
		Suffix("RETURNING " + strings.Join(studentCols, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update student: %w", err)
	}
	s, err := scanStudent(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, db.NotFound("update student", err)
	}
	return s, nil
}

func (r *studentRepoPG) Delete(ctx context.Context, userID, id uuid.UUID) error {
	query, args, err := r.sb.Delete("students").Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete student: %w", err)
	}
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}
