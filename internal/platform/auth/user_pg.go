package auth

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fittracker/fittracker/internal/platform/db"
)

type userRepoPG struct {
	q  db.Querier
	sb sq.StatementBuilderType
}

func NewUserRepoPG(q db.Querier) UserRepository {
	return &userRepoPG{q: q, sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

var userCols = []string{"id", "email", "name", "password_hash", "created_at"}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	query, args, err := r.sb.Insert("users").
		Columns("email", "name", "password_hash").
		Values(u.Email, u.Name, u.PasswordHash).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return err
	}
	if err := r.q.QueryRow(ctx, query, args...).Scan(&u.ID, &u.CreatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return db.NotFound("create user", err)
	}
	return nil
}

func (r *userRepoPG) get(ctx context.Context, op string, where sq.Sqlizer) (*User, error) {
	query, args, err := r.sb.Select(userCols...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}
	u, err := scanUser(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, db.NotFound(op, err)
	}
	return u, nil
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.get(ctx, "get user", sq.Eq{"id": id})
}

func (r *userRepoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.get(ctx, "get user by email", sq.Expr("lower(email) = ?", strings.ToLower(email)))
}
