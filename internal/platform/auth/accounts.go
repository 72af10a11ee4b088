package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/fittracker/fittracker/internal/platform/apperr"
)

var (
	ErrEmailTaken         = fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthenticated)
)

// Accounts handles trainer sign-up, sign-in and sign-out.
type Accounts struct {
	users   UserRepository
	tokens  *TokenIssuer
	revoked *TokenRevocationStore
	hash    func(string) (string, error)
}

func NewAccounts(users UserRepository, tokens *TokenIssuer, revoked *TokenRevocationStore) *Accounts {
	return &Accounts{users: users, tokens: tokens, revoked: revoked, hash: HashPassword}
}

type SignUpInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

func (a *Accounts) SignUp(ctx context.Context, in SignUpInput) (*User, error) {
	email := strings.TrimSpace(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Invalid("email is not valid")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Invalid("name is required")
	}
	if len(in.Password) < 8 {
		return nil, apperr.Invalid("password must be at least 8 characters")
	}
	if len(in.Password) > 72 {
		return nil, fmt.Errorf("%w: %s", apperr.ErrInvalid, ErrPasswordTooLong)
	}

	hash, err := a.hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &User{Email: email, Name: strings.TrimSpace(in.Name), PasswordHash: hash}
	if err := a.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SignIn checks the password and issues a token. Unknown emails and wrong
// passwords fail the same way.
func (a *Accounts) SignIn(ctx context.Context, email, password string) (string, *Session, error) {
	u, err := a.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}
	return a.tokens.Issue(u)
}

// SignOut revokes the session's token until it expires.
func (a *Accounts) SignOut(sess *Session) error {
	if err := sess.Require(); err != nil {
		return err
	}
	if a.revoked != nil && sess.TokenID != "" {
		a.revoked.Revoke(sess.TokenID, sess.ExpiresAt)
	}
	return nil
}

func (a *Accounts) Me(ctx context.Context, sess *Session) (*User, error) {
	if err := sess.Require(); err != nil {
		return nil, err
	}
	return a.users.GetByID(ctx, sess.UserID)
}
