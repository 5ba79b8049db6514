// Package identity persists user accounts and their refresh token records.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/routehaul/hosplan/foundation/apperror"
)

//User is one driver account. PasswordHash never leaves the data layer in a
//response; the json tag keeps it out of marshaled profiles.
type User struct {
	ID           uuid.UUID `db:"user_id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	CompanyName  string    `db:"company_name" json:"company_name,omitempty"`
	TruckNumber  string    `db:"truck_number" json:"truck_number,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

//RefreshToken records one issued refresh token by its jti. Rotation revokes
//the old record and inserts the replacement; logout revokes without replacing.
type RefreshToken struct {
	ID        uuid.UUID `db:"token_id"`
	UserID    uuid.UUID `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	Revoked   bool      `db:"revoked"`
	CreatedAt time.Time `db:"created_at"`
}

//Store reads and writes accounts in postgres.
type Store struct {
	db *sqlx.DB
}

//NewStore builds a Store over db.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

//CreateUser inserts a new account. Emails are unique case-insensitively;
//a duplicate is a conflict the caller reports as such.
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	var exists bool
	statement := s.db.Rebind("select exists(select 1 from app_user where email = ?)")
	if err := s.db.GetContext(ctx, &exists, statement, user.Email); err != nil {
		return fmt.Errorf("checking email %s: %w", user.Email, err)
	}
	if exists {
		return apperror.New(apperror.Conflict, "email already registered").
			WithDetail("field", "email")
	}

	statement = s.db.Rebind("insert into app_user (user_id, email, password_hash, name, " +
		"company_name, truck_number, created_at) values " +
		"(:user_id, :email, :password_hash, :name, :company_name, :truck_number, :created_at)")
	if _, err := s.db.NamedExecContext(ctx, statement, user); err != nil {
		return fmt.Errorf("inserting user %s: %w", user.Email, err)
	}
	return nil
}

//UserByEmail loads an account by email, case-insensitively.
func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	statement := s.db.Rebind("select * from app_user where email = ?")
	if err := s.db.GetContext(ctx, &user, statement, strings.ToLower(strings.TrimSpace(email))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.New(apperror.NotFound, "user not found")
		}
		return nil, fmt.Errorf("loading user by email: %w", err)
	}
	return &user, nil
}

//UserByID loads an account by id.
func (s *Store) UserByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	var user User
	statement := s.db.Rebind("select * from app_user where user_id = ?")
	if err := s.db.GetContext(ctx, &user, statement, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.New(apperror.NotFound, "user not found")
		}
		return nil, fmt.Errorf("loading user %s: %w", userID, err)
	}
	return &user, nil
}

//SaveRefreshToken records a newly issued refresh token.
func (s *Store) SaveRefreshToken(ctx context.Context, token RefreshToken) error {
	statement := s.db.Rebind("insert into refresh_token (token_id, user_id, expires_at, revoked, created_at) " +
		"values (:token_id, :user_id, :expires_at, :revoked, :created_at)")
	if _, err := s.db.NamedExecContext(ctx, statement, token); err != nil {
		return fmt.Errorf("inserting refresh token %s: %w", token.ID, err)
	}
	return nil
}

//RefreshTokenByID loads one refresh token record.
func (s *Store) RefreshTokenByID(ctx context.Context, tokenID uuid.UUID) (*RefreshToken, error) {
	var token RefreshToken
	statement := s.db.Rebind("select * from refresh_token where token_id = ?")
	if err := s.db.GetContext(ctx, &token, statement, tokenID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.New(apperror.Unauthenticated, "unknown refresh token")
		}
		return nil, fmt.Errorf("loading refresh token %s: %w", tokenID, err)
	}
	return &token, nil
}

//RevokeRefreshToken blacklists a refresh token so it cannot be used again.
func (s *Store) RevokeRefreshToken(ctx context.Context, tokenID uuid.UUID) error {
	statement := s.db.Rebind("update refresh_token set revoked = true where token_id = ?")
	if _, err := s.db.ExecContext(ctx, statement, tokenID); err != nil {
		return fmt.Errorf("revoking refresh token %s: %w", tokenID, err)
	}
	return nil
}
