package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/zsimmons25/see-more/internal/users/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, balance, member_since, created_at, updated_at`

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO accounts (id, email, password_hash, first_name, last_name, balance)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING member_since, created_at, updated_at`,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Balance).
		Scan(&user.MemberSince, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM accounts WHERE id = $1`, id)
	return scanUser(row)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM accounts WHERE email = $1`, email)
	return scanUser(row)
}

// AddFunds shares the accounts row with the order engine, so it uses the
// same single-statement atomic-update discipline instead of a read then write.
func (r *Repository) AddFunds(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE accounts SET balance = balance + $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING `+userColumns, amount, id)
	return scanUser(row)
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		hash, id)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Balance,
		&user.MemberSince,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account row: %w", err)
	}
	return &user, nil
}
