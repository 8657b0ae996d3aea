package repository

import (
	"context"
	"errors"
	"fmt"

	"lotto/database"
	"lotto/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const userColumns = `id, username, role, available_amount, blocked_by_admin, referred_by,
	referral_count, allowed_special_discount, created_at, updated_at`

// UserRepository implements wallet access over the users table
type UserRepository struct {
	q Queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// NewUserRepositoryScoped creates a user repository bound to a transaction
func NewUserRepositoryScoped(tx Queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByID retrieves a user by id, returning nil when absent
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(fmt.Sprintf("get user %d", id), err)
	}
	return user, nil
}

// Create inserts a user and bumps the referrer's referral count
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (username, role, available_amount, blocked_by_admin, referred_by, allowed_special_discount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.q.QueryRow(ctx, query,
		user.Username,
		user.Role,
		entities.RoundMoney(user.AvailableAmount),
		user.BlockedByAdmin,
		user.ReferredBy,
		user.AllowedSpecialDiscount,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err, "users_username_key") {
		return &entities.ValidationError{Field: "username", Message: fmt.Sprintf("%q is taken", user.Username)}
	}
	if err != nil {
		return wrapErr("create user", err)
	}

	if user.HasReferrer() {
		_, err := r.q.Exec(ctx, `UPDATE users SET referral_count = referral_count + 1, updated_at = NOW() WHERE id = $1`, *user.ReferredBy)
		if err != nil {
			return wrapErr("increment referral count", err)
		}
	}
	return nil
}

// AdjustAvailableAmount adds delta to the balance in a single conditional
// UPDATE. applied is false when the user is missing or the result would go
// negative; the balance is then unchanged.
func (r *UserRepository) AdjustAvailableAmount(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, bool, error) {
	query := `
		UPDATE users
		SET available_amount = available_amount + $2, updated_at = NOW()
		WHERE id = $1 AND available_amount + $2 >= 0
		RETURNING available_amount
	`

	var balance decimal.Decimal
	err := r.q.QueryRow(ctx, query, id, delta).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, wrapErr(fmt.Sprintf("adjust balance of user %d", id), err)
	}
	return balance, true, nil
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Role,
		&u.AvailableAmount,
		&u.BlockedByAdmin,
		&u.ReferredBy,
		&u.ReferralCount,
		&u.AllowedSpecialDiscount,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
