package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/libs/outbox"
)

const EventUserCreated = "auth.user.created.v1"

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

const userColumns = `id::text, name, email, phone, password_hash, role, created_at`

type UserRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewUserRepository(pool *db.Pool, outboxRepo *outbox.Repository) *UserRepository {
	return &UserRepository{pool: pool, outbox: outboxRepo}
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if db.IsNotFound(err) {
		return User{}, ErrNotFound
	}
	return u, err
}

// Create stores the user and its created event in one transaction.
// Emails are compared case-insensitively.
func (r *UserRepository) Create(ctx context.Context, u *User) error {
	return r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		created, err := scanUser(tx.QueryRow(ctx, `
			INSERT INTO users (name, email, phone, password_hash, role)
			VALUES ($1, lower($2), $3, $4, $5)
			RETURNING `+userColumns,
			u.Name, u.Email, u.Phone, u.PasswordHash, u.Role))
		if db.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		if err != nil {
			return err
		}
		*u = created

		evt, err := outbox.NewEvent("user", u.ID, EventUserCreated, map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"role":       u.Role,
			"created_at": u.CreatedAt,
		})
		if err != nil {
			return err
		}
		return r.outbox.Insert(ctx, tx, evt)
	})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = lower($1)
	`, strings.TrimSpace(email)))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id))
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, phone string) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users
		SET name = $2, phone = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, name, phone))
}
