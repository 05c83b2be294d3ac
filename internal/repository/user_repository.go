package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gatherly/eventhub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, username, email, passwordHash string, role domain.Role) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	AddEvent(ctx context.Context, userID, eventID int64) error
	RemoveEvent(ctx context.Context, userID, eventID int64) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, username, email, password_hash, role, event_ids, profile_picture, is_verified, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, username, email, passwordHash string, role domain.Role) (*domain.User, error) {
	const q = `
		INSERT INTO users (username, email, password_hash, role, profile_picture)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u domain.User
	err := r.pool.QueryRow(ctx, q, username, email, passwordHash, role, domain.DefaultProfilePicture).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.EventIDs,
		&u.ProfilePicture, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE lower(email) = lower($1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u domain.User
	err := r.pool.QueryRow(ctx, q, email).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.EventIDs,
		&u.ProfilePicture, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &u, err
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u domain.User
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.EventIDs,
		&u.ProfilePicture, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &u, err
}

func (r *userRepository) AddEvent(ctx context.Context, userID, eventID int64) error {
	const q = `
		UPDATE users
		SET event_ids = array_append(event_ids, $2), updated_at = now()
		WHERE id = $1 AND NOT (event_ids @> ARRAY[$2]::bigint[])`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, userID, eventID)
	return err
}

func (r *userRepository) RemoveEvent(ctx context.Context, userID, eventID int64) error {
	const q = `
		UPDATE users
		SET event_ids = array_remove(event_ids, $2), updated_at = now()
		WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, userID, eventID)
	return err
}
