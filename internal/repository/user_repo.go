package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"account-api/internal/apperror"
	"account-api/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByIDAndToken(ctx context.Context, id, token string) (domain.User, error)
	Update(ctx context.Context, user domain.User) (domain.User, error)
	AppendToken(ctx context.Context, id, token string) error
	RemoveToken(ctx context.Context, id, token string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, email, password, first_name, last_name, roles, tokens, created_at, updated_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Password,
		&u.FirstName,
		&u.LastName,
		&u.Roles,
		&u.Tokens,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, email, password, first_name, last_name, roles, tokens, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Password,
		user.FirstName,
		user.LastName,
		user.Roles,
		user.Tokens,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.User{}, apperror.NewCast("id", id)
	}
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByIDAndToken devuelve el usuario solo si el token crudo sigue en su
// lista de tokens activos. Quitar el token de la lista lo revoca aunque
// su firma siga siendo válida.
func (r *PgUserRepository) GetByIDAndToken(ctx context.Context, id, token string) (domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.User{}, apperror.NewCast("id", id)
	}
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND $2 = ANY(tokens)
	`
	return scanUser(r.pool.QueryRow(ctx, query, id, token))
}

func (r *PgUserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	const query = `
		UPDATE users
		SET password = $2, first_name = $3, last_name = $4, updated_at = $5
		WHERE id = $1
		RETURNING ` + userColumns + `
	`
	return scanUser(r.pool.QueryRow(ctx, query,
		user.ID,
		user.Password,
		user.FirstName,
		user.LastName,
		time.Now().UTC(),
	))
}

func (r *PgUserRepository) AppendToken(ctx context.Context, id, token string) error {
	const query = `
		UPDATE users
		SET tokens = array_append(tokens, $2), updated_at = $3
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, token, time.Now().UTC())
	return err
}

func (r *PgUserRepository) RemoveToken(ctx context.Context, id, token string) error {
	const query = `
		UPDATE users
		SET tokens = array_remove(tokens, $2), updated_at = $3
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, token, time.Now().UTC())
	return err
}
