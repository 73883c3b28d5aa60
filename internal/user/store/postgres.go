package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"inscrito/internal/user/models"
	id "inscrito/pkg/domain"
	"inscrito/pkg/platform/sentinel"
)

// Postgres persists user profiles. Pure I/O; profile rules live upstream in
// the identity provider.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Save(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, cpf, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			cpf = EXCLUDED.cpf,
			phone = EXCLUDED.phone,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(user.ID), user.Name.String(), user.Email.String(),
		user.CPF.String(), user.Phone.String(), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, cpf, phone, created_at, updated_at
		FROM users WHERE id = $1
	`, uuid.UUID(userID))
	return scanUser(row)
}

func (s *Postgres) FindByCPF(ctx context.Context, cpf id.CPF) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, cpf, phone, created_at, updated_at
		FROM users WHERE cpf = $1
	`, cpf.String())
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var rawID uuid.UUID
	var name, email, cpf, phone string
	err := row.Scan(&rawID, &name, &email, &cpf, &phone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = id.UserID(rawID)
	u.Name = id.PersonName(name)
	u.Email = id.Email(email)
	u.CPF = id.CPF(cpf)
	u.Phone = id.Phone(phone)
	return &u, nil
}

// isUniqueViolation reports whether err is a PostgreSQL 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
