package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"inscrito/internal/inscription/models"
	id "inscrito/pkg/domain"
	"inscrito/pkg/platform/sentinel"
)

// Postgres persists inscriptions. The unique indexes on (event_id, cpf) and
// (event_id, user_id) are the authoritative duplicate signal; Create maps
// their violation to ErrConflict for the service to re-classify.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const inscriptionColumns = `
	id, event_id, category_id, user_id,
	guest_name, guest_email, guest_phone, guest_birth_date, guest_gender,
	cpf, amount_centavos, payment_method, status, payment_ref, created_at, updated_at
`

func (s *Postgres) Create(ctx context.Context, inscription *models.Inscription) error {
	query := `
		INSERT INTO inscriptions (` + inscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	if _, err := s.db.ExecContext(ctx, query, inscriptionArgs(inscription)...); err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create inscription: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, inscription *models.Inscription) error {
	query := `
		UPDATE inscriptions SET
			status = $2, payment_ref = $3, updated_at = $4
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(inscription.ID), inscription.Status.String(), inscription.PaymentRef, inscription.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update inscription: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update inscription: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, inscriptionID id.InscriptionID) (*models.Inscription, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+inscriptionColumns+` FROM inscriptions WHERE id = $1`,
		uuid.UUID(inscriptionID),
	)
	return scanInscription(row)
}

func (s *Postgres) FindByEventIDAndCPF(ctx context.Context, eventID id.EventID, cpf id.CPF) (*models.Inscription, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+inscriptionColumns+` FROM inscriptions WHERE event_id = $1 AND cpf = $2`,
		uuid.UUID(eventID), cpf.String(),
	)
	return scanInscription(row)
}

func (s *Postgres) FindByEventIDAndUserID(ctx context.Context, eventID id.EventID, userID id.UserID) (*models.Inscription, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+inscriptionColumns+` FROM inscriptions WHERE event_id = $1 AND user_id = $2`,
		uuid.UUID(eventID), uuid.UUID(userID),
	)
	return scanInscription(row)
}

func (s *Postgres) FindByUserID(ctx context.Context, userID id.UserID) ([]*models.Inscription, error) {
	return s.query(ctx,
		`SELECT `+inscriptionColumns+` FROM inscriptions WHERE user_id = $1 ORDER BY created_at`,
		uuid.UUID(userID),
	)
}

func (s *Postgres) FindByCPF(ctx context.Context, cpf id.CPF) ([]*models.Inscription, error) {
	return s.query(ctx,
		`SELECT `+inscriptionColumns+` FROM inscriptions WHERE cpf = $1 ORDER BY created_at`,
		cpf.String(),
	)
}

func (s *Postgres) FindByEventID(ctx context.Context, eventID id.EventID, filter models.ListFilter) ([]*models.Inscription, error) {
	return s.query(ctx, `
		SELECT `+inscriptionColumns+`
		FROM inscriptions
		WHERE event_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at
		LIMIT $3 OFFSET $4
	`, uuid.UUID(eventID), filter.Status.String(), filter.Limit, filter.Offset)
}

func (s *Postgres) CountByStatus(ctx context.Context, eventID id.EventID) (map[models.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM inscriptions WHERE event_id = $1 GROUP BY status
	`, uuid.UUID(eventID))
	if err != nil {
		return nil, fmt.Errorf("count inscriptions: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan inscription count: %w", err)
		}
		counts[models.Status(status)] = count
	}
	return counts, rows.Err()
}

func (s *Postgres) Delete(ctx context.Context, inscriptionID id.InscriptionID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM inscriptions WHERE id = $1`, uuid.UUID(inscriptionID))
	if err != nil {
		return fmt.Errorf("delete inscription: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete inscription: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) query(ctx context.Context, query string, args ...any) ([]*models.Inscription, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query inscriptions: %w", err)
	}
	defer rows.Close()

	var out []*models.Inscription
	for rows.Next() {
		inscription, err := scanInscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inscription)
	}
	return out, rows.Err()
}

func inscriptionArgs(inscription *models.Inscription) []any {
	var userID any
	if inscription.UserID != nil {
		userID = uuid.UUID(*inscription.UserID)
	}
	var guestName, guestEmail, guestPhone, guestGender string
	var guestBirthDate any
	if g := inscription.Guest; g != nil {
		guestName = g.Name.String()
		guestEmail = g.Email.String()
		guestPhone = g.Phone.String()
		guestGender = g.Gender.String()
		if !g.BirthDate.IsZero() {
			guestBirthDate = g.BirthDate.Time()
		}
	}
	return []any{
		uuid.UUID(inscription.ID), uuid.UUID(inscription.EventID), uuid.UUID(inscription.CategoryID), userID,
		guestName, guestEmail, guestPhone, guestBirthDate, guestGender,
		inscription.CPF.String(), inscription.Amount.Centavos(), inscription.PaymentMethod.String(),
		inscription.Status.String(), inscription.PaymentRef, inscription.CreatedAt, inscription.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInscription(row rowScanner) (*models.Inscription, error) {
	var i models.Inscription
	var rawID, rawEventID, rawCategoryID uuid.UUID
	var rawUserID uuid.NullUUID
	var guestName, guestEmail, guestPhone, guestGender, cpf, method, status string
	var guestBirthDate sql.NullTime
	var amount int64

	err := row.Scan(&rawID, &rawEventID, &rawCategoryID, &rawUserID,
		&guestName, &guestEmail, &guestPhone, &guestBirthDate, &guestGender,
		&cpf, &amount, &method, &status, &i.PaymentRef, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan inscription: %w", err)
	}

	i.ID = id.InscriptionID(rawID)
	i.EventID = id.EventID(rawEventID)
	i.CategoryID = id.CategoryID(rawCategoryID)
	i.CPF = id.CPF(cpf)
	i.Amount = id.Money(amount)
	i.PaymentMethod = id.PaymentMethod(method)
	i.Status = models.Status(status)

	if rawUserID.Valid {
		userID := id.UserID(rawUserID.UUID)
		i.UserID = &userID
	} else {
		guest := models.GuestData{
			Name:   id.PersonName(guestName),
			Email:  id.Email(guestEmail),
			Phone:  id.Phone(guestPhone),
			CPF:    id.CPF(cpf),
			Gender: id.Gender(guestGender),
		}
		if guestBirthDate.Valid {
			guest.BirthDate = birthDateFromStored(guestBirthDate.Time)
		}
		i.Guest = &guest
	}
	return &i, nil
}

// birthDateFromStored trusts the database value; it was validated on the way
// in and re-running the parser would reject historic rows if policy tightens.
func birthDateFromStored(t time.Time) id.BirthDate {
	return id.BirthDate(t)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
