package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"inscrito/internal/payment/models"
	id "inscrito/pkg/domain"
	"inscrito/pkg/platform/sentinel"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const paymentColumns = `
	id, inscription_id, event_id, user_id, charge_id, amount_centavos, status,
	payment_method, pix_payload, pix_qr_image, slip_url, due_date, paid_at, created_at, updated_at
`

func (s *Postgres) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	var userID any
	if payment.UserID != nil {
		userID = uuid.UUID(*payment.UserID)
	}
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(payment.ID), uuid.UUID(payment.InscriptionID), uuid.UUID(payment.EventID), userID,
		payment.ChargeID, payment.Amount.Centavos(), payment.Status.String(),
		payment.Method.String(), payment.PixPayload, payment.PixQRImage, payment.SlipURL,
		payment.DueDate, payment.PaidAt, payment.CreatedAt, payment.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, payment *models.Payment) error {
	query := `
		UPDATE payments SET
			status = $2, pix_payload = $3, pix_qr_image = $4, slip_url = $5, paid_at = $6, updated_at = $7
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(payment.ID), payment.Status.String(),
		payment.PixPayload, payment.PixQRImage, payment.SlipURL,
		payment.PaidAt, payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, paymentID id.PaymentID) (*models.Payment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`,
		uuid.UUID(paymentID),
	)
	return scanPayment(row)
}

func (s *Postgres) FindByExternalChargeID(ctx context.Context, chargeID string) (*models.Payment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE charge_id = $1`,
		chargeID,
	)
	return scanPayment(row)
}

func (s *Postgres) FindByInscriptionID(ctx context.Context, inscriptionID id.InscriptionID) (*models.Payment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE inscription_id = $1 ORDER BY created_at DESC LIMIT 1`,
		uuid.UUID(inscriptionID),
	)
	return scanPayment(row)
}

func (s *Postgres) FindByUserID(ctx context.Context, userID id.UserID) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = $1 ORDER BY created_at`,
		uuid.UUID(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []*models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, payment)
	}
	return out, rows.Err()
}

func (s *Postgres) Delete(ctx context.Context, paymentID id.PaymentID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, uuid.UUID(paymentID))
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) SumConfirmedByEvent(ctx context.Context, eventID id.EventID) (id.Money, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_centavos), 0)
		FROM payments
		WHERE event_id = $1 AND status IN ($2, $3)
	`, uuid.UUID(eventID), models.StatusReceived.String(), models.StatusConfirmed.String())

	var total int64
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("sum confirmed payments: %w", err)
	}
	return id.Money(total), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	var rawID, rawInscriptionID, rawEventID uuid.UUID
	var rawUserID uuid.NullUUID
	var status, method string
	var paidAt sql.NullTime
	var amount int64

	err := row.Scan(&rawID, &rawInscriptionID, &rawEventID, &rawUserID,
		&p.ChargeID, &amount, &status, &method,
		&p.PixPayload, &p.PixQRImage, &p.SlipURL,
		&p.DueDate, &paidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	p.ID = id.PaymentID(rawID)
	p.InscriptionID = id.InscriptionID(rawInscriptionID)
	p.EventID = id.EventID(rawEventID)
	p.Amount = id.Money(amount)
	p.Status = models.Status(status)
	p.Method = id.PaymentMethod(method)
	if rawUserID.Valid {
		userID := id.UserID(rawUserID.UUID)
		p.UserID = &userID
	}
	if paidAt.Valid {
		t := paidAt.Time
		p.PaidAt = &t
	}
	return &p, nil
}
