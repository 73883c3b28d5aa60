package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"inscrito/internal/event/models"
	id "inscrito/pkg/domain"
	"inscrito/pkg/platform/sentinel"
)

// Postgres persists events and categories. Pure I/O; status rules belong to
// the service and the aggregate.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (id, title, subtitle, description, location, status, starts_at, ends_at, payment_methods, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(event.ID), event.Title, event.Subtitle, event.Description, event.Location,
		event.Status.String(), event.StartsAt, event.EndsAt, pq.Array(methodStrings(event.PaymentMethods)),
		event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events SET
			title = $2, subtitle = $3, description = $4, location = $5,
			status = $6, starts_at = $7, ends_at = $8, payment_methods = $9, updated_at = $10
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(event.ID), event.Title, event.Subtitle, event.Description, event.Location,
		event.Status.String(), event.StartsAt, event.EndsAt, pq.Array(methodStrings(event.PaymentMethods)),
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, subtitle, description, location, status, starts_at, ends_at, payment_methods, created_at, updated_at
		FROM events WHERE id = $1
	`, uuid.UUID(eventID))
	event, err := scanEvent(row)
	if err != nil {
		return nil, err
	}
	categories, err := s.listCategories(ctx, eventID)
	if err != nil {
		return nil, err
	}
	event.Categories = categories
	return event, nil
}

func (s *Postgres) List(ctx context.Context, filter models.ListEventsFilter) ([]*models.Event, error) {
	query := `
		SELECT id, title, subtitle, description, location, status, starts_at, ends_at, payment_methods, created_at, updated_at
		FROM events
		WHERE ($1 = '' OR status = $1)
		ORDER BY starts_at
		LIMIT $2 OFFSET $3
	`
	rows, err := s.db.QueryContext(ctx, query, filter.Status.String(), filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	for _, event := range out {
		categories, err := s.listCategories(ctx, event.ID)
		if err != nil {
			return nil, err
		}
		event.Categories = categories
	}
	return out, nil
}

func (s *Postgres) FindExpiredOpen(ctx context.Context, now time.Time) ([]*models.Event, error) {
	query := `
		SELECT id, title, subtitle, description, location, status, starts_at, ends_at, payment_methods, created_at, updated_at
		FROM events
		WHERE status = $1 AND COALESCE(ends_at, starts_at) < $2
	`
	rows, err := s.db.QueryContext(ctx, query, models.StatusOpen.String(), now)
	if err != nil {
		return nil, fmt.Errorf("find expired open events: %w", err)
	}
	defer rows.Close()

	var out []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

func (s *Postgres) Delete(ctx context.Context, eventID id.EventID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, uuid.UUID(eventID))
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) SaveCategory(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO event_categories (id, event_id, name, price_centavos, description, display_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price_centavos = EXCLUDED.price_centavos,
			description = EXCLUDED.description,
			display_order = EXCLUDED.display_order
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(category.ID), uuid.UUID(category.EventID), category.Name,
		category.Price.Centavos(), category.Description, category.DisplayOrder,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23503: the owning event row is gone.
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

func (s *Postgres) DeleteCategory(ctx context.Context, eventID id.EventID, categoryID id.CategoryID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM event_categories WHERE id = $1 AND event_id = $2`,
		uuid.UUID(categoryID), uuid.UUID(eventID),
	)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) listCategories(ctx context.Context, eventID id.EventID) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, name, price_centavos, description, display_order
		FROM event_categories
		WHERE event_id = $1
		ORDER BY display_order, name
	`, uuid.UUID(eventID))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		var rawID, rawEventID uuid.UUID
		var price int64
		if err := rows.Scan(&rawID, &rawEventID, &c.Name, &price, &c.Description, &c.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.ID = id.CategoryID(rawID)
		c.EventID = id.EventID(rawEventID)
		c.Price = id.Money(price)
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var e models.Event
	var rawID uuid.UUID
	var status string
	var endsAt sql.NullTime
	var methods pq.StringArray
	err := row.Scan(&rawID, &e.Title, &e.Subtitle, &e.Description, &e.Location,
		&status, &e.StartsAt, &endsAt, &methods, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	e.ID = id.EventID(rawID)
	e.Status = models.EventStatus(status)
	if endsAt.Valid {
		t := endsAt.Time
		e.EndsAt = &t
	}
	for _, m := range methods {
		e.PaymentMethods = append(e.PaymentMethods, id.PaymentMethod(m))
	}
	return &e, nil
}

func methodStrings(methods []id.PaymentMethod) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = m.String()
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
