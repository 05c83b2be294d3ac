package repository

import (
	"context"
	"time"

	"github.com/gatherly/eventhub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository interface {
	Create(ctx context.Context, ownerID int64, req *domain.CreateEventRequest, image domain.Image) (*domain.Event, error)
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	List(ctx context.Context, filter domain.ListEventsFilter) ([]domain.Event, error)
	Update(ctx context.Context, id int64, patch *domain.UpdateEventRequest, image *domain.Image) (*domain.Event, error)
	Delete(ctx context.Context, id int64) (bool, error)
	AddAttendee(ctx context.Context, eventID, userID int64) (*domain.Event, error)
}

type eventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{pool: pool}
}

const eventCols = `id, name, description, date_time, category, owner_id, attendees,
image_id, image_url, location, max_attendees, created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.DateTime, &e.Category, &e.OwnerID, &e.Attendees,
		&e.Image.ID, &e.Image.URL, &e.Location, &e.MaxAttendees, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepository) Create(ctx context.Context, ownerID int64, req *domain.CreateEventRequest, image domain.Image) (*domain.Event, error) {
	const q = `INSERT INTO events (
		name, description, date_time, category, owner_id,
		image_id, image_url, location, max_attendees
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	RETURNING ` + eventCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanEvent(r.pool.QueryRow(ctx, q,
		req.Name, req.Description, req.DateTime, req.Category, ownerID,
		image.ID, image.URL, req.Location, req.MaxAttendees,
	))
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	e, err := scanEvent(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *eventRepository) List(ctx context.Context, filter domain.ListEventsFilter) ([]domain.Event, error) {
	q := `SELECT ` + eventCols + ` FROM events`
	var args []any
	var where []string

	if filter.Category != nil {
		args = append(args, *filter.Category)
		where = append(where, `category=$1`)
	}
	if filter.OnlyUpcoming {
		where = append(where, `date_time > now()`)
	}
	for i, cond := range where {
		if i == 0 {
			q += ` WHERE ` + cond
		} else {
			q += ` AND ` + cond
		}
	}
	q += ` ORDER BY date_time ASC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, id int64, patch *domain.UpdateEventRequest, image *domain.Image) (*domain.Event, error) {
	const q = `
		UPDATE events
		SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			date_time = COALESCE($4, date_time),
			category = COALESCE($5, category),
			location = COALESCE($6, location),
			max_attendees = COALESCE($7, max_attendees),
			image_id = COALESCE($8, image_id),
			image_url = COALESCE($9, image_url),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + eventCols

	var imageID, imageURL *string
	if image != nil {
		imageID = &image.ID
		imageURL = &image.URL
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	e, err := scanEvent(r.pool.QueryRow(ctx, q, id,
		patch.Name, patch.Description, patch.DateTime, patch.Category,
		patch.Location, patch.MaxAttendees, imageID, imageURL,
	))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *eventRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM events WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AddAttendee appends atomically; the guard rejects duplicates and enforces
// max_attendees in the same statement, so concurrent joins cannot overfill.
// Returns nil when the guard refused the append.
func (r *eventRepository) AddAttendee(ctx context.Context, eventID, userID int64) (*domain.Event, error) {
	const q = `
		UPDATE events
		SET attendees = array_append(attendees, $2), updated_at = now()
		WHERE id = $1
		  AND NOT (attendees @> ARRAY[$2]::bigint[])
		  AND (max_attendees IS NULL OR cardinality(attendees) < max_attendees)
		RETURNING ` + eventCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	e, err := scanEvent(r.pool.QueryRow(ctx, q, eventID, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return e, err
}
