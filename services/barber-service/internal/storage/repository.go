package storage

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/libs/outbox"
	"github.com/md-rashed-zaman/barberbook/services/barber-service/internal/model"
)

const (
	EventUpserted = "barbers.barber.upserted.v1"
	EventDeleted  = "barbers.barber.deleted.v1"
)

const barberColumns = `id::text, name, specialty, bio, phone, email, image, availability, created_at, updated_at`

type Repository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewRepository(pool *db.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{pool: pool, outbox: outboxRepo}
}

func scanBarber(row pgx.Row) (model.Barber, error) {
	var b model.Barber
	var availability []byte
	if err := row.Scan(&b.ID, &b.Name, &b.Specialty, &b.Bio, &b.Phone, &b.Email, &b.Image,
		&availability, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return model.Barber{}, err
	}
	if len(availability) > 0 {
		if err := json.Unmarshal(availability, &b.Availability); err != nil {
			return model.Barber{}, err
		}
	}
	return b, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func list(ctx context.Context, q querier) ([]model.Barber, error) {
	rows, err := q.Query(ctx, `
		SELECT `+barberColumns+`
		FROM barbers
		ORDER BY created_at ASC, name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Barber
	for rows.Next() {
		b, err := scanBarber(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) List(ctx context.Context) ([]model.Barber, error) {
	return list(ctx, r.pool)
}

func (r *Repository) Get(ctx context.Context, id string) (model.Barber, error) {
	b, err := scanBarber(r.pool.QueryRow(ctx, `
		SELECT `+barberColumns+`
		FROM barbers
		WHERE id = $1
	`, id))
	if db.IsNotFound(err) {
		return model.Barber{}, model.ErrNotFound
	}
	return b, err
}

func (r *Repository) insert(ctx context.Context, tx pgx.Tx, b *model.Barber) error {
	availability, err := json.Marshal(b.Availability)
	if err != nil {
		return err
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO barbers (name, specialty, bio, phone, email, image, availability)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text, created_at, updated_at
	`, b.Name, b.Specialty, b.Bio, b.Phone, b.Email, b.Image, availability).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return err
	}
	return r.writeEvent(ctx, tx, EventUpserted, *b)
}

func (r *Repository) Create(ctx context.Context, b *model.Barber) error {
	return r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		return r.insert(ctx, tx, b)
	})
}

func (r *Repository) Update(ctx context.Context, b *model.Barber) error {
	availability, err := json.Marshal(b.Availability)
	if err != nil {
		return err
	}
	return r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		updated, err := scanBarber(tx.QueryRow(ctx, `
			UPDATE barbers
			SET name = $2, specialty = $3, bio = $4, phone = $5, email = $6, image = $7,
				availability = $8, updated_at = now()
			WHERE id = $1
			RETURNING `+barberColumns,
			b.ID, b.Name, b.Specialty, b.Bio, b.Phone, b.Email, b.Image, availability))
		if db.IsNotFound(err) {
			return model.ErrNotFound
		}
		if err != nil {
			return err
		}
		*b = updated
		return r.writeEvent(ctx, tx, EventUpserted, updated)
	})
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM barbers WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return model.ErrNotFound
		}
		return r.writeEvent(ctx, tx, EventDeleted, model.Barber{ID: id})
	})
}

// SeedIfEmpty inserts seed only when the table has no rows and returns the
// resulting list. Concurrent callers serialize on an advisory lock.
func (r *Repository) SeedIfEmpty(ctx context.Context, seed []model.Barber) ([]model.Barber, error) {
	var out []model.Barber
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('barbers_seed'))`); err != nil {
			return err
		}
		var n int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM barbers`).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			for i := range seed {
				if err := r.insert(ctx, tx, &seed[i]); err != nil {
					return err
				}
			}
		}
		var err error
		out, err = list(ctx, tx)
		return err
	})
	return out, err
}

func (r *Repository) writeEvent(ctx context.Context, tx pgx.Tx, eventType string, b model.Barber) error {
	payload := map[string]any{"barber_id": b.ID}
	if eventType == EventUpserted {
		payload["name"] = b.Name
		payload["specialty"] = b.Specialty
	}
	evt, err := outbox.NewEvent("barber", b.ID, eventType, payload)
	if err != nil {
		return err
	}
	return r.outbox.Insert(ctx, tx, evt)
}
