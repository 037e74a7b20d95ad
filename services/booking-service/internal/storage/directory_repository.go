package storage

import (
	"context"

	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

// DirectoryRepository is the local replica of barbers fed by barber-service events.
type DirectoryRepository struct {
	pool *db.Pool
}

func NewDirectoryRepository(pool *db.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

// Barber returns model.ErrUnknownBarber for missing or deleted barbers.
func (r *DirectoryRepository) Barber(ctx context.Context, id string) (model.Barber, error) {
	var b model.Barber
	err := r.pool.QueryRow(ctx, `
		SELECT barber_id, name, deleted
		FROM barber_directory
		WHERE barber_id = $1
	`, id).Scan(&b.ID, &b.Name, &b.Deleted)
	if db.IsNotFound(err) {
		return model.Barber{}, model.ErrUnknownBarber
	}
	if err != nil {
		return model.Barber{}, err
	}
	if b.Deleted {
		return model.Barber{}, model.ErrUnknownBarber
	}
	return b, nil
}

func (r *DirectoryRepository) Upsert(ctx context.Context, b model.Barber) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO barber_directory (barber_id, name, deleted, updated_at)
		VALUES ($1, $2, false, now())
		ON CONFLICT (barber_id) DO UPDATE
		SET name = EXCLUDED.name,
			deleted = false,
			updated_at = now()
	`, b.ID, b.Name)
	return err
}

func (r *DirectoryRepository) MarkDeleted(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO barber_directory (barber_id, name, deleted, updated_at)
		VALUES ($1, '', true, now())
		ON CONFLICT (barber_id) DO UPDATE
		SET deleted = true,
			updated_at = now()
	`, id)
	return err
}
