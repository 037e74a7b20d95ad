package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/libs/outbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

const (
	EventBooked        = "booking.appointment.booked.v1"
	EventCancelled     = "booking.appointment.cancelled.v1"
	EventStatusChanged = "booking.appointment.status_changed.v1"
	EventDeleted       = "booking.appointment.deleted.v1"
)

const appointmentColumns = `
	id::text, user_id, user_name, user_email, barber_id, barber_name, service_id, service_name,
	service_price, service_duration, slot_date, slot_time, status, starts_at, created_at, updated_at`

type AppointmentRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewAppointmentRepository(pool *db.Pool, outboxRepo *outbox.Repository) *AppointmentRepository {
	return &AppointmentRepository{pool: pool, outbox: outboxRepo}
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.UserName,
		&a.UserEmail,
		&a.BarberID,
		&a.BarberName,
		&a.ServiceID,
		&a.ServiceName,
		&a.ServicePrice,
		&a.ServiceDuration,
		&a.Date,
		&a.Time,
		&a.Status,
		&a.StartsAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

func (r *AppointmentRepository) list(ctx context.Context, query string, args ...any) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

// BookedTimes lists the slot labels held by active appointments.
func (r *AppointmentRepository) BookedTimes(ctx context.Context, barberID, date string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT slot_time
		FROM appointments
		WHERE barber_id = $1
			AND slot_date = $2
			AND status IN ('pending', 'confirmed')
	`, barberID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (r *AppointmentRepository) SlotTaken(ctx context.Context, barberID, date, label string) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE barber_id = $1
				AND slot_date = $2
				AND slot_time = $3
				AND status IN ('pending', 'confirmed')
		)
	`, barberID, date, label).Scan(&taken)
	return taken, err
}

// Create inserts appt and its booked event. The active-slot unique index turns a
// concurrent double booking into model.ErrSlotTaken.
func (r *AppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO appointments
				(user_id, user_name, user_email, barber_id, barber_name, service_id, service_name,
				 service_price, service_duration, slot_date, slot_time, status, starts_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id::text, created_at, updated_at
		`, appt.UserID, appt.UserName, appt.UserEmail, appt.BarberID, appt.BarberName, appt.ServiceID,
			appt.ServiceName, appt.ServicePrice, appt.ServiceDuration, appt.Date, appt.Time, appt.Status,
			appt.StartsAt).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt)
		if err != nil {
			return err
		}
		return r.writeEvent(ctx, tx, EventBooked, *appt)
	})
	if db.IsUniqueViolation(err) {
		return model.ErrSlotTaken
	}
	return err
}

func (r *AppointmentRepository) ListByUser(ctx context.Context, userID string) ([]model.Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE user_id = $1
		ORDER BY created_at DESC, starts_at DESC
	`, userID)
}

func (r *AppointmentRepository) ListAll(ctx context.Context) ([]model.Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY created_at ASC
	`)
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	a, err := scanAppointment(r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id))
	if db.IsNotFound(err) {
		return model.Appointment{}, model.ErrNotFound
	}
	return a, err
}

func getForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error) {
	a, err := scanAppointment(tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id))
	if db.IsNotFound(err) {
		return model.Appointment{}, model.ErrNotFound
	}
	return a, err
}

// UpdateStatus locks the row, lets check veto the change, then sets status.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id, status string, check func(model.Appointment) error) (model.Appointment, error) {
	var updated model.Appointment
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		current, err := getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(current); err != nil {
				return err
			}
		}
		updated, err = scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = $2, updated_at = now()
			WHERE id = $1
			RETURNING `+appointmentColumns, id, status))
		if err != nil {
			return err
		}
		eventType := EventStatusChanged
		if status == model.StatusCancelled {
			eventType = EventCancelled
		}
		return r.writeEvent(ctx, tx, eventType, updated)
	})
	if db.IsUniqueViolation(err) {
		return model.Appointment{}, model.ErrSlotTaken
	}
	return updated, err
}

func (r *AppointmentRepository) Delete(ctx context.Context, id string, check func(model.Appointment) error) error {
	return r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		current, err := getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(current); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id); err != nil {
			return err
		}
		return r.writeEvent(ctx, tx, EventDeleted, current)
	})
}

func (r *AppointmentRepository) writeEvent(ctx context.Context, tx pgx.Tx, eventType string, a model.Appointment) error {
	evt, err := outbox.NewEvent("appointment", a.ID, eventType, map[string]any{
		"appointment_id": a.ID,
		"user_id":        a.UserID,
		"user_email":     a.UserEmail,
		"barber_id":      a.BarberID,
		"service_id":     a.ServiceID,
		"date":           a.Date,
		"time":           a.Time,
		"status":         a.Status,
	})
	if err != nil {
		return fmt.Errorf("build %s: %w", eventType, err)
	}
	return r.outbox.Insert(ctx, tx, evt)
}
