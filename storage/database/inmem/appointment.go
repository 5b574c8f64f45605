package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/ratiba/core/appointment"
)

type appointmentRepository struct {
	db *appointmentTable
}

var _ appointment.Repository = (*appointmentRepository)(nil) // interface compliance check

func NewAppointmentRepository(db *DB) appointment.Repository {
	return &appointmentRepository{db: db.appointment}
}

func (repo *appointmentRepository) CreateAppointment(_ context.Context, appt appointment.Appointment) (appointment.Appointment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	appt.ID = uuid.NewString()
	repo.db.table[appt.ID] = &appt
	return appt, nil
}

func (repo *appointmentRepository) GetAppointmentByID(_ context.Context, id string) (appointment.Appointment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if appt, ok := repo.db.table[id]; ok {
		return *appt, nil
	}
	return appointment.Appointment{}, appointment.ErrNotFound
}

func (repo *appointmentRepository) FilterAppointments(_ context.Context, filter appointment.QueryFilter) ([]appointment.Appointment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	appts := make([]appointment.Appointment, 0)
	for _, appt := range repo.db.table {
		if filter.StudentID != "" && appt.StudentID != filter.StudentID {
			continue
		}
		if filter.TeacherID != "" && appt.TeacherID != filter.TeacherID {
			continue
		}
		appts = append(appts, *appt)
	}
	return appts, nil
}

func (repo *appointmentRepository) TransitionAppointment(
	_ context.Context,
	id, teacherID, from, to string,
	at time.Time,
) (appointment.Appointment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	appt, ok := repo.db.table[id]
	if !ok || appt.TeacherID != teacherID || appt.Status != from {
		return appointment.Appointment{}, appointment.ErrNotPending
	}
	appt.Status = to
	appt.UpdatedAt = at
	return *appt, nil
}
