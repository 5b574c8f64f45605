package sqlxdb

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/appointment"
)

const appointmentColumns = `id, student_id, teacher_id, appointment_date, purpose, status, created_at, updated_at`

type appointmentRow struct {
	ID              string    `db:"id"`
	StudentID       string    `db:"student_id"`
	TeacherID       string    `db:"teacher_id"`
	AppointmentDate time.Time `db:"appointment_date"`
	Purpose         string    `db:"purpose"`
	Status          string    `db:"status"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (row appointmentRow) appointment() appointment.Appointment {
	return appointment.Appointment{
		ID:              row.ID,
		StudentID:       row.StudentID,
		TeacherID:       row.TeacherID,
		AppointmentDate: row.AppointmentDate.UTC(),
		Purpose:         row.Purpose,
		Status:          row.Status,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
}

type appointmentRepository struct {
	db *sqlx.DB
}

var _ appointment.Repository = (*appointmentRepository)(nil) // interface compliance check

func NewAppointmentRepository(db *sqlx.DB) appointment.Repository {
	return &appointmentRepository{db: db}
}

func (repo *appointmentRepository) CreateAppointment(ctx context.Context, appt appointment.Appointment) (appointment.Appointment, error) {
	row := appointmentRow{
		ID:              uuid.NewString(),
		StudentID:       appt.StudentID,
		TeacherID:       appt.TeacherID,
		AppointmentDate: appt.AppointmentDate.UTC(),
		Purpose:         appt.Purpose,
		Status:          appt.Status,
		CreatedAt:       appt.CreatedAt.UTC(),
		UpdatedAt:       appt.UpdatedAt.UTC(),
	}
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO appointments (`+appointmentColumns+`)
		VALUES (:id, :student_id, :teacher_id, :appointment_date, :purpose, :status, :created_at, :updated_at)`, row)
	if err != nil {
		return appointment.Appointment{}, errors.Wrap(err, "inserting appointment")
	}
	return row.appointment(), nil
}

func (repo *appointmentRepository) GetAppointmentByID(ctx context.Context, id string) (appointment.Appointment, error) {
	var row appointmentRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appointment.Appointment{}, appointment.ErrNotFound
		}
		return appointment.Appointment{}, errors.Wrap(err, "selecting appointment")
	}
	return row.appointment(), nil
}

func (repo *appointmentRepository) FilterAppointments(ctx context.Context, filter appointment.QueryFilter) ([]appointment.Appointment, error) {
	conds := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conds = append(conds, "student_id = $"+strconv.Itoa(len(args)))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conds = append(conds, "teacher_id = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY appointment_date ASC`

	var rows []appointmentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering appointments")
	}
	appts := make([]appointment.Appointment, 0, len(rows))
	for _, row := range rows {
		appts = append(appts, row.appointment())
	}
	return appts, nil
}

func (repo *appointmentRepository) TransitionAppointment(
	ctx context.Context,
	id, teacherID, from, to string,
	at time.Time,
) (appointment.Appointment, error) {
	var row appointmentRow
	err := repo.db.GetContext(ctx, &row, `UPDATE appointments SET status = $4, updated_at = $5
		WHERE id = $1 AND teacher_id = $2 AND status = $3
		RETURNING `+appointmentColumns, id, teacherID, from, to, at.UTC())
	if err != nil {
		if err == sql.ErrNoRows {
			return appointment.Appointment{}, appointment.ErrNotPending
		}
		return appointment.Appointment{}, errors.Wrap(err, "updating appointment status")
	}
	return row.appointment(), nil
}
