package appointment

import (
	"sort"
	"time"

	"github.com/trezcool/ratiba/core"
)

// Status
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusCanceled = "canceled"
)

const defaultSchedulePurpose = "New appointment"

type Appointment struct {
	ID              string    `json:"id"`
	StudentID       string    `json:"studentId"`
	TeacherID       string    `json:"teacherId"`
	AppointmentDate time.Time `json:"appointmentDate"` // UTC
	Purpose         string    `json:"purpose"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"` // UTC
	UpdatedAt       time.Time `json:"updatedAt"` // UTC
}

// IsTerminal reports whether no transition may leave the current status.
func (a Appointment) IsTerminal() bool {
	return a.Status == StatusApproved || a.Status == StatusCanceled
}

// Party is the display form of an identity referenced by an appointment.
type Party struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// View is an Appointment with its student and teacher resolved for display.
// A party is nil when the referenced identity no longer exists.
type View struct {
	ID              string    `json:"id"`
	Student         *Party    `json:"studentId"`
	Teacher         *Party    `json:"teacherId"`
	AppointmentDate time.Time `json:"appointmentDate"`
	Purpose         string    `json:"purpose"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func newView(a Appointment, student, teacher *Party) View {
	return View{
		ID:              a.ID,
		Student:         student,
		Teacher:         teacher,
		AppointmentDate: a.AppointmentDate,
		Purpose:         a.Purpose,
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// NewBooking is what a student sends to book an appointment with a teacher.
type NewBooking struct {
	TeacherID       string    `json:"teacherId" validate:"required,notblank"`
	AppointmentDate time.Time `json:"appointmentDate" validate:"required"`
	Purpose         string    `json:"purpose" validate:"required,notblank"`
}

func (nb *NewBooking) Clean() {
	nb.TeacherID = core.CleanString(nb.TeacherID)
	nb.Purpose = core.CleanString(nb.Purpose)
	nb.AppointmentDate = nb.AppointmentDate.UTC()
}

// NewSchedule is what a teacher sends to schedule an appointment with a student.
type NewSchedule struct {
	StudentID       string    `json:"studentId" validate:"required,notblank"`
	AppointmentDate time.Time `json:"appointmentDate" validate:"required"`
	Purpose         string    `json:"purpose"`
}

func (ns *NewSchedule) Clean() {
	ns.StudentID = core.CleanString(ns.StudentID)
	ns.Purpose = core.CleanString(ns.Purpose)
	if ns.Purpose == "" {
		ns.Purpose = defaultSchedulePurpose
	}
	ns.AppointmentDate = ns.AppointmentDate.UTC()
}

// Less orders pending appointments before resolved ones,
// then by ascending date, then by ID so equal keys keep a stable order.
func Less(a, b View) bool {
	aPending, bPending := a.Status == StatusPending, b.Status == StatusPending
	if aPending != bPending {
		return aPending
	}
	if !a.AppointmentDate.Equal(b.AppointmentDate) {
		return a.AppointmentDate.Before(b.AppointmentDate)
	}
	return a.ID < b.ID
}

// Sort sorts views in place with Less.
func Sort(views []View) {
	sort.SliceStable(views, func(i, j int) bool { return Less(views[i], views[j]) })
}
