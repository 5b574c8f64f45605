package appointment

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/user"
)

var (
	// errors
	ErrNotFound = core.NewNotFoundError(errors.New("appointment not found"))
	ErrNotOwner = core.NewForbiddenError(errors.New("you do not have permission to update this appointment"))
	// ErrNotPending is returned by Repository.TransitionAppointment when no appointment
	// matches the id, teacher and current status at once.
	ErrNotPending = errors.New("appointment is not pending")
)

type (
	// QueryFilter applies AND operation on its non-empty fields.
	QueryFilter struct {
		StudentID string
		TeacherID string
	}

	Repository interface {
		CreateAppointment(ctx context.Context, appt Appointment) (Appointment, error)
		GetAppointmentByID(ctx context.Context, id string) (Appointment, error)
		FilterAppointments(ctx context.Context, filter QueryFilter) ([]Appointment, error)
		// TransitionAppointment atomically sets the status of the appointment with id to `to`
		// only if its teacher is teacherID and its current status is `from`.
		// It returns ErrNotPending when nothing matched.
		TransitionAppointment(ctx context.Context, id, teacherID, from, to string, at time.Time) (Appointment, error)
	}

	Service struct {
		repo    Repository
		usrRepo user.Repository
		mailSvc core.EmailService
		logger  core.Logger
	}
)

func NewService(repo Repository, usrRepo user.Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{repo: repo, usrRepo: usrRepo, mailSvc: mailSvc, logger: logger}
}

// Book creates a pending appointment requested by a student.
func (svc *Service) Book(ctx context.Context, studentID string, nb NewBooking) (Appointment, error) {
	nb.Clean()
	now := time.Now().UTC()
	return svc.repo.CreateAppointment(ctx, Appointment{
		StudentID:       studentID,
		TeacherID:       nb.TeacherID,
		AppointmentDate: nb.AppointmentDate,
		Purpose:         nb.Purpose,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

// Schedule creates a pending appointment on behalf of a teacher and notifies the student.
func (svc *Service) Schedule(ctx context.Context, teacherID string, ns NewSchedule) (Appointment, error) {
	ns.Clean()
	now := time.Now().UTC()
	appt, err := svc.repo.CreateAppointment(ctx, Appointment{
		StudentID:       ns.StudentID,
		TeacherID:       teacherID,
		AppointmentDate: ns.AppointmentDate,
		Purpose:         ns.Purpose,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return Appointment{}, err
	}
	svc.notifyStudent(ctx, appt, "appointment_scheduled", "New appointment scheduled")
	return appt, nil
}

func (svc *Service) Approve(ctx context.Context, id, teacherID string) (Appointment, error) {
	return svc.transition(ctx, id, teacherID, StatusApproved)
}

func (svc *Service) Cancel(ctx context.Context, id, teacherID string) (Appointment, error) {
	return svc.transition(ctx, id, teacherID, StatusCanceled)
}

// transition moves a pending appointment owned by teacherID to status `to`.
// A miss is classified after the fact; the write itself is a single conditional update.
func (svc *Service) transition(ctx context.Context, id, teacherID, to string) (Appointment, error) {
	appt, err := svc.repo.TransitionAppointment(ctx, id, teacherID, StatusPending, to, time.Now().UTC())
	if err == nil {
		svc.notifyStudent(ctx, appt, "appointment_status", "Appointment "+appt.Status)
		return appt, nil
	}
	if err != ErrNotPending {
		return Appointment{}, errors.Wrap(err, "updating appointment status")
	}

	curr, err := svc.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if curr.TeacherID != teacherID {
		return Appointment{}, ErrNotOwner
	}
	return Appointment{}, core.NewConflictError(errors.Errorf("appointment is already %s", curr.Status))
}

// ListForTeacher returns the teacher's appointments in display order.
func (svc *Service) ListForTeacher(ctx context.Context, teacherID string) ([]View, error) {
	return svc.list(ctx, QueryFilter{TeacherID: teacherID})
}

// ListForStudent returns the student's appointments in display order.
func (svc *Service) ListForStudent(ctx context.Context, studentID string) ([]View, error) {
	return svc.list(ctx, QueryFilter{StudentID: studentID})
}

func (svc *Service) list(ctx context.Context, filter QueryFilter) ([]View, error) {
	appts, err := svc.repo.FilterAppointments(ctx, filter)
	if err != nil {
		return nil, err
	}

	parties := make(map[string]*Party)
	resolve := func(id string) (*Party, error) {
		if p, ok := parties[id]; ok {
			return p, nil
		}
		usr, err := svc.usrRepo.GetUserByID(ctx, id)
		if err != nil && err != user.ErrNotFound {
			return nil, err
		}
		var p *Party
		if err == nil {
			p = &Party{ID: usr.ID, Name: usr.Name, Email: usr.Email}
		}
		parties[id] = p
		return p, nil
	}

	views := make([]View, 0, len(appts))
	for _, a := range appts {
		student, err := resolve(a.StudentID)
		if err != nil {
			return nil, errors.Wrap(err, "resolving student")
		}
		teacher, err := resolve(a.TeacherID)
		if err != nil {
			return nil, errors.Wrap(err, "resolving teacher")
		}
		views = append(views, newView(a, student, teacher))
	}
	Sort(views)
	return views, nil
}

type mailData struct {
	TeacherName string
	Date        string
	Purpose     string
	Status      string
}

// notifyStudent emails the student of appt. Failures are logged, never returned:
// the appointment write has already happened.
func (svc *Service) notifyStudent(ctx context.Context, appt Appointment, tmpl, subject string) {
	student, err := svc.usrRepo.GetUserByID(ctx, appt.StudentID)
	if err != nil {
		if err != user.ErrNotFound {
			svc.logger.Warn("resolving student for notification", errors.Wrap(err, "resolving student"))
		}
		return
	}
	var teacherName string
	if teacher, err := svc.usrRepo.GetUserByID(ctx, appt.TeacherID); err == nil {
		teacherName = teacher.Name
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject:      subject,
		TemplateName: tmpl,
		TemplateData: mailData{
			TeacherName: teacherName,
			Date:        appt.AppointmentDate.Format(time.RFC1123),
			Purpose:     appt.Purpose,
			Status:      appt.Status,
		},
	}
	if err := svc.mailSvc.SendMessages(ctx, msg); err != nil {
		svc.logger.Warn("sending appointment email", errors.Wrap(err, "sending appointment email"), student)
	}
}
