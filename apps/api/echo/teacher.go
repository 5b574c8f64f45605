package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/appointment"
	"github.com/trezcool/ratiba/core/message"
	"github.com/trezcool/ratiba/core/user"
)

var errNoAppointments = core.NewNotFoundError(errors.New("No appointments found"))

type teacherApi struct {
	*Server
	usrSvc  *user.Service
	apptSvc *appointment.Service
	msgSvc  *message.Service
}

func registerTeacherAPI(g *echo.Group, s *Server, jwt echo.MiddlewareFunc) {
	api := teacherApi{
		Server:  s,
		usrSvc:  s.deps.UserSvc,
		apptSvc: s.deps.AppointmentSvc,
		msgSvc:  s.deps.MessageSvc,
	}

	tg := g.Group("/teachers")

	// un-authed endpoints
	tg.POST("/login", s.login(user.RoleTeacher))

	// authed endpoints
	pg := tg.Group("", jwt, s.authenticate, requireRole(user.RoleTeacher))
	pg.GET("/me", me)
	pg.GET("/booked-appointments", api.bookedAppointments)
	pg.POST("/approve-appointment/:id", api.approveAppointment)
	pg.POST("/cancel-appointment/:id", api.cancelAppointment)
	pg.GET("/students", api.students)
	pg.POST("/schedule-appointment", api.scheduleAppointment)
	pg.GET("/messages", api.messages)
	pg.POST("/messages/:id/read", api.markMessageRead)
	pg.POST("/logout", s.logout)
}

func (api *teacherApi) bookedAppointments(ctx echo.Context) error {
	ai, err := mustCtxIdentity(ctx)
	if err != nil {
		return err
	}

	appts, err := api.apptSvc.ListForTeacher(ctx.Request().Context(), ai.ID)
	if err != nil {
		return errors.Wrap(err, "listing appointments")
	}
	if len(appts) == 0 {
		return errNoAppointments
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Appointments retrieved successfully", "appointments": appts})
}

func (api *teacherApi) approveAppointment(ctx echo.Context) error {
	ai, err := mustCtxIdentity(ctx)
	if err != nil {
		return err
	}

	appt, err := api.apptSvc.Approve(ctx.Request().Context(), ctx.Param("id"), ai.ID)
	if err != nil {
		return errors.Wrap(err, "approving appointment")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Appointment approved successfully", "appointment": appt})
}

func (api *teacherApi) cancelAppointment(ctx echo.Context) error {
	ai, err := mustCtxIdentity(ctx)
	if err != nil {
		return err
	}

	appt, err := api.apptSvc.Cancel(ctx.Request().Context(), ctx.Param("id"), ai.ID)
	if err != nil {
		return errors.Wrap(err, "canceling appointment")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Appointment canceled successfully", "appointment": appt})
}

func (api *teacherApi) students(ctx echo.Context) error {
	students, err := api.usrSvc.FindApprovedStudents(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if len(students) == 0 {
		return errNoStudents
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Registered students retrieved successfully", "students": students})
}

func (api *teacherApi) scheduleAppointment(ctx echo.Context) error {
	ai, err := mustCtxIdentity(ctx)
	if err != nil {
		return err
	}

	var data appointment.NewSchedule
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchedule")
	}
	data.Clean()
	if err = api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	appt, err := api.apptSvc.Schedule(ctx.Request().Context(), ai.ID, data)
	if err != nil {
		return errors.Wrap(err, "scheduling appointment")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Appointment scheduled successfully", "appointment": appt})
}

func (api *teacherApi) messages(ctx echo.Context) error {
	ai, err := mustCtxIdentity(ctx)
	if err != nil {
		return err
	}

	msgs, err := api.msgSvc.ListFor(ctx.Request().Context(), ai.ID)
	if err != nil {
		return errors.Wrap(err, "listing messages")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Messages retrieved successfully", "messages": msgs})
}

func (api *teacherApi) markMessageRead(ctx echo.Context) error {
	ai, err := mustCtxIdentity(ctx)
	if err != nil {
		return err
	}

	msg, err := api.msgSvc.MarkRead(ctx.Request().Context(), ctx.Param("id"), ai.ID)
	if err != nil {
		return errors.Wrap(err, "marking message read")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Message marked as read", "readMessage": msg})
}
