package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/appointment"
	"github.com/trezcool/ratiba/core/message"
	"github.com/trezcool/ratiba/core/user"
)

type studentApi struct {
	*Server
	usrSvc  *user.Service
	apptSvc *appointment.Service
	msgSvc  *message.Service
}

func registerStudentAPI(g *echo.Group, s *Server, jwt echo.MiddlewareFunc) {
	api := studentApi{
		Server:  s,
		usrSvc:  s.deps.UserSvc,
		apptSvc: s.deps.AppointmentSvc,
		msgSvc:  s.deps.MessageSvc,
	}

	sg := g.Group("/student")

	// un-authed endpoints
	sg.POST("/register", api.register)
	sg.POST("/login", s.login(user.RoleStudent))

	// authed endpoints
	pg := sg.Group("", jwt, s.authenticate, requireRole(user.RoleStudent))
	pg.GET("/me", me)
	pg.GET("/search-teachers", api.searchTeachers)
	pg.POST("/book-appointment", api.bookAppointment)
	pg.GET("/appointments", api.appointments)
	pg.POST("/send-message", api.sendMessage)
	pg.POST("/logout", s.logout)
}

func (api *studentApi) register(ctx echo.Context) error {
	var data user.NewIdentity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewIdentity")
	}
	data.Clean()
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}
	data.Role = user.RoleStudent

	usr, err := api.usrSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Student registered successfully", "user": usr})
}

// me returns the acting identity; shared by every role.
func me(ctx echo.Context) error {
	ai, err := mustCtxIdentity(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Profile retrieved successfully", "user": ai.Identity})
}

func (api *studentApi) searchTeachers(ctx echo.Context) error {
	var filter user.TeacherFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to TeacherFilter")
	}

	teachers, err := api.usrSvc.FindTeachers(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "searching teachers")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Teachers retrieved successfully", "teachers": teachers})
}

func (api *studentApi) bookAppointment(ctx echo.Context) error {
	ai, err := mustCtxIdentity(ctx)
	if err != nil {
		return err
	}

	var data appointment.NewBooking
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBooking")
	}
	data.Clean()
	if err = api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	appt, err := api.apptSvc.Book(ctx.Request().Context(), ai.ID, data)
	if err != nil {
		return errors.Wrap(err, "booking appointment")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Appointment booked successfully", "appointment": appt})
}

func (api *studentApi) appointments(ctx echo.Context) error {
	ai, err := mustCtxIdentity(ctx)
	if err != nil {
		return err
	}

	appts, err := api.apptSvc.ListForStudent(ctx.Request().Context(), ai.ID)
	if err != nil {
		return errors.Wrap(err, "listing appointments")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Appointments retrieved successfully", "appointments": appts})
}

func (api *studentApi) sendMessage(ctx echo.Context) error {
	ai, err := mustCtxIdentity(ctx)
	if err != nil {
		return err
	}

	var data message.NewMessage
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	data.Clean()
	if err = api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	msg, err := api.msgSvc.Send(ctx.Request().Context(), ai.ID, data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Message sent successfully", "newMessage": msg})
}
