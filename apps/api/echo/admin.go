package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/user"
)

var (
	errNoTeachers = core.NewNotFoundError(errors.New("No teachers found"))
	errNoStudents = core.NewNotFoundError(errors.New("No registered students found"))
)

type adminApi struct {
	*Server
	svc *user.Service
}

func registerAdminAPI(g *echo.Group, s *Server, jwt echo.MiddlewareFunc) {
	api := adminApi{Server: s, svc: s.deps.UserSvc}

	ag := g.Group("/admin")

	// un-authed endpoints
	ag.POST("/register", api.register)
	ag.POST("/login", s.login(user.RoleAdmin))

	// authed endpoints
	pg := ag.Group("", jwt, s.authenticate, requireRole(user.RoleAdmin))
	pg.POST("/add-teacher", api.addTeacher)
	pg.PUT("/update-teacher/:id", api.updateTeacher)
	pg.DELETE("/delete-teacher/:id", api.deleteTeacher)
	pg.GET("/teachers", api.teachers)
	pg.POST("/approve-student/:id", api.approveStudent)
	pg.GET("/students", api.students)
	pg.POST("/logout", s.logout)
}

// create validates data and registers it with role.
func (api *adminApi) create(ctx echo.Context, role string) (user.Identity, error) {
	var data user.NewIdentity
	if err := ctx.Bind(&data); err != nil {
		return user.Identity{}, errors.Wrap(err, "binding to NewIdentity")
	}
	data.Clean()
	if err := api.deps.Validate.Struct(&data); err != nil {
		return user.Identity{}, err
	}
	data.Role = role

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	return usr, errors.Wrap(err, "creating "+role)
}

func (api *adminApi) register(ctx echo.Context) error {
	usr, err := api.create(ctx, user.RoleAdmin)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Admin registered successfully", "admin": usr})
}

func (api *adminApi) addTeacher(ctx echo.Context) error {
	usr, err := api.create(ctx, user.RoleTeacher)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Teacher added successfully", "teacher": usr})
}

func (api *adminApi) updateTeacher(ctx echo.Context) error {
	var data user.UpdateIdentity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateIdentity")
	}
	data.Clean()
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	usr, err := api.svc.UpdateTeacher(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Teacher updated successfully", "teacher": usr})
}

func (api *adminApi) deleteTeacher(ctx echo.Context) error {
	if err := api.svc.DeleteTeacher(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Teacher deleted successfully"})
}

func (api *adminApi) teachers(ctx echo.Context) error {
	teachers, err := api.svc.FindTeachers(ctx.Request().Context(), user.TeacherFilter{})
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	if len(teachers) == 0 {
		return errNoTeachers
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Teachers retrieved successfully", "teachers": teachers})
}

func (api *adminApi) approveStudent(ctx echo.Context) error {
	usr, err := api.svc.ApproveStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving student")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Student registration approved", "student": usr})
}

// students lists approved students, or the ones awaiting approval with `?approved=false`.
func (api *adminApi) students(ctx echo.Context) error {
	approved := true
	if q := ctx.QueryParam("approved"); q != "" {
		b, err := strconv.ParseBool(q)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "approved", Error: "must be true or false"})
		}
		approved = b
	}

	students, err := api.svc.FindStudents(ctx.Request().Context(), approved)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if len(students) == 0 {
		return errNoStudents
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Registered students retrieved successfully", "students": students})
}
