package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError(errors.New("user not found"))
	ErrTeacherNotFound = core.NewNotFoundError(errors.New("teacher not found"))
	ErrStudentNotFound = core.NewNotFoundError(errors.New("student not found"))
	ErrEmailExists     = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		// CheckEmailUniqueness returns ErrEmailExists if any identity, whatever its role,
		// other than the excluded ones already uses email.
		CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error
		// CreateUser must return ErrEmailExists when the email is already taken.
		CreateUser(ctx context.Context, usr Identity) (Identity, error)
		GetUserByID(ctx context.Context, id string) (Identity, error)
		GetUserByEmail(ctx context.Context, email string) (Identity, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		FilterUsers(ctx context.Context, filter QueryFilter) ([]Identity, error)
		// UpdateUser saves every field of usr but ID, CreatedAt and RegisteredDate.
		UpdateUser(ctx context.Context, usr Identity) (Identity, error)
		DeleteUser(ctx context.Context, id string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		logger  core.Logger
	}
)

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, logger: logger}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, excludedIDs...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return errors.Wrap(err, "checking email uniqueness")
	}
	return nil
}

// Create registers a new identity with ni.Role.
// Students start unapproved; the approval flag is meaningless for the other roles.
func (svc *Service) Create(ctx context.Context, ni NewIdentity) (Identity, error) {
	ni.Clean()
	if err := svc.checkUniqueness(ctx, ni.Email); err != nil {
		return Identity{}, err
	}

	now := time.Now().UTC()
	usr := Identity{
		Name:           ni.Name,
		Email:          ni.Email,
		Role:           ni.Role,
		Department:     ni.Department,
		Subject:        ni.Subject,
		Age:            ni.Age,
		RegisteredDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := usr.SetPassword(ni.Password); err != nil {
		return Identity{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err == ErrEmailExists { // lost a race with a concurrent registration
		return Identity{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
	}
	return usr, err
}

func (svc *Service) GetByID(ctx context.Context, id string) (Identity, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Identity, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// GetByRole returns the identity with id only if it holds role.
func (svc *Service) GetByRole(ctx context.Context, id, role string) (Identity, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return Identity{}, roleNotFoundErr(role)
		}
		return Identity{}, err
	}
	if usr.Role != role {
		return Identity{}, roleNotFoundErr(role)
	}
	return usr, nil
}

func roleNotFoundErr(role string) error {
	switch role {
	case RoleTeacher:
		return ErrTeacherNotFound
	case RoleStudent:
		return ErrStudentNotFound
	default:
		return ErrNotFound
	}
}

// Authenticate finds the identity with email and role and checks its password.
// ok is false for unknown emails, other roles and wrong passwords alike.
func (svc *Service) Authenticate(ctx context.Context, email, pwd, role string) (usr Identity, ok bool, err error) {
	usr, err = svc.GetByEmail(ctx, email)
	if err != nil {
		if err == ErrNotFound {
			return Identity{}, false, nil
		}
		return Identity{}, false, errors.Wrap(err, "finding user by email")
	}
	if usr.Role != role || !usr.CheckPassword(pwd) {
		return Identity{}, false, nil
	}
	return usr, true, nil
}

// FindTeachers returns the teachers matching every set field of filter.
func (svc *Service) FindTeachers(ctx context.Context, filter TeacherFilter) ([]Identity, error) {
	filter.Clean()
	return svc.repo.FilterUsers(ctx, QueryFilter{
		Role:       RoleTeacher,
		Department: filter.Department,
		Subject:    filter.Subject,
	})
}

func (svc *Service) FindApprovedStudents(ctx context.Context) ([]Identity, error) {
	return svc.FindStudents(ctx, true)
}

func (svc *Service) FindStudents(ctx context.Context, approved bool) ([]Identity, error) {
	return svc.repo.FilterUsers(ctx, QueryFilter{Role: RoleStudent, IsApproved: &approved})
}

// Update applies the set fields of uu to the identity with id.
func (svc *Service) Update(ctx context.Context, id string, uu UpdateIdentity) (Identity, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return Identity{}, err
	}
	return svc.update(ctx, usr, uu)
}

func (svc *Service) update(ctx context.Context, usr Identity, uu UpdateIdentity) (Identity, error) {
	uu.Clean()
	if uu.Name != nil && *uu.Name == "" {
		return Identity{}, core.NewValidationError(nil, core.FieldError{Field: "name", Error: "this field cannot be blank"})
	}
	if uu.Email != nil && *uu.Email != usr.Email {
		if err := svc.checkUniqueness(ctx, *uu.Email, usr.ID); err != nil {
			return Identity{}, err
		}
	}
	uu.Apply(&usr)
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// UpdateTeacher is Update restricted to teachers.
func (svc *Service) UpdateTeacher(ctx context.Context, id string, uu UpdateIdentity) (Identity, error) {
	usr, err := svc.GetByRole(ctx, id, RoleTeacher)
	if err != nil {
		return Identity{}, err
	}
	return svc.update(ctx, usr, uu)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteUser(ctx, id)
}

// DeleteTeacher is Delete restricted to teachers; no other identity is ever deleted through the API.
func (svc *Service) DeleteTeacher(ctx context.Context, id string) error {
	if _, err := svc.GetByRole(ctx, id, RoleTeacher); err != nil {
		return err
	}
	return svc.Delete(ctx, id)
}

// ApproveStudent sets the student's approval flag. Approving twice is a no-op.
func (svc *Service) ApproveStudent(ctx context.Context, id string) (Identity, error) {
	usr, err := svc.GetByRole(ctx, id, RoleStudent)
	if err != nil {
		return Identity{}, err
	}
	if usr.IsApproved {
		return usr, nil
	}
	usr.IsApproved = true
	usr.UpdatedAt = time.Now().UTC()
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return Identity{}, err
	}
	svc.sendApprovedMail(ctx, usr)
	return usr, nil
}

// sendApprovedMail tells the student they may log in. A delivery failure does not undo the approval.
func (svc *Service) sendApprovedMail(ctx context.Context, usr Identity) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Your registration has been approved",
		TemplateName: "student_approved",
	}
	if err := svc.mailSvc.SendMessages(ctx, msg); err != nil {
		svc.logger.Warn("sending approval email", errors.Wrap(err, "sending approval email"), usr)
	}
}

func (svc *Service) SetPassword(ctx context.Context, id, pwd string) error {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}
