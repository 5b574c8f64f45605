package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/ratiba/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// passwordCost is the bcrypt cost used for new hashes.
var passwordCost = bcrypt.DefaultCost

type Identity struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   []byte    `json:"-"`
	Role           string    `json:"role"`
	Department     string    `json:"department,omitempty"`
	Subject        string    `json:"subject,omitempty"`
	Age            int       `json:"age,omitempty"`
	IsApproved     bool      `json:"isApproved"`
	RegisteredDate time.Time `json:"registeredDate"` // UTC
	CreatedAt      time.Time `json:"createdAt"`      // UTC
	UpdatedAt      time.Time `json:"updatedAt"`      // UTC
}

func (i *Identity) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), passwordCost)
	if err != nil {
		return err
	}
	i.PasswordHash = hash
	return nil
}

// CheckPassword reports whether pwd matches the stored hash.
func (i *Identity) CheckPassword(pwd string) bool {
	return bcrypt.CompareHashAndPassword(i.PasswordHash, []byte(pwd)) == nil
}

func (i *Identity) IsStudent() bool { return i.Role == RoleStudent }

// NewIdentity contains information needed to create a new Identity.
// Role is never bound from a request body: each registration endpoint sets it.
type NewIdentity struct {
	Name       string `json:"name" validate:"required,notblank"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	Department string `json:"department"`
	Subject    string `json:"subject"`
	Age        int    `json:"age" validate:"omitempty,min=0,max=150"`
	Role       string `json:"-"`
}

func (ni *NewIdentity) Clean() {
	ni.Name = core.CleanString(ni.Name)
	ni.Email = core.CleanString(ni.Email, true /* lower */)
	ni.Department = core.CleanString(ni.Department)
	ni.Subject = core.CleanString(ni.Subject)
}

// UpdateIdentity defines what information may be provided to modify an existing teacher.
// Nil fields are left untouched.
type UpdateIdentity struct {
	Name       *string `json:"name"` // may not be blank; checked once cleaned
	Email      *string `json:"email" validate:"omitempty,email"`
	Department *string `json:"department"`
	Subject    *string `json:"subject"`
	Age        *int    `json:"age" validate:"omitempty,min=0,max=150"`
}

func (ui *UpdateIdentity) Clean() {
	clean := func(s *string, lower bool) {
		if s != nil {
			*s = core.CleanString(*s, lower)
		}
	}
	clean(ui.Name, false)
	clean(ui.Email, true /* lower */)
	clean(ui.Department, false)
	clean(ui.Subject, false)
}

// Apply copies the set fields onto usr.
func (ui UpdateIdentity) Apply(usr *Identity) {
	if ui.Name != nil {
		usr.Name = *ui.Name
	}
	if ui.Email != nil {
		usr.Email = *ui.Email
	}
	if ui.Department != nil {
		usr.Department = *ui.Department
	}
	if ui.Subject != nil {
		usr.Subject = *ui.Subject
	}
	if ui.Age != nil {
		usr.Age = *ui.Age
	}
}

// TeacherFilter ANDs every non-empty field as an exact match.
type TeacherFilter struct {
	Department string `query:"department"`
	Subject    string `query:"subject"`
}

func (tf *TeacherFilter) Clean() {
	tf.Department = core.CleanString(tf.Department)
	tf.Subject = core.CleanString(tf.Subject)
}

// QueryFilter is what repositories filter identities on.
// Empty strings and nil pointers leave the field unconstrained.
type QueryFilter struct {
	Role       string
	Department string
	Subject    string
	IsApproved *bool
}

// Match reports whether usr satisfies every set field of the filter.
func (qf QueryFilter) Match(usr Identity) bool {
	if qf.Role != "" && usr.Role != qf.Role {
		return false
	}
	if qf.Department != "" && usr.Department != qf.Department {
		return false
	}
	if qf.Subject != "" && usr.Subject != qf.Subject {
		return false
	}
	if qf.IsApproved != nil && usr.IsApproved != *qf.IsApproved {
		return false
	}
	return true
}
