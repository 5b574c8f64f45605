package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/user"
	emailsvc "github.com/trezcool/ratiba/services/email"
	"github.com/trezcool/ratiba/storage/database"
	"github.com/trezcool/ratiba/tests"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	conf := testutil.NewConfig()

	// set up DB & repos
	stores := database.OpenMemory()
	t.Cleanup(func() { _ = stores.Close() })
	usrRepo = stores.Users

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	// start CLI
	return &commandLine{
		usrSvc:   user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(conf), testutil.NewLogger(conf)),
		validate: validate,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func checkErr(t *testing.T, tt cliTest, err error) {
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}
}

func Test_commandLine_createAdmin(t *testing.T) {
	cli := setup(t)
	testutil.CreateUser(t, usrRepo, "Student", "taken@test.cd", "pwd", user.RoleStudent, false)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"createadmin"}, wantErr: errHelp},
		{name: "no email", args: []string{"createadmin", "-name", "Boss"}, wantErr: errHelp},
		{name: "no password", args: []string{"createadmin", "-name", "Boss", "-email", "boss@test.cd"}, wantErr: errHelp},
		{
			name: "invalid email", args: []string{"createadmin", "-name", "Boss", "-email", "lol"},
			extra: extra{pwd: "pwd"}, wantErrStr: "Key: 'NewIdentity.email' Error:Field validation for 'email' failed on the 'email' tag",
		},
		{
			name: "email taken by another role", args: []string{"createadmin", "-name", "Boss", "-email", "TAKEN@test.cd"},
			extra: extra{pwd: "pwd"}, wantErrStr: user.ErrEmailExists.Error(),
		},
		{name: "created", args: []string{"createadmin", "-name", "Boss", "-email", " Boss@Test.cd "}, extra: extra{pwd: "pwd"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd := ""
		if e, ok := tt.extra.(extra); ok {
			pwd = e.pwd
		}
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	admin, err := usrRepo.GetUserByEmail(context.Background(), "boss@test.cd")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, admin.Role)
	assert.Equal(t, "Boss", admin.Name)
	assert.True(t, admin.CheckPassword("pwd"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "User", "awe@test.cd", "mdr", user.RoleTeacher, false)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol@test.cd"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.cd"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", usr.Email}, extra: extra{pwd: "lol"}},
		{name: "reset with mixed-case email", args: []string{"resetpassword", "-email", "AWE@test.cd"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		pwd := ""
		if e, ok := tt.extra.(extra); ok {
			pwd = e.pwd
		}
		mockPassword(pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			checkErr(t, tt, err)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUserByID(context.Background(), usr.ID)
				require.NoError(t, err)
				assert.False(t, bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash), "failed to update new password")
				assert.True(t, refreshedUsr.CheckPassword(pwd))
			}
		})
	}
}

func Test_commandLine_approveStudent(t *testing.T) {
	cli := setup(t)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "pwd", user.RoleStudent, false)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "pwd", user.RoleTeacher, false)

	tests := []cliTest{
		{name: "no args", args: []string{"approvestudent"}, wantErr: errHelp},
		{name: "user not found", args: []string{"approvestudent", "-email", "lol@test.cd"}, wantErr: user.ErrNotFound},
		{name: "not a student", args: []string{"approvestudent", "-email", teacher.Email}, wantErr: user.ErrStudentNotFound},
		{name: "approved", args: []string{"approvestudent", "-email", student.Email}},
		{name: "approved twice", args: []string{"approvestudent", "-email", student.Email}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	refreshed, err := usrRepo.GetUserByID(context.Background(), student.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.IsApproved)
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no migrations configured", args: []string{"migrate", "up"}, wantErr: errNoMigrations},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}

	var ran []string
	cli.migrate = func(command string, version int64) error {
		switch command {
		case "up", "up-by-one", "up-to", "down", "down-to", "redo":
			ran = append(ran, fmt.Sprintf("%s:%d", command, version))
			return nil
		default:
			return fmt.Errorf("%q: no such command", command)
		}
	}

	tests = []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: migrate up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: migrate down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}
	assert.Equal(t, []string{"up:0", "up-by-one:0", "up-to:2", "down:0", "down-to:1", "redo:0"}, ran)
}
