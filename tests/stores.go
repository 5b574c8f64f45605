package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/appointment"
	"github.com/trezcool/ratiba/core/message"
	"github.com/trezcool/ratiba/core/user"
)

// LookupURL returns the value of the environment variable key or skips the test when it is unset.
func LookupURL(t *testing.T, key string) string {
	url := os.Getenv(key)
	if url == "" {
		t.Skipf("%s not set", key)
	}
	return url
}

// RunUserRepositoryTests checks the contract every user.Repository must honor.
// repo must be empty.
func RunUserRepositoryTests(t *testing.T, repo user.Repository) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	first := CreateUser(t, repo, "First", "first@test.cd", "pwd", user.RoleTeacher, false, now.Add(-time.Hour))
	second := CreateUser(t, repo, "Second", "second@test.cd", "", user.RoleStudent, true, now)

	// emails are unique across roles, case insensitive
	assert.Equal(t, user.ErrEmailExists, repo.CheckEmailUniqueness(ctx, first.Email))
	assert.NoError(t, repo.CheckEmailUniqueness(ctx, first.Email, first.ID))
	assert.NoError(t, repo.CheckEmailUniqueness(ctx, "new@test.cd"))
	_, err := repo.CreateUser(ctx, user.Identity{
		Name: "Dup", Email: first.Email, Role: user.RoleAdmin,
		RegisteredDate: now, CreatedAt: now, UpdatedAt: now,
	})
	assert.Equal(t, user.ErrEmailExists, err)

	got, err := repo.GetUserByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Email, got.Email)
	assert.True(t, got.CheckPassword("pwd"))
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

	got, err = repo.GetUserByEmail(ctx, second.Email)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.True(t, got.IsApproved)

	_, err = repo.GetUserByID(ctx, "lol")
	assert.Equal(t, user.ErrNotFound, err)
	_, err = repo.GetUserByEmail(ctx, "lol@test.cd")
	assert.Equal(t, user.ErrNotFound, err)

	approved := true
	for _, tt := range []struct {
		name   string
		filter user.QueryFilter
		want   []string
	}{
		{name: "all, oldest first", filter: user.QueryFilter{}, want: []string{first.ID, second.ID}},
		{name: "by role", filter: user.QueryFilter{Role: user.RoleTeacher}, want: []string{first.ID}},
		{name: "approved", filter: user.QueryFilter{Role: user.RoleStudent, IsApproved: &approved}, want: []string{second.ID}},
		{name: "no match", filter: user.QueryFilter{Role: user.RoleAdmin}, want: []string{}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			users, err := repo.FilterUsers(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(users))
			for _, usr := range users {
				ids = append(ids, usr.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	upd := first
	upd.Email = second.Email
	_, err = repo.UpdateUser(ctx, upd)
	assert.Equal(t, user.ErrEmailExists, err)

	upd = first
	upd.Name = "Renamed"
	upd.Department = "Science"
	got, err = repo.UpdateUser(ctx, upd)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "Science", got.Department)

	teachers, err := repo.FilterUsers(ctx, user.QueryFilter{Role: user.RoleTeacher, Department: "Science"})
	require.NoError(t, err)
	assert.Len(t, teachers, 1)

	require.NoError(t, repo.DeleteUser(ctx, first.ID))
	assert.Equal(t, user.ErrNotFound, repo.DeleteUser(ctx, first.ID))
	assert.NoError(t, repo.CheckEmailUniqueness(ctx, first.Email))
}

// RunAppointmentRepositoryTests checks the contract every appointment.Repository must honor.
// studentID and teacherID must be valid identifiers for the store under test.
func RunAppointmentRepositoryTests(t *testing.T, repo appointment.Repository, studentID, teacherID, otherID string) {
	ctx := context.Background()
	date := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Millisecond)

	appt := CreateAppointment(t, repo, studentID, teacherID, "Exam", appointment.StatusPending, date)
	CreateAppointment(t, repo, otherID, teacherID, "Project", appointment.StatusPending, date.Add(time.Hour))
	CreateAppointment(t, repo, studentID, otherID, "Thesis", appointment.StatusPending, date.Add(-time.Hour))

	got, err := repo.GetAppointmentByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Exam", got.Purpose)
	assert.Equal(t, studentID, got.StudentID)
	assert.Equal(t, teacherID, got.TeacherID)
	assert.True(t, date.Equal(got.AppointmentDate))

	for _, tt := range []struct {
		filter appointment.QueryFilter
		want   int
	}{
		{filter: appointment.QueryFilter{}, want: 3},
		{filter: appointment.QueryFilter{StudentID: studentID}, want: 2},
		{filter: appointment.QueryFilter{TeacherID: teacherID}, want: 2},
		{filter: appointment.QueryFilter{StudentID: studentID, TeacherID: teacherID}, want: 1},
	} {
		appts, err := repo.FilterAppointments(ctx, tt.filter)
		require.NoError(t, err)
		assert.Len(t, appts, tt.want, "%+v", tt.filter)
	}

	at := time.Now().Add(time.Minute).UTC().Truncate(time.Millisecond)
	_, err = repo.TransitionAppointment(ctx, appt.ID, otherID, appointment.StatusPending, appointment.StatusApproved, at)
	assert.Equal(t, appointment.ErrNotPending, err)

	got, err = repo.TransitionAppointment(ctx, appt.ID, teacherID, appointment.StatusPending, appointment.StatusApproved, at)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusApproved, got.Status)
	assert.True(t, at.Equal(got.UpdatedAt))

	_, err = repo.TransitionAppointment(ctx, appt.ID, teacherID, appointment.StatusPending, appointment.StatusCanceled, at)
	assert.Equal(t, appointment.ErrNotPending, err)

	_, err = repo.GetAppointmentByID(ctx, "lol")
	assert.Equal(t, appointment.ErrNotFound, err)

	now := time.Now().UTC()
	booked, err := repo.CreateAppointment(ctx, appointment.Appointment{
		StudentID: studentID, TeacherID: "not-an-id", AppointmentDate: date,
		Purpose: "Exam", Status: appointment.StatusPending, CreatedAt: now, UpdatedAt: now,
	})
	checkForeignKey(t, err, "teacherId", "not-an-id", booked.TeacherID)

	scheduled, err := repo.CreateAppointment(ctx, appointment.Appointment{
		StudentID: "not-an-id", TeacherID: teacherID, AppointmentDate: date,
		Purpose: "Exam", Status: appointment.StatusPending, CreatedAt: now, UpdatedAt: now,
	})
	checkForeignKey(t, err, "studentId", "not-an-id", scheduled.StudentID)
}

// RunMessageRepositoryTests checks the contract every message.Repository must honor.
func RunMessageRepositoryTests(t *testing.T, repo message.Repository, senderID, recipientID, otherID string) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	msg := CreateMessage(t, repo, senderID, recipientID, "Hi", false, now)
	CreateMessage(t, repo, senderID, otherID, "Hi", false, now)

	msgs, err := repo.FilterMessagesByRecipient(ctx, recipientID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, msg.ID, msgs[0].ID)
	assert.Equal(t, senderID, msgs[0].SenderID)
	assert.Equal(t, "Hi", msgs[0].Text)

	got, err := repo.GetMessageByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.False(t, got.IsRead)

	at := now.Add(time.Minute)
	_, err = repo.MarkMessageRead(ctx, msg.ID, otherID, at)
	assert.Equal(t, message.ErrNotFound, err)

	got, err = repo.MarkMessageRead(ctx, msg.ID, recipientID, at)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	assert.True(t, at.Equal(got.UpdatedAt))

	// already read
	got, err = repo.MarkMessageRead(ctx, msg.ID, recipientID, at.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, at.Equal(got.UpdatedAt))

	_, err = repo.GetMessageByID(ctx, "lol")
	assert.Equal(t, message.ErrNotFound, err)

	sent, err := repo.CreateMessage(ctx, message.Message{
		SenderID: senderID, RecipientID: "not-an-id", Text: "Hi", CreatedAt: now, UpdatedAt: now,
	})
	checkForeignKey(t, err, "recipientId", "not-an-id", sent.RecipientID)
}

// checkForeignKey asserts a written reference was either kept exactly as sent
// or rejected with a validation error on its field. It is never rewritten.
func checkForeignKey(t *testing.T, err error, field, want, got string) {
	t.Helper()
	if err == nil {
		assert.Equal(t, want, got)
		return
	}
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "unexpected error: %v", err)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, field, vErr.Fields[0].Field)
}
