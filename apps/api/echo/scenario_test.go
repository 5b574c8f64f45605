package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core/appointment"
	"github.com/trezcool/ratiba/core/message"
	"github.com/trezcool/ratiba/core/user"
)

// TestScenario drives a whole school term through the API only.
func TestScenario(t *testing.T) {
	app := setup(t)

	mustDo := func(wantCode int, method, path, token string, body string) *httptest.ResponseRecorder {
		t.Helper()
		var data []byte
		if body != "" {
			data = []byte(body)
		}
		rec := app.do(method, path, token, data)
		require.Equal(t, wantCode, rec.Code, "%s %s: %s", method, path, rec.Body.String())
		return rec
	}
	login := func(path, email string) string {
		t.Helper()
		var resp LoginResponse
		unmarshalBody(t, mustDo(http.StatusOK, http.MethodPost, path, "", `{"email": "`+email+`", "password": "pwd"}`), &resp)
		return resp.Token
	}

	// the admin registers and adds a teacher
	mustDo(http.StatusCreated, http.MethodPost, "/api/v1/admin/register", "", `{"name": "Admin", "email": "admin@test.cd", "password": "pwd"}`)
	adminToken := login("/api/v1/admin/login", "admin@test.cd")

	var added struct {
		Teacher user.Identity `json:"teacher"`
	}
	unmarshalBody(t, mustDo(http.StatusCreated, http.MethodPost, "/api/v1/admin/add-teacher", adminToken,
		`{"name": "Ms Curie", "email": "curie@test.cd", "password": "pwd", "department": "Science", "subject": "Chemistry"}`), &added)
	teacher := added.Teacher

	// a student registers but must wait for approval
	var registered struct {
		User user.Identity `json:"user"`
	}
	unmarshalBody(t, mustDo(http.StatusCreated, http.MethodPost, "/api/v1/student/register", "",
		`{"name": "Marie", "email": "marie@test.cd", "password": "pwd"}`), &registered)
	student := registered.User
	mustDo(http.StatusForbidden, http.MethodPost, "/api/v1/student/login", "", `{"email": "marie@test.cd", "password": "pwd"}`)

	var pending struct {
		Students []user.Identity `json:"students"`
	}
	unmarshalBody(t, mustDo(http.StatusOK, http.MethodGet, "/api/v1/admin/students?approved=false", adminToken, ""), &pending)
	require.Len(t, pending.Students, 1)
	assert.Equal(t, student.ID, pending.Students[0].ID)

	mustDo(http.StatusOK, http.MethodPost, "/api/v1/admin/approve-student/"+student.ID, adminToken, "")
	studentToken := login("/api/v1/student/login", "marie@test.cd")

	// the student finds the teacher, books and writes
	var found struct {
		Teachers []user.Identity `json:"teachers"`
	}
	unmarshalBody(t, mustDo(http.StatusOK, http.MethodGet, "/api/v1/student/search-teachers?subject=Chemistry", studentToken, ""), &found)
	require.Len(t, found.Teachers, 1)
	assert.Equal(t, teacher.ID, found.Teachers[0].ID)

	var booked struct {
		Appointment appointment.Appointment `json:"appointment"`
	}
	unmarshalBody(t, mustDo(http.StatusCreated, http.MethodPost, "/api/v1/student/book-appointment", studentToken,
		`{"teacherId": "`+teacher.ID+`", "appointmentDate": "2030-09-01T10:00:00Z", "purpose": "Lab safety"}`), &booked)
	mustDo(http.StatusCreated, http.MethodPost, "/api/v1/student/send-message", studentToken,
		`{"recipientId": "`+teacher.ID+`", "message": "See you on Monday"}`)

	// the teacher approves the booking and reads the message
	teacherToken := login("/api/v1/teachers/login", "curie@test.cd")

	var appts struct {
		Appointments []appointment.View `json:"appointments"`
	}
	unmarshalBody(t, mustDo(http.StatusOK, http.MethodGet, "/api/v1/teachers/booked-appointments", teacherToken, ""), &appts)
	require.Len(t, appts.Appointments, 1)
	assert.Equal(t, "Marie", appts.Appointments[0].Student.Name)

	mustDo(http.StatusOK, http.MethodPost, "/api/v1/teachers/approve-appointment/"+booked.Appointment.ID, teacherToken, "")
	mustDo(http.StatusConflict, http.MethodPost, "/api/v1/teachers/cancel-appointment/"+booked.Appointment.ID, teacherToken, "")

	var inbox struct {
		Messages []message.View `json:"messages"`
	}
	unmarshalBody(t, mustDo(http.StatusOK, http.MethodGet, "/api/v1/teachers/messages", teacherToken, ""), &inbox)
	require.Len(t, inbox.Messages, 1)
	assert.Equal(t, "Marie", inbox.Messages[0].Sender.Name)
	assert.False(t, inbox.Messages[0].IsRead)
	mustDo(http.StatusOK, http.MethodPost, "/api/v1/teachers/messages/"+inbox.Messages[0].ID+"/read", teacherToken, "")

	// the teacher schedules a follow-up
	mustDo(http.StatusCreated, http.MethodPost, "/api/v1/teachers/schedule-appointment", teacherToken,
		`{"studentId": "`+student.ID+`", "appointmentDate": "2030-09-08T10:00:00Z"}`)

	// the student sees both, the pending follow-up first
	unmarshalBody(t, mustDo(http.StatusOK, http.MethodGet, "/api/v1/student/appointments", studentToken, ""), &appts)
	require.Len(t, appts.Appointments, 2)
	assert.Equal(t, appointment.StatusPending, appts.Appointments[0].Status)
	assert.Equal(t, "New appointment", appts.Appointments[0].Purpose)
	assert.Equal(t, appointment.StatusApproved, appts.Appointments[1].Status)
	assert.Equal(t, "Ms Curie", appts.Appointments[1].Teacher.Name)

	// emails: approval, booking approved, follow-up scheduled
	assert.Len(t, app.mailSvc.SentMessages(), 3)

	// the admin removes the teacher; the student's history survives
	mustDo(http.StatusOK, http.MethodDelete, "/api/v1/admin/delete-teacher/"+teacher.ID, adminToken, "")
	mustDo(http.StatusNotFound, http.MethodGet, "/api/v1/teachers/me", teacherToken, "")
	unmarshalBody(t, mustDo(http.StatusOK, http.MethodGet, "/api/v1/student/appointments", studentToken, ""), &appts)
	require.Len(t, appts.Appointments, 2)
	assert.Nil(t, appts.Appointments[1].Teacher)

	// logging out ends the session
	mustDo(http.StatusOK, http.MethodPost, "/api/v1/student/logout", studentToken, "")
	mustDo(http.StatusUnauthorized, http.MethodGet, "/api/v1/student/me", studentToken, "")
}
