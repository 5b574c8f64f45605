package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSort(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2030, 5, d, 0, 0, 0, 0, time.UTC) }

	views := []View{
		{ID: "a", Status: StatusApproved, AppointmentDate: day(1)},
		{ID: "b", Status: StatusPending, AppointmentDate: day(9)},
		{ID: "c", Status: StatusCanceled, AppointmentDate: day(3)},
		{ID: "d", Status: StatusPending, AppointmentDate: day(2)},
		{ID: "f", Status: StatusPending, AppointmentDate: day(2)},
		{ID: "e", Status: StatusPending, AppointmentDate: day(2)},
	}
	Sort(views)

	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"d", "e", "f", "b", "a", "c"}, ids)
}

func TestLess(t *testing.T) {
	now := time.Now()
	pending := View{ID: "1", Status: StatusPending, AppointmentDate: now.Add(time.Hour)}
	resolved := View{ID: "2", Status: StatusApproved, AppointmentDate: now}

	assert.True(t, Less(pending, resolved))
	assert.False(t, Less(resolved, pending))
	assert.False(t, Less(pending, pending))
}

func TestAppointment_IsTerminal(t *testing.T) {
	assert.False(t, Appointment{Status: StatusPending}.IsTerminal())
	assert.True(t, Appointment{Status: StatusApproved}.IsTerminal())
	assert.True(t, Appointment{Status: StatusCanceled}.IsTerminal())
}

func TestNewSchedule_Clean(t *testing.T) {
	loc := time.FixedZone("WAT", 3600)
	ns := NewSchedule{StudentID: " 42 ", AppointmentDate: time.Date(2030, 1, 1, 10, 0, 0, 0, loc), Purpose: "  "}
	ns.Clean()

	assert.Equal(t, "42", ns.StudentID)
	assert.Equal(t, defaultSchedulePurpose, ns.Purpose)
	assert.Equal(t, time.UTC, ns.AppointmentDate.Location())
	assert.Equal(t, 9, ns.AppointmentDate.Hour())
}
