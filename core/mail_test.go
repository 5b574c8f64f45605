package core

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailMessage_Render(t *testing.T) {
	to := []mail.Address{{Name: "Jane", Address: "jane@test.cd"}}

	tests := []struct {
		name     string
		msg      EmailMessage
		want     string
		contains []string
		wantErr  bool
	}{
		{name: "empty", msg: EmailMessage{To: to}},
		{name: "plain body", msg: EmailMessage{To: to, BodyStr: "Hi"}, want: "Hi"},
		{name: "unknown template", msg: EmailMessage{To: to, TemplateName: "lol"}, wantErr: true},
		{
			name:     "student approved",
			msg:      EmailMessage{To: to, TemplateName: "student_approved"},
			contains: []string{"Hello Jane,", "Your registration has been approved.", "The Ratiba team"},
		},
		{
			name: "appointment status",
			msg: EmailMessage{To: to, TemplateName: "appointment_status", TemplateData: struct {
				TeacherName, Date, Purpose, Status string
			}{"Mr T", "Mon, 01 Jan 2030", "Exam", "approved"}},
			contains: []string{"Your appointment with Mr T on Mon, 01 Jan 2030 (Exam) has been approved."},
		},
		{name: "missing data", msg: EmailMessage{To: to, TemplateName: "appointment_status", TemplateData: map[string]string{}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Render("Ratiba")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.contains == nil {
				assert.Equal(t, tt.want, tt.msg.TextContent)
			}
			for _, s := range tt.contains {
				assert.Contains(t, tt.msg.TextContent, s)
			}
		})
	}
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Jane Doe", CleanString("  Jane Doe \n"))
	assert.Equal(t, "jane@test.cd", CleanString(" Jane@Test.CD ", true))
	assert.Equal(t, "Jane", CleanString("Jane", false))
}
