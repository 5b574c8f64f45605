package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/appointment"
	"github.com/trezcool/ratiba/core/message"
	"github.com/trezcool/ratiba/core/user"
	logsvc "github.com/trezcool/ratiba/services/logger"
)

// NewConfig returns the configuration tests run with.
func NewConfig() *core.Config {
	return &core.Config{
		Env:                "TEST",
		Build:              "test",
		TestMode:           true,
		AppName:            "Ratiba",
		SecretKey:          "test-secret",
		JWTExpirationDelta: 24 * time.Hour,
		DatabaseURL:        "memory://",
		DefaultFromEmail:   "noreply@ratiba.test",
		Server: core.ServerConfig{
			Address:         ":0",
			ShutdownTimeout: time.Second,
		},
	}
}

// NewLogger returns a logger that writes nowhere and never reports.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isApproved bool,
	createdAt ...time.Time,
) user.Identity {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.Identity{
		Name:           name,
		Email:          email,
		Role:           role,
		IsApproved:     isApproved,
		RegisteredDate: tstamp,
		CreatedAt:      tstamp,
		UpdatedAt:      tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateTeacher(t *testing.T, repo user.Repository, name, email, department, subject string) user.Identity {
	usr := CreateUser(t, repo, name, email, "pwd", user.RoleTeacher, false)
	usr.Department = department
	usr.Subject = subject
	usr, err := repo.UpdateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return usr
}

func CreateAppointment(
	t *testing.T,
	repo appointment.Repository,
	studentID, teacherID, purpose, status string,
	date time.Time,
) appointment.Appointment {
	now := time.Now().UTC()
	appt, err := repo.CreateAppointment(context.Background(), appointment.Appointment{
		StudentID:       studentID,
		TeacherID:       teacherID,
		AppointmentDate: date.UTC(),
		Purpose:         purpose,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreateAppointment() failed: %v", err)
	}
	return appt
}

func CreateMessage(
	t *testing.T,
	repo message.Repository,
	senderID, recipientID, text string,
	isRead bool,
	createdAt ...time.Time,
) message.Message {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	msg, err := repo.CreateMessage(context.Background(), message.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Text:        text,
		IsRead:      isRead,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("CreateMessage() failed: %v", err)
	}
	return msg
}
