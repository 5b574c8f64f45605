package message_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core/message"
	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/storage/database/inmem"
	"github.com/trezcool/ratiba/tests"
)

func setup(t *testing.T) (*message.Service, message.Repository, user.Identity, user.Identity) {
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	repo := inmemdb.NewMessageRepository(db)

	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", user.RoleStudent, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher, false)
	return message.NewService(repo, usrRepo), repo, student, teacher
}

func TestService_Send(t *testing.T) {
	svc, _, student, teacher := setup(t)
	ctx := context.Background()

	_, err := svc.Send(ctx, student.ID, message.NewMessage{RecipientID: "lol", Text: "Hi"})
	assert.Equal(t, message.ErrRecipientNotFound, err)

	msg, err := svc.Send(ctx, student.ID, message.NewMessage{RecipientID: " " + teacher.ID + " ", Text: "  Hi  "})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, student.ID, msg.SenderID)
	assert.Equal(t, teacher.ID, msg.RecipientID)
	assert.Equal(t, "Hi", msg.Text)
	assert.False(t, msg.IsRead)
}

func TestService_ListFor(t *testing.T) {
	svc, repo, student, teacher := setup(t)
	ctx := context.Background()
	now := time.Now()

	read := testutil.CreateMessage(t, repo, student.ID, teacher.ID, "read", true, now)
	older := testutil.CreateMessage(t, repo, student.ID, teacher.ID, "older", false, now.Add(-time.Hour))
	newer := testutil.CreateMessage(t, repo, "gone", teacher.ID, "newer", false, now.Add(-time.Minute))
	testutil.CreateMessage(t, repo, teacher.ID, student.ID, "reply", false, now)

	views, err := svc.ListFor(ctx, teacher.ID)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, []string{newer.ID, older.ID, read.ID}, []string{views[0].ID, views[1].ID, views[2].ID})
	assert.Nil(t, views[0].Sender)
	assert.Equal(t, &message.Sender{ID: student.ID, Name: "Student"}, views[1].Sender)

	views, err = svc.ListFor(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestService_MarkRead(t *testing.T) {
	svc, repo, student, teacher := setup(t)
	ctx := context.Background()
	msg := testutil.CreateMessage(t, repo, student.ID, teacher.ID, "Hi", false, time.Now().Add(-time.Hour))

	_, err := svc.MarkRead(ctx, "lol", teacher.ID)
	assert.Equal(t, message.ErrNotFound, err)

	_, err = svc.MarkRead(ctx, msg.ID, student.ID)
	assert.Equal(t, message.ErrNotRecipient, err)

	marked, err := svc.MarkRead(ctx, msg.ID, teacher.ID)
	require.NoError(t, err)
	assert.True(t, marked.IsRead)
	assert.True(t, marked.UpdatedAt.After(msg.UpdatedAt))

	again, err := svc.MarkRead(ctx, msg.ID, teacher.ID)
	require.NoError(t, err)
	assert.True(t, again.IsRead)
	assert.Equal(t, marked.UpdatedAt, again.UpdatedAt)
}

func TestSort(t *testing.T) {
	now := time.Now()
	views := []message.View{
		{ID: "read-new", IsRead: true, CreatedAt: now},
		{ID: "unread-old", CreatedAt: now.Add(-time.Hour)},
		{ID: "unread-new", CreatedAt: now},
		{ID: "read-old", IsRead: true, CreatedAt: now.Add(-time.Hour)},
	}
	message.Sort(views)

	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"unread-new", "unread-old", "read-new", "read-old"}, ids)
}
