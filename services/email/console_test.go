package emailsvc

import (
	"context"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
)

func TestConsoleService_SendMessages(t *testing.T) {
	conf := &core.Config{AppName: "Ratiba", DefaultFromEmail: "noreply@ratiba.test"}
	svc := NewConsoleServiceMock(conf)
	to := []mail.Address{{Name: "Jane", Address: "jane@test.cd"}}

	err := svc.SendMessages(context.Background(),
		&core.EmailMessage{To: to, Subject: "Plain", BodyStr: "Hi"},
		&core.EmailMessage{Subject: "Nobody to send to", BodyStr: "Hi"},
		&core.EmailMessage{To: to, Subject: "Nothing to send"},
		&core.EmailMessage{To: to, Subject: "Approved", TemplateName: "student_approved"},
	)
	require.NoError(t, err)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "Plain", sent[0].Subject)
	assert.Equal(t, "Hi", sent[0].TextContent)
	assert.Equal(t, "Approved", sent[1].Subject)
	assert.Contains(t, sent[1].TextContent, "Hello Jane,")

	err = svc.SendMessages(context.Background(), &core.EmailMessage{To: to, TemplateName: "lol"})
	assert.Error(t, err)
	assert.Len(t, svc.SentMessages(), 2)
}

func Test_joinAddresses(t *testing.T) {
	addrs := []mail.Address{{Name: "Jane", Address: "jane@test.cd"}, {Address: "john@test.cd"}}
	assert.Equal(t, `"Jane" <jane@test.cd>, <john@test.cd>`, joinAddresses(addrs))
}
