package emailsvc

import (
	"net/mail"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/simplesis/simplesis/core"
	"github.com/simplesis/simplesis/services/logger"
)

func TestConsoleTransport_format(t *testing.T) {
	conf := core.NewTestConfig()
	tr := newConsoleTransport(conf, logsvc.NewRollbarLogger(zap.NewNop(), conf), false)
	tr.nowFunc = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }

	body, err := tr.format(core.EmailMessage{
		To:          []mail.Address{{Name: "Jane", Address: "jane@test.au"}},
		Subject:     "Hello",
		TextContent: "plain body",
	})
	require.NoError(t, err)
	assert.Contains(t, body, `To: "Jane" <jane@test.au>`)
	assert.Contains(t, body, "Subject: ["+conf.AppName+"] Hello")
	assert.Contains(t, body, "Date: Fri, 01 Mar 2024 09:00:00 +0000")
	assert.Contains(t, body, "plain body")
	assert.NotContains(t, body, "text/html")
}

func TestSendgridTransport_build(t *testing.T) {
	conf := core.NewTestConfig()
	tr := sendgridTransport{prefix: subjectPrefix(conf)}

	m := tr.build(core.EmailMessage{
		To:          []mail.Address{{Address: "a@test.au"}, {Address: "b@test.au"}},
		Subject:     "Reset",
		TextContent: "text",
		HTMLContent: "<p>html</p>",
	})
	require.Len(t, m.Personalizations, 1)
	assert.Len(t, m.Personalizations[0].To, 2)
	assert.Equal(t, "["+conf.AppName+"] Reset", m.Personalizations[0].Subject)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/html", m.Content[1].Type)
}

func TestDispatcher_skipsUndeliverable(t *testing.T) {
	conf := core.NewTestConfig()
	lgr := logsvc.NewRollbarLogger(zap.NewNop(), conf)
	core.ParseEmailTemplates(conf, lgr)
	svc := NewConsoleServiceMock(conf, lgr)
	PopSentMessages()

	svc.SendMessages(
		&core.EmailMessage{Subject: "nobody", TemplateName: "password_reset", TemplateData: map[string]string{"Name": "x", "UID": "u", "Token": "t"}},
		&core.EmailMessage{To: []mail.Address{{Address: "a@test.au"}}, TemplateName: "does_not_exist"},
	)
	assert.Empty(t, PopSentMessages())
}
