package emailsvc

import (
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"github.com/simplesis/simplesis/core"
)

// consoleTransport writes messages to the logger as MIME text.
type consoleTransport struct {
	from    string
	prefix  string
	logger  core.Logger
	silent  bool
	nowFunc func() time.Time
}

// NewConsoleService prints emails instead of sending them; used in development.
func NewConsoleService(conf *core.Config, logger core.Logger) core.EmailService {
	return &dispatcher{conf: conf, logger: logger, tr: newConsoleTransport(conf, logger, false)}
}

// NewConsoleServiceMock records messages synchronously, without output. See PopSentMessages.
func NewConsoleServiceMock(conf *core.Config, logger core.Logger) core.EmailService {
	return &dispatcher{conf: conf, logger: logger, tr: newConsoleTransport(conf, logger, true), sync: true}
}

func newConsoleTransport(conf *core.Config, logger core.Logger, silent bool) consoleTransport {
	return consoleTransport{
		from:    conf.DefaultFromEmail.String(),
		prefix:  subjectPrefix(conf),
		logger:  logger,
		silent:  silent,
		nowFunc: core.NowFunc,
	}
}

func (tr consoleTransport) deliver(msg core.EmailMessage) error {
	outbox.Lock()
	outbox.messages = append(outbox.messages, msg)
	outbox.Unlock()

	if tr.silent {
		return nil
	}
	body, err := tr.format(msg)
	if err != nil {
		return err
	}
	tr.logger.Info(body)
	return nil
}

func (tr consoleTransport) format(msg core.EmailMessage) (string, error) {
	var body strings.Builder
	parts := multipart.NewWriter(&body)

	_, _ = fmt.Fprintf(&body, "From: %s\r\n", tr.from)
	_, _ = fmt.Fprintf(&body, "To: %s\r\n", joinAddresses(msg.To))
	_, _ = fmt.Fprintf(&body, "Subject: %s\r\n", tr.prefix+msg.Subject)
	_, _ = fmt.Fprintf(&body, "Date: %s\r\n", tr.nowFunc().Format(time.RFC1123Z))
	_, _ = fmt.Fprint(&body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(&body, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", parts.Boundary())

	contents := []struct{ typ, content string }{
		{"text/plain; charset=utf-8", msg.TextContent},
		{"text/html; charset=utf-8", msg.HTMLContent},
	}
	for _, c := range contents {
		if c.content == "" {
			continue
		}
		w, err := parts.CreatePart(textproto.MIMEHeader{"Content-Type": {c.typ}})
		if err != nil {
			return "", err
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", c.content)
	}
	if err := parts.Close(); err != nil {
		return "", err
	}
	return body.String(), nil
}
