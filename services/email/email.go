package emailsvc

import (
	"net/mail"
	"strings"
	"sync"

	"github.com/simplesis/simplesis/core"
)

// transport delivers one rendered message.
type transport interface {
	deliver(msg core.EmailMessage) error
}

// dispatcher renders messages and hands them to a transport, one goroutine per message unless sync is set.
type dispatcher struct {
	conf   *core.Config
	logger core.Logger
	tr     transport
	sync   bool
}

var _ core.EmailService = (*dispatcher)(nil)

func (d *dispatcher) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if d.sync {
			d.send(msg)
			continue
		}
		go d.send(msg)
	}
}

func (d *dispatcher) send(msg *core.EmailMessage) {
	if err := msg.Render(d.conf); err != nil {
		d.logger.Error("rendering email", err, map[string]interface{}{"template": msg.TemplateName})
		return
	}
	if !msg.Deliverable() {
		return
	}
	if err := d.tr.deliver(*msg); err != nil {
		d.logger.Error("sending email", err, map[string]interface{}{"to": joinAddresses(msg.To)})
	}
}

func subjectPrefix(conf *core.Config) string {
	return "[" + conf.AppName + "] "
}

func joinAddresses(addrs []mail.Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}

// outbox keeps a copy of every message delivered by the console transport.
var outbox struct {
	sync.Mutex
	messages []core.EmailMessage
}

// PopSentMessages returns and clears the messages recorded so far.
func PopSentMessages() []core.EmailMessage {
	outbox.Lock()
	defer outbox.Unlock()
	msgs := outbox.messages
	outbox.messages = nil
	return msgs
}
