package core

import (
	"bytes"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/simplesis/simplesis/fs"
)

const emailTemplatesDir = "templates/email"

type (
	// EmailMessage is rendered from the "<TemplateName>.txt" and "<TemplateName>.gohtml" email templates.
	EmailMessage struct {
		To           []mail.Address
		Subject      string
		TemplateName string // without ext
		TemplateData interface{}

		// set by Render
		TextContent string
		HTMLContent string
	}

	// EmailContext is the root value of every email template.
	EmailContext struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}

	emailTemplateSet struct {
		mu   sync.RWMutex
		text map[string]*texttmpl.Template
		html map[string]*htmltmpl.Template
	}
)

var emailTemplates emailTemplateSet

func (set *emailTemplateSet) get(name string) (*texttmpl.Template, *htmltmpl.Template) {
	set.mu.RLock()
	defer set.mu.RUnlock()
	return set.text[name], set.html[name]
}

// Render executes the message templates; a message needs at least the text template.
func (m *EmailMessage) Render(conf *Config) error {
	textTmpl, htmlTmpl := emailTemplates.get(m.TemplateName)
	if textTmpl == nil {
		return errors.Errorf("email template %q not found", m.TemplateName)
	}
	data := EmailContext{
		AppName:         conf.AppName,
		FrontendBaseURL: conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}

	var buf bytes.Buffer
	if err := textTmpl.Execute(&buf, data); err != nil {
		return errors.Wrapf(err, "rendering %s.txt", m.TemplateName)
	}
	m.TextContent = buf.String()

	if htmlTmpl != nil {
		buf.Reset()
		if err := htmlTmpl.Execute(&buf, data); err != nil {
			return errors.Wrapf(err, "rendering %s.gohtml", m.TemplateName)
		}
		m.HTMLContent = buf.String()
	}
	return nil
}

// Deliverable reports whether the message has somewhere to go and something to say.
func (m *EmailMessage) Deliverable() bool {
	return len(m.To) > 0 && (m.TextContent != "" || m.HTMLContent != "")
}

// ParseEmailTemplates parses the embedded email templates. Files starting with "_" are base layouts.
func ParseEmailTemplates(conf *Config, logger Logger) {
	text := make(map[string]*texttmpl.Template)
	html := make(map[string]*htmltmpl.Template)
	strict := conf.Debug || conf.TestMode

	fps, err := fs.Glob(appfs.FS, path.Join(emailTemplatesDir, "*"))
	if err != nil {
		logger.Error("parsing email templates", err)
		return
	}
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		ext := path.Ext(fname)
		name := strings.TrimSuffix(fname, ext)

		switch ext {
		case ".txt":
			tmpl, err := texttmpl.ParseFS(appfs.FS, path.Join(emailTemplatesDir, "_base.txt"), fp)
			if err != nil {
				logger.Error("parsing email template "+fname, err)
				continue
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			text[name] = tmpl
		case ".gohtml":
			tmpl, err := htmltmpl.ParseFS(appfs.FS, path.Join(emailTemplatesDir, "_base.gohtml"), fp)
			if err != nil {
				logger.Error("parsing email template "+fname, err)
				continue
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			html[name] = tmpl
		}
	}

	emailTemplates.mu.Lock()
	emailTemplates.text, emailTemplates.html = text, html
	emailTemplates.mu.Unlock()
}
