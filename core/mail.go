package core

import (
	"bytes"
	"context"
	"embed"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

var (
	//go:embed templates/email/*.txt
	templatesFS embed.FS

	templates tmplCache
	tmplErr   error
	tmplInit  sync.Once
)

type (
	tmplCache map[string]*texttmpl.Template // {name: *Template}

	EmailMessage struct {
		To      []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
	}

	ContextData struct {
		AppName string
		Name    string
		Data    interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages renders and sends messages, returning the first error met.
		SendMessages(ctx context.Context, messages ...*EmailMessage) error
	}
)

// Render fills TextContent from BodyStr or from the named template.
func (m *EmailMessage) Render(appName string) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	tmplInit.Do(parseTemplates) // only execute once during first render
	if tmplErr != nil {
		return tmplErr
	}
	tmpl, ok := templates[m.TemplateName]
	if !ok {
		return errors.Errorf("unknown email template %q", m.TemplateName)
	}

	var name string
	if len(m.To) > 0 {
		name = m.To[0].Name
	}
	var buff bytes.Buffer
	data := ContextData{AppName: appName, Name: name, Data: m.TemplateData}
	if err := tmpl.ExecuteTemplate(&buff, "base", data); err != nil {
		return errors.Wrapf(err, "rendering %q", m.TemplateName)
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent != "" }

func parseTemplates() {
	templates = make(tmplCache)

	dir := "templates/email"
	base := path.Join(dir, "_base.txt")
	entries, err := templatesFS.ReadDir(dir)
	if err != nil {
		tmplErr = errors.Wrap(err, "core.parseTemplates")
		return
	}
	for _, e := range entries {
		fname := e.Name()
		if strings.HasPrefix(fname, "_") || path.Ext(fname) != ".txt" {
			continue
		}
		tmpl, err := texttmpl.New(fname).Option("missingkey=error").ParseFS(templatesFS, base, path.Join(dir, fname))
		if err != nil {
			tmplErr = errors.Wrap(err, "core.parseTemplates")
			return
		}
		templates[strings.TrimSuffix(fname, ".txt")] = tmpl
	}
}
