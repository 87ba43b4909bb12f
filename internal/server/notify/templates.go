package notify

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

type messageTemplate struct {
	subject string
	body    *template.Template
}

// Templates renders notification bodies.
type Templates struct {
	product  string
	loginURL string
	loc      *time.Location
	byKind   map[models.NotificationKind]messageTemplate
}

const welcomeBody = `Hola {{.Name}},

Tu pago fue confirmado. Ya tienes acceso a {{.Product}}.

Correo: {{.Email}}
Código de acceso: {{.Code}}
Vigente hasta: {{.ExpiresAt}}

Ingresa en {{.LoginURL}}
`

const warningBody = `Hola {{.Name}},

Tu acceso a {{.Product}} vence en {{.DaysLeft}} {{if eq .DaysLeft 1}}día{{else}}días{{end}} ({{.ExpiresAt}}).
Renueva tu acceso para no perder tu avance.
`

const renewalBody = `Hola {{.Name}},

Tu acceso a {{.Product}} fue renovado.

Nuevo código de acceso: {{.Code}}
Vigente hasta: {{.ExpiresAt}}
`

const resendBody = `Hola {{.Name}},

Tu código de acceso a {{.Product}} es {{.Code}}.
Vigente hasta: {{.ExpiresAt}}

Ingresa en {{.LoginURL}}
`

// NewTemplates parses the built-in message set. Dates are shown in loc.
func NewTemplates(product, loginURL string, loc *time.Location) (*Templates, error) {
	if loc == nil {
		loc = time.UTC
	}
	t := &Templates{product: product, loginURL: loginURL, loc: loc, byKind: map[models.NotificationKind]messageTemplate{}}

	defs := []struct {
		kind    models.NotificationKind
		subject string
		body    string
	}{
		{models.NotifyWelcome, "Tu código de acceso", welcomeBody},
		{models.NotifyExpirationWarning, "Tu acceso está por vencer", warningBody},
		{models.NotifyRenewal, "Acceso renovado", renewalBody},
		{models.NotifyResend, "Tu código de acceso", resendBody},
	}
	for _, d := range defs {
		body, err := template.New(string(d.kind)).Option("missingkey=error").Parse(d.body)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", d.kind, err)
		}
		t.byKind[d.kind] = messageTemplate{subject: d.subject, body: body}
	}
	return t, nil
}

// Render builds the message of the given kind for acct.
func (t *Templates) Render(kind models.NotificationKind, acct *models.Account, daysLeft int) (Message, error) {
	mt, ok := t.byKind[kind]
	if !ok {
		return Message{}, fmt.Errorf("no template for %q", kind)
	}

	name := acct.Name
	if name == "" {
		name = acct.Email
	}
	data := struct {
		Name, Email, Code, Product, LoginURL, ExpiresAt string
		DaysLeft                                        int
	}{
		Name:      name,
		Email:     acct.Email,
		Code:      acct.Credential,
		Product:   t.product,
		LoginURL:  t.loginURL,
		ExpiresAt: acct.ExpiresAt.In(t.loc).Format("02/01/2006"),
		DaysLeft:  daysLeft,
	}

	var buf bytes.Buffer
	if err := mt.body.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", kind, err)
	}
	return Message{Subject: mt.subject, Body: buf.String()}, nil
}
