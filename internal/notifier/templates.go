package notifier

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"text/template"

	"github.com/good-yellow-bee/projectboard/internal/models"
)

//go:embed templates/*
var templateFS embed.FS

// Templates holds parsed email templates.
type Templates struct {
	html  *htmltemplate.Template
	plain *template.Template
}

// WelcomeData is the data passed to the welcome templates.
type WelcomeData struct {
	FirstName string
	FullName  string
	Email     string
}

// LoadTemplates parses the embedded templates.
func LoadTemplates() (*Templates, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/welcome.html")
	if err != nil {
		return nil, err
	}
	plain, err := template.ParseFS(templateFS, "templates/welcome.txt")
	if err != nil {
		return nil, err
	}
	return &Templates{html: html, plain: plain}, nil
}

// Welcome builds the welcome message for user.
func (t *Templates) Welcome(user *models.User) (*Message, error) {
	data := WelcomeData{
		FirstName: user.FirstName,
		FullName:  user.Name(),
		Email:     user.Email,
	}

	var html, plain bytes.Buffer
	if err := t.html.Execute(&html, data); err != nil {
		return nil, err
	}
	if err := t.plain.Execute(&plain, data); err != nil {
		return nil, err
	}

	return &Message{
		To:      []string{user.Email},
		Subject: "Welcome to Projectboard!",
		Plain:   plain.String(),
		HTML:    html.String(),
		Summary: "New sign-up: " + data.FullName + " <" + data.Email + ">",
	}, nil
}
