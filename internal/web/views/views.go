// Package views renders the HTML pages of the web UI as templ components.
package views

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/good-yellow-bee/projectboard/internal/models"
	"github.com/good-yellow-bee/projectboard/internal/projects"
	"github.com/good-yellow-bee/projectboard/internal/web/session"
)

// Data is everything a page may show. The layout reads the first block;
// pages pick what they need from the rest.
type Data struct {
	Title     string
	User      *models.User
	Flash     *session.Flash
	CSRFToken string
	Now       time.Time

	Project  *models.Project
	Projects []*models.Project
	Owner    *models.User
	Tasks    []*models.Task
	Notes    []*models.Note
	Term     string
	Late     bool

	Errors []string
	Form   map[string]string
}

// markup writes HTML to w and keeps the first write error.
type markup struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (m *markup) raw(s string) {
	if m.err == nil {
		_, m.err = io.WriteString(m.w, s)
	}
}

// text writes s HTML-escaped. It is also safe inside quoted attributes.
func (m *markup) text(s string) {
	m.raw(templ.EscapeString(s))
}

// href writes a sanitized URL for an href or action attribute.
func (m *markup) href(url string) {
	m.text(string(templ.URL(url)))
}

func (m *markup) render(c templ.Component) {
	if m.err == nil {
		m.err = c.Render(m.ctx, m.w)
	}
}

// component adapts a markup-writing body into a templ.Component.
func component(body func(m *markup)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		m := &markup{ctx: ctx, w: w}
		body(m)
		return m.err
	})
}

// page renders content inside the layout.
func page(d Data, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Layout(d).Render(templ.WithChildren(ctx, content), w)
	})
}

func date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(models.DateLayout)
}

func count(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}

var projectPath = projects.ProjectPath
