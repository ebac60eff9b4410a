package views

import (
	"github.com/a-h/templ"

	"github.com/good-yellow-bee/projectboard/internal/models"
)

// Home is the dashboard for signed-in users and the landing page for guests.
func Home(d Data) templ.Component {
	return page(d, component(func(m *markup) {
		if d.User == nil {
			m.raw("<h1>Welcome to Projectboard</h1>\n")
			m.raw("<p>Keep track of projects, tasks and notes.</p>\n")
			m.raw("<p><a class=\"button\" href=\"/users/sign_up\">Sign up</a> or <a href=\"/users/sign_in\">sign in</a>.</p>\n")
			return
		}

		m.raw("<h1>Your projects</h1>\n")
		if len(d.Projects) == 0 {
			m.raw("<p>You have no projects yet.</p>\n")
		} else {
			m.raw("<ul class=\"project-list\">\n")
			for _, p := range d.Projects {
				m.raw("<li><a href=\"")
				m.href(projectPath(p.ID))
				m.raw("\">")
				m.text(p.Name)
				m.raw("</a>")
				if status := statusBadge(p, d); status != nil {
					m.raw(" ")
					m.render(status)
				}
				m.raw("</li>\n")
			}
			m.raw("</ul>\n")
		}
		m.raw("<a class=\"button\" href=\"/projects/new\">New Project</a>\n")
	}))
}

// statusBadge is Completed, Late or nothing.
func statusBadge(p *models.Project, d Data) templ.Component {
	switch {
	case p.IsCompleted():
		return badge("success", "Completed")
	case p.Late(d.Now):
		return badge("danger", "Late")
	}
	return nil
}

func badge(kind, label string) templ.Component {
	return component(func(m *markup) {
		m.raw("<span class=\"badge badge-")
		m.text(kind)
		m.raw("\">")
		m.text(label)
		m.raw("</span>")
	})
}
