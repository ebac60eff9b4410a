package views

import (
	"github.com/a-h/templ"

	"github.com/good-yellow-bee/projectboard/internal/models"
)

// NotesIndex lists search results, scoped to d.Project when it is set.
func NotesIndex(d Data) templ.Component {
	d.Title = "Notes"
	return page(d, component(func(m *markup) {
		action := "/notes"
		m.raw("<h1>")
		if d.Project != nil {
			action = projectPath(d.Project.ID) + "/notes"
			m.raw("Notes for ")
			m.text(d.Project.Name)
		} else {
			m.raw("Notes")
		}
		m.raw("</h1>\n<form method=\"get\" action=\"")
		m.href(action)
		m.raw("\" class=\"form inline\">\n<input type=\"search\" name=\"term\" value=\"")
		m.text(d.Term)
		m.raw("\" placeholder=\"Search notes\">\n<button type=\"submit\">Search</button>\n</form>\n")

		if d.Term != "" {
			m.raw("<p class=\"results\">")
			m.text(count(len(d.Notes), "note matches", "notes match"))
			m.raw(" \"")
			m.text(d.Term)
			m.raw("\"</p>\n")
		}
		m.render(NoteList(d.Notes, d.CSRFToken))
		if d.Project != nil {
			m.raw("<a href=\"")
			m.href(projectPath(d.Project.ID))
			m.raw("\">Back to project</a>\n")
		}
	}))
}

// NoteList renders notes with a delete button each.
func NoteList(notes []*models.Note, csrfToken string) templ.Component {
	return component(func(m *markup) {
		m.raw("<ul class=\"notes\">\n")
		for _, n := range notes {
			m.raw("<li>\n<p>")
			m.text(n.Message)
			m.raw("</p>\n<small>")
			m.text(n.CreatedAt.Format("Jan 2, 2006 15:04"))
			m.raw("</small>\n")
			m.render(methodForm(projectPath(n.ProjectID)+"/notes/"+n.ID, "delete", csrfToken, "link", "Delete"))
			m.raw("</li>\n")
		}
		if len(notes) == 0 {
			m.raw("<li class=\"empty\">No notes.</li>\n")
		}
		m.raw("</ul>\n")
	})
}
