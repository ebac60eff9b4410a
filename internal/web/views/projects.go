package views

import (
	"github.com/a-h/templ"
)

func ProjectsIndex(d Data) templ.Component {
	d.Title = "Projects"
	return page(d, component(func(m *markup) {
		m.raw("<h1>Projects</h1>\n<table class=\"table\">\n")
		m.raw("<thead><tr><th>Name</th><th>Due</th><th>Status</th></tr></thead>\n<tbody>\n")
		for _, p := range d.Projects {
			m.raw("<tr>\n<td><a href=\"")
			m.href(projectPath(p.ID))
			m.raw("\">")
			m.text(p.Name)
			m.raw("</a></td>\n<td>")
			m.text(date(p.DueOn))
			m.raw("</td>\n<td>")
			if status := statusBadge(p, d); status != nil {
				m.render(status)
			}
			m.raw("</td>\n</tr>\n")
		}
		if len(d.Projects) == 0 {
			m.raw("<tr><td colspan=\"3\">No projects yet.</td></tr>\n")
		}
		m.raw("</tbody>\n</table>\n<a class=\"button\" href=\"/projects/new\">New Project</a>\n")
	}))
}

// ProjectForm renders the new form, or the edit form when d.Project has an id.
func ProjectForm(d Data) templ.Component {
	d.Title = "New Project"
	editing := d.Project != nil && d.Project.ID != ""
	if editing {
		d.Title = "Editing Project"
	}
	return page(d, component(func(m *markup) {
		m.raw("<h1>")
		m.text(d.Title)
		m.raw("</h1>\n")
		m.render(ErrorList(d.Errors))
		p := d.Project
		if p == nil {
			return
		}

		action := "/projects"
		if editing {
			action = projectPath(p.ID)
		}
		m.raw("<form method=\"post\" action=\"")
		m.href(action)
		m.raw("\" class=\"form\">\n")
		m.render(CSRFInput(d.CSRFToken))
		if editing {
			m.raw("<input type=\"hidden\" name=\"_method\" value=\"patch\">\n")
		}
		m.raw("<label for=\"project_name\">Name</label>\n")
		m.raw("<input type=\"text\" id=\"project_name\" name=\"name\" value=\"")
		m.text(p.Name)
		m.raw("\">\n<label for=\"project_description\">Description</label>\n")
		m.raw("<textarea id=\"project_description\" name=\"description\">")
		m.text(p.Description)
		m.raw("</textarea>\n<label for=\"project_due_on\">Due on</label>\n")
		m.raw("<input type=\"date\" id=\"project_due_on\" name=\"due_on\" value=\"")
		m.text(date(p.DueOn))
		m.raw("\">\n<button type=\"submit\">")
		if editing {
			m.raw("Update Project")
		} else {
			m.raw("Create Project")
		}
		m.raw("</button>\n</form>\n")

		if editing {
			m.raw("<a href=\"")
			m.href(projectPath(p.ID))
			m.raw("\">Show</a> | ")
		}
		m.raw("<a href=\"/projects\">Back</a>\n")
	}))
}

func ProjectShow(d Data) templ.Component {
	if d.Project != nil {
		d.Title = d.Project.Name
	}
	return page(d, component(func(m *markup) {
		p := d.Project
		if p == nil {
			return
		}
		path := projectPath(p.ID)

		m.raw("<h1>")
		m.text(p.Name)
		if p.IsCompleted() {
			m.raw(" ")
			m.render(badge("success", "Completed"))
		}
		if d.Late {
			m.raw(" ")
			m.render(badge("danger", "Late"))
		}
		m.raw("</h1>\n")
		if p.Description != "" {
			m.raw("<p class=\"description\">")
			m.text(p.Description)
			m.raw("</p>\n")
		}
		m.raw("<p>Due: ")
		if due := date(p.DueOn); due != "" {
			m.text(due)
		} else {
			m.raw("no due date")
		}
		m.raw("</p>\n")
		if d.Owner != nil {
			m.raw("<p>Owner: ")
			m.text(d.Owner.Name())
			m.raw("</p>\n")
		}

		m.raw("<div class=\"actions\">\n")
		if !p.IsCompleted() {
			m.render(methodForm(path+"/complete", "patch", d.CSRFToken, "", "Complete"))
		}
		m.raw("<a class=\"button\" href=\"")
		m.href(path + "/edit")
		m.raw("\">Edit</a>\n")
		m.render(methodForm(path, "delete", d.CSRFToken, "danger", "Delete"))
		m.raw("</div>\n")

		m.render(taskList(d, path))

		m.raw("<h2>Notes</h2>\n<form method=\"get\" action=\"")
		m.href(path + "/notes")
		m.raw("\" class=\"form inline\">\n")
		m.raw("<input type=\"search\" name=\"term\" placeholder=\"Search notes\">\n")
		m.raw("<button type=\"submit\">Search</button>\n</form>\n")
		m.render(NoteList(d.Notes, d.CSRFToken))
		m.raw("<form method=\"post\" action=\"")
		m.href(path + "/notes")
		m.raw("\" class=\"form\">\n")
		m.render(CSRFInput(d.CSRFToken))
		m.raw("<textarea name=\"message\" placeholder=\"Add a note\"></textarea>\n")
		m.raw("<button type=\"submit\">Add Note</button>\n</form>\n")
	}))
}

func taskList(d Data, path string) templ.Component {
	return component(func(m *markup) {
		m.raw("<h2>Tasks</h2>\n<ul class=\"tasks\">\n")
		for _, t := range d.Tasks {
			taskPath := path + "/tasks/" + t.ID
			if t.Done {
				m.raw("<li class=\"done\">\n")
				m.render(methodForm(taskPath+"/toggle", "patch", d.CSRFToken, "link", "☑"))
			} else {
				m.raw("<li>\n")
				m.render(methodForm(taskPath+"/toggle", "patch", d.CSRFToken, "link", "☐"))
			}
			m.text(t.Name)
			m.raw("\n")
			m.render(methodForm(taskPath, "delete", d.CSRFToken, "link", "Delete"))
			m.raw("</li>\n")
		}
		if len(d.Tasks) == 0 {
			m.raw("<li>No tasks.</li>\n")
		}
		m.raw("</ul>\n<form method=\"post\" action=\"")
		m.href(path + "/tasks")
		m.raw("\" class=\"form inline\">\n")
		m.render(CSRFInput(d.CSRFToken))
		m.raw("<input type=\"text\" name=\"name\" placeholder=\"New task\">\n")
		m.raw("<button type=\"submit\">Add Task</button>\n</form>\n")
	})
}
