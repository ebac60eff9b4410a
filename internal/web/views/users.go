package views

import "github.com/a-h/templ"

func SignIn(d Data) templ.Component {
	d.Title = "Sign in"
	return page(d, component(func(m *markup) {
		m.raw("<h1>Sign in</h1>\n<form method=\"post\" action=\"/users/sign_in\" class=\"form\">\n")
		m.render(CSRFInput(d.CSRFToken))
		m.render(field("email", "email", "Email", d.Form["email"], " autofocus required"))
		m.raw("<label for=\"password\">Password</label>\n")
		m.raw("<input type=\"password\" id=\"password\" name=\"password\" required>\n")
		m.raw("<button type=\"submit\">Log in</button>\n</form>\n")
		m.raw("<p><a href=\"/users/sign_up\">Sign up</a></p>\n")
	}))
}

func SignUp(d Data) templ.Component {
	d.Title = "Sign up"
	return page(d, component(func(m *markup) {
		m.raw("<h1>Sign up</h1>\n")
		m.render(ErrorList(d.Errors))
		m.raw("<form method=\"post\" action=\"/users\" class=\"form\">\n")
		m.render(CSRFInput(d.CSRFToken))
		m.render(field("text", "first_name", "First name", d.Form["first_name"], " autofocus"))
		m.render(field("text", "last_name", "Last name", d.Form["last_name"], ""))
		m.render(field("email", "email", "Email", d.Form["email"], ""))
		m.raw("<label for=\"password\">Password</label>\n")
		m.raw("<input type=\"password\" id=\"password\" name=\"password\">\n")
		m.raw("<button type=\"submit\">Sign up</button>\n</form>\n")
		m.raw("<p><a href=\"/users/sign_in\">Log in</a></p>\n")
	}))
}

// field is a labelled input whose id matches its name. attrs is appended verbatim.
func field(kind, name, label, value, attrs string) templ.Component {
	return component(func(m *markup) {
		m.raw("<label for=\"" + name + "\">")
		m.text(label)
		m.raw("</label>\n<input type=\"" + kind + "\" id=\"" + name + "\" name=\"" + name + "\" value=\"")
		m.text(value)
		m.raw("\"" + attrs + ">\n")
	})
}
