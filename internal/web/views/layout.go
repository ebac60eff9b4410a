package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// csrfFieldName is the form field gorilla/csrf reads by default.
const csrfFieldName = "gorilla.csrf.Token"

// Layout wraps the page children with the document head, navigation and flash.
func Layout(d Data) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		children := templ.GetChildren(ctx)
		m := &markup{ctx: templ.ClearChildren(ctx), w: w}

		m.raw("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
		m.raw("  <meta charset=\"utf-8\">\n")
		m.raw("  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
		m.raw("  <title>")
		if d.Title != "" {
			m.text(d.Title)
			m.raw(" | ")
		}
		m.raw("Projectboard</title>\n")
		m.raw("  <link rel=\"stylesheet\" href=\"/static/app.css\">\n</head>\n<body>\n")

		m.raw("  <nav class=\"navbar\">\n    <a class=\"navbar-brand\" href=\"/\">Projectboard</a>\n")
		if d.User != nil {
			m.raw("    <a href=\"/projects\">Projects</a>\n    <a href=\"/notes\">Notes</a>\n")
			m.raw("    <span class=\"navbar-user\">Signed in as ")
			m.text(d.User.Name())
			m.raw("</span>\n")
			m.render(methodForm("/users/sign_out", "delete", d.CSRFToken, "link", "Sign out"))
		} else {
			m.raw("    <a href=\"/users/sign_in\">Sign in</a>\n    <a href=\"/users/sign_up\">Sign up</a>\n")
		}
		m.raw("  </nav>\n")

		if d.Flash != nil {
			m.raw("  <div class=\"flash flash-")
			m.text(d.Flash.Kind)
			m.raw("\" role=\"alert\">")
			m.text(d.Flash.Message)
			m.raw("</div>\n")
		}

		m.raw("  <main class=\"container\">\n")
		m.render(children)
		m.raw("  </main>\n</body>\n</html>\n")
		return m.err
	})
}

// CSRFInput is the hidden token field every mutating form carries.
func CSRFInput(token string) templ.Component {
	return component(func(m *markup) {
		m.raw("<input type=\"hidden\" name=\"" + csrfFieldName + "\" value=\"")
		m.text(token)
		m.raw("\">\n")
	})
}

// methodForm is a one-button form submitting method through the _method override.
func methodForm(action, method, token, buttonClass, label string) templ.Component {
	return component(func(m *markup) {
		m.raw("<form class=\"inline\" method=\"post\" action=\"")
		m.href(action)
		m.raw("\">\n")
		m.render(CSRFInput(token))
		m.raw("<input type=\"hidden\" name=\"_method\" value=\"")
		m.text(method)
		m.raw("\">\n<button type=\"submit\"")
		if buttonClass != "" {
			m.raw(" class=\"")
			m.text(buttonClass)
			m.raw("\"")
		}
		m.raw(">")
		m.text(label)
		m.raw("</button>\n</form>\n")
	})
}

// ErrorList explains why a record was not saved. Nothing renders without errors.
func ErrorList(errs []string) templ.Component {
	return component(func(m *markup) {
		if len(errs) == 0 {
			return
		}
		m.raw("<div class=\"errors\" id=\"error_explanation\">\n<h2>")
		m.text(count(len(errs), "error", "errors"))
		m.raw(" prohibited this record from being saved:</h2>\n<ul>")
		for _, e := range errs {
			m.raw("<li>")
			m.text(e)
			m.raw("</li>")
		}
		m.raw("</ul>\n</div>\n")
	})
}

// NotFound is the 404 page.
func NotFound(d Data) templ.Component {
	d.Title = "Not found"
	return page(d, component(func(m *markup) {
		m.raw("<h1>Not found</h1>\n")
		m.raw("<p>The page you were looking for doesn't exist.</p>\n")
		m.raw("<p><a href=\"/\">Back to the dashboard</a></p>\n")
	}))
}
