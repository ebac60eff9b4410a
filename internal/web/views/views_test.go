package views

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-yellow-bee/projectboard/internal/models"
	"github.com/good-yellow-bee/projectboard/internal/web/session"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestLayout_Guest(t *testing.T) {
	body := renderString(t, Home(Data{}))

	assert.Contains(t, body, "<title>Projectboard</title>")
	assert.Contains(t, body, "Welcome to Projectboard")
	assert.Contains(t, body, `href="/users/sign_in"`)
	assert.NotContains(t, body, "Signed in as")
}

func TestLayout_SignedInWithFlash(t *testing.T) {
	user := &models.User{FirstName: "Aaron", LastName: "Sumner"}
	body := renderString(t, Home(Data{
		User:  user,
		Flash: &session.Flash{Kind: "notice", Message: "Project was successfully created."},
	}))

	assert.Contains(t, body, "Signed in as Aaron Sumner")
	assert.Contains(t, body, `class="flash flash-notice"`)
	assert.Contains(t, body, "Project was successfully created.")
	assert.Contains(t, body, "You have no projects yet.")
}

func TestProjectShow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, -1)
	project := &models.Project{ID: "p1", Name: "Test Project", Description: "Lorem", DueOn: &due}
	owner := &models.User{FirstName: "Aaron", LastName: "Sumner"}

	body := renderString(t, ProjectShow(Data{
		User:    owner,
		Now:     now,
		Project: project,
		Owner:   owner,
		Late:    project.Late(now),
		Tasks:   []*models.Task{{ID: "t1", ProjectID: "p1", Name: "Write specs"}},
		Notes:   []*models.Note{{ID: "n1", ProjectID: "p1", Message: "This is the first note."}},
	}))

	assert.Contains(t, body, "<title>Test Project | Projectboard</title>")
	assert.Contains(t, body, "Owner: Aaron Sumner")
	assert.Contains(t, body, "Late")
	assert.Contains(t, body, "2026-03-09")
	assert.Contains(t, body, `action="/projects/p1/complete"`)
	assert.Contains(t, body, "Write specs")
	assert.Contains(t, body, "This is the first note.")
	assert.NotContains(t, body, "badge-success")
}

func TestProjectShow_Completed(t *testing.T) {
	done := true
	project := &models.Project{ID: "p1", Name: "Done Project", Completed: &done}

	body := renderString(t, ProjectShow(Data{Project: project}))

	assert.Contains(t, body, "Completed")
	assert.NotContains(t, body, `action="/projects/p1/complete"`)
}

func TestProjectForm(t *testing.T) {
	body := renderString(t, ProjectForm(Data{Project: &models.Project{}, Errors: []string{"Name has already been taken"}}))
	assert.Contains(t, body, "New Project")
	assert.Contains(t, body, `action="/projects"`)
	assert.Contains(t, body, "1 error prohibited this record from being saved")
	assert.Contains(t, body, "Name has already been taken")

	body = renderString(t, ProjectForm(Data{Project: &models.Project{ID: "p1", Name: "Old"}}))
	assert.Contains(t, body, "Editing Project")
	assert.Contains(t, body, `action="/projects/p1"`)
	assert.Contains(t, body, `name="_method" value="patch"`)
	assert.Contains(t, body, `value="Old"`)
}

func TestNotesIndex(t *testing.T) {
	body := renderString(t, NotesIndex(Data{
		Term:  "first",
		Notes: []*models.Note{{ID: "n1", ProjectID: "p1", Message: "This is the first note."}},
	}))
	assert.Contains(t, body, `1 note matches "first"`)
	assert.Contains(t, body, "This is the first note.")

	body = renderString(t, NotesIndex(Data{Term: `<b>"x"</b>`}))
	assert.Contains(t, body, `0 notes match "&lt;b&gt;&#34;x&#34;&lt;/b&gt;"`)

	body = renderString(t, NotesIndex(Data{Term: "zzz"}))
	assert.Contains(t, body, "0 notes match")
	assert.Contains(t, body, "No notes.")
}

func TestSignUp_KeepsFormValues(t *testing.T) {
	body := renderString(t, SignUp(Data{Form: map[string]string{"first_name": "Aaron"}}))
	assert.Contains(t, body, `value="Aaron"`)
}

func TestEscapesUserContent(t *testing.T) {
	body := renderString(t, ProjectsIndex(Data{
		Projects: []*models.Project{{ID: "p1", Name: "<script>alert(1)</script>"}},
	}))
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestForms_CarryCSRFToken(t *testing.T) {
	user := &models.User{FirstName: "Aaron", LastName: "Sumner"}
	body := renderString(t, ProjectShow(Data{
		User:      user,
		CSRFToken: `tok+/="`,
		Project:   &models.Project{ID: "p1", Name: "Test Project"},
		Tasks:     []*models.Task{{ID: "t1", ProjectID: "p1", Name: "Write specs", Done: true}},
	}))

	assert.Contains(t, body, `name="gorilla.csrf.Token" value="tok+/=&#34;"`)
	assert.Contains(t, body, `action="/users/sign_out"`)
	assert.Contains(t, body, `name="_method" value="delete"`)
	assert.Contains(t, body, `<li class="done">`)
	assert.Contains(t, body, `action="/projects/p1/tasks/t1/toggle"`)
	assert.Contains(t, body, "No notes.")
}

func TestErrorList(t *testing.T) {
	assert.Empty(t, renderString(t, ErrorList(nil)))

	body := renderString(t, ErrorList([]string{"Name can't be blank", "Email is invalid"}))
	assert.Contains(t, body, "2 errors prohibited this record from being saved")
	assert.Contains(t, body, "<li>Email is invalid</li>")
}
