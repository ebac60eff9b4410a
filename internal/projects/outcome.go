package projects

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/good-yellow-bee/projectboard/internal/models"
	"github.com/good-yellow-bee/projectboard/internal/validation"
)

// Redirect targets.
const (
	SignInPath    = "/users/sign_in"
	DashboardPath = "/"
	ProjectsPath  = "/projects"
)

// ProjectPath returns the page of a single project.
func ProjectPath(id string) string {
	return fmt.Sprintf("/projects/%s", id)
}

// Outcome errors. Each one is handled here and reported on Outcome.Err so
// transports can map it to their own status codes.
var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrAuthorizationDenied    = errors.New("not authorized")
	ErrPersistenceRejected    = errors.New("persistence rejected")
	ErrNotFound               = errors.New("not found")
)

// View names a page to render.
type View string

const (
	ViewIndex View = "projects/index"
	ViewShow  View = "projects/show"
	ViewNew   View = "projects/new"
	ViewEdit  View = "projects/edit"
	ViewNotes View = "notes/index"
)

// FlashKind is the style of a one-shot message.
type FlashKind string

const (
	FlashNotice FlashKind = "notice"
	FlashAlert  FlashKind = "alert"
)

// Flash is a message shown once on the next page.
type Flash struct {
	Kind    FlashKind
	Message string
}

// Outcome describes what a transport should do after an operation: either
// redirect (Redirect set, Status 302) or render View with Status.
type Outcome struct {
	Status   int
	Redirect string
	View     View
	Flash    *Flash

	Project  *models.Project
	Projects []*models.Project
	Owner    *models.User
	Tasks    []*models.Task
	Notes    []*models.Note
	Term     string
	Late     bool
	Now      time.Time

	// Errors holds field messages when a form is re-rendered.
	Errors validation.Errors
	// Err is the taxonomy error behind a non-success outcome.
	Err error
}

// IsRedirect reports whether the outcome is a redirect.
func (o *Outcome) IsRedirect() bool {
	return o.Redirect != ""
}

func redirect(to string, flash *Flash, err error) *Outcome {
	return &Outcome{Status: http.StatusFound, Redirect: to, Flash: flash, Err: err}
}

func notice(msg string) *Flash { return &Flash{Kind: FlashNotice, Message: msg} }
func alert(msg string) *Flash  { return &Flash{Kind: FlashAlert, Message: msg} }

func signInRedirect() *Outcome {
	return redirect(SignInPath, alert("You need to sign in or sign up before continuing."), ErrAuthenticationRequired)
}

func dashboardRedirect() *Outcome {
	return redirect(DashboardPath, nil, ErrAuthorizationDenied)
}

func notFound() *Outcome {
	return &Outcome{Status: http.StatusNotFound, Err: ErrNotFound}
}

func render(view View, status int) *Outcome {
	return &Outcome{Status: status, View: view}
}
