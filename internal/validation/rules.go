package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/good-yellow-bee/projectboard/internal/models"
)

var fieldValidate = newFieldValidator()

func newFieldValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names; foreign keys drop the "_id" suffix
	// so a missing project is reported on "project".
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return strings.TrimSuffix(name, "_id")
	})
	mustRegister(v, "notblank", notBlank)
	mustRegister(v, "exists", notBlank)
	return v
}

// mustRegister panics when a custom tag cannot be registered; models would
// otherwise validate without the rule.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Struct runs the tag rules of a model and translates failures into Errors.
func Struct(v any) Errors {
	errs := Errors{}
	err := fieldValidate.Struct(v)
	if err == nil {
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add("base", err.Error())
		return errs
	}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return MsgBlank
	case "exists":
		return MsgMustExist
	case "max":
		return fmt.Sprintf("is too long (maximum is %s characters)", fe.Param())
	default:
		return MsgInvalid
	}
}

// ValidateProject checks the field rules of a project.
func ValidateProject(p *models.Project) Errors {
	return Struct(p)
}

// ValidateTask checks the field rules of a task.
func ValidateTask(t *models.Task) Errors {
	return Struct(t)
}

// ValidateNote checks the field rules of a note.
func ValidateNote(n *models.Note) Errors {
	return Struct(n)
}

// ValidateUser checks the field rules of a user.
func ValidateUser(u *models.User) Errors {
	return Struct(u)
}
